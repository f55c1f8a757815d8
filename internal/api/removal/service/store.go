package rmvsvc

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"tpos_commerce/core/common"
	"tpos_commerce/core/logger"
	"tpos_commerce/internal/api/removal/models"
	"tpos_commerce/internal/notecodec"
	"tpos_commerce/internal/tpos"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderFetcher là phần của TPOS client mà store phiên gỡ cần:
// đọc đơn hàng đầy đủ để kiểm tra tình trạng sản phẩm trước khi gỡ.
type OrderFetcher interface {
	GetOrderByID(ctx context.Context, orderID int64) (*tpos.Order, error)
	GetOrderBySTT(ctx context.Context, stt string) (*tpos.Order, error)
}

// OrderInfoSource tra cứu thông tin đơn hàng theo STT từ cache cục bộ
type OrderInfoSource interface {
	Lookup(ctx context.Context, stt string) (tpos.OrderSummary, bool)
}

// Store quản lý danh sách yêu cầu gỡ sản phẩm trong bộ nhớ với cùng
// chiến lược persist như phiên gán: thêm debounce, xóa ghi ngay.
// Khi thêm yêu cầu, đơn hàng được tra lại từ TPOS để snapshot tình trạng
// hiện tại của sản phẩm (số lượng trong sổ cái, line-item, giá).
type Store struct {
	mu    sync.Mutex
	items []models.RemovalItem

	persister StatePersister
	fetcher   OrderFetcher
	orders    OrderInfoSource
	codec     *notecodec.Codec

	saveDelay time.Duration
	saveTimer *time.Timer
}

// NewStore tạo store phiên gỡ. saveDelay <= 0 dùng mặc định 1 giây.
func NewStore(persister StatePersister, fetcher OrderFetcher, orders OrderInfoSource, codec *notecodec.Codec, saveDelay time.Duration) *Store {
	if saveDelay <= 0 {
		saveDelay = time.Second
	}
	return &Store{
		items:     []models.RemovalItem{},
		persister: persister,
		fetcher:   fetcher,
		orders:    orders,
		codec:     codec,
		saveDelay: saveDelay,
	}
}

// Load nạp trạng thái phiên gỡ từ persister.
// Không có blob hoặc blob hỏng thì bắt đầu rỗng.
func (s *Store) Load(ctx context.Context) error {
	state, err := s.persister.Load(ctx)
	if err != nil {
		if err == common.ErrNotFound {
			s.mu.Lock()
			s.items = []models.RemovalItem{}
			s.mu.Unlock()
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.items = state.Items
	s.mu.Unlock()

	logger.WithModule("removal").WithFields(map[string]interface{}{
		"itemCount": len(state.Items),
	}).Info("🔄 [INIT] Đã nạp phiên gỡ từ MongoDB")
	return nil
}

// Items trả về bản sao danh sách yêu cầu gỡ hiện tại
func (s *Store) Items() []models.RemovalItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RemovalItem, len(s.items))
	copy(out, s.items)
	return out
}

// AddItem thêm một yêu cầu gỡ sản phẩm khỏi vé. Đơn hàng được tra lại từ TPOS
// (cache trước, point-query khi cache miss) để snapshot tình trạng hiện tại:
// số lượng trong sổ cái, line-item tương ứng và đơn giá. productID bỏ trống
// thì tra từ line-item trên đơn theo mã. Yêu cầu không hợp lệ (sản phẩm không
// có trong sổ cái, số lượng vượt quá) vẫn được thêm với CanRemove = false
// để người vận hành thấy và tự xử lý.
func (s *Store) AddItem(ctx context.Context, stt string, productID int64, productCode string, quantity int, removeAll bool) (*models.RemovalItem, error) {
	stt = strings.TrimSpace(stt)
	productCode = strings.TrimSpace(productCode)
	if stt == "" || productCode == "" {
		return nil, common.NewError(common.ErrCodeValidationInput, "STT và mã sản phẩm không được để trống", common.StatusBadRequest, nil)
	}
	if quantity <= 0 {
		quantity = 1
	}

	order, orderInfo, err := s.resolveOrder(ctx, stt)
	if err != nil {
		return nil, err
	}

	details, resolvedID := s.inspectProduct(order, productID, productCode, quantity, removeAll)

	item := models.RemovalItem{
		ID:          primitive.NewObjectID().Hex(),
		Stt:         stt,
		ProductID:   resolvedID,
		ProductCode: productCode,
		Quantity:    quantity,
		RemoveAll:   removeAll,
		OrderInfo:   orderInfo,
		Details:     details,
		AddedAt:     time.Now().UnixMilli(),
	}
	if details.LineID != nil {
		item.ProductName = lineProductName(order, *details.LineID)
	}

	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()

	s.scheduleSave()

	logger.WithModule("removal").WithFields(map[string]interface{}{
		"stt":         stt,
		"productCode": productCode,
		"canRemove":   details.CanRemove,
	}).Info("Đã thêm yêu cầu gỡ sản phẩm")
	return &item, nil
}

// RemoveItem gỡ một yêu cầu khỏi phiên gỡ. Ghi xuống persister ngay.
func (s *Store) RemoveItem(ctx context.Context, itemID string) error {
	s.mu.Lock()
	idx := -1
	for i, item := range s.items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return common.ErrNotFound
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.mu.Unlock()

	return s.saveNow(ctx)
}

// BuildRemovalBatches gom các yêu cầu gỡ thành batch theo vé, sort theo STT
// tăng dần. Yêu cầu CanRemove = false vẫn vào batch: reconciler bỏ qua chúng
// kèm lý do trong kết quả vé, thay vì lọc âm thầm ở đây.
func (s *Store) BuildRemovalBatches(selectedStt []string) []models.RemovalBatch {
	selected := make(map[string]bool, len(selectedStt))
	for _, stt := range selectedStt {
		selected[stt] = true
	}

	s.mu.Lock()
	batches := make(map[string]*models.RemovalBatch)
	for _, item := range s.items {
		if len(selected) > 0 && !selected[item.Stt] {
			continue
		}
		batch, ok := batches[item.Stt]
		if !ok {
			batch = &models.RemovalBatch{Stt: item.Stt, OrderInfo: item.OrderInfo}
			batches[item.Stt] = batch
		}
		batch.Items = append(batch.Items, item)
	}
	s.mu.Unlock()

	result := make([]models.RemovalBatch, 0, len(batches))
	for _, batch := range batches {
		result = append(result, *batch)
	}
	sort.Slice(result, func(i, j int) bool {
		return compareSttRemoval(result[i].Stt, result[j].Stt) < 0
	})
	return result
}

// RemoveProcessedItems gỡ các yêu cầu của những vé đã xử lý thành công.
// Ghi xuống persister ngay.
func (s *Store) RemoveProcessedItems(ctx context.Context, stts []string) error {
	processed := make(map[string]bool, len(stts))
	for _, stt := range stts {
		processed[stt] = true
	}

	s.mu.Lock()
	kept := s.items[:0]
	for _, item := range s.items {
		if processed[item.Stt] {
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept
	s.mu.Unlock()

	return s.saveNow(ctx)
}

// Clear xóa toàn bộ phiên gỡ và blob đã lưu
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.items = []models.RemovalItem{}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.mu.Unlock()

	return s.persister.Delete(ctx)
}

// Flush ghi ngay mọi thay đổi đang chờ debounce
func (s *Store) Flush(ctx context.Context) error {
	return s.saveNow(ctx)
}

// resolveOrder lấy đơn hàng đầy đủ theo STT: orderId từ cache thì query theo Id,
// cache miss thì point-query TPOS theo SessionIndex.
func (s *Store) resolveOrder(ctx context.Context, stt string) (*tpos.Order, tpos.OrderSummary, error) {
	if info, found := s.orders.Lookup(ctx, stt); found && info.OrderID != 0 {
		order, err := s.fetcher.GetOrderByID(ctx, info.OrderID)
		if err != nil {
			return nil, tpos.OrderSummary{}, err
		}
		return order, info, nil
	}

	logger.WithModule("removal").WithField("stt", stt).
		Info("STT không có trong cache, point-query TPOS theo SessionIndex")

	order, err := s.fetcher.GetOrderBySTT(ctx, stt)
	if err != nil {
		return nil, tpos.OrderSummary{}, err
	}
	info := tpos.OrderSummary{
		Stt:          order.SessionIndex,
		OrderID:      order.Id,
		CustomerName: order.Name,
		Phone:        order.Telephone,
		Address:      order.Address,
		TotalAmount:  order.TotalAmount,
		Note:         order.Note,
		Quantity:     order.TotalQuantity,
	}
	return order, info, nil
}

// inspectProduct kiểm tra tình trạng sản phẩm trên đơn: có trong sổ cái không,
// số lượng hiện tại đủ gỡ không, và line-item tương ứng trên TPOS.
// Line-item định vị theo product id khi đã biết, theo mã khi chưa;
// trả về product id đã resolve từ line để gỡ sau này khỏi phải đoán theo mã.
func (s *Store) inspectProduct(order *tpos.Order, productID int64, productCode string, quantity int, removeAll bool) (models.CurrentProductDetails, int64) {
	details := models.CurrentProductDetails{}

	var ledgerLine *notecodec.ProductLine
	for _, line := range s.codec.ExtractLedger(order.Note) {
		if line.Code == productCode {
			found := line
			ledgerLine = &found
			break
		}
	}

	if ledgerLine == nil {
		details.Reason = "Sản phẩm không có trong sổ cái của đơn"
		return details, productID
	}

	details.CurrentQuantity = ledgerLine.Quantity
	details.UnitPrice = ledgerLine.Price

	for _, line := range order.Details {
		match := line.ProductId == productID
		if productID == 0 {
			match = line.ProductCode == productCode
		}
		if !match {
			continue
		}
		productID = line.ProductId
		if line.Id != nil {
			details.LineID = line.Id
		}
		break
	}

	if !removeAll && quantity > ledgerLine.Quantity {
		details.Reason = fmt.Sprintf("Số lượng gỡ (%d) vượt quá số lượng hiện có (%d)", quantity, ledgerLine.Quantity)
		return details, productID
	}

	details.CanRemove = true
	return details, productID
}

func lineProductName(order *tpos.Order, lineID int64) string {
	for _, line := range order.Details {
		if line.Id != nil && *line.Id == lineID {
			return line.ProductName
		}
	}
	return ""
}

func (s *Store) scheduleSave() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.saveDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.saveNow(ctx); err != nil {
			logger.WithModule("removal").WithError(err).Error("Ghi debounce phiên gỡ thất bại")
		}
	})
}

func (s *Store) saveNow(ctx context.Context) error {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	items := make([]models.RemovalItem, len(s.items))
	copy(items, s.items)
	s.mu.Unlock()

	return s.persister.Save(ctx, &models.StoreState{Items: items, Version: 1})
}

func compareSttRemoval(a, b string) int {
	numA, errA := strconv.Atoi(a)
	numB, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		switch {
		case numA < numB:
			return -1
		case numA > numB:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
