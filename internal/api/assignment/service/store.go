package asgsvc

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
	"tpos_commerce/internal/api/assignment/models"
	"tpos_commerce/internal/tpos"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductFetcher là phần của TPOS client mà store phiên gán cần:
// đọc sản phẩm và danh sách biến thể của nó.
type ProductFetcher interface {
	GetProductByID(ctx context.Context, productID int64) (*tpos.Product, error)
	GetProductVariants(ctx context.Context, templateID int64) ([]tpos.Product, error)
}

// OrderInfoSource tra cứu thông tin đơn hàng theo STT từ cache cục bộ
type OrderInfoSource interface {
	Lookup(ctx context.Context, stt string) (tpos.OrderSummary, bool)
}

// Store quản lý trạng thái phiên gán sản phẩm-vé trong bộ nhớ,
// ghi xuống persister theo kiểu debounce: thao tác thêm gom lại trong một
// cửa sổ ngắn, thao tác xóa ghi ngay để tránh mất dữ liệu khi tắt đột ngột.
type Store struct {
	mu          sync.Mutex
	assignments []models.Assignment

	persister StatePersister
	products  ProductFetcher
	orders    OrderInfoSource

	saveDelay time.Duration
	saveTimer *time.Timer
}

// NewStore tạo store phiên gán. saveDelay <= 0 dùng mặc định 1 giây.
func NewStore(persister StatePersister, products ProductFetcher, orders OrderInfoSource, saveDelay time.Duration) *Store {
	if saveDelay <= 0 {
		saveDelay = time.Second
	}
	return &Store{
		assignments: []models.Assignment{},
		persister:   persister,
		products:    products,
		orders:      orders,
		saveDelay:   saveDelay,
	}
}

// Load nạp trạng thái phiên gán từ persister vào bộ nhớ.
// Không có blob hoặc blob hỏng thì bắt đầu với phiên rỗng.
func (s *Store) Load(ctx context.Context) error {
	state, err := s.persister.Load(ctx)
	if err != nil {
		if err == common.ErrNotFound {
			s.mu.Lock()
			s.assignments = []models.Assignment{}
			s.mu.Unlock()
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.assignments = state.Assignments
	s.mu.Unlock()

	logger.WithModule("assignment").WithFields(map[string]interface{}{
		"productCount": len(state.Assignments),
	}).Info("🔄 [INIT] Đã nạp phiên gán từ MongoDB")
	return nil
}

// Assignments trả về bản sao trạng thái hiện tại
func (s *Store) Assignments() []models.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAssignments(s.assignments)
}

// AddProduct thêm sản phẩm vào phiên gán. Khi autoExpand bật và sản phẩm
// có nhiều biến thể active thì thêm tất cả biến thể theo thứ tự hiển thị chuẩn.
// Trả về danh sách đã thêm và số lượng bị bỏ qua vì trùng.
func (s *Store) AddProduct(ctx context.Context, productID int64, autoExpand bool) ([]models.Assignment, int, error) {
	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, 0, err
	}

	candidates := []tpos.Product{*product}
	if autoExpand && product.ProductTmplId != 0 {
		variants, err := s.products.GetProductVariants(ctx, product.ProductTmplId)
		if err != nil {
			logger.WithModule("assignment").WithError(err).
				Warn("Không lấy được biến thể, chỉ thêm sản phẩm gốc")
		} else if len(variants) > 1 {
			SortVariants(variants)
			candidates = variants
		}
	}

	s.mu.Lock()
	existing := make(map[int64]bool, len(s.assignments))
	for _, a := range s.assignments {
		existing[a.ProductID] = true
	}

	added := make([]models.Assignment, 0, len(candidates))
	skipped := 0
	for _, p := range candidates {
		if existing[p.Id] {
			skipped++
			continue
		}
		assignment := models.Assignment{
			ID:          primitive.NewObjectID().Hex(),
			ProductID:   p.Id,
			ProductName: productDisplayName(p),
			ProductCode: p.DefaultCode,
			ImageURL:    p.ImageUrl,
			UOMId:       p.UOMId,
			UOMName:     p.UOMName,
			SttList:     []models.TicketLink{},
		}
		s.assignments = append(s.assignments, assignment)
		existing[p.Id] = true
		added = append(added, assignment)
	}
	s.mu.Unlock()

	if len(added) > 0 {
		s.scheduleSave()
	}

	logger.WithModule("assignment").WithFields(map[string]interface{}{
		"productId": productID,
		"added":     len(added),
		"skipped":   skipped,
	}).Info("Đã thêm sản phẩm vào phiên gán")
	return added, skipped, nil
}

// RemoveProduct xóa hẳn một sản phẩm khỏi phiên gán cùng tất cả vé đã gán.
// Xóa được ghi xuống persister ngay, không debounce.
func (s *Store) RemoveProduct(ctx context.Context, assignmentID string) error {
	s.mu.Lock()
	idx := s.indexOfLocked(assignmentID)
	if idx < 0 {
		s.mu.Unlock()
		return common.ErrNotFound
	}
	s.assignments = append(s.assignments[:idx], s.assignments[idx+1:]...)
	s.mu.Unlock()

	return s.saveNow(ctx)
}

// AddTicket gán một vé (STT) vào sản phẩm. Cùng STT gán nhiều lần nghĩa là
// khách đặt nhiều đơn vị. Thông tin đơn lấy từ cache cục bộ; cache miss thì
// vẫn gán với STT trần.
func (s *Store) AddTicket(ctx context.Context, assignmentID, stt string) (*models.Assignment, error) {
	stt = strings.TrimSpace(stt)
	if stt == "" {
		return nil, common.NewError(common.ErrCodeValidationInput, "STT không được để trống", common.StatusBadRequest, nil)
	}

	orderInfo, found := s.orders.Lookup(ctx, stt)
	if !found {
		orderInfo = tpos.OrderSummary{Stt: stt}
		logger.WithModule("assignment").WithField("stt", stt).
			Warn("STT không có trong cache đơn hàng, gán với thông tin rỗng")
	}

	s.mu.Lock()
	idx := s.indexOfLocked(assignmentID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, common.ErrNotFound
	}
	s.assignments[idx].SttList = append(s.assignments[idx].SttList, models.TicketLink{
		Stt:       stt,
		OrderInfo: orderInfo,
		AddedAt:   time.Now().UnixMilli(),
	})
	result := copyAssignment(s.assignments[idx])
	s.mu.Unlock()

	s.scheduleSave()
	return &result, nil
}

// RemoveTicketAt gỡ một liên kết vé theo vị trí trong SttList.
// Gỡ theo index (không theo STT) vì cùng STT có thể xuất hiện nhiều lần
// và mỗi lần là một đơn vị riêng. Xóa ghi xuống persister ngay.
func (s *Store) RemoveTicketAt(ctx context.Context, assignmentID string, index int) error {
	s.mu.Lock()
	idx := s.indexOfLocked(assignmentID)
	if idx < 0 {
		s.mu.Unlock()
		return common.ErrNotFound
	}
	list := s.assignments[idx].SttList
	if index < 0 || index >= len(list) {
		s.mu.Unlock()
		return common.NewError(common.ErrCodeValidationInput,
			fmt.Sprintf("Vị trí vé %d không hợp lệ (0..%d)", index, len(list)-1),
			common.StatusBadRequest, nil)
	}
	s.assignments[idx].SttList = append(list[:index], list[index+1:]...)
	s.mu.Unlock()

	return s.saveNow(ctx)
}

// BuildUploadSessions gom trạng thái gán thành danh sách phiên upload theo vé.
// selectedStt rỗng nghĩa là lấy tất cả. Kết quả sort theo STT tăng dần
// (so sánh số khi cả hai là số) để reconciler xử lý theo thứ tự ổn định.
func (s *Store) BuildUploadSessions(selectedStt []string) []models.UploadSession {
	selected := make(map[string]bool, len(selectedStt))
	for _, stt := range selectedStt {
		selected[stt] = true
	}

	s.mu.Lock()
	sessions := make(map[string]*models.UploadSession)
	for _, a := range s.assignments {
		for _, link := range a.SttList {
			if len(selected) > 0 && !selected[link.Stt] {
				continue
			}
			sess, ok := sessions[link.Stt]
			if !ok {
				sess = &models.UploadSession{Stt: link.Stt, OrderInfo: link.OrderInfo}
				sessions[link.Stt] = sess
			}
			addSessionProduct(sess, a)
		}
	}
	s.mu.Unlock()

	result := make([]models.UploadSession, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, *sess)
	}
	sort.Slice(result, func(i, j int) bool {
		return compareStt(result[i].Stt, result[j].Stt) < 0
	})
	return result
}

// RemoveUploadedTickets gỡ tất cả liên kết của các vé đã upload thành công.
// Sản phẩm hết sạch vé cũng bị gỡ khỏi phiên; vé thất bại giữ nguyên để retry.
// Ghi xuống persister ngay.
func (s *Store) RemoveUploadedTickets(ctx context.Context, stts []string) error {
	uploaded := make(map[string]bool, len(stts))
	for _, stt := range stts {
		uploaded[stt] = true
	}

	s.mu.Lock()
	removed := 0
	keptAssignments := s.assignments[:0]
	for i := range s.assignments {
		kept := s.assignments[i].SttList[:0]
		for _, link := range s.assignments[i].SttList {
			if uploaded[link.Stt] {
				removed++
				continue
			}
			kept = append(kept, link)
		}
		s.assignments[i].SttList = kept
		if len(kept) == 0 {
			continue
		}
		keptAssignments = append(keptAssignments, s.assignments[i])
	}
	s.assignments = keptAssignments
	s.mu.Unlock()

	logger.WithModule("assignment").WithFields(map[string]interface{}{
		"ticketCount": len(stts),
		"linkRemoved": removed,
	}).Info("Đã gỡ các vé upload thành công khỏi phiên gán")
	return s.saveNow(ctx)
}

// Clear xóa toàn bộ phiên gán và blob đã lưu (finalize phiên live)
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.assignments = []models.Assignment{}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.mu.Unlock()

	return s.persister.Delete(ctx)
}

// Flush ghi ngay mọi thay đổi đang chờ debounce (gọi khi shutdown)
func (s *Store) Flush(ctx context.Context) error {
	return s.saveNow(ctx)
}

// scheduleSave đặt lại cửa sổ debounce; ghi xảy ra sau saveDelay kể từ
// thao tác thêm cuối cùng
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
			logger.WithModule("assignment").WithError(err).Error("Ghi debounce phiên gán thất bại")
		}
	})
}

// saveNow ghi trạng thái hiện tại xuống persister ngay lập tức
func (s *Store) saveNow(ctx context.Context) error {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	state := &models.StoreState{
		Assignments: copyAssignments(s.assignments),
		Version:     1,
	}
	s.mu.Unlock()

	return s.persister.Save(ctx, state)
}

func (s *Store) indexOfLocked(assignmentID string) int {
	for i, a := range s.assignments {
		if a.ID == assignmentID {
			return i
		}
	}
	return -1
}

func addSessionProduct(sess *models.UploadSession, a models.Assignment) {
	for i := range sess.Products {
		if sess.Products[i].ProductID == a.ProductID {
			sess.Products[i].Quantity++
			return
		}
	}
	sess.Products = append(sess.Products, models.SessionProduct{
		ProductID:   a.ProductID,
		ProductName: a.ProductName,
		ProductCode: a.ProductCode,
		ImageURL:    a.ImageURL,
		UOMId:       a.UOMId,
		UOMName:     a.UOMName,
		Quantity:    1,
	})
}

// compareStt so sánh hai STT: cả hai là số thì so giá trị, ngược lại so chuỗi
func compareStt(a, b string) int {
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

func productDisplayName(p tpos.Product) string {
	if p.NameGet != "" {
		return p.NameGet
	}
	return p.Name
}

func copyAssignment(a models.Assignment) models.Assignment {
	out := a
	out.SttList = make([]models.TicketLink, len(a.SttList))
	copy(out.SttList, a.SttList)
	return out
}

func copyAssignments(list []models.Assignment) []models.Assignment {
	out := make([]models.Assignment, len(list))
	for i, a := range list {
		out[i] = copyAssignment(a)
	}
	return out
}
