package rcsvc

import (
	"context"
	"fmt"

	"tpos_commerce/core/common"
	"tpos_commerce/core/logger"
	asgmodels "tpos_commerce/internal/api/assignment/models"
	histmodels "tpos_commerce/internal/api/history/models"
	"tpos_commerce/internal/notecodec"
	"tpos_commerce/internal/tpos"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UploadService merge các phiên gán vào đơn hàng TPOS tương ứng.
// Các vé được xử lý tuần tự theo thứ tự đầu vào; một vé lỗi không chặn
// các vé còn lại. Mỗi vé có đúng một bản ghi kết quả.
type UploadService struct {
	client   OrderClient
	products ProductReader
	codec    *notecodec.Codec
	history  HistoryAppender
	lineNote string // Ghi chú gắn vào line-item mới tạo, đánh dấu nguồn gốc từ phiên live
}

func NewUploadService(client OrderClient, products ProductReader, codec *notecodec.Codec, history HistoryAppender, lineNote string) *UploadService {
	return &UploadService{
		client:   client,
		products: products,
		codec:    codec,
		history:  history,
		lineNote: lineNote,
	}
}

// ProcessBatch xử lý tuần tự các phiên upload, ghi lịch sử và trả về kết quả batch.
// snapshot là bản sao toàn bộ phiên gán TRƯỚC khi dọn vé thành công -
// cơ chế tra soát/khôi phục duy nhất, được lưu nguyên vào bản ghi lịch sử.
func (s *UploadService) ProcessBatch(ctx context.Context, sessions []asgmodels.UploadSession, snapshot interface{}) (*BatchResult, error) {
	batchID := primitive.NewObjectID().Hex()
	log := logger.WithModule("reconcile").WithField("batchId", batchID)
	log.WithField("ticketCount", len(sessions)).Info("📤 [UPLOAD] Bắt đầu xử lý batch upload")

	result := &BatchResult{BatchID: batchID}
	for _, session := range sessions {
		outcome := s.processSession(ctx, session)
		result.Tickets = append(result.Tickets, outcome)
		if outcome.Success {
			result.SucceededStt = append(result.SucceededStt, outcome.Stt)
		}
	}

	result.Status = deriveStatus(len(result.SucceededStt), len(sessions))

	record := histmodels.HistoryRecord{
		Kind:         histmodels.KindUpload,
		BatchID:      batchID,
		Status:       result.Status,
		TotalTickets: len(sessions),
		SuccessCount: len(result.SucceededStt),
		FailureCount: len(sessions) - len(result.SucceededStt),
		Tickets:      result.Tickets,
		Snapshot:     snapshot,
	}
	saved, err := s.history.Append(ctx, record)
	if err != nil {
		// Batch đã thực thi xong - lỗi ghi lịch sử không làm hỏng kết quả
		log.WithError(err).Error("📤 [UPLOAD] Ghi lịch sử batch thất bại")
	} else {
		result.HistoryID = saved.ID.Hex()
	}

	log.WithFields(map[string]interface{}{
		"status":  result.Status,
		"success": len(result.SucceededStt),
		"failed":  len(sessions) - len(result.SucceededStt),
	}).Info("📤 [UPLOAD] Batch upload hoàn tất")
	return result, nil
}

// processSession merge một phiên upload vào đơn hàng của vé.
// Thứ tự nghiêm ngặt: resolve đơn → snapshot line-items trước merge →
// resolve giá tất cả sản phẩm → build Details và ghi chú → PUT.
// Thiếu giá bán là lỗi cứng, hủy vé trước khi có bất kỳ thao tác ghi nào.
func (s *UploadService) processSession(ctx context.Context, session asgmodels.UploadSession) histmodels.TicketOutcome {
	log := logger.WithModule("reconcile").WithField("stt", session.Stt)

	// Vé thất bại luôn mang existingProducts rỗng
	outcome := histmodels.TicketOutcome{Stt: session.Stt, ExistingProducts: []tpos.OrderLine{}}

	order, err := s.resolveOrder(ctx, session)
	if err != nil {
		log.WithError(err).Error("📤 [UPLOAD] Không resolve được đơn hàng của vé")
		outcome.ErrorMessage = err.Error()
		return outcome
	}
	outcome.OrderID = order.Id

	// Snapshot line-items trước merge cho tra soát và cảnh báo "đã có trên đơn"
	existing := make([]tpos.OrderLine, len(order.Details))
	copy(existing, order.Details)

	// Resolve giá bán cho toàn bộ sản phẩm trước khi đụng vào đơn
	priced := make([]pricedProduct, 0, len(session.Products))
	for _, sp := range session.Products {
		product, err := s.products.GetProductByID(ctx, sp.ProductID)
		if err != nil {
			log.WithError(err).WithField("productId", sp.ProductID).
				Error("📤 [UPLOAD] Không đọc được sản phẩm từ TPOS")
			outcome.ErrorMessage = err.Error()
			return outcome
		}
		price, err := resolveSalePrice(product)
		if err != nil {
			log.WithError(err).WithField("productId", sp.ProductID).
				Error("📤 [UPLOAD] Sản phẩm không có giá bán hợp lệ, hủy vé")
			outcome.ErrorMessage = err.Error()
			return outcome
		}
		priced = append(priced, pricedProduct{session: sp, product: product, price: price})
	}

	// Merge line-items: sản phẩm đã có trên đơn thì cộng dồn số lượng
	// và ghi đè ghi chú bằng staged note (mặc định khi không staged)
	ledgerLines := make([]notecodec.ProductLine, 0, len(priced))
	batchProducts := make(map[int64]bool, len(priced))
	for _, pp := range priced {
		batchProducts[pp.session.ProductID] = true
		merged := false
		for i := range order.Details {
			if order.Details[i].ProductId == pp.session.ProductID {
				order.Details[i].Quantity += pp.session.Quantity
				order.Details[i].Note = s.stagedNote(session, pp.session.ProductID)
				merged = true
				break
			}
		}
		if !merged {
			order.Details = append(order.Details, tpos.OrderLine{
				ProductId:   pp.session.ProductID,
				ProductName: pp.session.ProductName,
				ProductCode: pp.code(),
				UOMId:       pp.product.UOMId,
				UOMName:     pp.product.UOMName,
				Quantity:    pp.session.Quantity,
				Price:       pp.price,
				Note:        s.stagedNote(session, pp.session.ProductID),
				ImageUrl:    pp.session.ImageURL,
			})
		}

		ledgerLines = append(ledgerLines, notecodec.ProductLine{
			Code:     pp.code(),
			Quantity: pp.session.Quantity,
			Price:    pp.price,
		})
		outcome.Products = append(outcome.Products, histmodels.ProductOutcome{
			ProductID:   pp.session.ProductID,
			ProductCode: pp.code(),
			ProductName: pp.session.ProductName,
			Quantity:    pp.session.Quantity,
			Price:       pp.price,
		})
	}

	// Line không nằm trong batch nhưng được staged ghi chú ở preview
	// vẫn bị ghi đè, dù số lượng không đổi
	for i := range order.Details {
		if batchProducts[order.Details[i].ProductId] {
			continue
		}
		if note, staged := session.StagedNotes[order.Details[i].ProductId]; staged {
			order.Details[i].Note = note
		}
	}

	// TPOS thay thế nguyên document: mọi line phải trỏ đúng OrderId
	for i := range order.Details {
		order.Details[i].OrderId = order.Id
	}

	order.Note = s.codec.ProcessNoteForUpload(order.Note, ledgerLines)
	order.TotalQuantity = 0
	order.TotalAmount = 0
	for _, line := range order.Details {
		order.TotalQuantity += line.Quantity
		order.TotalAmount += float64(line.Quantity) * line.Price
	}

	if err := s.client.UpdateOrder(ctx, order); err != nil {
		log.WithError(err).Error("📤 [UPLOAD] PUT đơn hàng thất bại")
		outcome.ErrorMessage = err.Error()
		outcome.Products = nil
		return outcome
	}

	outcome.Success = true
	outcome.ExistingProducts = existing
	return outcome
}

// stagedNote trả về ghi chú staged cho sản phẩm, mặc định khi không staged
func (s *UploadService) stagedNote(session asgmodels.UploadSession, productID int64) string {
	if note, ok := session.StagedNotes[productID]; ok && note != "" {
		return note
	}
	return s.lineNote
}

// TicketPreview là bản xem trước của một vé trước khi chạy batch upload:
// các sản phẩm sẽ merge, line-items hiện có trên đơn và cảnh báo
// sản phẩm nào đã tồn tại (sẽ cộng dồn thay vì thêm line mới).
type TicketPreview struct {
	Stt              string                     `json:"stt"`
	OrderID          int64                      `json:"orderId,omitempty"`
	Products         []asgmodels.SessionProduct `json:"products"`
	ExistingProducts []tpos.OrderLine           `json:"existingProducts"`
	AlreadyInOrder   []int64                    `json:"alreadyInOrder,omitempty"`
	ErrorMessage     string                     `json:"errorMessage,omitempty"`
}

// PreviewBatch dựng bản xem trước cho các phiên upload: đọc đơn hàng của từng
// vé để hiện line-items hiện có và đánh dấu sản phẩm đã tồn tại trên đơn.
// Chỉ đọc, không có bất kỳ thao tác ghi nào.
func (s *UploadService) PreviewBatch(ctx context.Context, sessions []asgmodels.UploadSession) []TicketPreview {
	previews := make([]TicketPreview, 0, len(sessions))
	for _, session := range sessions {
		preview := TicketPreview{
			Stt:              session.Stt,
			Products:         session.Products,
			ExistingProducts: []tpos.OrderLine{},
		}

		order, err := s.resolveOrder(ctx, session)
		if err != nil {
			preview.ErrorMessage = err.Error()
			previews = append(previews, preview)
			continue
		}

		preview.OrderID = order.Id
		preview.ExistingProducts = order.Details
		onOrder := make(map[int64]bool, len(order.Details))
		for _, line := range order.Details {
			onOrder[line.ProductId] = true
		}
		for _, sp := range session.Products {
			if onOrder[sp.ProductID] {
				preview.AlreadyInOrder = append(preview.AlreadyInOrder, sp.ProductID)
			}
		}
		previews = append(previews, preview)
	}
	return previews
}

func (s *UploadService) resolveOrder(ctx context.Context, session asgmodels.UploadSession) (*tpos.Order, error) {
	if session.OrderInfo.OrderID != 0 {
		return s.client.GetOrderByID(ctx, session.OrderInfo.OrderID)
	}
	return s.client.GetOrderBySTT(ctx, session.Stt)
}

// resolveSalePrice lấy giá bán của sản phẩm: PriceVariant trước, ListPrice sau.
// StandardPrice là giá vốn, không bao giờ dùng. Thiếu cả hai hoặc giá âm là lỗi.
func resolveSalePrice(product *tpos.Product) (float64, error) {
	if product.PriceVariant != nil && *product.PriceVariant >= 0 {
		return *product.PriceVariant, nil
	}
	if product.ListPrice != nil && *product.ListPrice >= 0 {
		return *product.ListPrice, nil
	}
	return 0, common.NewError(
		common.ErrCodeTposPrice,
		fmt.Sprintf("Sản phẩm %s không có giá bán hợp lệ", product.DefaultCode),
		common.StatusBadRequest,
		nil,
	)
}

// pricedProduct là sản phẩm trong phiên kèm giá bán đã resolve từ TPOS
type pricedProduct struct {
	session asgmodels.SessionProduct
	product *tpos.Product
	price   float64
}

func (pp pricedProduct) code() string {
	if pp.session.ProductCode != "" {
		return pp.session.ProductCode
	}
	return pp.product.DefaultCode
}
