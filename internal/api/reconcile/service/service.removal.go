package rcsvc

import (
	"context"

	"tpos_commerce/core/logger"
	histmodels "tpos_commerce/internal/api/history/models"
	rmvmodels "tpos_commerce/internal/api/removal/models"
	"tpos_commerce/internal/notecodec"
	"tpos_commerce/internal/tpos"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RemovalService là nghịch đảo của UploadService: gỡ sản phẩm khỏi đơn hàng TPOS
// theo các batch gỡ. Cùng chiến lược xử lý tuần tự từng vé với kết quả riêng lẻ.
type RemovalService struct {
	client  OrderClient
	codec   *notecodec.Codec
	history HistoryAppender
}

func NewRemovalService(client OrderClient, codec *notecodec.Codec, history HistoryAppender) *RemovalService {
	return &RemovalService{
		client:  client,
		codec:   codec,
		history: history,
	}
}

// ProcessBatch xử lý tuần tự các batch gỡ, ghi lịch sử và trả về kết quả.
// snapshot là bản sao toàn bộ phiên gỡ trước khi dọn các vé thành công,
// lưu nguyên vào bản ghi lịch sử cho tra soát.
func (s *RemovalService) ProcessBatch(ctx context.Context, batches []rmvmodels.RemovalBatch, snapshot interface{}) (*BatchResult, error) {
	batchID := primitive.NewObjectID().Hex()
	log := logger.WithModule("reconcile").WithField("batchId", batchID)
	log.WithField("ticketCount", len(batches)).Info("🗑️ [REMOVAL] Bắt đầu xử lý batch gỡ sản phẩm")

	result := &BatchResult{BatchID: batchID}
	for _, batch := range batches {
		outcome := s.processTicket(ctx, batch)
		result.Tickets = append(result.Tickets, outcome)
		if outcome.Success {
			result.SucceededStt = append(result.SucceededStt, outcome.Stt)
		}
	}

	result.Status = deriveStatus(len(result.SucceededStt), len(batches))

	record := histmodels.HistoryRecord{
		Kind:         histmodels.KindRemoval,
		BatchID:      batchID,
		Status:       result.Status,
		TotalTickets: len(batches),
		SuccessCount: len(result.SucceededStt),
		FailureCount: len(batches) - len(result.SucceededStt),
		Tickets:      result.Tickets,
		Snapshot:     snapshot,
	}
	saved, err := s.history.Append(ctx, record)
	if err != nil {
		log.WithError(err).Error("🗑️ [REMOVAL] Ghi lịch sử batch thất bại")
	} else {
		result.HistoryID = saved.ID.Hex()
	}

	log.WithFields(map[string]interface{}{
		"status":  result.Status,
		"success": len(result.SucceededStt),
		"failed":  len(batches) - len(result.SucceededStt),
	}).Info("🗑️ [REMOVAL] Batch gỡ hoàn tất")
	return result, nil
}

// processTicket gỡ các sản phẩm của một batch khỏi đơn hàng của vé:
// giảm số lượng line-item (kèm from/to), xóa hẳn line khi gỡ toàn bộ,
// bỏ qua sản phẩm không gỡ được kèm lý do. Vé không gỡ được gì thì
// báo thất bại và không PUT.
func (s *RemovalService) processTicket(ctx context.Context, batch rmvmodels.RemovalBatch) histmodels.TicketOutcome {
	log := logger.WithModule("reconcile").WithField("stt", batch.Stt)

	outcome := histmodels.TicketOutcome{Stt: batch.Stt, ExistingProducts: []tpos.OrderLine{}}

	order, err := s.resolveOrder(ctx, batch)
	if err != nil {
		log.WithError(err).Error("🗑️ [REMOVAL] Không resolve được đơn hàng của vé")
		outcome.ErrorMessage = err.Error()
		return outcome
	}
	outcome.OrderID = order.Id

	// Snapshot line-items trước khi gỡ cho tra soát
	existing := make([]tpos.OrderLine, len(order.Details))
	copy(existing, order.Details)

	removals := make([]notecodec.NoteRemoval, 0, len(batch.Items))
	dropped := map[int]bool{}
	acted := 0
	for _, item := range batch.Items {
		product := histmodels.ProductOutcome{
			ProductID:   item.ProductID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Details.UnitPrice,
		}

		// Sản phẩm đánh dấu không gỡ được từ lúc thêm: bỏ qua, không đụng vào đơn
		if !item.Details.CanRemove {
			product.Action = histmodels.ActionSkipped
			product.SkipReason = item.Details.Reason
			outcome.Products = append(outcome.Products, product)
			continue
		}

		idx := findRemovalLine(order.Details, dropped, item)
		if idx < 0 {
			product.Action = histmodels.ActionSkipped
			product.SkipReason = "Sản phẩm không còn trên đơn"
			outcome.Products = append(outcome.Products, product)
			continue
		}

		line := &order.Details[idx]
		product.FromQuantity = line.Quantity
		if item.RemoveAll || item.Quantity >= line.Quantity {
			product.Action = histmodels.ActionRemoved
			product.ToQuantity = 0
			dropped[idx] = true
		} else {
			line.Quantity -= item.Quantity
			product.Action = histmodels.ActionDecreased
			product.ToQuantity = line.Quantity
		}

		removals = append(removals, notecodec.NoteRemoval{
			Code:      item.ProductCode,
			Quantity:  item.Quantity,
			RemoveAll: item.RemoveAll,
		})
		outcome.Products = append(outcome.Products, product)
		acted++
	}

	// Toàn bộ sản phẩm của vé đều bị bỏ qua: không có gì để gỡ, không PUT
	if acted == 0 {
		log.Warn("🗑️ [REMOVAL] Vé không có gì để gỡ, bỏ qua không ghi")
		outcome.ErrorMessage = "Không có gì để gỡ"
		return outcome
	}

	order.Note = s.codec.ProcessNoteForRemoval(order.Note, removals)

	kept := make([]tpos.OrderLine, 0, len(order.Details))
	for i, line := range order.Details {
		if dropped[i] {
			continue
		}
		kept = append(kept, line)
	}
	order.Details = kept

	for i := range order.Details {
		order.Details[i].OrderId = order.Id
	}

	order.TotalQuantity = 0
	for _, line := range order.Details {
		order.TotalQuantity += line.Quantity
	}
	// Giá trị đơn được nhân viên chốt lại thủ công sau khi gỡ,
	// nên TotalAmount reset về 0 thay vì tự tính lại
	order.TotalAmount = 0

	if err := s.client.UpdateOrder(ctx, order); err != nil {
		log.WithError(err).Error("🗑️ [REMOVAL] PUT đơn hàng thất bại")
		outcome.ErrorMessage = err.Error()
		outcome.Products = nil
		return outcome
	}

	outcome.Success = true
	outcome.ExistingProducts = existing
	return outcome
}

func (s *RemovalService) resolveOrder(ctx context.Context, batch rmvmodels.RemovalBatch) (*tpos.Order, error) {
	if batch.OrderInfo.OrderID != 0 {
		return s.client.GetOrderByID(ctx, batch.OrderInfo.OrderID)
	}
	return s.client.GetOrderBySTT(ctx, batch.Stt)
}

// findRemovalLine tìm line-item tương ứng với yêu cầu gỡ: theo remote product id
// khi đã biết, theo mã sản phẩm khi chỉ có mã (dữ liệu cũ). Line đã bị đánh dấu
// xóa trong cùng vé không được tính nữa.
func findRemovalLine(lines []tpos.OrderLine, dropped map[int]bool, item rmvmodels.RemovalItem) int {
	for i, line := range lines {
		if dropped[i] {
			continue
		}
		if item.ProductID != 0 {
			if line.ProductId == item.ProductID {
				return i
			}
			continue
		}
		if line.ProductCode == item.ProductCode {
			return i
		}
	}
	return -1
}
