package rcsvc

import (
	"context"

	histmodels "tpos_commerce/internal/api/history/models"
	"tpos_commerce/internal/tpos"
)

// OrderClient là phần của TPOS client mà reconciler cần để đọc và ghi đè đơn hàng
type OrderClient interface {
	GetOrderByID(ctx context.Context, orderID int64) (*tpos.Order, error)
	GetOrderBySTT(ctx context.Context, stt string) (*tpos.Order, error)
	UpdateOrder(ctx context.Context, order *tpos.Order) error
}

// ProductReader đọc sản phẩm từ TPOS để lấy giá bán hiện tại
type ProductReader interface {
	GetProductByID(ctx context.Context, productID int64) (*tpos.Product, error)
}

// HistoryAppender ghi bản ghi lịch sử batch
type HistoryAppender interface {
	Append(ctx context.Context, record histmodels.HistoryRecord) (histmodels.HistoryRecord, error)
}

// BatchResult là kết quả xử lý một batch: trạng thái tổng và kết quả từng vé
type BatchResult struct {
	BatchID      string                     `json:"batchId"`
	Status       string                     `json:"status"`
	Tickets      []histmodels.TicketOutcome `json:"tickets"`
	SucceededStt []string                   `json:"succeededStt"`
	HistoryID    string                     `json:"historyId,omitempty"`
}

// deriveStatus suy ra trạng thái batch từ số vé thành công/thất bại
func deriveStatus(success, total int) string {
	switch {
	case total == 0 || success == total:
		return histmodels.StatusCompleted
	case success == 0:
		return histmodels.StatusFailed
	default:
		return histmodels.StatusPartial
	}
}
