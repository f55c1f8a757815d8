package models

import (
	"tpos_commerce/internal/tpos"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind phân loại bản ghi lịch sử
const (
	KindUpload  = "upload"
	KindRemoval = "removal"
)

// Action của một sản phẩm trong vé gỡ
const (
	ActionDecreased = "decreased" // Giảm số lượng line-item
	ActionRemoved   = "removed"   // Xóa hẳn line-item
	ActionSkipped   = "skipped"   // Bỏ qua, kèm lý do
)

// Status của một batch sau khi xử lý xong toàn bộ vé
const (
	StatusCompleted = "completed" // Tất cả vé thành công
	StatusPartial   = "partial"   // Một phần vé thành công
	StatusFailed    = "failed"    // Không vé nào thành công
)

// CurrentSchemaVersion là version schema hiện tại của bản ghi lịch sử.
// Bản ghi cũ không có field này (hoặc version 1) vẫn đọc được bình thường.
const CurrentSchemaVersion = 2

// ProductOutcome là kết quả xử lý một sản phẩm trong một vé.
// Với vé gỡ, Action cho biết line-item bị giảm (kèm FromQuantity/ToQuantity),
// bị xóa hẳn, hay bị bỏ qua (kèm SkipReason).
type ProductOutcome struct {
	ProductID    int64   `json:"productId,omitempty" bson:"productId,omitempty"`
	ProductCode  string  `json:"productCode" bson:"productCode"`
	ProductName  string  `json:"productName,omitempty" bson:"productName,omitempty"`
	Quantity     int     `json:"quantity" bson:"quantity"`
	Price        float64 `json:"price,omitempty" bson:"price,omitempty"`
	Action       string  `json:"action,omitempty" bson:"action,omitempty"`
	FromQuantity int     `json:"fromQuantity,omitempty" bson:"fromQuantity,omitempty"`
	ToQuantity   int     `json:"toQuantity,omitempty" bson:"toQuantity,omitempty"`
	SkipReason   string  `json:"skipReason,omitempty" bson:"skipReason,omitempty"`
}

// TicketOutcome là kết quả xử lý một vé trong batch.
// Mỗi vé của batch có đúng một bản ghi kết quả, kể cả khi thất bại.
// ExistingProducts là snapshot line-items của đơn TRƯỚC khi merge/gỡ,
// dùng cho hiển thị tra soát; vé thất bại mang slice rỗng.
type TicketOutcome struct {
	Stt              string           `json:"stt" bson:"stt"`
	OrderID          int64            `json:"orderId,omitempty" bson:"orderId,omitempty"`
	Success          bool             `json:"success" bson:"success"`
	ErrorMessage     string           `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
	Products         []ProductOutcome `json:"products" bson:"products"`
	ExistingProducts []tpos.OrderLine `json:"existingProducts" bson:"existingProducts"`
}

// HistoryRecord là bản ghi lịch sử của một batch upload hoặc gỡ sản phẩm.
// Snapshot giữ bản sao sâu của input tại thời điểm xử lý để tra soát về sau.
type HistoryRecord struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Kind          string             `json:"kind" bson:"kind"`
	BatchID       string             `json:"batchId" bson:"batchId"`
	Status        string             `json:"status" bson:"status"`
	TotalTickets  int                `json:"totalTickets" bson:"totalTickets"`
	SuccessCount  int                `json:"successCount" bson:"successCount"`
	FailureCount  int                `json:"failureCount" bson:"failureCount"`
	Tickets       []TicketOutcome    `json:"tickets" bson:"tickets"`
	Snapshot      interface{}        `json:"snapshot,omitempty" bson:"snapshot,omitempty"`
	SchemaVersion int                `json:"schemaVersion" bson:"schemaVersion"`
	CreatedAt     int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt     int64              `json:"updatedAt" bson:"updatedAt"`
}
