package models

import "tpos_commerce/internal/tpos"

// TicketLink là một liên kết giữa sản phẩm và một vé (STT).
// Cùng một STT xuất hiện N lần trong SttList nghĩa là khách đặt N đơn vị -
// số lượng được biểu diễn bằng số lần lặp, không có field quantity riêng.
type TicketLink struct {
	Stt       string            `json:"stt" bson:"stt"`
	OrderInfo tpos.OrderSummary `json:"orderInfo" bson:"orderInfo"` // Snapshot thông tin đơn tại thời điểm gán
	AddedAt   int64             `json:"addedAt" bson:"addedAt"`     // Unix milliseconds
}

// Assignment là một sản phẩm trong phiên gán cùng danh sách vé đã gán vào nó
type Assignment struct {
	ID          string       `json:"id" bson:"id"` // Định danh cục bộ, sinh theo thứ tự tạo
	ProductID   int64        `json:"productId" bson:"productId"`
	ProductName string       `json:"productName" bson:"productName"`
	ProductCode string       `json:"productCode" bson:"productCode"`
	ImageURL    string       `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	UOMId       int64        `json:"uomId,omitempty" bson:"uomId,omitempty"`
	UOMName     string       `json:"uomName,omitempty" bson:"uomName,omitempty"`
	SttList     []TicketLink `json:"sttList" bson:"sttList"`
}

// StoreState là document trạng thái phiên gán trong MongoDB.
// Toàn bộ phiên được lưu thành một blob duy nhất theo storeKey.
type StoreState struct {
	StoreKey    string       `json:"storeKey" bson:"storeKey"`
	Assignments []Assignment `json:"assignments" bson:"assignments"`
	Timestamp   int64        `json:"_timestamp" bson:"_timestamp"` // Thời điểm ghi, Unix milliseconds
	Version     int          `json:"_version" bson:"_version"`     // Schema version của blob, hiện tại = 1
}

// SessionProduct là một sản phẩm đã gom số lượng trong phiên upload của một vé
type SessionProduct struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	ProductCode string `json:"productCode"`
	ImageURL    string `json:"imageUrl,omitempty"`
	UOMId       int64  `json:"uomId,omitempty"`
	UOMName     string `json:"uomName,omitempty"`
	Quantity    int    `json:"quantity"`
}

// UploadSession gom tất cả sản phẩm gán cho một vé, dùng làm input cho reconciler.
// StagedNotes chứa ghi chú người vận hành đặt cho từng sản phẩm ở bước preview
// (theo productId); áp cho cả line-item đã có sẵn trên đơn dù không nằm trong batch.
type UploadSession struct {
	Stt         string            `json:"stt"`
	OrderInfo   tpos.OrderSummary `json:"orderInfo"`
	Products    []SessionProduct  `json:"products"`
	StagedNotes map[int64]string  `json:"stagedNotes,omitempty"`
}
