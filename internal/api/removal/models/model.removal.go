package models

import "tpos_commerce/internal/tpos"

// CurrentProductDetails là snapshot tình trạng hiện tại của sản phẩm trên đơn
// tại thời điểm đánh dấu gỡ. Được tra lại từ TPOS để người vận hành thấy
// trước được thao tác gỡ có hợp lệ không.
type CurrentProductDetails struct {
	CurrentQuantity int     `json:"currentQuantity" bson:"currentQuantity"` // Số lượng hiện có trong sổ cái
	UnitPrice       float64 `json:"unitPrice" bson:"unitPrice"`
	LineID          *int64  `json:"lineId,omitempty" bson:"lineId,omitempty"` // Id line-item trên TPOS nếu tìm thấy
	CanRemove       bool    `json:"canRemove" bson:"canRemove"`
	Reason          string  `json:"reason,omitempty" bson:"reason,omitempty"` // Lý do không gỡ được
}

// RemovalItem là một yêu cầu gỡ sản phẩm khỏi một vé.
// ProductID là id sản phẩm trên TPOS, dùng để định vị line-item khi gỡ;
// mã sản phẩm chỉ dùng cho sổ cái trong ghi chú.
type RemovalItem struct {
	ID          string                `json:"id" bson:"id"`
	Stt         string                `json:"stt" bson:"stt"`
	ProductID   int64                 `json:"productId,omitempty" bson:"productId,omitempty"`
	ProductCode string                `json:"productCode" bson:"productCode"`
	ProductName string                `json:"productName,omitempty" bson:"productName,omitempty"`
	Quantity    int                   `json:"quantity" bson:"quantity"`   // Số đơn vị cần gỡ
	RemoveAll   bool                  `json:"removeAll" bson:"removeAll"` // Gỡ toàn bộ bất kể số lượng
	OrderInfo   tpos.OrderSummary     `json:"orderInfo" bson:"orderInfo"`
	Details     CurrentProductDetails `json:"currentProductDetails" bson:"currentProductDetails"`
	AddedAt     int64                 `json:"addedAt" bson:"addedAt"`
}

// StoreState là document trạng thái phiên gỡ trong MongoDB, một blob theo storeKey
type StoreState struct {
	StoreKey  string        `json:"storeKey" bson:"storeKey"`
	Items     []RemovalItem `json:"items" bson:"items"`
	Timestamp int64         `json:"_timestamp" bson:"_timestamp"`
	Version   int           `json:"_version" bson:"_version"`
}

// RemovalBatch gom các yêu cầu gỡ của cùng một vé, input cho reconciler gỡ
type RemovalBatch struct {
	Stt       string            `json:"stt"`
	OrderInfo tpos.OrderSummary `json:"orderInfo"`
	Items     []RemovalItem     `json:"items"`
}
