// Package tpos là client HTTP cho TPOS OData API: đọc đơn hàng/sản phẩm và
// ghi đè đơn hàng theo semantics full-resource replace.
package tpos

// Order là tài nguyên đơn hàng trên TPOS (SaleOnline_Order).
// Update luôn gửi lại toàn bộ document với Details đã merge, không patch từng phần.
type Order struct {
	Id                 int64       `json:"Id"`
	Code               string      `json:"Code,omitempty"`
	SessionIndex       string      `json:"SessionIndex,omitempty"` // Số thứ tự (STT) trong phiên live
	Name               string      `json:"Name,omitempty"`         // Tên khách hàng
	Telephone          string      `json:"Telephone,omitempty"`
	Address            string      `json:"Address,omitempty"`
	PartnerId          int64       `json:"PartnerId,omitempty"`
	Note               string      `json:"Note"`
	TotalQuantity      int         `json:"TotalQuantity"`
	TotalAmount        float64     `json:"TotalAmount"`
	Details            []OrderLine `json:"Details"`
}

// OrderLine là một line-item trong Details của đơn hàng.
// Id là con trỏ: line mới tạo chưa có Id phía server nên phải serialize vắng mặt
// (omitempty) thay vì gửi placeholder.
type OrderLine struct {
	Id          *int64  `json:"Id,omitempty"`
	ProductId   int64   `json:"ProductId"`
	ProductName string  `json:"ProductName,omitempty"`
	ProductCode string  `json:"ProductCode,omitempty"`
	UOMId       int64   `json:"UOMId,omitempty"`
	UOMName     string  `json:"UOMName,omitempty"`
	Quantity    int     `json:"Quantity"`
	Price       float64 `json:"Price"`
	Note        string  `json:"Note,omitempty"`
	ImageUrl    string  `json:"ImageUrl,omitempty"`
	OrderId     int64   `json:"OrderId,omitempty"`
}

// Product là tài nguyên sản phẩm trên TPOS (read-only với hệ thống này).
// PriceVariant/ListPrice là giá bán; StandardPrice là giá vốn và không bao giờ
// được dùng làm giá upload.
type Product struct {
	Id            int64    `json:"Id"`
	Name          string   `json:"Name"`
	NameGet       string   `json:"NameGet,omitempty"`
	DefaultCode   string   `json:"DefaultCode,omitempty"`
	Barcode       string   `json:"Barcode,omitempty"`
	PriceVariant  *float64 `json:"PriceVariant"`
	ListPrice     *float64 `json:"ListPrice"`
	StandardPrice *float64 `json:"StandardPrice,omitempty"`
	ImageUrl      string   `json:"ImageUrl,omitempty"`
	UOMId         int64    `json:"UOMId,omitempty"`
	UOMName       string   `json:"UOMName,omitempty"`
	ProductTmplId int64    `json:"ProductTmplId,omitempty"` // Id sản phẩm cha (template) của biến thể
	Active        bool     `json:"Active"`
}

// OrderSummary là bản ghi cache đơn hàng theo STT, do nguồn "orders data" cung cấp.
// Dùng cho hiển thị/tra cứu; khi STT không có trong cache thì point-query TPOS.
type OrderSummary struct {
	Stt          string  `json:"stt" bson:"stt"`
	OrderID      int64   `json:"orderId" bson:"orderId"`
	CustomerName string  `json:"customerName" bson:"customerName"`
	Phone        string  `json:"phone" bson:"phone"`
	Address      string  `json:"address" bson:"address"`
	TotalAmount  float64 `json:"totalAmount" bson:"totalAmount"`
	Note         string  `json:"note" bson:"note"`
	Quantity     int     `json:"quantity" bson:"quantity"`
}

// odataList là envelope chuẩn của OData cho kết quả danh sách
type odataList[T any] struct {
	Value []T `json:"value"`
}
