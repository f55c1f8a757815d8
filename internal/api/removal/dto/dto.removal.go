package rmvdto

// AddItemInput là body của POST /removals/items.
// ProductID bỏ trống thì tra từ line-item trên đơn theo mã sản phẩm.
type AddItemInput struct {
	Stt         string `json:"stt" validate:"required,stt"`
	ProductID   int64  `json:"productId" validate:"omitempty,gt=0"`
	ProductCode string `json:"productCode" validate:"required,no_xss"`
	Quantity    int    `json:"quantity" validate:"gte=0"` // 0 = mặc định 1
	RemoveAll   bool   `json:"removeAll"`
}
