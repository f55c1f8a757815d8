package asgdto

// AddProductInput là body của POST /assignments/products
type AddProductInput struct {
	ProductID  int64 `json:"productId" validate:"required,gt=0"`
	AutoExpand *bool `json:"autoExpand"` // nil = theo cấu hình server
}

// AddTicketInput là body của POST /assignments/:id/tickets
type AddTicketInput struct {
	Stt string `json:"stt" validate:"required,stt"`
}

// RemoveTicketInput là body của DELETE /assignments/:id/tickets
type RemoveTicketInput struct {
	Index int `json:"index" validate:"gte=0"`
}

// AddProductResponse trả về kết quả thêm sản phẩm (số thêm được, số trùng)
type AddProductResponse struct {
	Added   interface{} `json:"added"`
	Skipped int         `json:"skipped"`
}
