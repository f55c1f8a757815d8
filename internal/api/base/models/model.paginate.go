package basemodels

// PaginateResult là kết quả phân trang chuẩn cho các API danh sách
type PaginateResult[T any] struct {
	Items     []T   `json:"items"`     // Danh sách items của trang hiện tại
	Page      int64 `json:"page"`      // Trang hiện tại (bắt đầu từ 1)
	Limit     int64 `json:"limit"`     // Số items mỗi trang
	ItemCount int64 `json:"itemCount"` // Tổng số items thỏa filter
	PageCount int64 `json:"pageCount"` // Tổng số trang
}
