package rcdto

// StagedNoteInput là ghi chú người vận hành đặt cho một sản phẩm của một vé
// ở bước preview, sẽ ghi đè ghi chú line-item tương ứng khi upload
type StagedNoteInput struct {
	Stt       string `json:"stt" validate:"required,stt"`
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Note      string `json:"note" validate:"no_xss"`
}

// RunBatchInput là body của POST /batches/upload và POST /batches/removal.
// Stts rỗng nghĩa là xử lý tất cả vé trong phiên.
type RunBatchInput struct {
	Stts        []string          `json:"stts" validate:"omitempty,dive,stt"`
	StagedNotes []StagedNoteInput `json:"stagedNotes" validate:"omitempty,dive"`
}
