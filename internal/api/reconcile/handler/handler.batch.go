// Package rchdl - Handler chạy batch upload/gỡ sản phẩm lên TPOS.
package rchdl

import (
	"strings"

	"tpos_commerce/core/common"
	"tpos_commerce/core/global"
	"tpos_commerce/core/logger"
	asgmodels "tpos_commerce/internal/api/assignment/models"
	asgsvc "tpos_commerce/internal/api/assignment/service"
	basehdl "tpos_commerce/internal/api/base/handler"
	histmodels "tpos_commerce/internal/api/history/models"
	ntfsvc "tpos_commerce/internal/api/notify/service"
	rcdto "tpos_commerce/internal/api/reconcile/dto"
	rcsvc "tpos_commerce/internal/api/reconcile/service"
	rmvsvc "tpos_commerce/internal/api/removal/service"

	"github.com/gofiber/fiber/v3"
)

// BatchHandler điều phối toàn bộ luồng batch: dựng phiên từ store,
// chạy reconciler, dọn các vé thành công khỏi store và gửi thông báo.
type BatchHandler struct {
	AsgStore *asgsvc.Store
	RmvStore *rmvsvc.Store
	Uploader *rcsvc.UploadService
	Remover  *rcsvc.RemovalService
	Notify   *ntfsvc.NotifyService
}

func NewBatchHandler(asgStore *asgsvc.Store, rmvStore *rmvsvc.Store, uploader *rcsvc.UploadService, remover *rcsvc.RemovalService, notify *ntfsvc.NotifyService) *BatchHandler {
	return &BatchHandler{
		AsgStore: asgStore,
		RmvStore: rmvStore,
		Uploader: uploader,
		Remover:  remover,
		Notify:   notify,
	}
}

// HandleUploadPreview xử lý GET /batches/upload/preview - xem trước các phiên
// upload sẽ được xử lý kèm line-items hiện có trên đơn và cảnh báo sản phẩm
// đã tồn tại; không có thao tác ghi nào
func (h *BatchHandler) HandleUploadPreview(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		sessions := h.AsgStore.BuildUploadSessions(parseStts(c))
		return basehdl.HandleResponse(c, h.Uploader.PreviewBatch(c.Context(), sessions), nil)
	})
}

// HandleUpload xử lý POST /batches/upload - chạy batch upload các vé được chọn
// (hoặc tất cả), dọn vé thành công khỏi phiên gán và gửi báo cáo
func (h *BatchHandler) HandleUpload(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		input, err := parseBatchInput(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}

		sessions := h.AsgStore.BuildUploadSessions(input.Stts)
		if len(sessions) == 0 {
			return basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeBusinessState, "Không có vé nào để upload", common.StatusBadRequest, nil))
		}
		attachStagedNotes(sessions, input.StagedNotes)

		// Snapshot toàn bộ phiên gán trước khi dọn vé thành công,
		// lưu vào lịch sử làm cơ chế tra soát/khôi phục duy nhất
		snapshot := h.AsgStore.Assignments()

		result, err := h.Uploader.ProcessBatch(c.Context(), sessions, snapshot)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}

		if len(result.SucceededStt) > 0 {
			if err := h.AsgStore.RemoveUploadedTickets(c.Context(), result.SucceededStt); err != nil {
				// Upload đã xong - lỗi dọn store chỉ log, không hỏng kết quả batch
				logger.WithModule("reconcile").WithError(err).
					Error("Dọn vé đã upload khỏi phiên gán thất bại")
			}
		}

		h.Notify.NotifyBatchResult(histmodels.KindUpload, result)
		return basehdl.HandleResponse(c, result, nil)
	})
}

// HandleRemovalPreview xử lý GET /batches/removal/preview
func (h *BatchHandler) HandleRemovalPreview(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		batches := h.RmvStore.BuildRemovalBatches(parseStts(c))
		return basehdl.HandleResponse(c, batches, nil)
	})
}

// HandleRemoval xử lý POST /batches/removal - chạy batch gỡ sản phẩm
func (h *BatchHandler) HandleRemoval(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		input, err := parseBatchInput(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}

		batches := h.RmvStore.BuildRemovalBatches(input.Stts)
		if len(batches) == 0 {
			return basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeBusinessState, "Không có yêu cầu gỡ nào", common.StatusBadRequest, nil))
		}

		snapshot := h.RmvStore.Items()

		result, err := h.Remover.ProcessBatch(c.Context(), batches, snapshot)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}

		if len(result.SucceededStt) > 0 {
			if err := h.RmvStore.RemoveProcessedItems(c.Context(), result.SucceededStt); err != nil {
				logger.WithModule("reconcile").WithError(err).
					Error("Dọn yêu cầu đã gỡ khỏi phiên gỡ thất bại")
			}
		}

		h.Notify.NotifyBatchResult(histmodels.KindRemoval, result)
		return basehdl.HandleResponse(c, result, nil)
	})
}

func parseBatchInput(c fiber.Ctx) (*rcdto.RunBatchInput, error) {
	var input rcdto.RunBatchInput
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&input); err != nil {
			return nil, common.ErrInvalidFormat
		}
		if err := global.Validate.Struct(input); err != nil {
			return nil, common.NewError(
				common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err.Error())
		}
	}
	return &input, nil
}

// attachStagedNotes gắn ghi chú staged ở preview vào phiên upload của từng vé
func attachStagedNotes(sessions []asgmodels.UploadSession, notes []rcdto.StagedNoteInput) {
	if len(notes) == 0 {
		return
	}
	byStt := make(map[string]map[int64]string)
	for _, n := range notes {
		if byStt[n.Stt] == nil {
			byStt[n.Stt] = make(map[int64]string)
		}
		byStt[n.Stt][n.ProductID] = n.Note
	}
	for i := range sessions {
		sessions[i].StagedNotes = byStt[sessions[i].Stt]
	}
}

// parseStts lấy danh sách STT từ query ?stts=5,12 cho các endpoint preview
func parseStts(c fiber.Ctx) []string {
	raw := c.Query("stts")
	if raw == "" {
		return nil
	}
	var stts []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			stts = append(stts, trimmed)
		}
	}
	return stts
}
