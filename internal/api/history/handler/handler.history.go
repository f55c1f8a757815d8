// Package histhdl - Handler tra cứu lịch sử batch.
package histhdl

import (
	"strconv"

	"tpos_commerce/core/common"
	basehdl "tpos_commerce/internal/api/base/handler"
	histmodels "tpos_commerce/internal/api/history/models"
	histsvc "tpos_commerce/internal/api/history/service"

	"github.com/gofiber/fiber/v3"
)

// HistoryHandler xử lý các endpoint tra cứu lịch sử
type HistoryHandler struct {
	Service *histsvc.HistoryService
}

func NewHistoryHandler(service *histsvc.HistoryService) *HistoryHandler {
	return &HistoryHandler{Service: service}
}

// HandleList xử lý GET /history?kind=upload&page=1&limit=50
func (h *HistoryHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		kind := c.Query("kind")
		if kind != "" && kind != histmodels.KindUpload && kind != histmodels.KindRemoval {
			return basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput, "kind phải là upload hoặc removal", common.StatusBadRequest, nil))
		}

		page := queryInt64(c, "page", 1)
		limit := queryInt64(c, "limit", 50)

		result, err := h.Service.ListByKind(c.Context(), kind, page, limit)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		return basehdl.HandleResponse(c, result, nil)
	})
}

// HandleGet xử lý GET /history/:id
func (h *HistoryHandler) HandleGet(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		record, err := h.Service.GetByID(c.Context(), c.Params("id"))
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		return basehdl.HandleResponse(c, record, nil)
	})
}

func queryInt64(c fiber.Ctx, key string, fallback int64) int64 {
	if s := c.Query(key); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
