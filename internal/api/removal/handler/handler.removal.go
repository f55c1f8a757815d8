// Package rmvhdl - Handler quản lý phiên gỡ sản phẩm.
package rmvhdl

import (
	"tpos_commerce/core/common"
	"tpos_commerce/core/global"
	basehdl "tpos_commerce/internal/api/base/handler"
	rmvdto "tpos_commerce/internal/api/removal/dto"
	rmvsvc "tpos_commerce/internal/api/removal/service"

	"github.com/gofiber/fiber/v3"
)

// RemovalHandler xử lý các thao tác trên phiên gỡ
type RemovalHandler struct {
	Store *rmvsvc.Store
}

func NewRemovalHandler(store *rmvsvc.Store) *RemovalHandler {
	return &RemovalHandler{Store: store}
}

// HandleList xử lý GET /removals
func (h *RemovalHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		return basehdl.HandleResponse(c, h.Store.Items(), nil)
	})
}

// HandleAddItem xử lý POST /removals/items
func (h *RemovalHandler) HandleAddItem(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input rmvdto.AddItemInput
		if err := c.Bind().Body(&input); err != nil {
			return basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
		}
		if err := global.Validate.Struct(input); err != nil {
			return basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err.Error()))
		}

		item, err := h.Store.AddItem(c.Context(), input.Stt, input.ProductID, input.ProductCode, input.Quantity, input.RemoveAll)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		return basehdl.HandleResponse(c, item, nil)
	})
}

// HandleRemoveItem xử lý DELETE /removals/items/:id
func (h *RemovalHandler) HandleRemoveItem(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id := c.Params("id")
		if id == "" {
			return basehdl.HandleResponse(c, nil, common.ErrRequiredField)
		}
		if err := h.Store.RemoveItem(c.Context(), id); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		return basehdl.HandleResponse(c, nil, nil)
	})
}

// HandleClear xử lý DELETE /removals
func (h *RemovalHandler) HandleClear(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		if err := h.Store.Clear(c.Context()); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		return basehdl.HandleResponse(c, nil, nil)
	})
}
