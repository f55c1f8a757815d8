// Package asghdl - Handler quản lý phiên gán sản phẩm-vé.
package asghdl

import (
	"strconv"

	"tpos_commerce/core/common"
	"tpos_commerce/core/global"
	asgdto "tpos_commerce/internal/api/assignment/dto"
	asgsvc "tpos_commerce/internal/api/assignment/service"
	basehdl "tpos_commerce/internal/api/base/handler"

	"github.com/gofiber/fiber/v3"
)

// AssignmentHandler xử lý các thao tác trên phiên gán
type AssignmentHandler struct {
	Store             *asgsvc.Store
	DefaultAutoExpand bool
}

func NewAssignmentHandler(store *asgsvc.Store, defaultAutoExpand bool) *AssignmentHandler {
	return &AssignmentHandler{Store: store, DefaultAutoExpand: defaultAutoExpand}
}

// HandleList xử lý GET /assignments
func (h *AssignmentHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		return basehdl.HandleResponse(c, h.Store.Assignments(), nil)
	})
}

// HandleAddProduct xử lý POST /assignments/products
func (h *AssignmentHandler) HandleAddProduct(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input asgdto.AddProductInput
		if err := c.Bind().Body(&input); err != nil {
			return basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
		}
		if err := global.Validate.Struct(input); err != nil {
			return basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err.Error()))
		}

		autoExpand := h.DefaultAutoExpand
		if input.AutoExpand != nil {
			autoExpand = *input.AutoExpand
		}

		added, skipped, err := h.Store.AddProduct(c.Context(), input.ProductID, autoExpand)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		return basehdl.HandleResponse(c, asgdto.AddProductResponse{Added: added, Skipped: skipped}, nil)
	})
}

// HandleRemoveProduct xử lý DELETE /assignments/:id
func (h *AssignmentHandler) HandleRemoveProduct(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id := c.Params("id")
		if id == "" {
			return basehdl.HandleResponse(c, nil, common.ErrRequiredField)
		}
		if err := h.Store.RemoveProduct(c.Context(), id); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		return basehdl.HandleResponse(c, nil, nil)
	})
}

// HandleAddTicket xử lý POST /assignments/:id/tickets
func (h *AssignmentHandler) HandleAddTicket(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id := c.Params("id")
		if id == "" {
			return basehdl.HandleResponse(c, nil, common.ErrRequiredField)
		}

		var input asgdto.AddTicketInput
		if err := c.Bind().Body(&input); err != nil {
			return basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
		}
		if err := global.Validate.Struct(input); err != nil {
			return basehdl.HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err.Error()))
		}

		assignment, err := h.Store.AddTicket(c.Context(), id, input.Stt)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		return basehdl.HandleResponse(c, assignment, nil)
	})
}

// HandleRemoveTicket xử lý DELETE /assignments/:id/tickets/:index
func (h *AssignmentHandler) HandleRemoveTicket(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id := c.Params("id")
		index, err := strconv.Atoi(c.Params("index"))
		if id == "" || err != nil {
			return basehdl.HandleResponse(c, nil, common.ErrInvalidInput)
		}

		if err := h.Store.RemoveTicketAt(c.Context(), id, index); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		return basehdl.HandleResponse(c, nil, nil)
	})
}

// HandleClear xử lý DELETE /assignments (finalize phiên live)
func (h *AssignmentHandler) HandleClear(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		if err := h.Store.Clear(c.Context()); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		return basehdl.HandleResponse(c, nil, nil)
	})
}
