// Package ordhdl - Handler cache đơn hàng theo STT.
package ordhdl

import (
	"strconv"

	basehdl "tpos_commerce/internal/api/base/handler"
	ordsvc "tpos_commerce/internal/api/orders/service"
	"tpos_commerce/internal/tpos"

	"github.com/gofiber/fiber/v3"
)

// OrdersHandler xử lý các endpoint cache đơn hàng
type OrdersHandler struct {
	Cache  *ordsvc.OrderCacheService
	Client *tpos.Client
}

func NewOrdersHandler(cache *ordsvc.OrderCacheService, client *tpos.Client) *OrdersHandler {
	return &OrdersHandler{Cache: cache, Client: client}
}

// HandleList xử lý GET /orders - trả về toàn bộ cache hiện tại
func (h *OrdersHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		orders, err := h.Cache.List(c.Context())
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		return basehdl.HandleResponse(c, orders, nil)
	})
}

// HandleRefresh xử lý POST /orders/refresh?top=500 - làm mới cache từ TPOS
func (h *OrdersHandler) HandleRefresh(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		top := 500
		if s := c.Query("top"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				top = n
			}
		}

		count, err := h.Cache.Refresh(c.Context(), h.Client, top)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		return basehdl.HandleResponse(c, fiber.Map{"refreshed": count}, nil)
	})
}
