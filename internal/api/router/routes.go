// Package router đăng ký toàn bộ route của API lên Fiber app.
package router

import (
	asghdl "tpos_commerce/internal/api/assignment/handler"
	histhdl "tpos_commerce/internal/api/history/handler"
	"tpos_commerce/internal/api/middleware"
	ordhdl "tpos_commerce/internal/api/orders/handler"
	rchdl "tpos_commerce/internal/api/reconcile/handler"
	rmvhdl "tpos_commerce/internal/api/removal/handler"

	"github.com/gofiber/fiber/v3"
)

// Handlers gom tất cả handler cần đăng ký route
type Handlers struct {
	Assignment *asghdl.AssignmentHandler
	Removal    *rmvhdl.RemovalHandler
	Batch      *rchdl.BatchHandler
	History    *histhdl.HistoryHandler
	Orders     *ordhdl.OrdersHandler
}

// Register đăng ký tất cả route lên app. Mọi route nghiệp vụ nằm sau
// Firebase auth; chỉ health check là public.
func Register(app *fiber.App, h *Handlers) {
	app.Get("/api/v1/system/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1", middleware.FirebaseAuth())

	// Phiên gán sản phẩm-vé
	v1.Get("/assignments", h.Assignment.HandleList)
	v1.Post("/assignments/products", h.Assignment.HandleAddProduct)
	v1.Delete("/assignments/:id", h.Assignment.HandleRemoveProduct)
	v1.Post("/assignments/:id/tickets", h.Assignment.HandleAddTicket)
	v1.Delete("/assignments/:id/tickets/:index", h.Assignment.HandleRemoveTicket)
	v1.Delete("/assignments", h.Assignment.HandleClear)

	// Phiên gỡ sản phẩm
	v1.Get("/removals", h.Removal.HandleList)
	v1.Post("/removals/items", h.Removal.HandleAddItem)
	v1.Delete("/removals/items/:id", h.Removal.HandleRemoveItem)
	v1.Delete("/removals", h.Removal.HandleClear)

	// Batch upload/gỡ lên TPOS
	v1.Get("/batches/upload/preview", h.Batch.HandleUploadPreview)
	v1.Post("/batches/upload", h.Batch.HandleUpload)
	v1.Get("/batches/removal/preview", h.Batch.HandleRemovalPreview)
	v1.Post("/batches/removal", h.Batch.HandleRemoval)

	// Lịch sử batch
	v1.Get("/history", h.History.HandleList)
	v1.Get("/history/:id", h.History.HandleGet)

	// Cache đơn hàng theo STT
	v1.Get("/orders", h.Orders.HandleList)
	v1.Post("/orders/refresh", h.Orders.HandleRefresh)
}
