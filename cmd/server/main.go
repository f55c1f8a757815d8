package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tpos_commerce/core/global"
	"tpos_commerce/core/logger"
)

// initLogger khởi tạo logger cho toàn bộ ứng dụng
func initLogger() {
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger.GetAppLogger().Info("Logger system initialized successfully")
}

func main() {
	initLogger()
	InitGlobal()

	services := InitServices()
	app := InitFiberApp(services)

	log := logger.GetAppLogger()

	// Flush trạng thái phiên đang chờ debounce trước khi tắt
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		log.WithField("signal", sig.String()).Info("Nhận tín hiệu dừng, flush trạng thái phiên")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := services.AsgStore.Flush(ctx); err != nil {
			log.WithError(err).Error("Flush phiên gán thất bại khi shutdown")
		}
		if err := services.RmvStore.Flush(ctx); err != nil {
			log.WithError(err).Error("Flush phiên gỡ thất bại khi shutdown")
		}

		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Lỗi khi shutdown Fiber app")
		}
	}()

	address := global.ServerConfig.Address
	log.WithField("address", address).Info("Starting Fiber server...")
	if err := app.Listen(address); err != nil {
		log.Fatalf("Error in Fiber Listen: %v", err)
	}
}
