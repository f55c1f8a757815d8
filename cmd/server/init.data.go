package main

import (
	"context"
	"time"

	"tpos_commerce/core/global"
	"tpos_commerce/core/logger"
	asghdl "tpos_commerce/internal/api/assignment/handler"
	asgsvc "tpos_commerce/internal/api/assignment/service"
	histhdl "tpos_commerce/internal/api/history/handler"
	histsvc "tpos_commerce/internal/api/history/service"
	ntfsvc "tpos_commerce/internal/api/notify/service"
	ordhdl "tpos_commerce/internal/api/orders/handler"
	ordsvc "tpos_commerce/internal/api/orders/service"
	rchdl "tpos_commerce/internal/api/reconcile/handler"
	rcsvc "tpos_commerce/internal/api/reconcile/service"
	rmvhdl "tpos_commerce/internal/api/removal/handler"
	rmvsvc "tpos_commerce/internal/api/removal/service"
	"tpos_commerce/internal/api/router"
	"tpos_commerce/internal/delivery/channels"
	"tpos_commerce/internal/notecodec"
	"tpos_commerce/internal/tpos"

	"go.mongodb.org/mongo-driver/mongo"
)

// Store key của các blob trạng thái phiên trong MongoDB
const (
	assignmentStoreKey = "product_ticket_assignments"
	removalStoreKey    = "product_removals"
)

// AppServices gom các service/store dùng chung của ứng dụng
type AppServices struct {
	Handlers *router.Handlers
	AsgStore *asgsvc.Store
	RmvStore *rmvsvc.Store
}

// InitServices khởi tạo toàn bộ service, store và handler của ứng dụng.
// Trạng thái phiên gán/gỡ được nạp lại từ MongoDB ngay khi khởi động.
func InitServices() *AppServices {
	log := logger.GetAppLogger()
	cfg := global.ServerConfig

	client := tpos.NewClient(cfg.TposBaseURL, cfg.TposTokenURL, cfg.TposTimeoutSecond)
	codec := notecodec.NewCodec(cfg.NoteSecretKey)

	orderCache := ordsvc.NewOrderCacheService(mustCollection(global.MongoDB_ColNames.OrderCache))
	history := histsvc.NewHistoryService(mustCollection(global.MongoDB_ColNames.BatchHistory))

	asgStore := asgsvc.NewStore(
		asgsvc.NewMongoStatePersister(mustCollection(global.MongoDB_ColNames.AssignmentStates), assignmentStoreKey),
		client,
		orderCache,
		0,
	)
	rmvStore := rmvsvc.NewStore(
		rmvsvc.NewMongoStatePersister(mustCollection(global.MongoDB_ColNames.RemovalStates), removalStoreKey),
		client,
		orderCache,
		codec,
		0,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := asgStore.Load(ctx); err != nil {
		log.WithError(err).Fatal("🔄 [INIT] Không nạp được phiên gán từ MongoDB")
	}
	if err := rmvStore.Load(ctx); err != nil {
		log.WithError(err).Fatal("🔄 [INIT] Không nạp được phiên gỡ từ MongoDB")
	}

	uploader := rcsvc.NewUploadService(client, client, codec, history, cfg.DefaultLineNote)
	remover := rcsvc.NewRemovalService(client, codec, history)

	notify := ntfsvc.NewNotifyService(
		cfg.TelegramBotToken,
		cfg.TelegramChatIDs,
		channels.SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		},
		cfg.NotifyEmails,
	)

	handlers := &router.Handlers{
		Assignment: asghdl.NewAssignmentHandler(asgStore, cfg.VariantAutoExpand),
		Removal:    rmvhdl.NewRemovalHandler(rmvStore),
		Batch:      rchdl.NewBatchHandler(asgStore, rmvStore, uploader, remover, notify),
		History:    histhdl.NewHistoryHandler(history),
		Orders:     ordhdl.NewOrdersHandler(orderCache, client),
	}

	log.Info("🔄 [INIT] Các service và handler đã sẵn sàng")
	return &AppServices{Handlers: handlers, AsgStore: asgStore, RmvStore: rmvStore}
}

func mustCollection(name string) *mongo.Collection {
	collection, exists := global.RegistryCollections.Get(name)
	if !exists {
		logger.GetAppLogger().Fatalf("🔄 [INIT] Collection %s chưa được đăng ký", name)
	}
	return collection
}
