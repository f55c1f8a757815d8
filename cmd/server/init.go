package main

import (
	"context"
	"time"

	"tpos_commerce/config"
	"tpos_commerce/core/database"
	"tpos_commerce/core/global"
	"tpos_commerce/core/logger"
	"tpos_commerce/core/utility"
)

// InitGlobal khởi tạo các biến toàn cục theo thứ tự phụ thuộc:
// validator → config → database → firebase
func InitGlobal() {
	initValidator()
	initConfig()
	initDatabase_MongoDB()
	initFirebase()
}

func initValidator() {
	global.InitValidator()
	logger.GetAppLogger().Info("🔄 [INIT] Validator đã được khởi tạo")
}

func initConfig() {
	cfg := config.NewConfig()
	if cfg == nil {
		logger.GetAppLogger().Fatal("🔄 [INIT] Không đọc được cấu hình, dừng server")
	}
	global.ServerConfig = cfg
	logger.GetAppLogger().Info("🔄 [INIT] Cấu hình server đã được nạp")
}

func initDatabase_MongoDB() {
	log := logger.GetAppLogger()

	client, err := database.Connect(global.ServerConfig.MongoDB_ConnectionURI)
	if err != nil {
		log.WithError(err).Fatal("🔄 [INIT] Không kết nối được MongoDB")
	}
	global.MongoDB_Session = client

	if err := database.EnsureDatabaseAndCollections(client); err != nil {
		log.WithError(err).Fatal("🔄 [INIT] Không đảm bảo được database/collections")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db := client.Database(global.ServerConfig.MongoDB_DBName_Data)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.WithError(err).Fatal("🔄 [INIT] Không tạo được index")
	}

	log.Info("🔄 [INIT] MongoDB đã sẵn sàng")
}

func initFirebase() {
	log := logger.GetAppLogger()
	cfg := global.ServerConfig

	if cfg.FirebaseProjectID == "" || cfg.FirebaseCredentialsPath == "" {
		log.Warn("🔄 [INIT] Thiếu cấu hình Firebase, các route nghiệp vụ sẽ từ chối mọi token")
		return
	}

	if err := utility.InitFirebase(cfg.FirebaseProjectID, cfg.FirebaseCredentialsPath); err != nil {
		log.WithError(err).Fatal("🔄 [INIT] Không khởi tạo được Firebase")
	}
	log.Info("🔄 [INIT] Firebase Admin SDK đã được khởi tạo")
}
