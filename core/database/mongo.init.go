package database

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"tpos_commerce/core/global"
	"tpos_commerce/core/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect mở kết nối tới MongoDB và ping để xác nhận server sẵn sàng.
func Connect(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

// EnsureDatabaseAndCollections đảm bảo rằng cơ sở dữ liệu và các collection cần thiết tồn tại.
// Nếu các collection không tồn tại, chúng sẽ được tạo ra.
//
// Tham số:
// - client: Một đối tượng *mongo.Client kết nối tới MongoDB.
//
// Trả về:
// - error: Lỗi nếu có vấn đề xảy ra trong quá trình kiểm tra hoặc tạo cơ sở dữ liệu và collection.
func EnsureDatabaseAndCollections(client *mongo.Client) error {
	dbName := global.ServerConfig.MongoDB_DBName_Data

	// Tạo 1 context tổng 30 giây để duyệt tất cả collections
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Kiểm tra database
	dbList, err := client.ListDatabaseNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to list databases: %w", err)
	}

	dbExists := false
	for _, name := range dbList {
		if name == dbName {
			dbExists = true
			break
		}
	}
	if !dbExists {
		logger.GetAppLogger().Infof("Database %s does not exist, will create automatically by creating collections", dbName)
	}

	// Tạo database nếu chưa tồn tại
	db := client.Database(dbName)
	collections := []string{}
	v := reflect.ValueOf(global.MongoDB_ColNames)
	for i := 0; i < v.NumField(); i++ {
		collections = append(collections, v.Field(i).String())
	}

	// Kiểm tra và tạo collections
	collList, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, collectionName := range collections {
		exists := false
		for _, existingColl := range collList {
			if existingColl == collectionName {
				exists = true
				break
			}
		}
		// Tạo collection nếu chưa tồn tại
		if !exists {
			logger.GetAppLogger().Infof("Collection %s chưa tồn tại, tạo mới.", collectionName)
			if err := db.CreateCollection(ctx, collectionName); err != nil {
				return fmt.Errorf("failed to create collection %s: %w", collectionName, err)
			}
		}
	}

	// Đăng ký database và collections vào registry để các service lấy ra dùng
	if _, err := global.RegistryDatabase.Register(dbName, db); err != nil {
		return fmt.Errorf("failed to register database %s: %w", dbName, err)
	}
	for _, collectionName := range collections {
		if _, err := global.RegistryCollections.Register(collectionName, db.Collection(collectionName)); err != nil {
			return fmt.Errorf("failed to register collection %s: %w", collectionName, err)
		}
	}

	logger.GetAppLogger().Infof("Database and collections are ensured in database: %s", dbName)
	return nil
}

// EnsureIndexes tạo các index cần thiết cho những collection của hệ thống.
// Lịch sử upload/removal được truy vấn theo thời gian giảm dần; state được tra theo storeKey.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexSpecs := map[string][]mongo.IndexModel{
		global.MongoDB_ColNames.AssignmentStates: {
			{Keys: bson.D{{Key: "storeKey", Value: 1}}, Options: options.Index().SetName("storeKey_unique").SetUnique(true)},
		},
		global.MongoDB_ColNames.RemovalStates: {
			{Keys: bson.D{{Key: "storeKey", Value: 1}}, Options: options.Index().SetName("storeKey_unique").SetUnique(true)},
		},
		global.MongoDB_ColNames.BatchHistory: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("kind_createdAt")},
			{Keys: bson.D{{Key: "batchId", Value: 1}}, Options: options.Index().SetName("batchId_unique").SetUnique(true)},
		},
		global.MongoDB_ColNames.OrderCache: {
			{Keys: bson.D{{Key: "stt", Value: 1}}, Options: options.Index().SetName("stt_unique").SetUnique(true)},
		},
	}

	for collectionName, models := range indexSpecs {
		collection := db.Collection(collectionName)
		if _, err := collection.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("không thể tạo index cho collection %s: %w", collectionName, err)
		}
		logger.GetAppLogger().Infof("Đã đảm bảo index cho collection: %s", collectionName)
	}

	return nil
}
