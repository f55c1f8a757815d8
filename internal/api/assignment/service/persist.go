package asgsvc

import (
	"context"
	"errors"
	"time"

	"tpos_commerce/core/common"
	"tpos_commerce/core/logger"
	"tpos_commerce/internal/api/assignment/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StatePersister trừu tượng hóa việc lưu/đọc blob trạng thái phiên gán.
// Store nghiệp vụ chỉ phụ thuộc interface này nên test được với persister giả.
type StatePersister interface {
	Load(ctx context.Context) (*models.StoreState, error)
	Save(ctx context.Context, state *models.StoreState) error
	Delete(ctx context.Context) error
}

// MongoStatePersister lưu trạng thái phiên gán thành một document duy nhất
// theo storeKey trong MongoDB.
type MongoStatePersister struct {
	collection *mongo.Collection
	storeKey   string
}

func NewMongoStatePersister(collection *mongo.Collection, storeKey string) *MongoStatePersister {
	return &MongoStatePersister{collection: collection, storeKey: storeKey}
}

// Load đọc blob trạng thái. Blob legacy (chưa có _version) được migrate
// sang định dạng có wrapper ngay khi đọc. Blob hỏng coi như không tồn tại.
func (p *MongoStatePersister) Load(ctx context.Context) (*models.StoreState, error) {
	log := logger.WithModule("assignment")

	var raw bson.M
	err := p.collection.FindOne(ctx, bson.M{"storeKey": p.storeKey}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, common.ConvertMongoError(err)
	}

	migrated := false
	if _, hasVersion := raw["_version"]; !hasVersion {
		// Blob legacy: chỉ có mảng assignments trần, không có metadata
		log.Info("🔄 [MIGRATE] Phát hiện blob phiên gán legacy, migrate sang schema v1")
		migrated = true
	}

	var state models.StoreState
	rawBytes, err := bson.Marshal(raw)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	if err := bson.Unmarshal(rawBytes, &state); err != nil {
		// Blob hỏng: reset về phiên rỗng thay vì chặn toàn bộ tính năng
		log.WithError(err).Warn("🔄 [MIGRATE] Blob phiên gán hỏng, reset về rỗng")
		return nil, common.ErrNotFound
	}

	if state.Assignments == nil {
		state.Assignments = []models.Assignment{}
	}
	state.StoreKey = p.storeKey

	if migrated {
		state.Version = 1
		state.Timestamp = time.Now().UnixMilli()
		if err := p.Save(ctx, &state); err != nil {
			log.WithError(err).Warn("🔄 [MIGRATE] Không ghi lại được blob đã migrate")
		}
	}

	return &state, nil
}

// Save ghi đè blob trạng thái (upsert theo storeKey)
func (p *MongoStatePersister) Save(ctx context.Context, state *models.StoreState) error {
	state.StoreKey = p.storeKey
	state.Version = 1
	state.Timestamp = time.Now().UnixMilli()

	_, err := p.collection.ReplaceOne(
		ctx,
		bson.M{"storeKey": p.storeKey},
		state,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return common.ConvertMongoError(err)
	}
	return nil
}

// Delete xóa hẳn blob trạng thái (khi finalize phiên)
func (p *MongoStatePersister) Delete(ctx context.Context) error {
	_, err := p.collection.DeleteOne(ctx, bson.M{"storeKey": p.storeKey})
	if err != nil {
		return common.ConvertMongoError(err)
	}
	return nil
}
