package histsvc

import (
	"context"

	"tpos_commerce/core/common"
	"tpos_commerce/core/logger"
	"tpos_commerce/core/utility"
	basemodels "tpos_commerce/internal/api/base/models"
	basesvc "tpos_commerce/internal/api/base/service"
	"tpos_commerce/internal/api/history/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// HistoryService ghi và tra cứu lịch sử các batch upload/gỡ sản phẩm.
// Lịch sử là append-only: bản ghi không bao giờ sửa sau khi ghi.
type HistoryService struct {
	*basesvc.BaseServiceMongoImpl[models.HistoryRecord]
}

func NewHistoryService(collection *mongo.Collection) *HistoryService {
	return &HistoryService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.HistoryRecord](collection),
	}
}

// Append ghi một bản ghi lịch sử mới. Snapshot được deep-copy để bản ghi
// không bị ảnh hưởng khi caller tiếp tục sửa dữ liệu gốc.
func (s *HistoryService) Append(ctx context.Context, record models.HistoryRecord) (models.HistoryRecord, error) {
	record.SchemaVersion = models.CurrentSchemaVersion

	if record.Snapshot != nil {
		var snapshot interface{}
		if err := utility.DeepCopy(&snapshot, record.Snapshot); err != nil {
			logger.WithModule("history").WithError(err).
				Warn("Không deep-copy được snapshot, ghi bản ghi không kèm snapshot")
			record.Snapshot = nil
		} else {
			record.Snapshot = snapshot
		}
	}

	saved, err := s.InsertOne(ctx, record)
	if err != nil {
		return models.HistoryRecord{}, err
	}

	logger.WithModule("history").WithFields(map[string]interface{}{
		"kind":    saved.Kind,
		"batchId": saved.BatchID,
		"status":  saved.Status,
	}).Info("Đã ghi bản ghi lịch sử batch")
	return saved, nil
}

// ListByKind liệt kê lịch sử theo loại (upload/removal) có phân trang,
// mới nhất trước. kind rỗng trả về tất cả.
func (s *HistoryService) ListByKind(ctx context.Context, kind string, page, limit int64) (*basemodels.PaginateResult[models.HistoryRecord], error) {
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}
	return s.FindWithPagination(ctx, filter, page, limit)
}

// GetByID lấy một bản ghi lịch sử theo id hex
func (s *HistoryService) GetByID(ctx context.Context, id string) (models.HistoryRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.HistoryRecord{}, common.NewError(common.ErrCodeValidationFormat, "Id bản ghi không hợp lệ", common.StatusBadRequest, nil)
	}
	return s.FindOneById(ctx, oid)
}
