package basesvc

import (
	"context"
	"reflect"
	"time"

	"tpos_commerce/core/common"
	basemodels "tpos_commerce/internal/api/base/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BaseServiceMongo định nghĩa các thao tác CRUD chuẩn trên một collection MongoDB.
// Các service nghiệp vụ embed implementation này và bổ sung logic riêng.
type BaseServiceMongo[T any] interface {
	InsertOne(ctx context.Context, data T) (T, error)
	FindOne(ctx context.Context, filter interface{}) (T, error)
	FindOneById(ctx context.Context, id primitive.ObjectID) (T, error)
	Find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]T, error)
	FindWithPagination(ctx context.Context, filter interface{}, page int64, limit int64) (*basemodels.PaginateResult[T], error)
	UpdateById(ctx context.Context, id primitive.ObjectID, data T) (T, error)
	UpsertByFilter(ctx context.Context, filter interface{}, data T) (T, error)
	DeleteById(ctx context.Context, id primitive.ObjectID) error
	DeleteByFilter(ctx context.Context, filter interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

// BaseServiceMongoImpl triển khai BaseServiceMongo trên một *mongo.Collection
type BaseServiceMongoImpl[T any] struct {
	collection *mongo.Collection
}

// NewBaseServiceMongo tạo base service mới cho collection đã cho
func NewBaseServiceMongo[T any](collection *mongo.Collection) *BaseServiceMongoImpl[T] {
	return &BaseServiceMongoImpl[T]{collection: collection}
}

// Collection trả về collection gốc cho các thao tác đặc thù không có trong interface
func (s *BaseServiceMongoImpl[T]) Collection() *mongo.Collection {
	return s.collection
}

// InsertOne chèn một document mới, tự gán CreatedAt/UpdatedAt nếu model có các field đó
func (s *BaseServiceMongoImpl[T]) InsertOne(ctx context.Context, data T) (T, error) {
	var zero T

	now := time.Now().UnixMilli()
	setTimeField(&data, "CreatedAt", now)
	setTimeField(&data, "UpdatedAt", now)

	result, err := s.collection.InsertOne(ctx, data)
	if err != nil {
		return zero, common.ConvertMongoError(err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		setObjectIDField(&data, "ID", oid)
	}
	return data, nil
}

// FindOne tìm một document theo filter
func (s *BaseServiceMongoImpl[T]) FindOne(ctx context.Context, filter interface{}) (T, error) {
	var result T
	if err := s.collection.FindOne(ctx, filter).Decode(&result); err != nil {
		return result, common.ConvertMongoError(err)
	}
	return result, nil
}

// FindOneById tìm một document theo _id
func (s *BaseServiceMongoImpl[T]) FindOneById(ctx context.Context, id primitive.ObjectID) (T, error) {
	return s.FindOne(ctx, bson.M{"_id": id})
}

// Find tìm nhiều documents theo filter
func (s *BaseServiceMongoImpl[T]) Find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]T, error) {
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	results := make([]T, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return results, nil
}

// FindWithPagination tìm documents có phân trang, sort theo createdAt giảm dần
func (s *BaseServiceMongoImpl[T]) FindWithPagination(ctx context.Context, filter interface{}, page int64, limit int64) (*basemodels.PaginateResult[T], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}

	opts := options.Find().
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	items, err := s.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	pageCount := total / limit
	if total%limit != 0 {
		pageCount++
	}

	return &basemodels.PaginateResult[T]{
		Items:     items,
		Page:      page,
		Limit:     limit,
		ItemCount: total,
		PageCount: pageCount,
	}, nil
}

// UpdateById cập nhật document theo _id, tự gán UpdatedAt
func (s *BaseServiceMongoImpl[T]) UpdateById(ctx context.Context, id primitive.ObjectID, data T) (T, error) {
	var zero T

	setTimeField(&data, "UpdatedAt", time.Now().UnixMilli())

	update := bson.M{"$set": data}
	result := s.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return zero, common.ConvertMongoError(result.Err())
	}

	var updated T
	if err := result.Decode(&updated); err != nil {
		return zero, common.ConvertMongoError(err)
	}
	return updated, nil
}

// UpsertByFilter ghi đè document khớp filter, tạo mới nếu chưa tồn tại
func (s *BaseServiceMongoImpl[T]) UpsertByFilter(ctx context.Context, filter interface{}, data T) (T, error) {
	var zero T

	now := time.Now().UnixMilli()
	setTimeField(&data, "UpdatedAt", now)

	result := s.collection.FindOneAndReplace(
		ctx,
		filter,
		data,
		options.FindOneAndReplace().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return zero, common.ConvertMongoError(result.Err())
	}

	var updated T
	if err := result.Decode(&updated); err != nil {
		return zero, common.ConvertMongoError(err)
	}
	return updated, nil
}

// DeleteById xóa document theo _id
func (s *BaseServiceMongoImpl[T]) DeleteById(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return common.ConvertMongoError(err)
	}
	if result.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteByFilter xóa tất cả documents khớp filter, trả về số lượng đã xóa
func (s *BaseServiceMongoImpl[T]) DeleteByFilter(ctx context.Context, filter interface{}) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return result.DeletedCount, nil
}

// CountDocuments đếm số documents khớp filter
func (s *BaseServiceMongoImpl[T]) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return count, nil
}

// setTimeField gán giá trị int64 vào field thời gian nếu model có field đó
func setTimeField(data interface{}, fieldName string, value int64) {
	v := reflect.ValueOf(data).Elem()
	if v.Kind() != reflect.Struct {
		return
	}
	field := v.FieldByName(fieldName)
	if field.IsValid() && field.CanSet() && field.Kind() == reflect.Int64 {
		field.SetInt(value)
	}
}

// setObjectIDField gán ObjectID vào field nếu model có field đó
func setObjectIDField(data interface{}, fieldName string, value primitive.ObjectID) {
	v := reflect.ValueOf(data).Elem()
	if v.Kind() != reflect.Struct {
		return
	}
	field := v.FieldByName(fieldName)
	if field.IsValid() && field.CanSet() && field.Type() == reflect.TypeOf(value) {
		field.Set(reflect.ValueOf(value))
	}
}
