package ordsvc

import (
	"context"
	"errors"

	"tpos_commerce/core/common"
	"tpos_commerce/core/logger"
	basesvc "tpos_commerce/internal/api/base/service"
	"tpos_commerce/internal/tpos"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SummaryFetcher là phần của TPOS client mà cache đơn hàng cần
type SummaryFetcher interface {
	FetchOrderSummaries(ctx context.Context, top int) ([]tpos.OrderSummary, error)
}

// OrderCacheService giữ cache cục bộ danh sách đơn hàng theo STT trong MongoDB.
// Cache phục vụ tra cứu nhanh khi gán vé; dữ liệu gốc luôn là TPOS.
type OrderCacheService struct {
	*basesvc.BaseServiceMongoImpl[tpos.OrderSummary]
}

func NewOrderCacheService(collection *mongo.Collection) *OrderCacheService {
	return &OrderCacheService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[tpos.OrderSummary](collection),
	}
}

// Refresh thay toàn bộ cache bằng danh sách đơn mới nhất từ TPOS
func (s *OrderCacheService) Refresh(ctx context.Context, fetcher SummaryFetcher, top int) (int, error) {
	log := logger.WithModule("orders")

	summaries, err := fetcher.FetchOrderSummaries(ctx, top)
	if err != nil {
		return 0, err
	}

	if _, err := s.DeleteByFilter(ctx, bson.M{}); err != nil {
		return 0, err
	}
	if len(summaries) > 0 {
		docs := make([]interface{}, len(summaries))
		for i, summary := range summaries {
			docs[i] = summary
		}
		if _, err := s.Collection().InsertMany(ctx, docs); err != nil {
			return 0, common.ConvertMongoError(err)
		}
	}

	log.WithField("orderCount", len(summaries)).Info("Đã làm mới cache đơn hàng từ TPOS")
	return len(summaries), nil
}

// Lookup tra thông tin đơn hàng theo STT từ cache
func (s *OrderCacheService) Lookup(ctx context.Context, stt string) (tpos.OrderSummary, bool) {
	summary, err := s.FindOne(ctx, bson.M{"stt": stt})
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			logger.WithModule("orders").WithError(err).WithField("stt", stt).
				Warn("Lỗi tra cache đơn hàng")
		}
		return tpos.OrderSummary{}, false
	}
	return summary, true
}

// List liệt kê toàn bộ cache hiện tại (phục vụ màn hình chọn vé)
func (s *OrderCacheService) List(ctx context.Context) ([]tpos.OrderSummary, error) {
	return s.Find(ctx, bson.M{}, nil)
}
