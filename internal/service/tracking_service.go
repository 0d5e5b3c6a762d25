package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/models"
)

type consignmentFinder interface {
	FindByNumber(ctx context.Context, cn string) (*models.Consignment, error)
}

// TrackingService serves the public shipment trail with a short-lived cache
// in front. Staleness is bounded by the TTL; status writes do not invalidate.
type TrackingService struct {
	catalog consignmentFinder
	cache   *CacheService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewTrackingService constructs TrackingService.
func NewTrackingService(catalog consignmentFinder, cache *CacheService, ttl time.Duration, logger *zap.Logger) *TrackingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingService{catalog: catalog, cache: cache, ttl: ttl, logger: logger}
}

// Track returns the tracking view for a consignment number.
func (s *TrackingService) Track(ctx context.Context, consignmentNumber string) (*dto.TrackingView, error) {
	cn, err := NormalizeNumber(consignmentNumber)
	if err != nil {
		return nil, err
	}

	key := "tracking:" + cn
	var view dto.TrackingView
	if hit, _ := s.cache.Get(ctx, key, &view); hit {
		return &view, nil
	}

	con, err := s.catalog.FindByNumber(ctx, cn)
	if err != nil {
		return nil, err
	}

	view = dto.TrackingView{
		ConsignmentNumber: con.ConsignmentNumber,
		Status:            con.Status,
		DestinationCity:   con.DestinationCity,
		OriginCity:        con.OriginCity,
		BookingDate:       con.BookingDate,
		DeliveryDate:      con.DeliveryDate,
		History:           con.StatusHistory,
	}
	if err := s.cache.Set(ctx, key, view, s.ttl); err != nil {
		s.logger.Debug("tracking cache write failed", zap.String("consignment", cn), zap.Error(err))
	}
	return &view, nil
}
