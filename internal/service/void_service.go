package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/models"
	appErrors "github.com/visionary-built/MyCourierBackend/pkg/errors"
)

type voidStore interface {
	AutoVoidCritical(ctx context.Context, classify func(*models.Consignment) models.ValidationFlags) ([]models.VoidedConsignment, error)
	ListVoided(ctx context.Context, filter dto.VoidFilter) ([]models.Consignment, int, error)
	Void(ctx context.Context, cn string, entry models.StatusHistoryEntry) (*models.Consignment, error)
}

type voidRecorder interface {
	RecordAutoVoids(n int)
}

// VoidService cancels consignments, both manually and through the
// reconciliation sweep that voids anything carrying critical flags. The
// sweep is idempotent: a clean pass voids nothing and caches clean flags.
type VoidService struct {
	store      voidStore
	classifier *Classifier
	mirror     statusMirror
	metrics    voidRecorder
	logger     *zap.Logger
}

// NewVoidService constructs VoidService.
func NewVoidService(store voidStore, classifier *Classifier, mirror statusMirror, metrics voidRecorder, logger *zap.Logger) *VoidService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoidService{store: store, classifier: classifier, mirror: mirror, metrics: metrics, logger: logger}
}

// Sweep cancels every non-cancelled consignment whose classification carries
// critical flags. The primary family is updated in one transaction; the
// sibling family is mirrored after commit.
func (s *VoidService) Sweep(ctx context.Context) ([]models.VoidedConsignment, error) {
	voided, err := s.store.AutoVoidCritical(ctx, s.classifier.Classify)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "auto-void sweep failed")
	}
	if len(voided) == 0 {
		return voided, nil
	}

	now := time.Now().UTC()
	for _, v := range voided {
		s.mirror.Mirror(PropagationTask{
			ConsignmentNumber: v.ConsignmentNumber,
			Source:            models.SourceBooking,
			Status:            models.StatusCancelled,
			Entry: models.StatusHistoryEntry{
				Status:    models.StatusCancelled,
				Timestamp: now,
				Reason:    v.Reason,
				Remarks:   "Automatically voided due to: " + strings.Join(v.Flags, ", "),
				UpdatedBy: "system",
			},
		})
	}

	if s.metrics != nil {
		s.metrics.RecordAutoVoids(len(voided))
	}
	s.logger.Info("auto-void sweep cancelled consignments", zap.Int("count", len(voided)))
	return voided, nil
}

// ListVoided sweeps first, then returns the cancelled consignments with a
// severity summary of the listed page.
func (s *VoidService) ListVoided(ctx context.Context, filter dto.VoidFilter) (*dto.VoidListResult, *models.Pagination, error) {
	swept, err := s.Sweep(ctx)
	if err != nil {
		return nil, nil, err
	}

	items, total, err := s.store.ListVoided(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list voided consignments")
	}

	summary := dto.VoidSummary{Total: total}
	for i := range items {
		flags := items[i].ValidationFlags
		switch {
		case flags.HasCritical():
			summary.Invalid++
		case len(flags.Moderate) > 0:
			summary.Flagged++
		default:
			summary.Valid++
		}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: limit, TotalCount: total}
	return &dto.VoidListResult{Consignments: items, Summary: summary, Swept: swept}, pagination, nil
}

// Void cancels one consignment manually. A sweep runs first so the manual
// void and the reconciliation never disagree about the same record.
func (s *VoidService) Void(ctx context.Context, claims *models.JWTClaims, req dto.VoidRequest) (*models.Consignment, error) {
	cn, err := NormalizeNumber(req.ConsignmentNumber)
	if err != nil {
		return nil, err
	}
	if _, err := s.Sweep(ctx); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "Voided by administrator"
	}
	entry := models.StatusHistoryEntry{
		Status:    models.StatusCancelled,
		Timestamp: time.Now().UTC(),
		Reason:    reason,
		Remarks:   req.Remarks,
		UpdatedBy: claims.Actor(),
	}

	con, err := s.store.Void(ctx, cn, entry)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "consignment not found or already cancelled")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to void consignment")
	}

	s.mirror.Mirror(PropagationTask{
		ConsignmentNumber: cn,
		Source:            models.SourceBooking,
		Status:            models.StatusCancelled,
		Entry:             entry,
	})
	return con, nil
}
