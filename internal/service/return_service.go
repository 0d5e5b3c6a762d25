package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/models"
	appErrors "github.com/visionary-built/MyCourierBackend/pkg/errors"
)

type returnStore interface {
	FindTodayByRider(ctx context.Context, riderID string) (*models.ReturnSheet, error)
	Create(ctx context.Context, sheet *models.ReturnSheet) error
	Append(ctx context.Context, sheetID, cn, orderStatus string) error
	FindByID(ctx context.Context, id string) (*models.ReturnSheet, error)
	SetOutcome(ctx context.Context, id string, outcome models.ReturnOutcome, remarks string) error
	List(ctx context.Context, filter dto.ReturnFilter) ([]models.ReturnSheet, int, error)
}

type returnRecorder interface {
	RecordReturn()
}

// ReturnService records consignments handed back by riders into per-rider
// daily batches.
type ReturnService struct {
	returns   returnStore
	riders    riderReader
	catalog   consignmentCatalog
	metrics   returnRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReturnService constructs ReturnService.
func NewReturnService(returns returnStore, riders riderReader, catalog consignmentCatalog, metrics returnRecorder, validate *validator.Validate, logger *zap.Logger) *ReturnService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReturnService{returns: returns, riders: riders, catalog: catalog, metrics: metrics, validator: validate, logger: logger}
}

// Register adds a consignment to the rider's batch for today, creating the
// batch if this is the first return of the day, and moves the consignment to
// returned. Registering the same number twice in one batch is a conflict.
func (s *ReturnService) Register(ctx context.Context, claims *models.JWTClaims, req dto.RegisterReturnRequest) (*models.ReturnSheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid return payload")
	}
	cn, err := NormalizeNumber(req.ConsignmentNumber)
	if err != nil {
		return nil, err
	}
	riderID := req.RiderID
	if riderID == "" && claims != nil {
		riderID = claims.UserID
	}
	if riderID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rider id is required")
	}

	rider, err := s.riders.FindByID(ctx, riderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrRiderInactive, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rider")
	}
	if !rider.Active {
		return nil, appErrors.Clone(appErrors.ErrRiderInactive, "")
	}

	con, err := s.catalog.FindByNumber(ctx, cn)
	if err != nil {
		return nil, err
	}

	batch, err := s.returns.FindTodayByRider(ctx, rider.ID)
	switch {
	case err == nil:
		if batch.Contains(cn) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Consignment number is already registered in this return sheet")
		}
		if err := s.returns.Append(ctx, batch.ID, cn, string(con.Status)); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update return sheet")
		}
	case err == sql.ErrNoRows:
		now := time.Now().UTC()
		batch = &models.ReturnSheet{
			ID:                 uuid.NewString(),
			RiderID:            rider.ID,
			RiderName:          rider.RiderName,
			RiderCode:          rider.RiderCode,
			ConsignmentNumbers: pq.StringArray{cn},
			OrderStatuses:      pq.StringArray{string(con.Status)},
			Count:              1,
			Outcome:            models.OutcomeReceivedAtOffice,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.returns.Create(ctx, batch); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create return sheet")
		}
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load return sheet")
	}

	entry := models.StatusHistoryEntry{
		Status:    models.StatusReturned,
		Timestamp: time.Now().UTC(),
		Remarks:   fmt.Sprintf("Returned by rider: %s (%s)", rider.RiderName, rider.RiderCode),
		UpdatedBy: claims.Actor(),
	}
	if _, err := s.catalog.Transition(ctx, cn, models.StatusReturned, entry); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordReturn()
	}

	updated, err := s.returns.FindByID(ctx, batch.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload return sheet")
	}
	return updated, nil
}

// TodayBatch returns the rider's open batch for today with parcel details.
func (s *ReturnService) TodayBatch(ctx context.Context, claims *models.JWTClaims) (*dto.ReturnSheetWithParcels, error) {
	batch, err := s.returns.FindTodayByRider(ctx, claims.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no return sheet registered today")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load return sheet")
	}
	parcels, err := s.catalog.ListByNumbers(ctx, batch.ConsignmentNumbers)
	if err != nil {
		return nil, err
	}
	return &dto.ReturnSheetWithParcels{ReturnSheet: batch, Parcels: parcels}, nil
}

// Complete records the batch disposition. Consignment statuses are left
// untouched; an unspecified outcome defaults to sending the parcels back.
func (s *ReturnService) Complete(ctx context.Context, batchID string, req dto.CompleteReturnRequest) (*models.ReturnSheet, error) {
	outcome := req.Outcome
	if outcome == "" {
		outcome = models.OutcomeToBeSentBack
	}
	switch outcome {
	case models.OutcomeToBeSentBack, models.OutcomeReceivedAtOffice, models.OutcomeOther:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid return outcome")
	}

	if err := s.returns.SetOutcome(ctx, batchID, outcome, req.Remarks); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "return sheet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete return sheet")
	}

	updated, err := s.returns.FindByID(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload return sheet")
	}
	return updated, nil
}

// List returns batches for admin review.
func (s *ReturnService) List(ctx context.Context, filter dto.ReturnFilter) ([]models.ReturnSheet, *models.Pagination, error) {
	sheets, total, err := s.returns.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list return sheets")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}
	pagination := &models.Pagination{Page: page, PageSize: limit, TotalCount: total}
	return sheets, pagination, nil
}
