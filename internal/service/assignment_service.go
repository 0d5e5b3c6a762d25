package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/models"
	"github.com/visionary-built/MyCourierBackend/internal/repository"
	appErrors "github.com/visionary-built/MyCourierBackend/pkg/errors"
)

// Numbers entering the assignment flow are held to the strict form; the
// hyphen-tolerant lookup form is accepted everywhere else.
var consignmentAssignPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

type riderReader interface {
	FindByID(ctx context.Context, id string) (*models.Rider, error)
	ListActive(ctx context.Context) ([]models.Rider, error)
}

type sheetStore interface {
	CreateWithGuard(ctx context.Context, sheet *models.DeliverySheet) error
	PurgeEmptyActive(ctx context.Context, riderID string) error
	FindActiveByConsignment(ctx context.Context, cn string) (*models.DeliverySheet, error)
	FindActiveByRider(ctx context.Context, riderID string) (*models.DeliverySheet, error)
	ListActiveByRider(ctx context.Context, riderID string) ([]models.DeliverySheet, error)
	RemoveConsignment(ctx context.Context, sheetID, cn string) error
	Complete(ctx context.Context, sheetID, remarks string) error
	FindByID(ctx context.Context, id string) (*models.DeliverySheet, error)
	List(ctx context.Context, filter dto.SheetFilter) ([]models.DeliverySheet, int, error)
}

type consignmentCatalog interface {
	FindByNumber(ctx context.Context, cn string) (*models.Consignment, error)
	Transition(ctx context.Context, cn string, status models.ConsignmentStatus, entry models.StatusHistoryEntry) (*models.Consignment, error)
	AppendRemark(ctx context.Context, cn, text string) error
	ListByNumbers(ctx context.Context, numbers []string) ([]models.Consignment, error)
}

type assignmentRecorder interface {
	RecordAssignment()
	RecordDecline()
}

// AssignmentService drives the rider assignment protocol: sheet creation
// with the exclusivity guard, accept/decline, removal and completion.
type AssignmentService struct {
	riders    riderReader
	sheets    sheetStore
	catalog   consignmentCatalog
	metrics   assignmentRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(riders riderReader, sheets sheetStore, catalog consignmentCatalog, metrics assignmentRecorder, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{riders: riders, sheets: sheets, catalog: catalog, metrics: metrics, validator: validate, logger: logger}
}

func normalizeAssignNumber(cn string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(cn))
	if normalized == "" || !consignmentAssignPattern.MatchString(normalized) {
		return "", appErrors.Clone(appErrors.ErrValidation, "invalid consignment number format")
	}
	return normalized, nil
}

// Assign puts a consignment onto a fresh delivery sheet for the rider and
// moves it to in-transit. At most one active sheet may hold a consignment
// number; the guard table enforces this even under concurrent assigns.
func (s *AssignmentService) Assign(ctx context.Context, claims *models.JWTClaims, req dto.AssignRequest) (*models.DeliverySheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	cn, err := normalizeAssignNumber(req.ConsignmentNumber)
	if err != nil {
		return nil, err
	}

	rider, err := s.riders.FindByID(ctx, req.RiderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrRiderInactive, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rider")
	}
	if !rider.Active {
		return nil, appErrors.Clone(appErrors.ErrRiderInactive, "")
	}

	if _, err := s.catalog.FindByNumber(ctx, cn); err != nil {
		return nil, err
	}

	if existing, err := s.sheets.FindActiveByConsignment(ctx, cn); err == nil {
		return nil, s.assignConflict(existing, rider.ID)
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active sheets")
	}

	if err := s.sheets.PurgeEmptyActive(ctx, rider.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge empty sheets")
	}

	now := time.Now().UTC()
	sheet := &models.DeliverySheet{
		ID:                 uuid.NewString(),
		RiderID:            rider.ID,
		RiderName:          rider.RiderName,
		RiderCode:          rider.RiderCode,
		ConsignmentNumbers: pq.StringArray{cn},
		Count:              1,
		Status:             models.SheetActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.sheets.CreateWithGuard(ctx, sheet); err != nil {
		if errors.Is(err, repository.ErrConsignmentTaken) {
			// Lost the race; consult the winner for the precise conflict.
			if existing, findErr := s.sheets.FindActiveByConsignment(ctx, cn); findErr == nil {
				return nil, s.assignConflict(existing, rider.ID)
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, "Consignment number is already assigned to another active rider")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create delivery sheet")
	}

	assignRemark := fmt.Sprintf("Assigned to rider: %s (%s)", rider.RiderName, rider.RiderCode)
	entry := models.StatusHistoryEntry{
		Status:    models.StatusInTransit,
		Timestamp: now,
		Remarks:   assignRemark,
		UpdatedBy: claims.Actor(),
	}
	if _, err := s.catalog.Transition(ctx, cn, models.StatusInTransit, entry); err != nil {
		return nil, err
	}
	if err := s.catalog.AppendRemark(ctx, cn, assignRemark); err != nil {
		s.logger.Warn("failed to append assignment remark", zap.String("consignment", cn), zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordAssignment()
	}
	return sheet, nil
}

func (s *AssignmentService) assignConflict(sheet *models.DeliverySheet, riderID string) error {
	if sheet.RiderID == riderID {
		return appErrors.Clone(appErrors.ErrConflict, "Consignment number is already assigned to you in another delivery sheet")
	}
	return appErrors.Clone(appErrors.ErrConflict, "Consignment number is already assigned to another active rider")
}

// Remove takes a consignment off the rider's active sheet and sends it back
// to pending so an admin can reassign it.
func (s *AssignmentService) Remove(ctx context.Context, claims *models.JWTClaims, req dto.RemoveConsignmentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid removal payload")
	}
	cn, err := normalizeAssignNumber(req.ConsignmentNumber)
	if err != nil {
		return err
	}

	sheet, err := s.activeSheetHolding(ctx, req.RiderID, cn)
	if err != nil {
		return err
	}
	if err := s.sheets.RemoveConsignment(ctx, sheet.ID, cn); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update delivery sheet")
	}

	const removeRemark = "Removed from delivery assignment - back to pending"
	entry := models.StatusHistoryEntry{
		Status:    models.StatusPending,
		Timestamp: time.Now().UTC(),
		Remarks:   removeRemark,
		UpdatedBy: claims.Actor(),
	}
	if _, err := s.catalog.Transition(ctx, cn, models.StatusPending, entry); err != nil {
		return err
	}
	if err := s.catalog.AppendRemark(ctx, cn, removeRemark); err != nil {
		s.logger.Warn("failed to append removal remark", zap.String("consignment", cn), zap.Error(err))
	}
	return nil
}

// Accept records the rider's acknowledgement of an assigned consignment.
// Sheet state is untouched.
func (s *AssignmentService) Accept(ctx context.Context, claims *models.JWTClaims, consignmentNumber string) (*models.Consignment, error) {
	cn, err := normalizeAssignNumber(consignmentNumber)
	if err != nil {
		return nil, err
	}
	if _, err := s.activeSheetHolding(ctx, claims.UserID, cn); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	note := fmt.Sprintf("Accepted by %s at %s", claims.Actor(), now.Format(time.RFC3339))
	entry := models.StatusHistoryEntry{
		Status:    models.StatusInTransit,
		Timestamp: now,
		Remarks:   note,
		UpdatedBy: claims.Actor(),
	}
	con, err := s.catalog.Transition(ctx, cn, models.StatusInTransit, entry)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.AppendRemark(ctx, cn, note); err != nil {
		s.logger.Warn("failed to append acceptance remark", zap.String("consignment", cn), zap.Error(err))
	}
	return con, nil
}

// Decline takes the consignment off the rider's sheet with a reason. The
// status reverts to pending only when it is still in-transit; a consignment
// already delivered keeps its state.
func (s *AssignmentService) Decline(ctx context.Context, claims *models.JWTClaims, consignmentNumber string, req dto.DeclineRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "decline reason must be at least 3 characters")
	}
	cn, err := normalizeAssignNumber(consignmentNumber)
	if err != nil {
		return err
	}

	sheet, err := s.activeSheetHolding(ctx, claims.UserID, cn)
	if err != nil {
		return err
	}
	con, err := s.catalog.FindByNumber(ctx, cn)
	if err != nil {
		return err
	}

	if err := s.sheets.RemoveConsignment(ctx, sheet.ID, cn); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update delivery sheet")
	}

	now := time.Now().UTC()
	note := fmt.Sprintf("Declined by %s at %s: %s", claims.Actor(), now.Format(time.RFC3339), req.Reason)
	if con.Status == models.StatusInTransit {
		entry := models.StatusHistoryEntry{
			Status:    models.StatusPending,
			Timestamp: now,
			Reason:    req.Reason,
			Remarks:   note,
			UpdatedBy: claims.Actor(),
		}
		if _, err := s.catalog.Transition(ctx, cn, models.StatusPending, entry); err != nil {
			return err
		}
	}
	if err := s.catalog.AppendRemark(ctx, cn, note); err != nil {
		s.logger.Warn("failed to append decline remark", zap.String("consignment", cn), zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordDecline()
	}
	return nil
}

// Complete closes the rider's active sheet and marks every consignment on it
// delivered with the delivery date stamped.
func (s *AssignmentService) Complete(ctx context.Context, claims *models.JWTClaims, req dto.CompleteSheetRequest) (*models.DeliverySheet, error) {
	sheet, err := s.sheets.FindActiveByRider(ctx, claims.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active delivery sheet found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load delivery sheet")
	}

	if err := s.sheets.Complete(ctx, sheet.ID, req.Remarks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete delivery sheet")
	}

	now := time.Now().UTC()
	for _, cn := range sheet.ConsignmentNumbers {
		entry := models.StatusHistoryEntry{
			Status:    models.StatusDelivered,
			Timestamp: now,
			Remarks:   "Delivered on sheet completion",
			UpdatedBy: claims.Actor(),
		}
		if _, err := s.catalog.Transition(ctx, cn, models.StatusDelivered, entry); err != nil {
			s.logger.Warn("failed to mark consignment delivered",
				zap.String("consignment", cn), zap.String("sheet", sheet.ID), zap.Error(err))
		}
	}

	updated, err := s.sheets.FindByID(ctx, sheet.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload delivery sheet")
	}
	return updated, nil
}

// ActiveRiders lists riders available for assignment.
func (s *AssignmentService) ActiveRiders(ctx context.Context) ([]models.Rider, error) {
	riders, err := s.riders.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list riders")
	}
	return riders, nil
}

// MySheets returns the rider's active sheets with parcel details merged from
// both record families.
func (s *AssignmentService) MySheets(ctx context.Context, claims *models.JWTClaims) ([]dto.SheetWithParcels, error) {
	sheets, err := s.sheets.ListActiveByRider(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load delivery sheets")
	}
	results := make([]dto.SheetWithParcels, 0, len(sheets))
	for i := range sheets {
		parcels, err := s.parcelsFor(ctx, &sheets[i])
		if err != nil {
			return nil, err
		}
		results = append(results, dto.SheetWithParcels{DeliverySheet: &sheets[i], Parcels: parcels})
	}
	return results, nil
}

// List returns sheets for admin review.
func (s *AssignmentService) List(ctx context.Context, filter dto.SheetFilter) ([]models.DeliverySheet, *models.Pagination, error) {
	sheets, total, err := s.sheets.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list delivery sheets")
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

// Detail returns one sheet with its parcels.
func (s *AssignmentService) Detail(ctx context.Context, sheetID string) (*dto.SheetWithParcels, error) {
	sheet, err := s.sheets.FindByID(ctx, sheetID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "delivery sheet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load delivery sheet")
	}
	parcels, err := s.parcelsFor(ctx, sheet)
	if err != nil {
		return nil, err
	}
	return &dto.SheetWithParcels{DeliverySheet: sheet, Parcels: parcels}, nil
}

func (s *AssignmentService) activeSheetHolding(ctx context.Context, riderID, cn string) (*models.DeliverySheet, error) {
	sheet, err := s.sheets.FindActiveByConsignment(ctx, cn)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "consignment is not on an active delivery sheet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load delivery sheet")
	}
	if sheet.RiderID != riderID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "consignment is not on your active delivery sheet")
	}
	return sheet, nil
}

func (s *AssignmentService) parcelsFor(ctx context.Context, sheet *models.DeliverySheet) ([]dto.ParcelItem, error) {
	if len(sheet.ConsignmentNumbers) == 0 {
		return []dto.ParcelItem{}, nil
	}
	consignments, err := s.catalog.ListByNumbers(ctx, sheet.ConsignmentNumbers)
	if err != nil {
		return nil, err
	}
	parcels := make([]dto.ParcelItem, 0, len(consignments))
	for _, c := range consignments {
		item := dto.ParcelItem{
			ConsignmentNumber: c.ConsignmentNumber,
			DestinationCity:   c.DestinationCity,
			AccountNo:         c.AccountNo,
			AgentName:         c.AgentName,
			Status:            c.Status,
			BookingDate:       c.BookingDate.Format("2006-01-02"),
			Remarks:           c.Remarks,
			Source:            c.Source,
		}
		if c.DeliveryDate != nil {
			item.DeliveryDate = c.DeliveryDate.Format("2006-01-02")
		}
		parcels = append(parcels, item)
	}
	return parcels, nil
}
