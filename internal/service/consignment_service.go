package service

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/models"
	appErrors "github.com/visionary-built/MyCourierBackend/pkg/errors"
)

// Lookup tolerates hyphenated legacy numbers; anything entering the
// assignment flow is held to the stricter alphanumeric form.
var consignmentLookupPattern = regexp.MustCompile(`^[A-Z0-9-]+$`)

type bookingStore interface {
	Insert(ctx context.Context, c *models.Consignment) error
	FindByNumber(ctx context.Context, cn string) (*models.Consignment, error)
	Exists(ctx context.Context, cn string) (bool, error)
	UpdateStatus(ctx context.Context, cn string, status models.ConsignmentStatus, entry models.StatusHistoryEntry, deliveryDate *time.Time) error
	AppendRemark(ctx context.Context, cn, text string) error
	List(ctx context.Context, filter dto.ConsignmentFilter) ([]models.Consignment, int, error)
	ListByNumbers(ctx context.Context, numbers []string) ([]models.Consignment, error)
}

type manualStore interface {
	FindByNumber(ctx context.Context, cn string) (*models.Consignment, error)
	Exists(ctx context.Context, cn string) (bool, error)
	UpdateStatus(ctx context.Context, cn string, status models.ConsignmentStatus, entry models.StatusHistoryEntry) error
	AppendRemark(ctx context.Context, cn, text string) error
	ListByNumbers(ctx context.Context, numbers []string) ([]models.Consignment, error)
}

type sheetTracker interface {
	FindActiveByConsignment(ctx context.Context, cn string) (*models.DeliverySheet, error)
	FindRiderSheetHolding(ctx context.Context, riderID, cn string) (bool, error)
	CloseDeliveredConsignment(ctx context.Context, cn string) error
}

type statusMirror interface {
	Mirror(task PropagationTask)
}

// ConsignmentService owns the shipment lifecycle shared by both record
// families: screening on creation, lookups, status transitions and the
// best-effort mirror to the sibling family.
type ConsignmentService struct {
	bookings   bookingStore
	manual     manualStore
	sheets     sheetTracker
	classifier *Classifier
	mirror     statusMirror
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewConsignmentService constructs ConsignmentService.
func NewConsignmentService(bookings bookingStore, manual manualStore, sheets sheetTracker, classifier *Classifier, mirror statusMirror, validate *validator.Validate, logger *zap.Logger) *ConsignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsignmentService{bookings: bookings, manual: manual, sheets: sheets, classifier: classifier, mirror: mirror, validator: validate, logger: logger}
}

// NormalizeNumber uppercases a consignment number and checks its format.
func NormalizeNumber(cn string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(cn))
	if normalized == "" || !consignmentLookupPattern.MatchString(normalized) {
		return "", appErrors.Clone(appErrors.ErrValidation, "invalid consignment number format")
	}
	return normalized, nil
}

// Create screens and persists a new booking. When critical flags block the
// creation, the returned rejection carries both flag sets so the caller can
// decide what to fix before resubmitting.
func (s *ConsignmentService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateBookingRequest) (*models.Consignment, *dto.BookingRejection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	cn, err := NormalizeNumber(req.ConsignmentNumber)
	if err != nil {
		return nil, nil, err
	}

	accountNo := strings.TrimSpace(req.AccountNo)
	agentName := strings.TrimSpace(req.AgentName)
	if claims != nil && claims.Role == models.RoleCustomer {
		if accountNo == "" {
			accountNo = claims.AccountNo
		}
		if agentName == "" {
			agentName = claims.UserID
		}
	}

	duplicate, err := s.existsInEitherFamily(ctx, cn)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check consignment number")
	}

	now := time.Now().UTC()
	con := &models.Consignment{
		ID:                uuid.NewString(),
		ConsignmentNumber: cn,
		ConsigneeName:     req.ConsigneeName,
		ConsigneeAddress:  req.ConsigneeAddress,
		ConsigneeMobile:   strings.TrimSpace(req.ConsigneeMobile),
		Pieces:            req.Pieces,
		Weight:            req.Weight,
		CODAmount:         req.CODAmount,
		ReferenceNo:       req.ReferenceNo,
		DestinationCity:   strings.TrimSpace(req.DestinationCity),
		OriginCity:        strings.TrimSpace(req.OriginCity),
		ServiceType:       strings.TrimSpace(req.ServiceType),
		AccountNo:         accountNo,
		AgentName:         agentName,
		Status:            models.StatusPending,
		BookingDate:       now,
		Remarks:           req.Remarks,
		Source:            models.SourceBooking,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	flags := s.classifier.ClassifyCreation(con, duplicate)
	con.ValidationFlags = flags
	if flags.HasCritical() {
		rejection := &dto.BookingRejection{Critical: flags.Critical, Moderate: flags.Moderate}
		return nil, rejection, appErrors.Clone(appErrors.ErrValidation, "booking rejected by validation screening")
	}

	if err := s.bookings.Insert(ctx, con); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}
	return con, nil, nil
}

// FindByNumber resolves a consignment from either record family.
func (s *ConsignmentService) FindByNumber(ctx context.Context, cn string) (*models.Consignment, error) {
	normalized, err := NormalizeNumber(cn)
	if err != nil {
		return nil, err
	}
	con, err := s.bookings.FindByNumber(ctx, normalized)
	if err == nil {
		return con, nil
	}
	if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load consignment")
	}
	con, err = s.manual.FindByNumber(ctx, normalized)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "consignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load consignment")
	}
	return con, nil
}

// UpdateStatus appends a history entry and flips the lifecycle status.
// Delivered transitions also stamp the delivery date and release any active
// sheet still holding the consignment.
func (s *ConsignmentService) UpdateStatus(ctx context.Context, claims *models.JWTClaims, cn string, req dto.UpdateStatusRequest) (*models.Consignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid consignment status")
	}
	con, err := s.FindByNumber(ctx, cn)
	if err != nil {
		return nil, err
	}
	if claims != nil && claims.Role == models.RoleRider {
		held, err := s.sheets.FindRiderSheetHolding(ctx, claims.UserID, con.ConsignmentNumber)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check sheet membership")
		}
		if !held {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "consignment is not on your delivery sheet")
		}
	}

	now := time.Now().UTC()
	entry := models.StatusHistoryEntry{
		Status:    req.Status,
		Timestamp: now,
		Reason:    req.Reason,
		Remarks:   req.Remarks,
		UpdatedBy: claims.Actor(),
	}
	var deliveryDate *time.Time
	if req.Status == models.StatusDelivered {
		deliveryDate = &now
	}

	if err := s.writeStatus(ctx, con, req.Status, entry, deliveryDate); err != nil {
		return nil, err
	}

	s.mirror.Mirror(PropagationTask{
		ConsignmentNumber: con.ConsignmentNumber,
		Source:            con.Source,
		Status:            req.Status,
		Entry:             entry,
		DeliveryDate:      deliveryDate,
	})

	if req.Status == models.StatusDelivered {
		if err := s.sheets.CloseDeliveredConsignment(ctx, con.ConsignmentNumber); err != nil {
			s.logger.Warn("failed to close sheet after delivery",
				zap.String("consignment", con.ConsignmentNumber), zap.Error(err))
		}
	}

	return s.FindByNumber(ctx, con.ConsignmentNumber)
}

// Transition flips the status and appends the given history entry without
// any caller-scope checks. Assignment, return and void flows use it; they
// manage sheet state themselves.
func (s *ConsignmentService) Transition(ctx context.Context, cn string, status models.ConsignmentStatus, entry models.StatusHistoryEntry) (*models.Consignment, error) {
	con, err := s.FindByNumber(ctx, cn)
	if err != nil {
		return nil, err
	}
	var deliveryDate *time.Time
	if status == models.StatusDelivered {
		stamp := entry.Timestamp
		if stamp.IsZero() {
			stamp = time.Now().UTC()
		}
		deliveryDate = &stamp
	}
	if err := s.writeStatus(ctx, con, status, entry, deliveryDate); err != nil {
		return nil, err
	}
	s.mirror.Mirror(PropagationTask{
		ConsignmentNumber: con.ConsignmentNumber,
		Source:            con.Source,
		Status:            status,
		Entry:             entry,
		DeliveryDate:      deliveryDate,
	})
	con.Status = status
	con.StatusHistory = append(con.StatusHistory, entry)
	if deliveryDate != nil {
		con.DeliveryDate = deliveryDate
	}
	return con, nil
}

// AppendRemark accumulates free text onto the consignment's remarks.
func (s *ConsignmentService) AppendRemark(ctx context.Context, cn, text string) error {
	if strings.TrimSpace(text) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "remark text is required")
	}
	con, err := s.FindByNumber(ctx, cn)
	if err != nil {
		return err
	}
	switch con.Source {
	case models.SourceManual:
		err = s.manual.AppendRemark(ctx, con.ConsignmentNumber, text)
	default:
		err = s.bookings.AppendRemark(ctx, con.ConsignmentNumber, text)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "consignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append remark")
	}
	return nil
}

// List returns bookings matching the filter, scoped to the caller's account
// for customers, with the active sheet attached to in-transit items.
func (s *ConsignmentService) List(ctx context.Context, claims *models.JWTClaims, filter dto.ConsignmentFilter) ([]dto.BookingItem, *models.Pagination, error) {
	if claims != nil && claims.Role == models.RoleCustomer {
		filter.AccountNo = claims.AccountNo
	}
	items, total, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}

	results := make([]dto.BookingItem, 0, len(items))
	for i := range items {
		item := dto.BookingItem{Consignment: &items[i]}
		if items[i].Status == models.StatusInTransit {
			sheet, err := s.sheets.FindActiveByConsignment(ctx, items[i].ConsignmentNumber)
			if err == nil {
				item.DeliverySheet = &dto.SheetSummary{
					ID:          sheet.ID,
					RiderID:     sheet.RiderID,
					RiderName:   sheet.RiderName,
					RiderCode:   sheet.RiderCode,
					Status:      sheet.Status,
					CreatedAt:   sheet.CreatedAt,
					CompletedAt: sheet.CompletedAt,
				}
			} else if err != sql.ErrNoRows {
				s.logger.Warn("failed to attach sheet to booking",
					zap.String("consignment", items[i].ConsignmentNumber), zap.Error(err))
			}
		}
		results = append(results, item)
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
	return results, pagination, nil
}

// ListByNumbers merges both record families for the given numbers, keeping
// the input order. Where both families share a number, the agency booking
// wins.
func (s *ConsignmentService) ListByNumbers(ctx context.Context, numbers []string) ([]models.Consignment, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	bookings, err := s.bookings.ListByNumbers(ctx, numbers)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}
	manual, err := s.manual.ListByNumbers(ctx, numbers)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load manual bookings")
	}

	byNumber := make(map[string]models.Consignment, len(bookings)+len(manual))
	for _, c := range manual {
		byNumber[c.ConsignmentNumber] = c
	}
	for _, c := range bookings {
		byNumber[c.ConsignmentNumber] = c
	}

	merged := make([]models.Consignment, 0, len(byNumber))
	for _, cn := range numbers {
		if c, ok := byNumber[strings.ToUpper(cn)]; ok {
			merged = append(merged, c)
			delete(byNumber, strings.ToUpper(cn))
		}
	}
	return merged, nil
}

func (s *ConsignmentService) existsInEitherFamily(ctx context.Context, cn string) (bool, error) {
	exists, err := s.bookings.Exists(ctx, cn)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}
	return s.manual.Exists(ctx, cn)
}

func (s *ConsignmentService) writeStatus(ctx context.Context, con *models.Consignment, status models.ConsignmentStatus, entry models.StatusHistoryEntry, deliveryDate *time.Time) error {
	var err error
	switch con.Source {
	case models.SourceManual:
		err = s.manual.UpdateStatus(ctx, con.ConsignmentNumber, status, entry)
	default:
		err = s.bookings.UpdateStatus(ctx, con.ConsignmentNumber, status, entry, deliveryDate)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "consignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update consignment status")
	}
	return nil
}
