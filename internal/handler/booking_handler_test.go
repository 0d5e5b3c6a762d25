package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/middleware"
	"github.com/visionary-built/MyCourierBackend/internal/models"
	"github.com/visionary-built/MyCourierBackend/internal/service"
)

type bookingStoreStub struct {
	items map[string]*models.Consignment
}

func (s *bookingStoreStub) Insert(ctx context.Context, c *models.Consignment) error {
	cp := *c
	s.items[c.ConsignmentNumber] = &cp
	return nil
}

func (s *bookingStoreStub) FindByNumber(ctx context.Context, cn string) (*models.Consignment, error) {
	if c, ok := s.items[cn]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *bookingStoreStub) Exists(ctx context.Context, cn string) (bool, error) {
	_, ok := s.items[cn]
	return ok, nil
}

func (s *bookingStoreStub) UpdateStatus(ctx context.Context, cn string, status models.ConsignmentStatus, entry models.StatusHistoryEntry, deliveryDate *time.Time) error {
	c, ok := s.items[cn]
	if !ok {
		return sql.ErrNoRows
	}
	c.Status = status
	c.StatusHistory = append(c.StatusHistory, entry)
	return nil
}

func (s *bookingStoreStub) AppendRemark(ctx context.Context, cn, text string) error {
	if _, ok := s.items[cn]; !ok {
		return sql.ErrNoRows
	}
	return nil
}

func (s *bookingStoreStub) List(ctx context.Context, filter dto.ConsignmentFilter) ([]models.Consignment, int, error) {
	out := []models.Consignment{}
	for _, c := range s.items {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (s *bookingStoreStub) ListByNumbers(ctx context.Context, numbers []string) ([]models.Consignment, error) {
	return nil, nil
}

type manualStoreStub struct{}

func (manualStoreStub) FindByNumber(ctx context.Context, cn string) (*models.Consignment, error) {
	return nil, sql.ErrNoRows
}

func (manualStoreStub) Exists(ctx context.Context, cn string) (bool, error) { return false, nil }

func (manualStoreStub) UpdateStatus(ctx context.Context, cn string, status models.ConsignmentStatus, entry models.StatusHistoryEntry) error {
	return sql.ErrNoRows
}

func (manualStoreStub) AppendRemark(ctx context.Context, cn, text string) error { return sql.ErrNoRows }

func (manualStoreStub) ListByNumbers(ctx context.Context, numbers []string) ([]models.Consignment, error) {
	return nil, nil
}

type sheetTrackerStub struct{}

func (sheetTrackerStub) FindActiveByConsignment(ctx context.Context, cn string) (*models.DeliverySheet, error) {
	return nil, sql.ErrNoRows
}

func (sheetTrackerStub) FindRiderSheetHolding(ctx context.Context, riderID, cn string) (bool, error) {
	return false, nil
}

func (sheetTrackerStub) CloseDeliveredConsignment(ctx context.Context, cn string) error { return nil }

type mirrorStub struct{}

func (mirrorStub) Mirror(task service.PropagationTask) {}

func newBookingHandler() (*BookingHandler, *bookingStoreStub) {
	store := &bookingStoreStub{items: map[string]*models.Consignment{}}
	classifier := service.NewClassifier(service.ValidationConfig{
		BranchCity:        "Karachi",
		ServiceableCities: []string{"Karachi", "Lahore"},
	})
	svc := service.NewConsignmentService(store, manualStoreStub{}, sheetTrackerStub{}, classifier, mirrorStub{}, nil, nil)
	return NewBookingHandler(svc), store
}

func bookingPayload() dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		ConsignmentNumber: "CN1001",
		ConsigneeName:     "Ali Raza",
		ConsigneeAddress:  "House 4, Block B",
		ConsigneeMobile:   "03001234567",
		Pieces:            1,
		Weight:            2.5,
		CODAmount:         1500,
		DestinationCity:   "Lahore",
		OriginCity:        "Karachi",
		ServiceType:       "overnight",
		AccountNo:         "ACC-1",
		AgentName:         "Agent One",
	}
}

func postBooking(t *testing.T, handler *BookingHandler, payload dto.CreateBookingRequest) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Create(c)
	return w
}

func TestBookingHandlerCreate(t *testing.T) {
	handler, store := newBookingHandler()

	w := postBooking(t, handler, bookingPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, store.items, "CN1001")
}

func TestBookingHandlerCreateRejection(t *testing.T) {
	handler, store := newBookingHandler()

	payload := bookingPayload()
	payload.CODAmount = 0

	w := postBooking(t, handler, payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.items)

	var envelope struct {
		Data struct {
			Critical []string `json:"critical"`
		} `json:"data"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
	assert.Contains(t, envelope.Data.Critical, "missing_cod_amount")
}

func TestBookingHandlerCreateInvalidBody(t *testing.T) {
	handler, _ := newBookingHandler()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/bookings", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerGetNotFound(t *testing.T) {
	handler, _ := newBookingHandler()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/bookings/CN9999", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "cn", Value: "CN9999"}}

	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
