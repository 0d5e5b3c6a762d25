package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/models"
	appErrors "github.com/visionary-built/MyCourierBackend/pkg/errors"
)

type mockReturnStore struct {
	batches map[string]*models.ReturnSheet
	today   map[string]string
}

func newMockReturnStore() *mockReturnStore {
	return &mockReturnStore{
		batches: map[string]*models.ReturnSheet{},
		today:   map[string]string{},
	}
}

func (m *mockReturnStore) FindTodayByRider(ctx context.Context, riderID string) (*models.ReturnSheet, error) {
	if id, ok := m.today[riderID]; ok {
		cp := *m.batches[id]
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReturnStore) Create(ctx context.Context, sheet *models.ReturnSheet) error {
	cp := *sheet
	m.batches[sheet.ID] = &cp
	m.today[sheet.RiderID] = sheet.ID
	return nil
}

func (m *mockReturnStore) Append(ctx context.Context, sheetID, cn, orderStatus string) error {
	batch, ok := m.batches[sheetID]
	if !ok {
		return sql.ErrNoRows
	}
	batch.ConsignmentNumbers = append(batch.ConsignmentNumbers, cn)
	batch.OrderStatuses = append(batch.OrderStatuses, orderStatus)
	batch.Count = len(batch.ConsignmentNumbers)
	return nil
}

func (m *mockReturnStore) FindByID(ctx context.Context, id string) (*models.ReturnSheet, error) {
	if batch, ok := m.batches[id]; ok {
		cp := *batch
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReturnStore) SetOutcome(ctx context.Context, id string, outcome models.ReturnOutcome, remarks string) error {
	batch, ok := m.batches[id]
	if !ok {
		return sql.ErrNoRows
	}
	batch.Outcome = outcome
	if remarks != "" {
		batch.Remarks = remarks
	}
	delete(m.today, batch.RiderID)
	return nil
}

func (m *mockReturnStore) List(ctx context.Context, filter dto.ReturnFilter) ([]models.ReturnSheet, int, error) {
	out := []models.ReturnSheet{}
	for _, batch := range m.batches {
		out = append(out, *batch)
	}
	return out, len(out), nil
}

func newReturnFixture() (*ReturnService, *mockReturnStore, *mockCatalog, *mockOpsRecorder) {
	riders := &mockRiderReader{riders: map[string]*models.Rider{
		"rider-1": {ID: "rider-1", RiderName: "Bilal Ahmed", RiderCode: "R1", Active: true},
		"rider-3": {ID: "rider-3", RiderName: "Gone Rider", RiderCode: "R3", Active: false},
	}}
	returns := newMockReturnStore()
	catalog := &mockCatalog{items: map[string]*models.Consignment{
		"CN1001": {ConsignmentNumber: "CN1001", Status: models.StatusInTransit},
		"CN1002": {ConsignmentNumber: "CN1002", Status: models.StatusPending},
	}}
	metrics := &mockOpsRecorder{}
	svc := NewReturnService(returns, riders, catalog, metrics, nil, nil)
	return svc, returns, catalog, metrics
}

func TestRegisterReturnCreatesDailyBatch(t *testing.T) {
	svc, returns, catalog, metrics := newReturnFixture()

	batch, err := svc.Register(context.Background(), riderClaims("rider-1", "R1"), dto.RegisterReturnRequest{ConsignmentNumber: "cn1001"})
	require.NoError(t, err)
	assert.Equal(t, "rider-1", batch.RiderID)
	assert.Equal(t, models.OutcomeReceivedAtOffice, batch.Outcome)
	assert.Equal(t, 1, batch.Count)
	require.Len(t, batch.OrderStatuses, 1)
	// The batch snapshots the status held at registration time.
	assert.Equal(t, string(models.StatusInTransit), batch.OrderStatuses[0])

	assert.Equal(t, models.StatusReturned, catalog.items["CN1001"].Status)
	last := catalog.items["CN1001"].StatusHistory[0]
	assert.Equal(t, "Returned by rider: Bilal Ahmed (R1)", last.Remarks)
	assert.Equal(t, 1, metrics.returns)
	assert.Len(t, returns.batches, 1)
}

func TestRegisterReturnAppendsToExistingBatch(t *testing.T) {
	svc, returns, _, _ := newReturnFixture()

	first, err := svc.Register(context.Background(), riderClaims("rider-1", "R1"), dto.RegisterReturnRequest{ConsignmentNumber: "CN1001"})
	require.NoError(t, err)
	second, err := svc.Register(context.Background(), riderClaims("rider-1", "R1"), dto.RegisterReturnRequest{ConsignmentNumber: "CN1002"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Count)
	assert.Len(t, returns.batches, 1)
}

func TestRegisterReturnDuplicateInBatch(t *testing.T) {
	svc, _, _, metrics := newReturnFixture()

	_, err := svc.Register(context.Background(), riderClaims("rider-1", "R1"), dto.RegisterReturnRequest{ConsignmentNumber: "CN1001"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), riderClaims("rider-1", "R1"), dto.RegisterReturnRequest{ConsignmentNumber: "CN1001"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "Consignment number is already registered in this return sheet", appErr.Message)
	assert.Equal(t, 1, metrics.returns)
}

func TestRegisterReturnInactiveRider(t *testing.T) {
	svc, _, _, _ := newReturnFixture()

	_, err := svc.Register(context.Background(), adminClaims(), dto.RegisterReturnRequest{RiderID: "rider-3", ConsignmentNumber: "CN1001"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRiderInactive.Code, appErrors.FromError(err).Code)
}

func TestRegisterReturnUnknownConsignment(t *testing.T) {
	svc, _, _, _ := newReturnFixture()

	_, err := svc.Register(context.Background(), riderClaims("rider-1", "R1"), dto.RegisterReturnRequest{ConsignmentNumber: "CN9999"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTodayBatch(t *testing.T) {
	svc, _, _, _ := newReturnFixture()

	_, err := svc.Register(context.Background(), riderClaims("rider-1", "R1"), dto.RegisterReturnRequest{ConsignmentNumber: "CN1001"})
	require.NoError(t, err)

	result, err := svc.TodayBatch(context.Background(), riderClaims("rider-1", "R1"))
	require.NoError(t, err)
	require.Len(t, result.Parcels, 1)
	assert.Equal(t, "CN1001", result.Parcels[0].ConsignmentNumber)
}

func TestTodayBatchNotRegistered(t *testing.T) {
	svc, _, _, _ := newReturnFixture()

	_, err := svc.TodayBatch(context.Background(), riderClaims("rider-1", "R1"))
	require.Error(t, err)
	assert.Equal(t, "no return sheet registered today", appErrors.FromError(err).Message)
}

func TestCompleteReturnDefaultsOutcome(t *testing.T) {
	svc, returns, _, _ := newReturnFixture()
	returns.batches["batch-1"] = &models.ReturnSheet{ID: "batch-1", RiderID: "rider-1", Outcome: models.OutcomeReceivedAtOffice, CreatedAt: time.Now().UTC()}
	returns.today["rider-1"] = "batch-1"

	batch, err := svc.Complete(context.Background(), "batch-1", dto.CompleteReturnRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeToBeSentBack, batch.Outcome)
}

func TestCompleteReturnInvalidOutcome(t *testing.T) {
	svc, _, _, _ := newReturnFixture()

	_, err := svc.Complete(context.Background(), "batch-1", dto.CompleteReturnRequest{Outcome: "shredded"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCompleteReturnNotFound(t *testing.T) {
	svc, _, _, _ := newReturnFixture()

	_, err := svc.Complete(context.Background(), "missing", dto.CompleteReturnRequest{Outcome: models.OutcomeOther})
	require.Error(t, err)
	assert.Equal(t, "return sheet not found", appErrors.FromError(err).Message)
}
