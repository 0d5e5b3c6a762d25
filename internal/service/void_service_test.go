package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/models"
	appErrors "github.com/visionary-built/MyCourierBackend/pkg/errors"
)

type mockVoidStore struct {
	items  map[string]*models.Consignment
	sweeps int
}

func (m *mockVoidStore) AutoVoidCritical(ctx context.Context, classify func(*models.Consignment) models.ValidationFlags) ([]models.VoidedConsignment, error) {
	m.sweeps++
	voided := []models.VoidedConsignment{}
	for _, c := range m.items {
		if c.Status == models.StatusCancelled {
			continue
		}
		flags := classify(c)
		c.ValidationFlags = flags
		if !flags.HasCritical() {
			continue
		}
		c.Status = models.StatusCancelled
		voided = append(voided, models.VoidedConsignment{
			ConsignmentNumber: c.ConsignmentNumber,
			Reason:            "Auto-voided due to critical validation issues",
			Flags:             flags.Critical,
		})
	}
	return voided, nil
}

func (m *mockVoidStore) ListVoided(ctx context.Context, filter dto.VoidFilter) ([]models.Consignment, int, error) {
	out := []models.Consignment{}
	for _, c := range m.items {
		if c.Status == models.StatusCancelled {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (m *mockVoidStore) Void(ctx context.Context, cn string, entry models.StatusHistoryEntry) (*models.Consignment, error) {
	c, ok := m.items[cn]
	if !ok || c.Status == models.StatusCancelled {
		return nil, sql.ErrNoRows
	}
	c.Status = models.StatusCancelled
	c.StatusHistory = append(c.StatusHistory, entry)
	cp := *c
	return &cp, nil
}

func newVoidFixture() (*VoidService, *mockVoidStore, *mockMirror, *mockOpsRecorder) {
	clean := cleanConsignment()
	clean.Status = models.StatusPending
	dirty := cleanConsignment()
	dirty.ConsignmentNumber = "CN2001"
	dirty.CODAmount = 0
	dirty.Status = models.StatusPending
	store := &mockVoidStore{items: map[string]*models.Consignment{
		"CN1001": clean,
		"CN2001": dirty,
	}}
	mirror := &mockMirror{}
	metrics := &mockOpsRecorder{}
	svc := NewVoidService(store, testClassifier(), mirror, metrics, nil)
	return svc, store, mirror, metrics
}

func TestSweepVoidsCriticalConsignments(t *testing.T) {
	svc, store, mirror, metrics := newVoidFixture()

	voided, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, voided, 1)
	assert.Equal(t, "CN2001", voided[0].ConsignmentNumber)
	assert.Equal(t, "Auto-voided due to critical validation issues", voided[0].Reason)
	assert.Equal(t, []string{FlagMissingCODAmount}, voided[0].Flags)

	assert.Equal(t, models.StatusCancelled, store.items["CN2001"].Status)
	assert.Equal(t, models.StatusPending, store.items["CN1001"].Status)
	// The clean record keeps its computed flags so the next sweep skips it.
	assert.True(t, store.items["CN1001"].ValidationFlags.Computed())

	require.Len(t, mirror.tasks, 1)
	task := mirror.tasks[0]
	assert.Equal(t, models.StatusCancelled, task.Status)
	assert.Equal(t, "Automatically voided due to: missing_cod_amount", task.Entry.Remarks)
	assert.Equal(t, "system", task.Entry.UpdatedBy)
	assert.Equal(t, 1, metrics.autoVoids)
}

func TestSweepIsIdempotent(t *testing.T) {
	svc, store, mirror, metrics := newVoidFixture()

	_, err := svc.Sweep(context.Background())
	require.NoError(t, err)

	voided, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, voided)
	assert.Equal(t, 2, store.sweeps)
	assert.Len(t, mirror.tasks, 1)
	assert.Equal(t, 1, metrics.autoVoids)
}

func TestListVoidedSweepsFirst(t *testing.T) {
	svc, store, _, _ := newVoidFixture()

	result, pagination, err := svc.ListVoided(context.Background(), dto.VoidFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.sweeps)
	require.Len(t, result.Consignments, 1)
	assert.Equal(t, "CN2001", result.Consignments[0].ConsignmentNumber)
	assert.Equal(t, 1, result.Summary.Invalid)
	assert.Equal(t, 1, result.Summary.Total)
	require.Len(t, result.Swept, 1)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestVoidManually(t *testing.T) {
	svc, store, mirror, _ := newVoidFixture()

	con, err := svc.Void(context.Background(), adminClaims(), dto.VoidRequest{ConsignmentNumber: "cn1001"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, con.Status)
	require.NotEmpty(t, con.StatusHistory)
	last := con.StatusHistory[len(con.StatusHistory)-1]
	assert.Equal(t, "Voided by administrator", last.Reason)
	assert.Equal(t, "admin-1", last.UpdatedBy)

	assert.Equal(t, models.StatusCancelled, store.items["CN1001"].Status)
	// One task for the sweep's auto-void, one for the manual void.
	require.Len(t, mirror.tasks, 2)
	assert.Equal(t, "CN1001", mirror.tasks[1].ConsignmentNumber)
}

func TestVoidAlreadyCancelled(t *testing.T) {
	svc, _, _, _ := newVoidFixture()

	_, err := svc.Void(context.Background(), adminClaims(), dto.VoidRequest{ConsignmentNumber: "CN2001"})
	require.Error(t, err)
	assert.Equal(t, "consignment not found or already cancelled", appErrors.FromError(err).Message)
}
