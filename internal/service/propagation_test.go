package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionary-built/MyCourierBackend/internal/models"
	"github.com/visionary-built/MyCourierBackend/pkg/jobs"
)

type mockBookingWriter struct {
	err   error
	calls []string
	dates []*time.Time
}

func (m *mockBookingWriter) UpdateStatus(ctx context.Context, cn string, status models.ConsignmentStatus, entry models.StatusHistoryEntry, deliveryDate *time.Time) error {
	m.calls = append(m.calls, cn)
	m.dates = append(m.dates, deliveryDate)
	return m.err
}

type mockManualWriter struct {
	err   error
	calls []string
}

func (m *mockManualWriter) UpdateStatus(ctx context.Context, cn string, status models.ConsignmentStatus, entry models.StatusHistoryEntry) error {
	m.calls = append(m.calls, cn)
	return m.err
}

type mockPropRecorder struct {
	failures int
}

func (m *mockPropRecorder) RecordPropagationFailure() { m.failures++ }

func newPropagatorFixture() (*Propagator, *mockBookingWriter, *mockManualWriter, *mockPropRecorder) {
	bookings := &mockBookingWriter{}
	manual := &mockManualWriter{}
	metrics := &mockPropRecorder{}
	p := NewPropagator(bookings, manual, metrics, jobs.QueueConfig{}, nil)
	return p, bookings, manual, metrics
}

func TestPropagationMirrorsBookingToManual(t *testing.T) {
	p, bookings, manual, metrics := newPropagatorFixture()

	err := p.handle(context.Background(), jobs.Job{ID: "job-1", Payload: PropagationTask{
		ConsignmentNumber: "CN1001",
		Source:            models.SourceBooking,
		Status:            models.StatusDelivered,
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"CN1001"}, manual.calls)
	assert.Empty(t, bookings.calls)
	assert.Zero(t, metrics.failures)
}

func TestPropagationMirrorsManualToBooking(t *testing.T) {
	p, bookings, manual, _ := newPropagatorFixture()

	stamp := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	err := p.handle(context.Background(), jobs.Job{ID: "job-1", Payload: PropagationTask{
		ConsignmentNumber: "MB200",
		Source:            models.SourceManual,
		Status:            models.StatusDelivered,
		DeliveryDate:      &stamp,
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"MB200"}, bookings.calls)
	assert.Empty(t, manual.calls)
	require.Len(t, bookings.dates, 1)
	assert.Equal(t, stamp, *bookings.dates[0])
}

func TestPropagationNoSiblingIsSuccess(t *testing.T) {
	p, _, manual, metrics := newPropagatorFixture()
	manual.err = sql.ErrNoRows

	err := p.handle(context.Background(), jobs.Job{ID: "job-1", Payload: PropagationTask{
		ConsignmentNumber: "CN1001",
		Source:            models.SourceBooking,
		Status:            models.StatusReturned,
	}})
	assert.NoError(t, err)
	assert.Zero(t, metrics.failures)
}

func TestPropagationFailureIsRetriedAndCounted(t *testing.T) {
	p, _, manual, metrics := newPropagatorFixture()
	manual.err = errors.New("connection refused")

	err := p.handle(context.Background(), jobs.Job{ID: "job-1", Payload: PropagationTask{
		ConsignmentNumber: "CN1001",
		Source:            models.SourceBooking,
		Status:            models.StatusReturned,
	}})
	// A non-nil handler error is what triggers the queue's retry path.
	require.Error(t, err)
	assert.Equal(t, 1, metrics.failures)
}

func TestMirrorBeforeStartCountsFailure(t *testing.T) {
	p, _, _, metrics := newPropagatorFixture()

	p.Mirror(PropagationTask{ConsignmentNumber: "CN1001", Source: models.SourceBooking})
	assert.Equal(t, 1, metrics.failures)
}
