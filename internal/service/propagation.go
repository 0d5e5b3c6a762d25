package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/visionary-built/MyCourierBackend/internal/models"
	"github.com/visionary-built/MyCourierBackend/pkg/jobs"
)

// PropagationTask mirrors a status change onto the record family that was not
// the primary write target.
type PropagationTask struct {
	ConsignmentNumber string
	Source            models.ConsignmentSource
	Status            models.ConsignmentStatus
	Entry             models.StatusHistoryEntry
	DeliveryDate      *time.Time
}

type bookingStatusWriter interface {
	UpdateStatus(ctx context.Context, cn string, status models.ConsignmentStatus, entry models.StatusHistoryEntry, deliveryDate *time.Time) error
}

type manualStatusWriter interface {
	UpdateStatus(ctx context.Context, cn string, status models.ConsignmentStatus, entry models.StatusHistoryEntry) error
}

type propagationRecorder interface {
	RecordPropagationFailure()
}

// Propagator keeps the two record families eventually consistent. Mirror
// writes are best effort: failures are retried by the queue and logged, but
// never surfaced to the caller and never roll back the primary write.
type Propagator struct {
	bookings bookingStatusWriter
	manual   manualStatusWriter
	metrics  propagationRecorder
	logger   *zap.Logger
	queue    *jobs.Queue
}

// NewPropagator constructs the propagator and its retry queue.
func NewPropagator(bookings bookingStatusWriter, manual manualStatusWriter, metrics propagationRecorder, cfg jobs.QueueConfig, logger *zap.Logger) *Propagator {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Propagator{
		bookings: bookings,
		manual:   manual,
		metrics:  metrics,
		logger:   logger,
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	if cfg.OnDrop == nil {
		cfg.OnDrop = func(job jobs.Job, err error) {
			task, ok := job.Payload.(PropagationTask)
			if !ok {
				return
			}
			logger.Error("status mirror abandoned after retries",
				zap.String("consignment", task.ConsignmentNumber),
				zap.String("status", string(task.Status)),
				zap.Error(err))
		}
	}
	p.queue = jobs.NewQueue("status-propagation", p.handle, cfg)
	return p
}

// Start begins queue consumption.
func (p *Propagator) Start(ctx context.Context) {
	p.queue.Start(ctx)
}

// Stop drains the queue workers.
func (p *Propagator) Stop() {
	p.queue.Stop()
}

// Mirror enqueues a cross-family status write. Errors are logged only.
func (p *Propagator) Mirror(task PropagationTask) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Kind:    "mirror-status",
		Payload: task,
	}
	if err := p.queue.Enqueue(job); err != nil {
		p.logger.Warn("status propagation not queued",
			zap.String("consignment", task.ConsignmentNumber),
			zap.String("status", string(task.Status)),
			zap.Error(err))
		if p.metrics != nil {
			p.metrics.RecordPropagationFailure()
		}
	}
}

func (p *Propagator) handle(ctx context.Context, job jobs.Job) error {
	task, ok := job.Payload.(PropagationTask)
	if !ok {
		p.logger.Error("unexpected propagation payload", zap.String("job_id", job.ID))
		return nil
	}

	var err error
	switch task.Source {
	case models.SourceBooking:
		err = p.manual.UpdateStatus(ctx, task.ConsignmentNumber, task.Status, task.Entry)
	case models.SourceManual:
		err = p.bookings.UpdateStatus(ctx, task.ConsignmentNumber, task.Status, task.Entry, task.DeliveryDate)
	default:
		p.logger.Error("unknown propagation source", zap.String("source", string(task.Source)))
		return nil
	}

	if err == sql.ErrNoRows {
		// No sibling record in the other family; nothing to mirror.
		return nil
	}
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordPropagationFailure()
		}
		p.logger.Warn("status propagation attempt failed",
			zap.String("consignment", task.ConsignmentNumber),
			zap.String("status", string(task.Status)),
			zap.Error(err))
		return fmt.Errorf("mirror %s to %s: %w", task.ConsignmentNumber, otherFamily(task.Source), err)
	}
	return nil
}

func otherFamily(source models.ConsignmentSource) models.ConsignmentSource {
	if source == models.SourceBooking {
		return models.SourceManual
	}
	return models.SourceBooking
}
