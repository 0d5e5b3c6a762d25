package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/models"
)

const bookingColumns = `id, consignment_number, consignee_name, consignee_address, consignee_mobile,
	pieces, weight, cod_amount, reference_no, destination_city, origin_city, service_type,
	account_no, agent_name, status, status_history, booking_date, delivery_date, remarks,
	validation_flags, created_at, updated_at`

// BookingRepository persists the agency-originated record family.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Insert stores a freshly screened booking.
func (r *BookingRepository) Insert(ctx context.Context, c *models.Consignment) error {
	const query = `
INSERT INTO bookings (
	id, consignment_number, consignee_name, consignee_address, consignee_mobile,
	pieces, weight, cod_amount, reference_no, destination_city, origin_city, service_type,
	account_no, agent_name, status, status_history, booking_date, delivery_date, remarks,
	validation_flags, created_at, updated_at
) VALUES (
	:id, :consignment_number, :consignee_name, :consignee_address, :consignee_mobile,
	:pieces, :weight, :cod_amount, :reference_no, :destination_city, :origin_city, :service_type,
	:account_no, :agent_name, :status, :status_history, :booking_date, :delivery_date, :remarks,
	:validation_flags, :created_at, :updated_at
)`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// FindByNumber looks up a booking by its consignment number. The caller is
// expected to have normalized the number to uppercase.
func (r *BookingRepository) FindByNumber(ctx context.Context, cn string) (*models.Consignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE consignment_number = $1`, bookingColumns)

	var c models.Consignment
	if err := r.db.GetContext(ctx, &c, query, cn); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	c.Source = models.SourceBooking
	return &c, nil
}

// Exists reports whether a consignment number is already taken.
func (r *BookingRepository) Exists(ctx context.Context, cn string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM bookings WHERE consignment_number = $1)`
	if err := r.db.GetContext(ctx, &exists, query, cn); err != nil {
		return false, fmt.Errorf("booking exists: %w", err)
	}
	return exists, nil
}

// UpdateStatus flips the lifecycle status and appends the history entry in a
// single statement. A nil deliveryDate leaves the stamp untouched.
func (r *BookingRepository) UpdateStatus(ctx context.Context, cn string, status models.ConsignmentStatus, entry models.StatusHistoryEntry, deliveryDate *time.Time) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	const query = `
UPDATE bookings
SET status = $2,
	status_history = COALESCE(status_history, '[]'::jsonb) || $3::jsonb,
	delivery_date = COALESCE($4, delivery_date),
	updated_at = NOW()
WHERE consignment_number = $1`

	res, err := r.db.ExecContext(ctx, query, cn, status, payload, deliveryDate)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AppendRemark accumulates onto the remarks field, never overwriting.
func (r *BookingRepository) AppendRemark(ctx context.Context, cn, text string) error {
	const query = `
UPDATE bookings
SET remarks = CASE WHEN remarks = '' THEN $2 ELSE remarks || ' | ' || $2 END,
	updated_at = NOW()
WHERE consignment_number = $1`

	res, err := r.db.ExecContext(ctx, query, cn, text)
	if err != nil {
		return fmt.Errorf("append booking remark: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetValidationFlags persists the cached classification.
func (r *BookingRepository) SetValidationFlags(ctx context.Context, cn string, flags models.ValidationFlags) error {
	const query = `UPDATE bookings SET validation_flags = $2, updated_at = NOW() WHERE consignment_number = $1`
	if _, err := r.db.ExecContext(ctx, query, cn, flags); err != nil {
		return fmt.Errorf("set validation flags: %w", err)
	}
	return nil
}

// ListByNumbers fetches bookings for the given consignment numbers.
func (r *BookingRepository) ListByNumbers(ctx context.Context, numbers []string) ([]models.Consignment, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE consignment_number = ANY($1) ORDER BY booking_date DESC`, bookingColumns)

	var items []models.Consignment
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(numbers)); err != nil {
		return nil, fmt.Errorf("list bookings by numbers: %w", err)
	}
	for i := range items {
		items[i].Source = models.SourceBooking
	}
	return items, nil
}

// List returns bookings matching the filter plus the unpaged total.
func (r *BookingRepository) List(ctx context.Context, filter dto.ConsignmentFilter) ([]models.Consignment, int, error) {
	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		fmt.Fprintf(&where, " AND status = $%d", len(args))
	}
	if filter.DestinationCity != "" {
		args = append(args, "%"+filter.DestinationCity+"%")
		fmt.Fprintf(&where, " AND destination_city ILIKE $%d", len(args))
	}
	if filter.OriginCity != "" {
		args = append(args, "%"+filter.OriginCity+"%")
		fmt.Fprintf(&where, " AND origin_city ILIKE $%d", len(args))
	}
	if filter.AccountNo != "" {
		args = append(args, filter.AccountNo)
		fmt.Fprintf(&where, " AND account_no = $%d", len(args))
	}
	if len(filter.ConsignmentNumbers) > 0 {
		args = append(args, pq.Array(filter.ConsignmentNumbers))
		fmt.Fprintf(&where, " AND consignment_number = ANY($%d)", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		fmt.Fprintf(&where, " AND booking_date >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		fmt.Fprintf(&where, " AND booking_date < $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM bookings" + where.String()
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf("SELECT %s FROM bookings%s ORDER BY booking_date DESC LIMIT $%d OFFSET $%d",
		bookingColumns, where.String(), len(args)-1, len(args))

	var items []models.Consignment
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	for i := range items {
		items[i].Source = models.SourceBooking
	}
	return items, total, nil
}

// ListVoided returns cancelled bookings for the void report.
func (r *BookingRepository) ListVoided(ctx context.Context, filter dto.VoidFilter) ([]models.Consignment, int, error) {
	where := strings.Builder{}
	where.WriteString(" WHERE status = 'cancelled'")
	args := []interface{}{}

	if filter.DestinationCity != "" {
		args = append(args, "%"+filter.DestinationCity+"%")
		fmt.Fprintf(&where, " AND destination_city ILIKE $%d", len(args))
	}
	if filter.OriginCity != "" {
		args = append(args, "%"+filter.OriginCity+"%")
		fmt.Fprintf(&where, " AND origin_city ILIKE $%d", len(args))
	}
	if filter.ConsignmentFrom != "" && filter.ConsignmentTo != "" {
		args = append(args, filter.ConsignmentFrom)
		fmt.Fprintf(&where, " AND consignment_number >= $%d", len(args))
		args = append(args, filter.ConsignmentTo)
		fmt.Fprintf(&where, " AND consignment_number <= $%d", len(args))
	} else if filter.ConsignmentFrom != "" {
		args = append(args, filter.ConsignmentFrom+"%")
		fmt.Fprintf(&where, " AND consignment_number ILIKE $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		fmt.Fprintf(&where, " AND updated_at >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, filter.DateTo.AddDate(0, 0, 1))
		fmt.Fprintf(&where, " AND updated_at < $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM bookings" + where.String()
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count voided bookings: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf("SELECT %s FROM bookings%s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d",
		bookingColumns, where.String(), len(args)-1, len(args))

	var items []models.Consignment
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list voided bookings: %w", err)
	}
	for i := range items {
		items[i].Source = models.SourceBooking
	}
	return items, total, nil
}

// Void cancels a single non-cancelled booking and returns the updated row.
func (r *BookingRepository) Void(ctx context.Context, cn string, entry models.StatusHistoryEntry) (*models.Consignment, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal history entry: %w", err)
	}

	query := fmt.Sprintf(`
UPDATE bookings
SET status = 'cancelled',
	status_history = COALESCE(status_history, '[]'::jsonb) || $2::jsonb,
	updated_at = NOW()
WHERE consignment_number = $1 AND status <> 'cancelled'
RETURNING %s`, bookingColumns)

	var c models.Consignment
	if err := r.db.GetContext(ctx, &c, query, cn, payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("void booking: %w", err)
	}
	c.Source = models.SourceBooking
	return &c, nil
}

// AutoVoidCritical transactionally cancels every booking whose classification
// carries critical flags. Candidates are rows that are not yet cancelled and
// either lack cached flags or cache at least one critical flag; classify runs
// for each candidate so unvalidated rows get flags computed and persisted.
func (r *BookingRepository) AutoVoidCritical(ctx context.Context, classify func(*models.Consignment) models.ValidationFlags) (voided []models.VoidedConsignment, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin auto-void transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf(`
SELECT %s FROM bookings
WHERE status <> 'cancelled'
	AND (validation_flags IS NULL OR jsonb_array_length(validation_flags->'criticalFlags') > 0)
FOR UPDATE`, bookingColumns)

	var candidates []models.Consignment
	if err = tx.SelectContext(ctx, &candidates, query); err != nil {
		return nil, fmt.Errorf("select auto-void candidates: %w", err)
	}

	const voidQuery = `
UPDATE bookings
SET status = 'cancelled',
	status_history = COALESCE(status_history, '[]'::jsonb) || $2::jsonb,
	validation_flags = $3,
	updated_at = NOW()
WHERE consignment_number = $1`

	now := time.Now().UTC()
	for i := range candidates {
		c := &candidates[i]
		flags := classify(c)
		if !flags.HasCritical() {
			// Cache the clean result so the row drops out of future sweeps.
			if _, err = tx.ExecContext(ctx, `UPDATE bookings SET validation_flags = $2, updated_at = NOW() WHERE consignment_number = $1`, c.ConsignmentNumber, flags); err != nil {
				return nil, fmt.Errorf("cache validation flags: %w", err)
			}
			continue
		}

		entry := models.StatusHistoryEntry{
			Status:    models.StatusCancelled,
			Timestamp: now,
			Reason:    "Auto-voided due to critical validation issues",
			Remarks:   "Automatically voided due to: " + strings.Join(flags.Critical, ", "),
			UpdatedBy: "system",
		}
		var payload []byte
		payload, err = json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("marshal history entry: %w", err)
		}
		if _, err = tx.ExecContext(ctx, voidQuery, c.ConsignmentNumber, payload, flags); err != nil {
			return nil, fmt.Errorf("auto-void booking %s: %w", c.ConsignmentNumber, err)
		}
		voided = append(voided, models.VoidedConsignment{
			ConsignmentNumber: c.ConsignmentNumber,
			Reason:            entry.Reason,
			Flags:             flags.Critical,
		})
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit auto-void transaction: %w", err)
	}
	return voided, nil
}
