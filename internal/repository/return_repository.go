package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/models"
)

const returnColumns = `id, rider_id, rider_name, rider_code, consignment_numbers, order_statuses,
	count, outcome, remarks, created_at, updated_at`

// ReturnRepository persists rider return batches.
type ReturnRepository struct {
	db *sqlx.DB
}

// NewReturnRepository constructs the repository.
func NewReturnRepository(db *sqlx.DB) *ReturnRepository {
	return &ReturnRepository{db: db}
}

// FindTodayByRider returns the rider's open batch for the current day.
// A batch stays open while its outcome is still received_at_office;
// completion moves it to a final outcome and it is never reused.
func (r *ReturnRepository) FindTodayByRider(ctx context.Context, riderID string) (*models.ReturnSheet, error) {
	query := fmt.Sprintf(`
SELECT %s FROM return_sheets
WHERE rider_id = $1
	AND created_at >= date_trunc('day', NOW())
	AND outcome = 'received_at_office'
ORDER BY created_at DESC
LIMIT 1`, returnColumns)

	var sheet models.ReturnSheet
	if err := r.db.GetContext(ctx, &sheet, query, riderID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find today's return batch: %w", err)
	}
	return &sheet, nil
}

// Create inserts a new return batch.
func (r *ReturnRepository) Create(ctx context.Context, sheet *models.ReturnSheet) error {
	const query = `
INSERT INTO return_sheets (id, rider_id, rider_name, rider_code, consignment_numbers, order_statuses, count, outcome, remarks, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, cardinality($5::text[]), $7, $8, NOW(), NOW())`
	if _, err := r.db.ExecContext(ctx, query,
		sheet.ID, sheet.RiderID, sheet.RiderName, sheet.RiderCode,
		sheet.ConsignmentNumbers, sheet.OrderStatuses, sheet.Outcome, sheet.Remarks); err != nil {
		return fmt.Errorf("insert return batch: %w", err)
	}
	sheet.Count = len(sheet.ConsignmentNumbers)
	return nil
}

// Append adds a consignment and its status snapshot to an existing batch,
// keeping the two arrays index-aligned and the count derived.
func (r *ReturnRepository) Append(ctx context.Context, sheetID, cn, orderStatus string) error {
	const query = `
UPDATE return_sheets
SET consignment_numbers = array_append(consignment_numbers, $2),
	order_statuses = array_append(order_statuses, $3),
	count = cardinality(array_append(consignment_numbers, $2)),
	updated_at = NOW()
WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, sheetID, cn, orderStatus)
	if err != nil {
		return fmt.Errorf("append to return batch: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("append to return batch: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID fetches a return batch.
func (r *ReturnRepository) FindByID(ctx context.Context, id string) (*models.ReturnSheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM return_sheets WHERE id = $1`, returnColumns)

	var sheet models.ReturnSheet
	if err := r.db.GetContext(ctx, &sheet, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find return batch: %w", err)
	}
	return &sheet, nil
}

// SetOutcome records the batch disposition.
func (r *ReturnRepository) SetOutcome(ctx context.Context, id string, outcome models.ReturnOutcome, remarks string) error {
	const query = `
UPDATE return_sheets
SET outcome = $2,
	remarks = CASE WHEN $3 = '' THEN remarks ELSE $3 END,
	updated_at = NOW()
WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, outcome, remarks)
	if err != nil {
		return fmt.Errorf("set return outcome: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set return outcome: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns batches matching the filter plus the unpaged total.
func (r *ReturnRepository) List(ctx context.Context, filter dto.ReturnFilter) ([]models.ReturnSheet, int, error) {
	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")
	args := []interface{}{}

	if filter.RiderID != "" {
		args = append(args, filter.RiderID)
		fmt.Fprintf(&where, " AND rider_id = $%d", len(args))
	}
	if filter.Outcome != "" {
		args = append(args, filter.Outcome)
		fmt.Fprintf(&where, " AND outcome = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM return_sheets" + where.String()
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count return batches: %w", err)
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
	query := fmt.Sprintf("SELECT %s FROM return_sheets%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		returnColumns, where.String(), len(args)-1, len(args))

	var sheets []models.ReturnSheet
	if err := r.db.SelectContext(ctx, &sheets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list return batches: %w", err)
	}
	return sheets, total, nil
}
