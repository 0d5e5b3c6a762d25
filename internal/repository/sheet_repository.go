package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/models"
)

// ErrConsignmentTaken signals that the active-assignment guard rejected a
// sheet because another active sheet already claims the consignment number.
var ErrConsignmentTaken = errors.New("consignment already held by an active sheet")

const sheetColumns = `id, rider_id, rider_name, rider_code, consignment_numbers, count, status,
	completed_at, remarks, created_at, updated_at`

// SheetRepository persists delivery sheets together with the
// active_assignments guard table that enforces consignment exclusivity.
type SheetRepository struct {
	db *sqlx.DB
}

// NewSheetRepository constructs the repository.
func NewSheetRepository(db *sqlx.DB) *SheetRepository {
	return &SheetRepository{db: db}
}

// CreateWithGuard inserts the sheet and claims its consignment numbers in the
// guard table within one transaction. A unique violation on the guard maps to
// ErrConsignmentTaken, which closes the assign/assign race window.
func (r *SheetRepository) CreateWithGuard(ctx context.Context, sheet *models.DeliverySheet) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sheet transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertSheet = `
INSERT INTO delivery_sheets (id, rider_id, rider_name, rider_code, consignment_numbers, count, status, remarks, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, cardinality($5::text[]), $6, $7, NOW(), NOW())`
	if _, err = tx.ExecContext(ctx, insertSheet,
		sheet.ID, sheet.RiderID, sheet.RiderName, sheet.RiderCode,
		sheet.ConsignmentNumbers, sheet.Status, sheet.Remarks); err != nil {
		return fmt.Errorf("insert delivery sheet: %w", err)
	}

	const insertGuard = `INSERT INTO active_assignments (consignment_number, sheet_id, rider_id) VALUES ($1, $2, $3)`
	for _, cn := range sheet.ConsignmentNumbers {
		if _, err = tx.ExecContext(ctx, insertGuard, cn, sheet.ID, sheet.RiderID); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				err = ErrConsignmentTaken
				return err
			}
			return fmt.Errorf("claim consignment %s: %w", cn, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sheet transaction: %w", err)
	}
	sheet.Count = len(sheet.ConsignmentNumbers)
	return nil
}

// PurgeEmptyActive deletes degenerate empty active sheets for a rider.
func (r *SheetRepository) PurgeEmptyActive(ctx context.Context, riderID string) error {
	const query = `
DELETE FROM delivery_sheets
WHERE rider_id = $1 AND status = 'active'
	AND (consignment_numbers IS NULL OR cardinality(consignment_numbers) = 0)`
	if _, err := r.db.ExecContext(ctx, query, riderID); err != nil {
		return fmt.Errorf("purge empty sheets: %w", err)
	}
	return nil
}

// FindActiveByConsignment returns the active sheet holding the consignment.
func (r *SheetRepository) FindActiveByConsignment(ctx context.Context, cn string) (*models.DeliverySheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM delivery_sheets WHERE status = 'active' AND $1 = ANY(consignment_numbers)`, sheetColumns)

	var sheet models.DeliverySheet
	if err := r.db.GetContext(ctx, &sheet, query, cn); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find active sheet by consignment: %w", err)
	}
	return &sheet, nil
}

// FindActiveByRider returns the rider's most recent active sheet.
func (r *SheetRepository) FindActiveByRider(ctx context.Context, riderID string) (*models.DeliverySheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM delivery_sheets WHERE rider_id = $1 AND status = 'active' ORDER BY created_at DESC LIMIT 1`, sheetColumns)

	var sheet models.DeliverySheet
	if err := r.db.GetContext(ctx, &sheet, query, riderID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find active sheet by rider: %w", err)
	}
	return &sheet, nil
}

// ListActiveByRider returns every active sheet of the rider, newest first.
// The current creation flow makes one sheet per consignment, so a rider
// usually has several.
func (r *SheetRepository) ListActiveByRider(ctx context.Context, riderID string) ([]models.DeliverySheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM delivery_sheets WHERE rider_id = $1 AND status = 'active' ORDER BY created_at DESC`, sheetColumns)

	var sheets []models.DeliverySheet
	if err := r.db.SelectContext(ctx, &sheets, query, riderID); err != nil {
		return nil, fmt.Errorf("list active sheets: %w", err)
	}
	return sheets, nil
}

// FindRiderSheetHolding reports whether one of the rider's recent sheets
// (active or already closed out as delivered/completed) holds the number.
func (r *SheetRepository) FindRiderSheetHolding(ctx context.Context, riderID, cn string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM delivery_sheets
	WHERE rider_id = $1
		AND status IN ('active', 'delivered', 'completed')
		AND $2 = ANY(consignment_numbers)
)`
	var found bool
	if err := r.db.GetContext(ctx, &found, query, riderID, cn); err != nil {
		return false, fmt.Errorf("check rider sheet membership: %w", err)
	}
	return found, nil
}

// RemoveConsignment drops a consignment from the sheet, recomputes the count
// and releases the guard row in one transaction.
func (r *SheetRepository) RemoveConsignment(ctx context.Context, sheetID, cn string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sheet transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `
UPDATE delivery_sheets
SET consignment_numbers = array_remove(consignment_numbers, $2),
	count = cardinality(array_remove(consignment_numbers, $2)),
	updated_at = NOW()
WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, sheetID, cn); err != nil {
		return fmt.Errorf("remove consignment from sheet: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM active_assignments WHERE sheet_id = $1 AND consignment_number = $2`, sheetID, cn); err != nil {
		return fmt.Errorf("release consignment guard: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sheet transaction: %w", err)
	}
	return nil
}

// Complete closes a sheet as delivered and releases all its guard rows.
func (r *SheetRepository) Complete(ctx context.Context, sheetID, remarks string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sheet transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `
UPDATE delivery_sheets
SET status = 'delivered',
	completed_at = NOW(),
	remarks = CASE WHEN $2 = '' THEN remarks ELSE $2 END,
	updated_at = NOW()
WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, sheetID, remarks); err != nil {
		return fmt.Errorf("complete sheet: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM active_assignments WHERE sheet_id = $1`, sheetID); err != nil {
		return fmt.Errorf("release sheet guards: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sheet transaction: %w", err)
	}
	return nil
}

// CloseDeliveredConsignment marks the active sheet covering a delivered
// consignment as delivered and releases the guard row. Used when a delivery
// is reported through the status update path rather than sheet completion.
func (r *SheetRepository) CloseDeliveredConsignment(ctx context.Context, cn string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sheet transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `
UPDATE delivery_sheets
SET status = 'delivered', completed_at = NOW(), updated_at = NOW()
WHERE status = 'active' AND $1 = ANY(consignment_numbers)`
	if _, err = tx.ExecContext(ctx, update, cn); err != nil {
		return fmt.Errorf("close sheet for consignment: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM active_assignments WHERE consignment_number = $1`, cn); err != nil {
		return fmt.Errorf("release consignment guard: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sheet transaction: %w", err)
	}
	return nil
}

// FindByID fetches a sheet.
func (r *SheetRepository) FindByID(ctx context.Context, id string) (*models.DeliverySheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM delivery_sheets WHERE id = $1`, sheetColumns)

	var sheet models.DeliverySheet
	if err := r.db.GetContext(ctx, &sheet, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find sheet: %w", err)
	}
	return &sheet, nil
}

// List returns sheets matching the filter plus the unpaged total.
func (r *SheetRepository) List(ctx context.Context, filter dto.SheetFilter) ([]models.DeliverySheet, int, error) {
	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		fmt.Fprintf(&where, " AND status = $%d", len(args))
	}
	if filter.RiderID != "" {
		args = append(args, filter.RiderID)
		fmt.Fprintf(&where, " AND rider_id = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM delivery_sheets" + where.String()
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sheets: %w", err)
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
	query := fmt.Sprintf("SELECT %s FROM delivery_sheets%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		sheetColumns, where.String(), len(args)-1, len(args))

	var sheets []models.DeliverySheet
	if err := r.db.SelectContext(ctx, &sheets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sheets: %w", err)
	}
	return sheets, total, nil
}
