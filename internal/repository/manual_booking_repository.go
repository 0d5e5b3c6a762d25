package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/visionary-built/MyCourierBackend/internal/models"
)

// manualBookingRow mirrors the manual_bookings table, which keeps the legacy
// column layout of directly entered bookings.
type manualBookingRow struct {
	ID               string                   `db:"id"`
	CustomerID       string                   `db:"customer_id"`
	CreatedBy        string                   `db:"created_by"`
	ServiceType      string                   `db:"service_type"`
	OriginCity       string                   `db:"origin_city"`
	DestinationCity  string                   `db:"destination_city"`
	ConsigneeName    string                   `db:"consignee_name"`
	ConsigneeMobile  string                   `db:"consignee_mobile"`
	ConsigneeAddress string                   `db:"consignee_address"`
	Weight           float64                  `db:"weight"`
	CODAmount        float64                  `db:"cod_amount"`
	Pieces           int                      `db:"pieces"`
	Fragile          bool                     `db:"fragile"`
	DeliveryCharges  float64                  `db:"delivery_charges"`
	ProductDetail    string                   `db:"product_detail"`
	Remarks          string                   `db:"remarks"`
	ConsignmentNo    string                   `db:"consignment_no"`
	Status           models.ConsignmentStatus `db:"status"`
	StatusHistory    models.StatusHistory     `db:"status_history"`
	CreatedAt        time.Time                `db:"created_at"`
	UpdatedAt        time.Time                `db:"updated_at"`
}

// toConsignment normalizes the legacy shape into the unified record.
func (row *manualBookingRow) toConsignment() *models.Consignment {
	remarks := row.Remarks
	if remarks == "" {
		remarks = "Manual Booking"
	}
	agent := row.CreatedBy
	if agent == "" {
		agent = "Manual Entry"
	}
	updated := row.UpdatedAt
	return &models.Consignment{
		ID:                row.ID,
		ConsignmentNumber: row.ConsignmentNo,
		ConsigneeName:     row.ConsigneeName,
		ConsigneeAddress:  row.ConsigneeAddress,
		ConsigneeMobile:   row.ConsigneeMobile,
		Pieces:            row.Pieces,
		Weight:            row.Weight,
		CODAmount:         row.CODAmount,
		DestinationCity:   row.DestinationCity,
		OriginCity:        row.OriginCity,
		ServiceType:       row.ServiceType,
		Fragile:           row.Fragile,
		DeliveryCharges:   row.DeliveryCharges,
		ProductDetail:     row.ProductDetail,
		AccountNo:         "MANUAL",
		AgentName:         agent,
		Status:            row.Status,
		StatusHistory:     row.StatusHistory,
		BookingDate:       row.CreatedAt,
		DeliveryDate:      &updated,
		Remarks:           remarks,
		Source:            models.SourceManual,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

const manualBookingColumns = `id, customer_id, created_by, service_type, origin_city, destination_city,
	consignee_name, consignee_mobile, consignee_address, weight, cod_amount, pieces,
	fragile, delivery_charges, product_detail,
	remarks, consignment_no, status, status_history, created_at, updated_at`

// ManualBookingRepository persists the directly entered record family.
type ManualBookingRepository struct {
	db *sqlx.DB
}

// NewManualBookingRepository constructs the repository.
func NewManualBookingRepository(db *sqlx.DB) *ManualBookingRepository {
	return &ManualBookingRepository{db: db}
}

// FindByNumber looks up a manual booking, normalized to the unified shape.
func (r *ManualBookingRepository) FindByNumber(ctx context.Context, cn string) (*models.Consignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM manual_bookings WHERE consignment_no = $1`, manualBookingColumns)

	var row manualBookingRow
	if err := r.db.GetContext(ctx, &row, query, cn); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find manual booking: %w", err)
	}
	return row.toConsignment(), nil
}

// Exists reports whether the consignment number is taken in this family.
func (r *ManualBookingRepository) Exists(ctx context.Context, cn string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM manual_bookings WHERE consignment_no = $1)`
	if err := r.db.GetContext(ctx, &exists, query, cn); err != nil {
		return false, fmt.Errorf("manual booking exists: %w", err)
	}
	return exists, nil
}

// UpdateStatus mirrors a status change into the manual family.
func (r *ManualBookingRepository) UpdateStatus(ctx context.Context, cn string, status models.ConsignmentStatus, entry models.StatusHistoryEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	const query = `
UPDATE manual_bookings
SET status = $2,
	status_history = COALESCE(status_history, '[]'::jsonb) || $3::jsonb,
	updated_at = NOW()
WHERE consignment_no = $1`

	res, err := r.db.ExecContext(ctx, query, cn, status, payload)
	if err != nil {
		return fmt.Errorf("update manual booking status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AppendRemark accumulates onto the remarks field, never overwriting.
func (r *ManualBookingRepository) AppendRemark(ctx context.Context, cn, text string) error {
	const query = `
UPDATE manual_bookings
SET remarks = CASE WHEN remarks = '' THEN $2 ELSE remarks || ' | ' || $2 END,
	updated_at = NOW()
WHERE consignment_no = $1`

	res, err := r.db.ExecContext(ctx, query, cn, text)
	if err != nil {
		return fmt.Errorf("append manual booking remark: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByNumbers fetches manual bookings for the given consignment numbers.
func (r *ManualBookingRepository) ListByNumbers(ctx context.Context, numbers []string) ([]models.Consignment, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM manual_bookings WHERE consignment_no = ANY($1) ORDER BY created_at DESC`, manualBookingColumns)

	var rows []manualBookingRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(numbers)); err != nil {
		return nil, fmt.Errorf("list manual bookings by numbers: %w", err)
	}
	items := make([]models.Consignment, 0, len(rows))
	for i := range rows {
		items = append(items, *rows[i].toConsignment())
	}
	return items, nil
}
