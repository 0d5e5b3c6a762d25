package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/visionary-built/MyCourierBackend/internal/models"
)

// RiderRepository reads the rider directory. Profile management is owned by
// the back-office service; this backend only resolves assignment targets.
type RiderRepository struct {
	db *sqlx.DB
}

// NewRiderRepository constructs the repository.
func NewRiderRepository(db *sqlx.DB) *RiderRepository {
	return &RiderRepository{db: db}
}

// FindByID fetches a rider regardless of activity.
func (r *RiderRepository) FindByID(ctx context.Context, id string) (*models.Rider, error) {
	const query = `SELECT id, rider_name, rider_code, mobile_no, active, created_at FROM riders WHERE id = $1`

	var rider models.Rider
	if err := r.db.GetContext(ctx, &rider, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find rider: %w", err)
	}
	return &rider, nil
}

// ListActive returns active riders for assignment selection.
func (r *RiderRepository) ListActive(ctx context.Context) ([]models.Rider, error) {
	const query = `SELECT id, rider_name, rider_code, mobile_no, active, created_at FROM riders WHERE active ORDER BY rider_name ASC`

	var riders []models.Rider
	if err := r.db.SelectContext(ctx, &riders, query); err != nil {
		return nil, fmt.Errorf("list active riders: %w", err)
	}
	return riders, nil
}
