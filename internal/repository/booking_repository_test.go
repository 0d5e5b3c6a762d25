package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func bookingRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "consignment_number", "consignee_name", "consignee_address", "consignee_mobile",
		"pieces", "weight", "cod_amount", "reference_no", "destination_city", "origin_city", "service_type",
		"account_no", "agent_name", "status", "status_history", "booking_date", "delivery_date", "remarks",
		"validation_flags", "created_at", "updated_at",
	}).AddRow(
		"b1", "CN1001", "Ali Raza", "House 4", "03001234567",
		1, 2.5, 1500.0, "", "Lahore", "Karachi", "overnight",
		"ACC-1", "Agent One", "pending", []byte("[]"), now, nil, "",
		nil, now, now,
	)
}

func TestBookingRepositoryFindByNumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery("FROM bookings WHERE consignment_number").
		WithArgs("CN1001").
		WillReturnRows(bookingRows())

	con, err := repo.FindByNumber(context.Background(), "CN1001")
	require.NoError(t, err)
	assert.Equal(t, "CN1001", con.ConsignmentNumber)
	assert.Equal(t, models.SourceBooking, con.Source)
	assert.False(t, con.ValidationFlags.Computed())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryFindByNumberNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery("FROM bookings WHERE consignment_number").
		WithArgs("CN9999").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByNumber(context.Background(), "CN9999")
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestBookingRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM bookings WHERE consignment_number = $1)")).
		WithArgs("CN1001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "CN1001")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("UPDATE bookings").
		WithArgs("CN1001", "delivered", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now().UTC()
	entry := models.StatusHistoryEntry{Status: models.StatusDelivered, Timestamp: now, UpdatedBy: "R1"}
	err := repo.UpdateStatus(context.Background(), "CN1001", models.StatusDelivered, entry, &now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatusMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("UPDATE bookings").
		WillReturnResult(sqlmock.NewResult(0, 0))

	entry := models.StatusHistoryEntry{Status: models.StatusReturned, Timestamp: time.Now().UTC()}
	err := repo.UpdateStatus(context.Background(), "CN9999", models.StatusReturned, entry, nil)
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestBookingRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE 1=1 AND status = $1")).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM bookings WHERE 1=1 AND status (.+) ORDER BY booking_date DESC LIMIT").
		WithArgs("pending", 10, 0).
		WillReturnRows(bookingRows())

	items, total, err := repo.List(context.Background(), dto.ConsignmentFilter{Status: models.StatusPending})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryVoidAlreadyCancelled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery("UPDATE bookings").
		WillReturnError(sql.ErrNoRows)

	entry := models.StatusHistoryEntry{Status: models.StatusCancelled, Timestamp: time.Now().UTC(), UpdatedBy: "admin-1"}
	_, err := repo.Void(context.Background(), "CN1001", entry)
	assert.Equal(t, sql.ErrNoRows, err)
}
