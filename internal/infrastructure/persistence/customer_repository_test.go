package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/loyalty/backend/internal/domain/shared"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestCustomerRepositoryFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerRepository(db)
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "code", "name", "status"}).
			AddRow(id.String(), "ACME", "ACME GmbH", "active")
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "customers" WHERE id = $1 ORDER BY "customers"."id" LIMIT $2`)).
			WithArgs(id, 1).
			WillReturnRows(rows)

		customer, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "ACME", customer.Code)
		assert.Equal(t, "ACME GmbH", customer.Name)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "customers" WHERE id = $1 ORDER BY "customers"."id" LIMIT $2`)).
			WithArgs(id, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByID(context.Background(), id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryFindByCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerRepository(db)
	id := uuid.New()

	// Lookups are case-insensitive because codes are stored uppercase
	rows := sqlmock.NewRows([]string{"id", "code", "name"}).
		AddRow(id.String(), "ACME", "ACME GmbH")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "customers" WHERE code = $1 ORDER BY "customers"."id" LIMIT $2`)).
		WithArgs("ACME", 1).
		WillReturnRows(rows)

	customer, err := repo.FindByCode(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, id, customer.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryFindByWawiID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "customers" WHERE wawi_id = $1 ORDER BY "customers"."id" LIMIT $2`)).
		WithArgs(int64(7), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "wawi_id", "code"}).
			AddRow(uuid.NewString(), int64(7), "ACME"))

	customer, err := repo.FindByWawiID(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, customer.WawiID)
	assert.Equal(t, int64(7), *customer.WawiID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryFindAll(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code"}).
		AddRow(uuid.NewString(), "C-1").
		AddRow(uuid.NewString(), "C-2")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "customers" ORDER BY created_at DESC LIMIT $1 OFFSET $2`)).
		WithArgs(10, 20).
		WillReturnRows(rows)

	customers, err := repo.FindAll(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Len(t, customers, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepositoryCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "customers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(5)))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
