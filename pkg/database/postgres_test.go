package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"

	"go-minimart-pos/internal/config"
	"go-minimart-pos/internal/repository"
)

func TestOpen_AppliesPoolLimits(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	dialector := postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"})
	db, err := Open(dialector, config.DatabaseConfig{
		MaxOpenConns:    7,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		LogLevel:        "silent",
	}, zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 7, sqlDB.Stats().MaxOpenConnections)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_PostgresLocking(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	dialector := postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"})
	db, err := Open(dialector, config.DatabaseConfig{LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	repo := repository.NewProductRepo(db)

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE id IN .* ORDER BY id ASC FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sku", "stock_quantity"}))

	locked, err := repo.LockByIDs(ids)
	require.NoError(t, err)
	assert.Empty(t, locked)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET .*"stock_quantity"=stock_quantity \+ \$\d`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateStock(ids[0], -3, "cashier"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
