package transactions

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkarlovs/voucherd/internal/common"
	"github.com/dkarlovs/voucherd/internal/logging"
	"github.com/dkarlovs/voucherd/internal/models"
	"github.com/dkarlovs/voucherd/internal/storex"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, pgxmock.PgxConnIface) {
	t.Helper()
	mock, err := pgxmock.NewConn(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	metrics := storex.NewMetrics(prometheus.NewRegistry())
	pool := storex.NewPool(func(ctx context.Context) (storex.Conn, error) { return mock, nil }, 1, log, metrics)
	return NewPostgresRepository(storex.NewExecutor(pool, 0, log, metrics)), mock
}

func TestSaleExists(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("AB12C", "SALE").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()
	mock.ExpectPing()

	got, err := repo.SaleExists(context.Background(), "AB12C")
	require.NoError(t, err)
	assert.True(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdd_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO financial_transactions`).
		WithArgs("AB12C", int64(1000), "SALE").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectPing()

	err := repo.Add(context.Background(), &models.FinancialTransaction{
		VoucherCode: "AB12C",
		Amount:      1000,
		Type:        models.TransactionSale,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdd_DuplicateSale(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO financial_transactions`).
		WithArgs("AB12C", int64(1000), models.TransactionSale).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "financial_transactions_sale_once"})
	mock.ExpectRollback()
	mock.ExpectPing()

	err := repo.Add(context.Background(), &models.FinancialTransaction{
		VoucherCode: "AB12C",
		Amount:      1000,
		Type:        models.TransactionSale,
	})
	require.ErrorIs(t, err, common.ErrDuplicateCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTotalRevenue(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\)\s+FROM financial_transactions\s+WHERE transaction_type = \$1`).
		WithArgs("SALE").
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(32000)))
	mock.ExpectCommit()
	mock.ExpectPing()

	got, err := repo.TotalRevenue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(32000), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevenueBetween(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\)\s+FROM financial_transactions\s+WHERE transaction_type = \$1\s+AND transaction_date >= \$2 AND transaction_date < \$3`).
		WithArgs("SALE", from, to).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(7000)))
	mock.ExpectCommit()
	mock.ExpectPing()

	got, err := repo.RevenueBetween(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecent(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, voucher_code, amount, transaction_type, transaction_date\s+FROM financial_transactions\s+ORDER BY transaction_date DESC\s+LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "voucher_code", "amount", "transaction_type", "transaction_date"}).
			AddRow(int64(2), "XY34Z", int64(6000), "SALE", now).
			AddRow(int64(1), "AB12C", int64(1000), "SALE", now.Add(-time.Hour)))
	mock.ExpectCommit()
	mock.ExpectPing()

	got, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "XY34Z", got[0].VoucherCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
