package transactions

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dkarlovs/voucherd/internal/common"
	"github.com/dkarlovs/voucherd/internal/models"
	"github.com/dkarlovs/voucherd/internal/storex"
)

type PostgresRepository struct {
	db *storex.Executor
}

func NewPostgresRepository(db *storex.Executor) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func rowToTransaction(row pgx.CollectableRow) (models.FinancialTransaction, error) {
	var tr models.FinancialTransaction
	err := row.Scan(&tr.ID, &tr.VoucherCode, &tr.Amount, &tr.Type, &tr.Date)
	return tr, err
}

func rowToBool(row pgx.CollectableRow) (bool, error) {
	var b bool
	err := row.Scan(&b)
	return b, err
}

func rowToInt64(row pgx.CollectableRow) (int64, error) {
	var n int64
	err := row.Scan(&n)
	return n, err
}

func (r *PostgresRepository) SaleExists(ctx context.Context, voucherCode string) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM financial_transactions
		   WHERE voucher_code = $1 AND transaction_type = $2
		 )
		 `

	exists, err := storex.QueryOne(ctx, r.db, query, []any{voucherCode, models.TransactionSale}, rowToBool)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

func (r *PostgresRepository) Add(ctx context.Context, tr *models.FinancialTransaction) error {
	query :=
		`INSERT INTO financial_transactions (voucher_code, amount, transaction_type)
		 VALUES ($1, $2, $3)
		 `

	_, err := r.db.Exec(ctx, query, tr.VoucherCode, tr.Amount, tr.Type)
	if err != nil {
		if storex.IsUniqueViolation(err) {
			return common.ErrDuplicateCode
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) TotalRevenue(ctx context.Context) (int64, error) {
	query :=
		`SELECT COALESCE(SUM(amount), 0)
		 FROM financial_transactions
		 WHERE transaction_type = $1
		 `

	total, err := storex.QueryOne(ctx, r.db, query, []any{models.TransactionSale}, rowToInt64)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return total, nil
}

func (r *PostgresRepository) RevenueBetween(ctx context.Context, from, to time.Time) (int64, error) {
	query :=
		`SELECT COALESCE(SUM(amount), 0)
		 FROM financial_transactions
		 WHERE transaction_type = $1
		   AND transaction_date >= $2 AND transaction_date < $3
		 `

	total, err := storex.QueryOne(ctx, r.db, query, []any{models.TransactionSale, from, to}, rowToInt64)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return total, nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]models.FinancialTransaction, error) {
	query :=
		`SELECT id, voucher_code, amount, transaction_type, transaction_date
		 FROM financial_transactions
		 ORDER BY transaction_date DESC
		 LIMIT $1
		 `

	list, err := storex.QueryAll(ctx, r.db, query, []any{limit}, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}
