package pricing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dkarlovs/voucherd/internal/models"
	"github.com/dkarlovs/voucherd/internal/storex"
)

type PostgresRepository struct {
	db *storex.Executor
}

func NewPostgresRepository(db *storex.Executor) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rate struct {
	Name   string
	Amount int64
}

func rowToRate(row pgx.CollectableRow) (rate, error) {
	var r rate
	err := row.Scan(&r.Name, &r.Amount)
	return r, err
}

func (r *PostgresRepository) Rates(ctx context.Context) (models.PricingRates, error) {
	query :=
		`SELECT rate_name, amount
		 FROM pricing_rates
		 `

	list, err := storex.QueryAll(ctx, r.db, query, nil, rowToRate)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	rates := make(models.PricingRates, len(list))
	for _, it := range list {
		rates[it.Name] = it.Amount
	}

	return rates, nil
}

func (r *PostgresRepository) SetRate(ctx context.Context, name string, amount int64) error {
	query :=
		`INSERT INTO pricing_rates (rate_name, amount)
		 VALUES ($1, $2)
		 ON CONFLICT (rate_name) DO UPDATE SET amount = EXCLUDED.amount
		 `

	if _, err := r.db.Exec(ctx, query, name, amount); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
