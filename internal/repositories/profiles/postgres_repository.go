package profiles

import (
	"context"
	"errors"
	"fmt"

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

const profileColumns = `profile_name, rate_limit, description, price, time_limit,
		data_limit, validity_period, uptime_limit, created_at`

func rowToProfile(row pgx.CollectableRow) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.Name, &p.RateLimit, &p.Description, &p.Price, &p.TimeLimit,
		&p.DataLimit, &p.ValidityPeriod, &p.UptimeLimit, &p.CreatedAt)
	return p, err
}

func (r *PostgresRepository) Get(ctx context.Context, name string) (*models.Profile, error) {
	query :=
		`SELECT ` + profileColumns + `
		 FROM bandwidth_profiles
		 WHERE LOWER(profile_name) = LOWER($1)
		 `

	p, err := storex.QueryOne(ctx, r.db, query, []any{name}, rowToProfile)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &p, nil
}

func (r *PostgresRepository) Put(ctx context.Context, p *models.Profile) error {
	query :=
		`INSERT INTO bandwidth_profiles
		   (profile_name, rate_limit, description, price, time_limit,
		    data_limit, validity_period, uptime_limit)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (profile_name) DO UPDATE SET
		   rate_limit = EXCLUDED.rate_limit,
		   description = EXCLUDED.description,
		   price = EXCLUDED.price,
		   time_limit = EXCLUDED.time_limit,
		   data_limit = EXCLUDED.data_limit,
		   validity_period = EXCLUDED.validity_period,
		   uptime_limit = EXCLUDED.uptime_limit
		 `

	_, err := r.db.Exec(ctx, query,
		p.Name, p.RateLimit, p.Description, p.Price, p.TimeLimit,
		p.DataLimit, p.ValidityPeriod, p.UptimeLimit)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Profile, error) {
	query :=
		`SELECT ` + profileColumns + `
		 FROM bandwidth_profiles
		 ORDER BY profile_name
		 `

	list, err := storex.QueryAll(ctx, r.db, query, nil, rowToProfile)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}
