package users

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

const userColumns = `username, profile_name, created_at, last_seen, is_active,
		bytes_used, uptime_limit, is_expired, comment, password_mode, is_voucher`

func rowToUser(row pgx.CollectableRow) (models.UserRecord, error) {
	var u models.UserRecord
	var mode string
	err := row.Scan(&u.Username, &u.ProfileName, &u.CreatedAt, &u.LastSeen, &u.Active,
		&u.BytesUsed, &u.UptimeLimit, &u.Expired, &u.Comment, &mode, &u.IsVoucher)
	u.PasswordMode = models.PasswordMode(mode)
	return u, err
}

func (r *PostgresRepository) Get(ctx context.Context, username string) (*models.UserRecord, error) {
	query :=
		`SELECT ` + userColumns + `
		 FROM all_users
		 WHERE username = $1
		 `

	u, err := storex.QueryOne(ctx, r.db, query, []any{username}, rowToUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &u, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.UserRecord) error {
	query :=
		`INSERT INTO all_users
		   (username, profile_name, uptime_limit, comment, password_mode, is_voucher, last_seen)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (username) DO UPDATE SET
		   profile_name = EXCLUDED.profile_name,
		   uptime_limit = EXCLUDED.uptime_limit,
		   comment = EXCLUDED.comment,
		   password_mode = EXCLUDED.password_mode,
		   is_voucher = EXCLUDED.is_voucher,
		   last_seen = now()
		 `

	_, err := r.db.Exec(ctx, query,
		rec.Username, rec.ProfileName, rec.UptimeLimit, rec.Comment,
		string(rec.PasswordMode), rec.IsVoucher)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) SyncActiveStatus(ctx context.Context, activeNames []string) error {
	if activeNames == nil {
		activeNames = []string{}
	}

	batch := &pgx.Batch{}
	batch.Queue(
		`UPDATE all_users
		 SET is_active = TRUE, last_seen = now()
		 WHERE username = ANY($1) AND is_active = FALSE
		 `, activeNames)
	batch.Queue(
		`UPDATE all_users
		 SET is_active = FALSE
		 WHERE is_active = TRUE AND NOT (username = ANY($1))
		 `, activeNames)

	if err := r.db.SendBatch(ctx, batch); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) UpdateUsageBytes(ctx context.Context, username string, totalBytes int64) error {
	query :=
		`UPDATE all_users
		 SET bytes_used = $2, last_seen = now()
		 WHERE username = $1
		 `

	if _, err := r.db.Exec(ctx, query, username, totalBytes); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListNotExpired(ctx context.Context) ([]models.UserRecord, error) {
	query :=
		`SELECT ` + userColumns + `
		 FROM all_users
		 WHERE is_expired = FALSE
		 ORDER BY username
		 `

	list, err := storex.QueryAll(ctx, r.db, query, nil, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}

func (r *PostgresRepository) MarkExpired(ctx context.Context, username string) error {
	query :=
		`UPDATE all_users
		 SET is_expired = TRUE, is_active = FALSE
		 WHERE username = $1 AND is_expired = FALSE
		 `

	if _, err := r.db.Exec(ctx, query, username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
