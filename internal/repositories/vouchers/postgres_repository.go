package vouchers

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

const voucherColumns = `voucher_code, profile_name, created_at, activated_at, is_used,
		customer_name, customer_contact, bytes_used, session_time,
		expiry_time, is_expired, uptime_limit, password_mode, batch_id`

func rowToVoucher(row pgx.CollectableRow) (models.Voucher, error) {
	var v models.Voucher
	var mode string
	err := row.Scan(&v.Code, &v.ProfileName, &v.CreatedAt, &v.ActivatedAt, &v.Used,
		&v.CustomerName, &v.CustomerContact, &v.BytesUsed, &v.SessionTime,
		&v.ExpiryTime, &v.Expired, &v.UptimeLimit, &mode, &v.BatchID)
	v.PasswordMode = models.PasswordMode(mode)
	return v, err
}

func (r *PostgresRepository) Get(ctx context.Context, code string) (*models.Voucher, error) {
	query :=
		`SELECT ` + voucherColumns + `
		 FROM vouchers
		 WHERE voucher_code = $1
		 `

	v, err := storex.QueryOne(ctx, r.db, query, []any{code}, rowToVoucher)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &v, nil
}

func (r *PostgresRepository) Add(ctx context.Context, v *models.Voucher) error {
	query :=
		`INSERT INTO vouchers
		   (voucher_code, profile_name, customer_name, customer_contact,
		    expiry_time, uptime_limit, password_mode, batch_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	_, err := r.db.Exec(ctx, query,
		v.Code, v.ProfileName, v.CustomerName, v.CustomerContact,
		v.ExpiryTime, v.UptimeLimit, string(v.PasswordMode), v.BatchID)
	if err != nil {
		if storex.IsUniqueViolation(err) {
			return common.ErrDuplicateCode
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, code string) error {
	query :=
		`UPDATE vouchers
		 SET is_used = TRUE, activated_at = now()
		 WHERE voucher_code = $1 AND is_used = FALSE
		 `

	if _, err := r.db.Exec(ctx, query, code); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) UpdateUsageBytes(ctx context.Context, code string, totalBytes int64) error {
	query :=
		`UPDATE vouchers
		 SET bytes_used = $2
		 WHERE voucher_code = $1
		 `

	if _, err := r.db.Exec(ctx, query, code, totalBytes); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) MarkExpired(ctx context.Context, code string) error {
	query :=
		`UPDATE vouchers
		 SET is_expired = TRUE
		 WHERE voucher_code = $1 AND is_expired = FALSE
		 `

	if _, err := r.db.Exec(ctx, query, code); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListRecentUsed(ctx context.Context, limit int) ([]models.Voucher, error) {
	query :=
		`SELECT ` + voucherColumns + `
		 FROM vouchers
		 WHERE is_used = TRUE
		 ORDER BY activated_at DESC
		 LIMIT $1
		 `

	list, err := storex.QueryAll(ctx, r.db, query, []any{limit}, rowToVoucher)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}
