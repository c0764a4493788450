package vouchers

import (
	"context"

	"github.com/dkarlovs/voucherd/internal/models"
)

type Repository interface {
	// Get returns the voucher with the given code or common.ErrNotFound.
	Get(ctx context.Context, code string) (*models.Voucher, error)

	// Add inserts a new voucher. Returns common.ErrDuplicateCode if the
	// code already exists.
	Add(ctx context.Context, v *models.Voucher) error

	// MarkUsed sets used=true and stamps the activation time. Idempotent:
	// a voucher already marked used is left untouched.
	MarkUsed(ctx context.Context, code string) error

	// UpdateUsageBytes stores the device-reported cumulative byte count.
	UpdateUsageBytes(ctx context.Context, code string, totalBytes int64) error

	// MarkExpired flags the voucher expired. Idempotent.
	MarkExpired(ctx context.Context, code string) error

	// ListRecentUsed returns up to limit used vouchers, most recently
	// activated first.
	ListRecentUsed(ctx context.Context, limit int) ([]models.Voucher, error)
}
