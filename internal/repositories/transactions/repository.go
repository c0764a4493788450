package transactions

import (
	"context"
	"time"

	"github.com/dkarlovs/voucherd/internal/models"
)

type Repository interface {
	// SaleExists reports whether a SALE transaction has already been
	// recorded for the voucher code.
	SaleExists(ctx context.Context, voucherCode string) (bool, error)

	// Add appends one transaction. Returns common.ErrDuplicateCode when a
	// SALE for that voucher code already exists.
	Add(ctx context.Context, tr *models.FinancialTransaction) error

	// TotalRevenue returns the sum of all SALE amounts.
	TotalRevenue(ctx context.Context) (int64, error)

	// RevenueBetween returns the sum of SALE amounts in [from, to).
	RevenueBetween(ctx context.Context, from, to time.Time) (int64, error)

	// ListRecent returns up to limit transactions, newest first.
	ListRecent(ctx context.Context, limit int) ([]models.FinancialTransaction, error)
}
