// Package billing turns observed voucher activations into SALE ledger rows,
// at most one per voucher code.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dkarlovs/voucherd/internal/common"
	"github.com/dkarlovs/voucherd/internal/logging"
	"github.com/dkarlovs/voucherd/internal/models"
	"github.com/dkarlovs/voucherd/internal/repositories/pricing"
	"github.com/dkarlovs/voucherd/internal/repositories/transactions"
	"github.com/dkarlovs/voucherd/internal/repositories/users"
	"github.com/dkarlovs/voucherd/internal/repositories/vouchers"
)

// minBillableUptime filters device-reported transient blips: a session that
// has been up for a second or less has not really started.
const minBillableUptime = 1

type Recorder struct {
	users        users.Repository
	vouchers     vouchers.Repository
	transactions transactions.Repository
	pricing      pricing.Repository
	log          logging.Logger

	// mu serializes the sale-exists check against the insert. The partial
	// unique index on SALE rows backstops it across processes.
	mu sync.Mutex
}

func NewRecorder(
	usersRepo users.Repository,
	vouchersRepo vouchers.Repository,
	transactionsRepo transactions.Repository,
	pricingRepo pricing.Repository,
	log logging.Logger,
) *Recorder {
	return &Recorder{
		users:        usersRepo,
		vouchers:     vouchersRepo,
		transactions: transactionsRepo,
		pricing:      pricingRepo,
		log:          log,
	}
}

// RecordActivationIfDue records a SALE for the voucher account if one has
// not been recorded yet, and marks the voucher used. Safe to call on every
// observation of an active session.
func (r *Recorder) RecordActivationIfDue(ctx context.Context, username string, observedUptimeSeconds int64) error {
	if observedUptimeSeconds <= minBillableUptime {
		return nil
	}

	rec, err := r.users.Get(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			r.log.Warn(ctx, "activation for unknown user, skipping billing", "username", username)
			return nil
		}
		return fmt.Errorf("billing lookup: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	exists, err := r.transactions.SaleExists(ctx, username)
	if err != nil {
		return fmt.Errorf("sale check: %w", err)
	}
	if exists {
		// covers a prior partial failure between insert and mark-used
		return r.vouchers.MarkUsed(ctx, username)
	}

	rates, err := r.pricing.Rates(ctx)
	if err != nil {
		return fmt.Errorf("pricing rates: %w", err)
	}
	amount := r.saleAmount(ctx, rec.UptimeLimit, rates)

	// insert first: a failure here leaves the voucher unmarked, so the
	// next observation retries the sale instead of suppressing it
	err = r.transactions.Add(ctx, &models.FinancialTransaction{
		VoucherCode: username,
		Amount:      amount,
		Type:        models.TransactionSale,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateCode) {
			r.log.Warn(ctx, "sale already recorded by a concurrent pass", "username", username)
			return r.vouchers.MarkUsed(ctx, username)
		}
		return fmt.Errorf("record sale: %w", err)
	}

	if err := r.vouchers.MarkUsed(ctx, username); err != nil {
		return fmt.Errorf("mark used: %w", err)
	}

	r.log.Info(ctx, "sale recorded", "username", username, "amount", amount)
	return nil
}

// saleAmount classifies the account's uptime limit into a rate class and
// looks up the current price. Unrecognized limits bill at the day rate.
func (r *Recorder) saleAmount(ctx context.Context, uptimeLimit string, rates models.PricingRates) int64 {
	class := rateClass(uptimeLimit)
	amount, ok := rates[class]
	if !ok {
		r.log.Warn(ctx, "no pricing rate configured, falling back to day rate",
			"class", class, "uptime_limit", uptimeLimit)
		amount = rates[models.RateDay]
	}
	return amount
}

func rateClass(uptimeLimit string) string {
	switch strings.ToLower(strings.TrimSpace(uptimeLimit)) {
	case "1d", "24h":
		return models.RateDay
	case "7d":
		return models.RateWeek
	case "30d":
		return models.RateMonth
	default:
		return models.RateDay
	}
}
