package models

import "time"

// TransactionSale is the only transaction type produced by the
// reconciliation core. At most one SALE row may exist per voucher code.
const TransactionSale = "SALE"

// FinancialTransaction is an append-only ledger row.
type FinancialTransaction struct {
	ID          int64
	VoucherCode string
	Amount      int64
	Type        string
	Date        time.Time
}

// PricingRates maps a rate class (day/week/month) to its amount in minor
// currency units.
type PricingRates map[string]int64

// Rate classes stored in the pricing_rates table.
const (
	RateDay   = "day"
	RateWeek  = "week"
	RateMonth = "month"
)
