package pricing

import (
	"context"

	"github.com/dkarlovs/voucherd/internal/models"
)

type Repository interface {
	// Rates returns all rate classes keyed by name (day/week/month).
	Rates(ctx context.Context) (models.PricingRates, error)

	// SetRate inserts or updates one rate class.
	SetRate(ctx context.Context, name string, amount int64) error
}
