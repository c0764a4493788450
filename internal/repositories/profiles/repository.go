package profiles

import (
	"context"

	"github.com/dkarlovs/voucherd/internal/models"
)

type Repository interface {
	// Get returns the profile with the given name (case-insensitive) or
	// common.ErrNotFound.
	Get(ctx context.Context, name string) (*models.Profile, error)

	// Put inserts the profile or replaces all fields of an existing one.
	Put(ctx context.Context, p *models.Profile) error

	// List returns all profiles ordered by name.
	List(ctx context.Context) ([]models.Profile, error)
}
