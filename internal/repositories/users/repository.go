package users

import (
	"context"

	"github.com/dkarlovs/voucherd/internal/models"
)

type Repository interface {
	// Get returns the record for a device username or common.ErrNotFound.
	Get(ctx context.Context, username string) (*models.UserRecord, error)

	// Upsert inserts the record or refreshes the mutable fields of an
	// existing row. The original creation time is preserved.
	Upsert(ctx context.Context, rec *models.UserRecord) error

	// SyncActiveStatus flips is_active in one batch: names in activeNames
	// become active, every other active row becomes inactive.
	SyncActiveStatus(ctx context.Context, activeNames []string) error

	// UpdateUsageBytes stores the device-reported cumulative byte count
	// and refreshes last_seen.
	UpdateUsageBytes(ctx context.Context, username string, totalBytes int64) error

	// ListNotExpired returns every record not yet flagged expired.
	ListNotExpired(ctx context.Context) ([]models.UserRecord, error)

	// MarkExpired flags the record expired and inactive.
	MarkExpired(ctx context.Context, username string) error
}
