package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkarlovs/voucherd/internal/common"
	"github.com/dkarlovs/voucherd/internal/device"
	"github.com/dkarlovs/voucherd/internal/logging"
	"github.com/dkarlovs/voucherd/internal/models"
	"github.com/dkarlovs/voucherd/internal/repositories/users"
	"github.com/dkarlovs/voucherd/internal/repositories/vouchers"
	"github.com/dkarlovs/voucherd/internal/vouchersvc"
)

// SyncTask mirrors the device's full account list into all_users. Existing
// rows keep their creation time; the mutable fields are refreshed.
type SyncTask struct {
	gateway  device.Gateway
	users    users.Repository
	vouchers vouchers.Repository
	log      logging.Logger
}

func NewSyncTask(gateway device.Gateway, usersRepo users.Repository, vouchersRepo vouchers.Repository, log logging.Logger) *SyncTask {
	return &SyncTask{gateway: gateway, users: usersRepo, vouchers: vouchersRepo, log: log}
}

func (t *SyncTask) Name() string { return "sync" }

func (t *SyncTask) Run(ctx context.Context) error {
	entries := t.gateway.ListAllUsers(ctx)
	if entries == nil {
		t.log.Warn(ctx, "device user list unavailable, skipping cycle")
		return nil
	}

	failed := 0
	for _, entry := range entries {
		if err := t.syncEntry(ctx, entry); err != nil {
			failed++
			t.log.Error(ctx, "user sync failed", "username", entry.Name, "error", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("synced %d of %d device users", len(entries)-failed, len(entries))
	}

	t.log.Debug(ctx, "device users synced", "count", len(entries))
	return nil
}

func (t *SyncTask) syncEntry(ctx context.Context, entry device.UserEntry) error {
	rec := models.UserRecord{
		Username:    entry.Name,
		ProfileName: entry.Profile,
		UptimeLimit: entry.UptimeLimit,
		Comment:     entry.Comment,
	}

	v, err := t.vouchers.Get(ctx, entry.Name)
	switch {
	case err == nil:
		rec.IsVoucher = true
		rec.PasswordMode = v.PasswordMode
	case errors.Is(err, common.ErrNotFound):
		// no ledger row: recover the password mode from the comment tags
		rec.PasswordMode = vouchersvc.CommentPasswordMode(entry.Comment)
	default:
		return err
	}

	return t.users.Upsert(ctx, &rec)
}
