package engine

import (
	"context"
	"errors"

	"github.com/dkarlovs/voucherd/internal/common"
	"github.com/dkarlovs/voucherd/internal/device"
	"github.com/dkarlovs/voucherd/internal/logging"
	"github.com/dkarlovs/voucherd/internal/models"
	"github.com/dkarlovs/voucherd/internal/repositories/users"
	"github.com/dkarlovs/voucherd/internal/repositories/vouchers"
	"github.com/dkarlovs/voucherd/internal/throttle"
	"github.com/dkarlovs/voucherd/internal/uptime"
)

// ExpiryCheckTask walks all non-expired accounts, compares live device
// uptime against each account's limit and expires the ones past it.
type ExpiryCheckTask struct {
	gateway  device.Gateway
	users    users.Repository
	vouchers vouchers.Repository
	throttle *throttle.UsageThrottle
	log      logging.Logger
}

func NewExpiryCheckTask(
	gateway device.Gateway,
	usersRepo users.Repository,
	vouchersRepo vouchers.Repository,
	usageThrottle *throttle.UsageThrottle,
	log logging.Logger,
) *ExpiryCheckTask {
	return &ExpiryCheckTask{
		gateway:  gateway,
		users:    usersRepo,
		vouchers: vouchersRepo,
		throttle: usageThrottle,
		log:      log,
	}
}

func (t *ExpiryCheckTask) Name() string { return "expiry_check" }

func (t *ExpiryCheckTask) Run(ctx context.Context) error {
	records, err := t.users.ListNotExpired(ctx)
	if err != nil {
		return err
	}

	for _, rec := range records {
		t.checkRecord(ctx, rec)
	}

	return nil
}

func (t *ExpiryCheckTask) checkRecord(ctx context.Context, rec models.UserRecord) {
	usage := t.gateway.GetUserUsage(ctx, rec.Username)
	if usage == nil {
		// gone from the device or device unreachable; nothing to judge
		return
	}

	current, err := uptime.ParseUptime(usage.Uptime)
	if err != nil {
		t.log.Warn(ctx, "malformed device uptime", "username", rec.Username, "uptime", usage.Uptime)
	}
	limit, err := uptime.ParseLimit(rec.UptimeLimit)
	if err != nil {
		t.log.Warn(ctx, "malformed uptime limit", "username", rec.Username, "limit", rec.UptimeLimit)
	}

	if !uptime.LimitReached(current, limit) {
		return
	}

	// best-effort: the flags below must be set even if the kick fails
	if !t.gateway.RemoveActiveSession(ctx, rec.Username) {
		t.log.Warn(ctx, "could not remove expired session from device", "username", rec.Username)
	}

	if err := t.users.MarkExpired(ctx, rec.Username); err != nil {
		t.log.Error(ctx, "mark user expired failed", "username", rec.Username, "error", err)
		return
	}
	t.throttle.Forget(rec.Username)

	if rec.IsVoucher {
		t.expireVoucher(ctx, rec.Username)
	}

	t.log.Info(ctx, "account expired",
		"username", rec.Username, "uptime_seconds", current, "limit_seconds", limit)
}

func (t *ExpiryCheckTask) expireVoucher(ctx context.Context, code string) {
	v, err := t.vouchers.Get(ctx, code)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			t.log.Error(ctx, "voucher lookup failed", "username", code, "error", err)
		}
		return
	}
	if v.Expired {
		return
	}
	if err := t.vouchers.MarkExpired(ctx, code); err != nil {
		t.log.Error(ctx, "mark voucher expired failed", "username", code, "error", err)
	}
}
