package engine

import (
	"context"
	"errors"
	"time"

	"github.com/dkarlovs/voucherd/internal/billing"
	"github.com/dkarlovs/voucherd/internal/common"
	"github.com/dkarlovs/voucherd/internal/device"
	"github.com/dkarlovs/voucherd/internal/logging"
	"github.com/dkarlovs/voucherd/internal/repositories/users"
	"github.com/dkarlovs/voucherd/internal/repositories/vouchers"
	"github.com/dkarlovs/voucherd/internal/throttle"
	"github.com/dkarlovs/voucherd/internal/uptime"
)

// ActiveMonitorTask reconciles the device's connected-session list with the
// store: flips active flags in one batch, triggers billing for newly seen
// voucher sessions and persists throttled usage counters.
type ActiveMonitorTask struct {
	gateway  device.Gateway
	users    users.Repository
	vouchers vouchers.Repository
	billing  *billing.Recorder
	throttle *throttle.UsageThrottle
	log      logging.Logger
	now      func() time.Time
}

func NewActiveMonitorTask(
	gateway device.Gateway,
	usersRepo users.Repository,
	vouchersRepo vouchers.Repository,
	recorder *billing.Recorder,
	usageThrottle *throttle.UsageThrottle,
	log logging.Logger,
) *ActiveMonitorTask {
	return &ActiveMonitorTask{
		gateway:  gateway,
		users:    usersRepo,
		vouchers: vouchersRepo,
		billing:  recorder,
		throttle: usageThrottle,
		log:      log,
		now:      time.Now,
	}
}

func (t *ActiveMonitorTask) Name() string { return "active_monitor" }

func (t *ActiveMonitorTask) Run(ctx context.Context) error {
	sessions := t.gateway.ListActiveSessions(ctx)
	if sessions == nil {
		// nil means the read failed; an empty list is a valid answer and
		// deactivates everyone
		t.log.Warn(ctx, "device session list unavailable, skipping cycle")
		return nil
	}

	names := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		names = append(names, sess.User)
	}

	if err := t.users.SyncActiveStatus(ctx, names); err != nil {
		return err
	}

	for _, sess := range sessions {
		t.reconcileSession(ctx, sess)
	}

	return nil
}

func (t *ActiveMonitorTask) reconcileSession(ctx context.Context, sess device.ActiveSession) {
	v, err := t.vouchers.Get(ctx, sess.User)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			t.log.Error(ctx, "voucher lookup failed", "username", sess.User, "error", err)
		}
		// statically provisioned accounts have no voucher and no billing
		return
	}

	uptimeSeconds, err := uptime.ParseUptime(sess.Uptime)
	if err != nil {
		t.log.Warn(ctx, "malformed session uptime", "username", sess.User, "uptime", sess.Uptime)
	}

	if !v.Used {
		if err := t.billing.RecordActivationIfDue(ctx, sess.User, uptimeSeconds); err != nil {
			t.log.Error(ctx, "billing failed", "username", sess.User, "error", err)
		}
	}

	// session counters restart at zero on every reconnect; the per-user
	// read carries the cumulative totals
	usage := t.gateway.GetUserUsage(ctx, sess.User)
	if usage == nil {
		return
	}

	total := usage.BytesIn + usage.BytesOut
	if !t.throttle.ShouldPersist(sess.User, total, t.now()) {
		return
	}
	if err := t.vouchers.UpdateUsageBytes(ctx, sess.User, total); err != nil {
		t.log.Error(ctx, "voucher usage write failed", "username", sess.User, "error", err)
	}
	if err := t.users.UpdateUsageBytes(ctx, sess.User, total); err != nil {
		t.log.Error(ctx, "user usage write failed", "username", sess.User, "error", err)
	}
}
