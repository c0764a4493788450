// Package vouchersvc issues voucher codes and serves review views that
// merge ledger rows with live device state.
package vouchersvc

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dkarlovs/voucherd/internal/common"
	"github.com/dkarlovs/voucherd/internal/device"
	"github.com/dkarlovs/voucherd/internal/logging"
	"github.com/dkarlovs/voucherd/internal/models"
	"github.com/dkarlovs/voucherd/internal/repositories/profiles"
	"github.com/dkarlovs/voucherd/internal/repositories/vouchers"
	"github.com/dkarlovs/voucherd/internal/uptime"
)

// codeAlphabet leaves out 0/O, 1/I and lowercase to keep codes readable
// when printed on paper slips.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	maxBatchSize     = 100
	codeGenAttempts  = 5
	defaultUsedLimit = 50
)

// CreateRequest describes one issuance batch.
type CreateRequest struct {
	Profile         string
	Quantity        int
	CustomerName    string
	CustomerContact string
	PasswordMode    models.PasswordMode
	// Password is only read when PasswordMode is PasswordCustom.
	Password string
}

// CreateResult is the outcome of one issuance batch.
type CreateResult struct {
	BatchID  string
	Vouchers []models.Voucher
}

// Info is a voucher merged with its price and live device usage.
type Info struct {
	Voucher models.Voucher
	Price   int64
	Usage   *device.UserUsage
	// PastLimit is true when the live uptime has reached the limit or the
	// ledger already flagged the voucher expired.
	PastLimit bool
}

// UsedVoucher is a recently activated voucher with its live expiry flag.
type UsedVoucher struct {
	Voucher   models.Voucher
	PastLimit bool
}

// Plan is a stored profile annotated with whether the device knows it.
// Issuing against a plan missing on the device produces accounts the
// hotspot rejects, so the review surface flags the gap.
type Plan struct {
	Profile  models.Profile
	OnDevice bool
}

type Service struct {
	vouchers vouchers.Repository
	profiles profiles.Repository
	gateway  device.Gateway
	log      logging.Logger
	now      func() time.Time
}

func NewService(
	vouchersRepo vouchers.Repository,
	profilesRepo profiles.Repository,
	gateway device.Gateway,
	log logging.Logger,
) *Service {
	return &Service{
		vouchers: vouchersRepo,
		profiles: profilesRepo,
		gateway:  gateway,
		log:      log,
		now:      time.Now,
	}
}

// Create issues a batch of vouchers for the given profile: for each one it
// generates a unique code, inserts the ledger row and provisions the device
// account. A device provisioning failure is logged and the voucher kept;
// the next sync cycle surfaces the gap to the operator.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.Quantity < 1 || req.Quantity > maxBatchSize {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", common.ErrValidation, maxBatchSize)
	}
	switch req.PasswordMode {
	case models.PasswordBlank, models.PasswordSame, models.PasswordCustom:
	default:
		return nil, fmt.Errorf("%w: unknown password mode %q", common.ErrValidation, req.PasswordMode)
	}
	if req.PasswordMode == models.PasswordCustom && req.Password == "" {
		return nil, fmt.Errorf("%w: custom password mode requires a password", common.ErrValidation)
	}

	profile, err := s.profiles.Get(ctx, req.Profile)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown profile %q", common.ErrValidation, req.Profile)
		}
		return nil, fmt.Errorf("profile lookup: %w", err)
	}

	result := &CreateResult{BatchID: uuid.NewString()}
	comment := BuildComment(req.CustomerName, req.PasswordMode == models.PasswordSame)

	var expiry *time.Time
	if profile.ValidityPeriod > 0 {
		t := s.now().Add(time.Duration(profile.ValidityPeriod) * time.Hour)
		expiry = &t
	}

	for i := 0; i < req.Quantity; i++ {
		v := models.Voucher{
			ProfileName:     profile.Name,
			CustomerName:    req.CustomerName,
			CustomerContact: req.CustomerContact,
			ExpiryTime:      expiry,
			UptimeLimit:     profile.UptimeLimit,
			PasswordMode:    req.PasswordMode,
			BatchID:         result.BatchID,
		}

		if err := s.addWithFreshCode(ctx, &v, profile.UptimeLimit); err != nil {
			return nil, err
		}

		ok := s.gateway.CreateVoucherAccount(ctx, device.CreateAccountRequest{
			Profile:     profile.Name,
			Code:        v.Code,
			Password:    s.password(req, v.Code),
			Comment:     comment,
			UptimeLimit: profile.UptimeLimit,
		})
		if !ok {
			s.log.Warn(ctx, "device provisioning failed, voucher kept in ledger",
				"code", v.Code, "batch_id", result.BatchID)
		}

		result.Vouchers = append(result.Vouchers, v)
	}

	s.log.Info(ctx, "voucher batch issued",
		"batch_id", result.BatchID, "profile", profile.Name, "quantity", len(result.Vouchers))
	return result, nil
}

func (s *Service) addWithFreshCode(ctx context.Context, v *models.Voucher, uptimeLimit string) error {
	length := codeLength(uptimeLimit)
	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, err := randomCode(length)
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		v.Code = code

		err = s.vouchers.Add(ctx, v)
		if err == nil {
			return nil
		}
		if !errors.Is(err, common.ErrDuplicateCode) {
			return fmt.Errorf("store voucher: %w", err)
		}
	}
	return fmt.Errorf("%w: could not generate a unique voucher code", common.ErrInternal)
}

func (s *Service) password(req CreateRequest, code string) string {
	switch req.PasswordMode {
	case models.PasswordSame:
		return code
	case models.PasswordCustom:
		return req.Password
	default:
		return ""
	}
}

// GetInfo returns the voucher merged with its profile price and a live
// device usage read. A device miss leaves Usage nil.
func (s *Service) GetInfo(ctx context.Context, code string) (*Info, error) {
	v, err := s.vouchers.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	info := &Info{Voucher: *v, PastLimit: v.Expired}

	if p, err := s.profiles.Get(ctx, v.ProfileName); err == nil {
		info.Price = p.Price
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("profile lookup: %w", err)
	}

	if usage := s.gateway.GetUserUsage(ctx, code); usage != nil {
		info.Usage = usage
		info.PastLimit = info.PastLimit || s.pastLimit(ctx, code, usage)
	}

	return info, nil
}

// RecentUsed returns the most recently activated vouchers, each annotated
// with whether it is currently past its uptime limit. The stored expired
// flag wins over a momentarily lower device counter, e.g. after a device
// reboot reset the uptime.
func (s *Service) RecentUsed(ctx context.Context, limit int) ([]UsedVoucher, error) {
	if limit <= 0 {
		limit = defaultUsedLimit
	}

	list, err := s.vouchers.ListRecentUsed(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]UsedVoucher, 0, len(list))
	for _, v := range list {
		past := v.Expired
		if !past {
			if usage := s.gateway.GetUserUsage(ctx, v.Code); usage != nil {
				past = s.pastLimit(ctx, v.Code, usage)
			}
		}
		out = append(out, UsedVoucher{Voucher: v, PastLimit: past})
	}

	return out, nil
}

// Plans lists the stored profiles and checks each against the device's
// profile list. A nil device read leaves every plan flagged missing; the
// stored side is still returned so issuance stays possible.
func (s *Service) Plans(ctx context.Context) ([]Plan, error) {
	stored, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("profile list: %w", err)
	}

	onDevice := make(map[string]bool)
	deviceProfiles := s.gateway.ListProfiles(ctx)
	if deviceProfiles == nil {
		s.log.Warn(ctx, "device profile list unavailable")
	}
	for _, p := range deviceProfiles {
		onDevice[strings.ToLower(p.Name)] = true
	}

	out := make([]Plan, 0, len(stored))
	for _, p := range stored {
		out = append(out, Plan{Profile: p, OnDevice: onDevice[strings.ToLower(p.Name)]})
	}
	return out, nil
}

func (s *Service) pastLimit(ctx context.Context, code string, usage *device.UserUsage) bool {
	current, err := uptime.ParseUptime(usage.Uptime)
	if err != nil {
		s.log.Warn(ctx, "malformed device uptime", "code", code, "uptime", usage.Uptime)
	}
	limit, err := uptime.ParseLimit(usage.LimitUptime)
	if err != nil {
		s.log.Warn(ctx, "malformed uptime limit", "code", code, "limit", usage.LimitUptime)
	}
	return uptime.LimitReached(current, limit)
}

func codeLength(uptimeLimit string) int {
	switch strings.ToLower(strings.TrimSpace(uptimeLimit)) {
	case "7d":
		return 6
	case "30d":
		return 7
	default:
		return 5
	}
}

func randomCode(length int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}
