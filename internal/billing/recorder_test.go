package billing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkarlovs/voucherd/internal/common"
	"github.com/dkarlovs/voucherd/internal/logging"
	"github.com/dkarlovs/voucherd/internal/models"
)

type fakeUsers struct {
	records map[string]models.UserRecord
}

func (f *fakeUsers) Get(ctx context.Context, username string) (*models.UserRecord, error) {
	if rec, ok := f.records[username]; ok {
		out := rec
		return &out, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsers) Upsert(ctx context.Context, rec *models.UserRecord) error { return nil }
func (f *fakeUsers) SyncActiveStatus(ctx context.Context, names []string) error {
	return nil
}
func (f *fakeUsers) UpdateUsageBytes(ctx context.Context, username string, b int64) error {
	return nil
}
func (f *fakeUsers) ListNotExpired(ctx context.Context) ([]models.UserRecord, error) {
	return nil, nil
}
func (f *fakeUsers) MarkExpired(ctx context.Context, username string) error { return nil }

type fakeVouchers struct {
	mu        sync.Mutex
	used      map[string]bool
	markCalls int
}

func (f *fakeVouchers) Get(ctx context.Context, code string) (*models.Voucher, error) {
	return nil, common.ErrNotFound
}
func (f *fakeVouchers) Add(ctx context.Context, v *models.Voucher) error { return nil }

func (f *fakeVouchers) MarkUsed(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.used == nil {
		f.used = make(map[string]bool)
	}
	f.used[code] = true
	f.markCalls++
	return nil
}

func (f *fakeVouchers) UpdateUsageBytes(ctx context.Context, code string, b int64) error {
	return nil
}
func (f *fakeVouchers) MarkExpired(ctx context.Context, code string) error { return nil }
func (f *fakeVouchers) ListRecentUsed(ctx context.Context, limit int) ([]models.Voucher, error) {
	return nil, nil
}

type fakeTransactions struct {
	mu           sync.Mutex
	sales        []models.FinancialTransaction
	failAddTimes int
}

func (f *fakeTransactions) SaleExists(ctx context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tr := range f.sales {
		if tr.VoucherCode == code && tr.Type == models.TransactionSale {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTransactions) Add(ctx context.Context, tr *models.FinancialTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAddTimes > 0 {
		f.failAddTimes--
		return errors.New("connection reset")
	}
	for _, existing := range f.sales {
		if existing.VoucherCode == tr.VoucherCode && existing.Type == models.TransactionSale {
			return common.ErrDuplicateCode
		}
	}
	f.sales = append(f.sales, *tr)
	return nil
}

func (f *fakeTransactions) TotalRevenue(ctx context.Context) (int64, error) { return 0, nil }
func (f *fakeTransactions) RevenueBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return 0, nil
}
func (f *fakeTransactions) ListRecent(ctx context.Context, limit int) ([]models.FinancialTransaction, error) {
	return nil, nil
}

type fakePricing struct{}

func (f *fakePricing) Rates(ctx context.Context) (models.PricingRates, error) {
	return models.PricingRates{
		models.RateDay:   1000,
		models.RateWeek:  6000,
		models.RateMonth: 25000,
	}, nil
}

func (f *fakePricing) SetRate(ctx context.Context, name string, amount int64) error { return nil }

func newRecorder(uptimeLimit string) (*Recorder, *fakeVouchers, *fakeTransactions) {
	us := &fakeUsers{records: map[string]models.UserRecord{
		"AB12C": {Username: "AB12C", ProfileName: "1DAY", UptimeLimit: uptimeLimit, IsVoucher: true},
	}}
	vs := &fakeVouchers{}
	ts := &fakeTransactions{}
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewRecorder(us, vs, ts, &fakePricing{}, log), vs, ts
}

func TestRecordActivation_NearZeroUptimeIgnored(t *testing.T) {
	r, vs, ts := newRecorder("1d")

	require.NoError(t, r.RecordActivationIfDue(context.Background(), "AB12C", 0))
	require.NoError(t, r.RecordActivationIfDue(context.Background(), "AB12C", 1))

	assert.Empty(t, ts.sales)
	assert.Zero(t, vs.markCalls)
}

func TestRecordActivation_UnknownUserSkipped(t *testing.T) {
	r, _, ts := newRecorder("1d")

	require.NoError(t, r.RecordActivationIfDue(context.Background(), "ghost", 300))
	assert.Empty(t, ts.sales)
}

func TestRecordActivation_RecordsSaleOnce(t *testing.T) {
	r, vs, ts := newRecorder("1d")

	require.NoError(t, r.RecordActivationIfDue(context.Background(), "AB12C", 300))

	require.Len(t, ts.sales, 1)
	assert.Equal(t, "AB12C", ts.sales[0].VoucherCode)
	assert.Equal(t, int64(1000), ts.sales[0].Amount)
	assert.Equal(t, models.TransactionSale, ts.sales[0].Type)
	assert.True(t, vs.used["AB12C"])
}

func TestRecordActivation_Idempotent(t *testing.T) {
	r, vs, ts := newRecorder("1d")

	for i := 0; i < 5; i++ {
		require.NoError(t, r.RecordActivationIfDue(context.Background(), "AB12C", 300))
	}

	assert.Len(t, ts.sales, 1, "repeated observations must produce exactly one sale")
	assert.True(t, vs.used["AB12C"])
}

func TestRecordActivation_RateClassification(t *testing.T) {
	tests := []struct {
		limit  string
		amount int64
	}{
		{"1d", 1000},
		{"24h", 1000},
		{"7d", 6000},
		{"30d", 25000},
		{"4h", 1000}, // unrecognized limit bills at day rate
		{"", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.limit, func(t *testing.T) {
			r, _, ts := newRecorder(tt.limit)
			require.NoError(t, r.RecordActivationIfDue(context.Background(), "AB12C", 300))
			require.Len(t, ts.sales, 1)
			assert.Equal(t, tt.amount, ts.sales[0].Amount)
		})
	}
}

func TestRecordActivation_ExistingSaleStillMarksUsed(t *testing.T) {
	r, vs, ts := newRecorder("1d")
	ts.sales = append(ts.sales, models.FinancialTransaction{
		VoucherCode: "AB12C", Amount: 1000, Type: models.TransactionSale,
	})

	require.NoError(t, r.RecordActivationIfDue(context.Background(), "AB12C", 300))

	assert.Len(t, ts.sales, 1)
	assert.True(t, vs.used["AB12C"], "a prior partial failure leaves the voucher unmarked; the next pass must fix it")
}

func TestRecordActivation_InsertFailureRetriesNextPass(t *testing.T) {
	r, vs, ts := newRecorder("1d")
	ts.failAddTimes = 1

	err := r.RecordActivationIfDue(context.Background(), "AB12C", 300)
	require.Error(t, err)
	assert.Zero(t, vs.markCalls, "a failed insert must leave the voucher unmarked so the sale is retried")

	require.NoError(t, r.RecordActivationIfDue(context.Background(), "AB12C", 300))
	require.Len(t, ts.sales, 1)
	assert.True(t, vs.used["AB12C"])
}

func TestRecordActivation_ConcurrentCalls(t *testing.T) {
	r, _, ts := newRecorder("1d")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.RecordActivationIfDue(context.Background(), "AB12C", 300)
		}()
	}
	wg.Wait()

	assert.Len(t, ts.sales, 1)
}
