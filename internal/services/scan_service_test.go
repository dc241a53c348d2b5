package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bockybocky/charles-bond-sniper/internal/config"
	"github.com/bockybocky/charles-bond-sniper/internal/dataprocessing"
)

const holdingsFixture = "Name,CUSIP,Market Value,Par Value,Maturity,Coupon (%)\n" +
	"Acme Corp,958102AT2,\"$92,000\",\"$100,000\",2026-06-01,1.5\n" +
	"Beta Inc,12008RAC4,\"$150,000\",\"$100,000\",2027-03-15,0.0\n"

func newTestService(t *testing.T) *ScanService {
	t.Helper()
	return NewScanService(config.Default(), nil)
}

func TestOptions_Defaults(t *testing.T) {
	svc := newTestService(t)

	opts, err := svc.Options(ScanOverrides{})
	require.NoError(t, err)
	assert.Equal(t, 95.0, opts.DangerThreshold)
	assert.Equal(t, 130.0, opts.RocketThreshold)
	assert.True(t, opts.CouponSensitive)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), opts.WindowStart)
	assert.Equal(t, time.Date(2027, 12, 31, 0, 0, 0, 0, time.UTC), opts.WindowEnd)
}

func TestOptions_Overrides(t *testing.T) {
	svc := newTestService(t)
	danger := 85.0
	sensitive := false
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	opts, err := svc.Options(ScanOverrides{
		DangerThreshold: &danger,
		CouponSensitive: &sensitive,
		WindowStart:     &start,
	})
	require.NoError(t, err)
	assert.Equal(t, 85.0, opts.DangerThreshold)
	assert.False(t, opts.CouponSensitive)
	assert.Equal(t, start, opts.WindowStart)
	// Untouched values keep configured defaults.
	assert.Equal(t, 130.0, opts.RocketThreshold)
}

func TestScan(t *testing.T) {
	svc := newTestService(t)
	opts, err := svc.Options(ScanOverrides{})
	require.NoError(t, err)

	result, err := svc.Scan(context.Background(), []byte(holdingsFixture), nil, opts)
	require.NoError(t, err)
	require.Len(t, result.Distressed, 1)
	assert.Equal(t, "Acme Corp", result.Distressed[0].Name)
	require.Len(t, result.HighValue, 1)
	assert.Equal(t, "Beta Inc", result.HighValue[0].Name)
}

func TestScan_CacheReturnsSameResult(t *testing.T) {
	svc := newTestService(t)
	opts, err := svc.Options(ScanOverrides{})
	require.NoError(t, err)

	first, err := svc.Scan(context.Background(), []byte(holdingsFixture), nil, opts)
	require.NoError(t, err)
	second, err := svc.Scan(context.Background(), []byte(holdingsFixture), nil, opts)
	require.NoError(t, err)

	// Identical upload and parameters hit the cache.
	assert.Same(t, first, second)
}

func TestScan_DifferentThresholdsMissCache(t *testing.T) {
	svc := newTestService(t)
	opts, err := svc.Options(ScanOverrides{})
	require.NoError(t, err)

	first, err := svc.Scan(context.Background(), []byte(holdingsFixture), nil, opts)
	require.NoError(t, err)

	opts.DangerThreshold = 80.0
	second, err := svc.Scan(context.Background(), []byte(holdingsFixture), nil, opts)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Empty(t, second.Distressed)
}

func TestScan_NearbyThresholdsMissCache(t *testing.T) {
	// Ratio 95.002 sits between the two thresholds, so the classification
	// flips even though they differ only in the third decimal.
	fixture := "Name,Market Value,Par Value,Maturity,Coupon (%)\n" +
		"Gamma Ltd,\"$95,002\",\"$100,000\",2026-06-01,1.5\n"

	svc := newTestService(t)
	opts, err := svc.Options(ScanOverrides{})
	require.NoError(t, err)

	opts.DangerThreshold = 95.004
	first, err := svc.Scan(context.Background(), []byte(fixture), nil, opts)
	require.NoError(t, err)
	require.Len(t, first.Distressed, 1)

	opts.DangerThreshold = 95.001
	second, err := svc.Scan(context.Background(), []byte(fixture), nil, opts)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Empty(t, second.Distressed)
}

func TestScan_FailuresAreNotCached(t *testing.T) {
	svc := newTestService(t)
	opts, err := svc.Options(ScanOverrides{})
	require.NoError(t, err)

	_, err = svc.Scan(context.Background(), []byte("no header here\n"), nil, opts)
	assert.ErrorIs(t, err, dataprocessing.ErrHeaderNotFound)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.cache)
}
