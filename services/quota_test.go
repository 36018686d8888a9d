package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radisnap/store"
)

func newCouponStore(t *testing.T) store.CouponStore {
	t.Helper()
	db, err := store.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return store.NewCouponStore(db)
}

func TestQuotaGateSeedsInitialBalance(t *testing.T) {
	ctx := context.Background()
	coupons := newCouponStore(t)

	gate, err := NewQuotaGate(ctx, coupons, false)
	require.NoError(t, err)

	balance, err := gate.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, CouponDefault-CouponDaily, balance)

	// A second gate over the same store must not reset the balance.
	require.NoError(t, coupons.SetCount(ctx, 5))
	_, err = NewQuotaGate(ctx, coupons, false)
	require.NoError(t, err)
	balance, err = gate.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)
}

func TestQuotaGateCanReserve(t *testing.T) {
	ctx := context.Background()
	coupons := newCouponStore(t)
	gate, err := NewQuotaGate(ctx, coupons, false)
	require.NoError(t, err)

	require.NoError(t, coupons.SetCount(ctx, 3))

	tests := []struct {
		reserved int
		want     bool
	}{
		{reserved: 0, want: true},
		{reserved: 2, want: true},
		{reserved: 3, want: false},
		{reserved: 10, want: false},
	}
	for _, tt := range tests {
		got, err := gate.CanReserve(ctx, tt.reserved)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "reserved=%d", tt.reserved)
	}
}

func TestQuotaGateConsumeOne(t *testing.T) {
	ctx := context.Background()
	coupons := newCouponStore(t)
	gate, err := NewQuotaGate(ctx, coupons, false)
	require.NoError(t, err)

	require.NoError(t, coupons.SetCount(ctx, 2))

	require.NoError(t, gate.ConsumeOne(ctx))
	require.NoError(t, gate.ConsumeOne(ctx))
	// At zero the consume is a no-op, never negative.
	require.NoError(t, gate.ConsumeOne(ctx))

	balance, err := gate.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestQuotaGateGrantDaily(t *testing.T) {
	ctx := context.Background()
	coupons := newCouponStore(t)
	gate, err := NewQuotaGate(ctx, coupons, false)
	require.NoError(t, err)

	day1 := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)

	require.NoError(t, gate.GrantDaily(ctx, day1))
	balance, err := gate.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, CouponDefault, balance)

	// Same day again: no double grant, even at a later hour.
	require.NoError(t, gate.GrantDaily(ctx, day1.Add(8*time.Hour)))
	balance, err = gate.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, CouponDefault, balance)

	// Next day grants again.
	require.NoError(t, gate.GrantDaily(ctx, day1.AddDate(0, 0, 1)))
	balance, err = gate.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, CouponDefault+CouponDaily, balance)
}

func TestQuotaGateGrantDailyCap(t *testing.T) {
	ctx := context.Background()
	coupons := newCouponStore(t)
	gate, err := NewQuotaGate(ctx, coupons, false)
	require.NoError(t, err)

	require.NoError(t, coupons.SetCount(ctx, CouponMax-1))
	require.NoError(t, gate.GrantDaily(ctx, time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)))

	balance, err := gate.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, CouponMax, balance)
}

func TestQuotaGateGrantDailyPrivileged(t *testing.T) {
	ctx := context.Background()
	coupons := newCouponStore(t)
	gate, err := NewQuotaGate(ctx, coupons, true)
	require.NoError(t, err)

	require.NoError(t, coupons.SetCount(ctx, 10))
	require.NoError(t, gate.GrantDaily(ctx, time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)))

	// Privileged users are topped all the way up.
	balance, err := gate.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, CouponMax, balance)
}
