package services

import (
	"context"
	"log"
	"time"

	"radisnap/store"
)

const (
	// CouponDefault is the initial download coupon balance.
	CouponDefault = 30
	// CouponDaily is the amount added by one daily grant.
	CouponDaily = 2
	// CouponMax caps the balance.
	CouponMax = 99
)

// QuotaGate is the admission control over the consumable download coupon
// balance. It gates reservation, not dispatch.
type QuotaGate struct {
	coupons    store.CouponStore
	privileged bool
}

// NewQuotaGate creates the gate and seeds the balance row on first run.
// The seed leaves room for the first daily grant to land on the default.
func NewQuotaGate(ctx context.Context, coupons store.CouponStore, privileged bool) (*QuotaGate, error) {
	if err := coupons.Seed(ctx, CouponDefault-CouponDaily); err != nil {
		return nil, err
	}
	return &QuotaGate{coupons: coupons, privileged: privileged}, nil
}

// Balance returns the current coupon count.
func (q *QuotaGate) Balance(ctx context.Context) (int, error) {
	count, _, err := q.coupons.Get(ctx)
	return count, err
}

// CanReserve reports whether one more reservation fits the balance given
// the number of records already in RESERVED.
func (q *QuotaGate) CanReserve(ctx context.Context, reservedCount int) (bool, error) {
	balance, err := q.Balance(ctx)
	if err != nil {
		return false, err
	}
	return reservedCount+1 <= balance, nil
}

// ConsumeOne decrements the balance for one completed download, never
// driving it negative.
func (q *QuotaGate) ConsumeOne(ctx context.Context) error {
	balance, _, err := q.coupons.Get(ctx)
	if err != nil {
		return err
	}
	if balance <= 0 {
		return nil
	}
	return q.coupons.SetCount(ctx, balance-1)
}

// GrantDaily adds the daily coupon amount at most once per calendar day.
// Privileged users are topped up to the cap instead.
func (q *QuotaGate) GrantDaily(ctx context.Context, now time.Time) error {
	today := now.Format("2006-01-02")

	balance, lastGranted, err := q.coupons.Get(ctx)
	if err != nil {
		return err
	}
	if lastGranted == today {
		return nil
	}

	grant := CouponDaily
	if q.privileged {
		grant = CouponMax - balance
	}
	next := balance + grant
	if next > CouponMax {
		next = CouponMax
	}

	if err := q.coupons.SetCount(ctx, next); err != nil {
		return err
	}
	if err := q.coupons.SetLastGranted(ctx, today); err != nil {
		return err
	}
	log.Printf("Daily coupon grant: %d -> %d", balance, next)
	return nil
}
