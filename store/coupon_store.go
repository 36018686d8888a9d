package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CouponStore persists the single download coupon balance row.
type CouponStore interface {
	// Get returns the balance and the last daily-grant date (YYYY-MM-DD,
	// empty when no grant has happened yet).
	Get(ctx context.Context) (int, string, error)
	SetCount(ctx context.Context, count int) error
	SetLastGranted(ctx context.Context, date string) error
	// Seed creates the balance row if it does not exist yet.
	Seed(ctx context.Context, initial int) error
}

type couponStore struct {
	db *gorm.DB
}

// NewCouponStore creates a coupon store over the given database.
func NewCouponStore(db *gorm.DB) CouponStore {
	return &couponStore{db: db}
}

type couponModel struct {
	ID          int    `gorm:"column:id;primaryKey"`
	Count       int    `gorm:"column:count"`
	LastGranted string `gorm:"column:last_granted"`
}

func (couponModel) TableName() string { return "coupons" }

func (s *couponStore) Seed(ctx context.Context, initial int) error {
	m := couponModel{ID: 1, Count: initial}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	return tx.Error
}

func (s *couponStore) Get(ctx context.Context) (int, string, error) {
	var m couponModel
	tx := s.db.WithContext(ctx).First(&m, "id = ?", 1)
	if tx.Error != nil {
		return 0, "", tx.Error
	}
	return m.Count, m.LastGranted, nil
}

func (s *couponStore) SetCount(ctx context.Context, count int) error {
	tx := s.db.WithContext(ctx).
		Model(&couponModel{}).
		Where("id = ?", 1).
		Update("count", count)
	return tx.Error
}

func (s *couponStore) SetLastGranted(ctx context.Context, date string) error {
	tx := s.db.WithContext(ctx).
		Model(&couponModel{}).
		Where("id = ?", 1).
		Update("last_granted", date)
	return tx.Error
}
