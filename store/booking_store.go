package store

import (
	"context"
	"errors"

	"radisnap/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// BookingStore is the narrow persistence interface consumed by the download
// core. The core never performs raw queries; it calls only these operations.
type BookingStore interface {
	GetAllByStatus(ctx context.Context, status types.BookingStatus) ([]string, error)
	Get(ctx context.Context, id string) (*types.BookingRecord, error)
	UpdateStatus(ctx context.Context, id string, status types.BookingStatus) (bool, error)
	Store(ctx context.Context, record *types.BookingRecord) (string, error)
	Remove(ctx context.Context, id string) error
}

// bookingStore is the gorm-backed implementation of BookingStore.
type bookingStore struct {
	db *gorm.DB
}

// NewBookingStore creates a booking store over the given database.
func NewBookingStore(db *gorm.DB) BookingStore {
	return &bookingStore{db: db}
}

type bookingModel struct {
	ID            string `gorm:"column:id;primaryKey"`
	StationID     string `gorm:"column:station_id;index"`
	StartDt       string `gorm:"column:start_dt;index"`
	EndDt         string `gorm:"column:end_dt"`
	Title         string `gorm:"column:title"`
	Performer     string `gorm:"column:performer"`
	BroadcastDate string `gorm:"column:bc_date"`
	BroadcastTime string `gorm:"column:bc_time"`
	PageURL       string `gorm:"column:page_url"`
	ImageURL      string `gorm:"column:img_url"`
	SeqNo         int    `gorm:"column:seq_no;index"`
	Status        int    `gorm:"column:status;index"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *types.BookingRecord {
	return &types.BookingRecord{
		ID:            m.ID,
		StationID:     m.StationID,
		Start:         m.StartDt,
		End:           m.EndDt,
		Title:         m.Title,
		Performer:     m.Performer,
		BroadcastDate: m.BroadcastDate,
		BroadcastTime: m.BroadcastTime,
		PageURL:       m.PageURL,
		ImageURL:      m.ImageURL,
		SeqNo:         m.SeqNo,
		Status:        types.BookingStatus(m.Status),
	}
}

func toBookingModel(b *types.BookingRecord) bookingModel {
	return bookingModel{
		ID:            b.ID,
		StationID:     b.StationID,
		StartDt:       b.Start,
		EndDt:         b.End,
		Title:         b.Title,
		Performer:     b.Performer,
		BroadcastDate: b.BroadcastDate,
		BroadcastTime: b.BroadcastTime,
		PageURL:       b.PageURL,
		ImageURL:      b.ImageURL,
		SeqNo:         b.SeqNo,
		Status:        int(b.Status),
	}
}

// GetAllByStatus returns the ids of all records in the given status, newest
// reservation first (descending sequence number).
func (s *bookingStore) GetAllByStatus(ctx context.Context, status types.BookingStatus) ([]string, error) {
	var ids []string
	tx := s.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("status = ?", int(status)).
		Order("seq_no DESC").
		Pluck("id", &ids)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return ids, nil
}

func (s *bookingStore) Get(ctx context.Context, id string) (*types.BookingRecord, error) {
	var m bookingModel
	tx := s.db.WithContext(ctx).First(&m, "id = ?", id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

// UpdateStatus sets the status of one record. The bool reports whether a
// record with that id existed.
func (s *bookingStore) UpdateStatus(ctx context.Context, id string, status types.BookingStatus) (bool, error) {
	tx := s.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ?", id).
		Update("status", int(status))
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// Store inserts a new record and returns its id. A missing id is generated;
// a zero sequence number is assigned past the current maximum so new
// reservations sort first.
func (s *bookingStore) Store(ctx context.Context, record *types.BookingRecord) (string, error) {
	m := toBookingModel(record)
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.SeqNo == 0 {
		var maxSeq int
		s.db.WithContext(ctx).
			Model(&bookingModel{}).
			Select("COALESCE(MAX(seq_no), 0)").
			Scan(&maxSeq)
		m.SeqNo = maxSeq + 1
	}

	tx := s.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return "", tx.Error
	}
	*record = *toDomainBooking(m)
	return m.ID, nil
}

func (s *bookingStore) Remove(ctx context.Context, id string) error {
	tx := s.db.WithContext(ctx).Delete(&bookingModel{}, "id = ?", id)
	return tx.Error
}
