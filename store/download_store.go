package store

import (
	"context"
	"errors"

	"radisnap/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DownloadStore persists the playlist of finished recordings.
type DownloadStore interface {
	GetAll(ctx context.Context) ([]types.DownloadRecord, error)
	Get(ctx context.Context, id string) (*types.DownloadRecord, error)
	Exists(ctx context.Context, stationID, start string) (string, error)
	Store(ctx context.Context, record *types.DownloadRecord) (string, error)
	Remove(ctx context.Context, id string) error
	UpdatePlayback(ctx context.Context, id string, playbackSec int64, played bool) error
}

type downloadStore struct {
	db *gorm.DB
}

// NewDownloadStore creates a download store over the given database.
func NewDownloadStore(db *gorm.DB) DownloadStore {
	return &downloadStore{db: db}
}

type downloadModel struct {
	ID          string `gorm:"column:id;primaryKey"`
	StationID   string `gorm:"column:station_id;index"`
	StationName string `gorm:"column:station_name"`
	StartDt     string `gorm:"column:start_dt;index"`
	EndDt       string `gorm:"column:end_dt"`
	Title       string `gorm:"column:title"`
	Performer   string `gorm:"column:performer"`
	ImageURL    string `gorm:"column:img_url"`
	DurationSec int64  `gorm:"column:duration_sec"`
	PlaybackSec int64  `gorm:"column:playback_sec"`
	Played      bool   `gorm:"column:played"`
}

func (downloadModel) TableName() string { return "downloads" }

func toDomainDownload(m downloadModel) types.DownloadRecord {
	return types.DownloadRecord{
		ID:          m.ID,
		StationID:   m.StationID,
		StationName: m.StationName,
		Start:       m.StartDt,
		End:         m.EndDt,
		Title:       m.Title,
		Performer:   m.Performer,
		ImageURL:    m.ImageURL,
		DurationSec: m.DurationSec,
		PlaybackSec: m.PlaybackSec,
		Played:      m.Played,
	}
}

func toDownloadModel(d *types.DownloadRecord) downloadModel {
	return downloadModel{
		ID:          d.ID,
		StationID:   d.StationID,
		StationName: d.StationName,
		StartDt:     d.Start,
		EndDt:       d.End,
		Title:       d.Title,
		Performer:   d.Performer,
		ImageURL:    d.ImageURL,
		DurationSec: d.DurationSec,
		PlaybackSec: d.PlaybackSec,
		Played:      d.Played,
	}
}

// GetAll returns every recording, most recent broadcast first.
func (s *downloadStore) GetAll(ctx context.Context) ([]types.DownloadRecord, error) {
	var models []downloadModel
	tx := s.db.WithContext(ctx).Order("start_dt DESC").Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]types.DownloadRecord, 0, len(models))
	for _, m := range models {
		out = append(out, toDomainDownload(m))
	}
	return out, nil
}

func (s *downloadStore) Get(ctx context.Context, id string) (*types.DownloadRecord, error) {
	var m downloadModel
	tx := s.db.WithContext(ctx).First(&m, "id = ?", id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, tx.Error
	}
	rec := toDomainDownload(m)
	return &rec, nil
}

// Exists returns the id of the recording for the given (station, start)
// pair, or the empty string when none is stored.
func (s *downloadStore) Exists(ctx context.Context, stationID, start string) (string, error) {
	var m downloadModel
	tx := s.db.WithContext(ctx).First(&m, "station_id = ? AND start_dt = ?", stationID, start)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", tx.Error
	}
	return m.ID, nil
}

func (s *downloadStore) Store(ctx context.Context, record *types.DownloadRecord) (string, error) {
	m := toDownloadModel(record)
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	tx := s.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return "", tx.Error
	}
	*record = toDomainDownload(m)
	return m.ID, nil
}

func (s *downloadStore) Remove(ctx context.Context, id string) error {
	tx := s.db.WithContext(ctx).Delete(&downloadModel{}, "id = ?", id)
	return tx.Error
}

func (s *downloadStore) UpdatePlayback(ctx context.Context, id string, playbackSec int64, played bool) error {
	tx := s.db.WithContext(ctx).
		Model(&downloadModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"playback_sec": playbackSec, "played": played})
	return tx.Error
}
