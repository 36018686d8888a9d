package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"radisnap/store"
	"radisnap/types"
)

// JobBuilder turns reserved booking records into immutable download job
// descriptors. The auth token is substituted at dispatch time by the
// scheduler, not here.
type JobBuilder struct {
	bookings store.BookingStore
	endpoint string
	audioDir string
	cacheDir string
	client   *http.Client

	// StationName resolves a station id to its display name for the
	// recording metadata. Defaults to the id itself.
	StationName func(stationID string) string
}

// NewJobBuilder creates a builder writing recordings under audioDir and
// caching cover artwork under cacheDir. Both directories are created.
func NewJobBuilder(bookings store.BookingStore, endpoint, audioDir, cacheDir string) (*JobBuilder, error) {
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &JobBuilder{
		bookings: bookings,
		endpoint: endpoint,
		audioDir: audioDir,
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Build collects every RESERVED record and returns one job per record that
// has all required fields. Incomplete records are skipped without error.
// Cover artwork is fetched in the background; a job may start before its
// cover file exists.
func (b *JobBuilder) Build(ctx context.Context) ([]types.DownloadJob, error) {
	ids, err := b.bookings.GetAllByStatus(ctx, types.StatusReserved)
	if err != nil {
		return nil, err
	}

	jobs := make([]types.DownloadJob, 0, len(ids))
	for _, id := range ids {
		rec, err := b.bookings.Get(ctx, id)
		if err != nil {
			log.Printf("Skipping reservation %s: %v", id, err)
			continue
		}
		if !rec.Complete() {
			log.Printf("Skipping reservation %s: missing required fields", id)
			continue
		}
		expected := int64(rec.Duration().Seconds())
		if expected <= 0 {
			log.Printf("Skipping reservation %s: bad time range %s - %s", id, rec.Start, rec.End)
			continue
		}

		artist := rec.StationID
		if b.StationName != nil {
			artist = b.StationName(rec.StationID)
		}

		jobs = append(jobs, types.DownloadJob{
			ID:          rec.ID,
			Title:       rec.Title,
			StationID:   rec.StationID,
			StreamURL:   b.streamURL(rec),
			OutputPath:  b.OutputPath(rec.StationID, rec.Start),
			CoverPath:   b.cacheCover(rec.ImageURL),
			Artist:      artist,
			ExpectedSec: expected,
			Outcome:     types.OutcomeUnset,
		})
	}
	return jobs, nil
}

// OutputPath returns the deterministic recording path for one program.
// The same (station, start) pair always maps to the same file, so a retry
// overwrites the previous attempt.
func (b *JobBuilder) OutputPath(stationID, start string) string {
	return filepath.Join(b.audioDir, fmt.Sprintf("%s-%s.m4a", stationID, start))
}

// streamURL builds the time-bounded playlist URL for one program.
func (b *JobBuilder) streamURL(rec *types.BookingRecord) string {
	return fmt.Sprintf("%s/v2/api/ts/playlist.m3u8?station_id=%s&l=15&ft=%s&to=%s",
		b.endpoint, url.QueryEscape(rec.StationID), rec.Start, rec.End)
}

// cacheCover returns the local cache path for the artwork and, when the
// file is not cached yet, starts a best-effort background fetch. The path
// is returned without waiting for the fetch.
func (b *JobBuilder) cacheCover(imageURL string) string {
	name := coverFileName(imageURL)
	if name == "" {
		return ""
	}
	coverPath := filepath.Join(b.cacheDir, name)

	if _, err := os.Stat(coverPath); err == nil {
		return coverPath
	}

	go func() {
		resp, err := b.client.Get(imageURL)
		if err != nil {
			log.Printf("Cover fetch failed for %s: %v", imageURL, err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			log.Printf("Cover fetch failed for %s: status %d", imageURL, resp.StatusCode)
			return
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			log.Printf("Cover read failed for %s: %v", imageURL, err)
			return
		}
		if err := os.WriteFile(coverPath, data, 0644); err != nil {
			log.Printf("Cover write failed for %s: %v", coverPath, err)
		}
	}()

	return coverPath
}

// coverFileName extracts the file name component of an artwork URL.
func coverFileName(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
