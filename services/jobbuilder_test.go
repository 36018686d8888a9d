package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radisnap/store"
	"radisnap/types"
)

func newBuilderFixture(t *testing.T) (*JobBuilder, store.BookingStore) {
	t.Helper()

	dir := t.TempDir()
	db, err := store.Connect(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	bookings := store.NewBookingStore(db)

	builder, err := NewJobBuilder(bookings, "https://radiko.example.com",
		filepath.Join(dir, "audio"), filepath.Join(dir, "cache"))
	require.NoError(t, err)
	return builder, bookings
}

func storeBooking(t *testing.T, bookings store.BookingStore, rec types.BookingRecord) string {
	t.Helper()
	id, err := bookings.Store(context.Background(), &rec)
	require.NoError(t, err)
	return id
}

func TestJobBuilderBuildsReservedBookings(t *testing.T) {
	builder, bookings := newBuilderFixture(t)
	ctx := context.Background()

	id := storeBooking(t, bookings, types.BookingRecord{
		StationID: "TBS",
		Start:     "20260827210000",
		End:       "20260827220000",
		Title:     "Night Owl",
		ImageURL:  "https://img.example.com/owl.jpg",
		Status:    types.StatusReserved,
	})

	// Non-reserved records must not become jobs.
	storeBooking(t, bookings, types.BookingRecord{
		StationID: "QRR",
		Start:     "20260827210000",
		End:       "20260827220000",
		Title:     "Already Done",
		ImageURL:  "https://img.example.com/done.jpg",
		Status:    types.StatusDownloaded,
	})

	jobs, err := builder.Build(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job := jobs[0]
	assert.Equal(t, id, job.ID)
	assert.Equal(t, "Night Owl", job.Title)
	assert.Equal(t,
		"https://radiko.example.com/v2/api/ts/playlist.m3u8?station_id=TBS&l=15&ft=20260827210000&to=20260827220000",
		job.StreamURL)
	assert.Equal(t, builder.OutputPath("TBS", "20260827210000"), job.OutputPath)
	assert.Equal(t, "TBS-20260827210000.m4a", filepath.Base(job.OutputPath))
	assert.Equal(t, int64(3600), job.ExpectedSec)
	assert.Equal(t, "TBS", job.Artist)
	assert.Equal(t, "owl.jpg", filepath.Base(job.CoverPath))
}

func TestJobBuilderSkipsIncompleteRecords(t *testing.T) {
	builder, bookings := newBuilderFixture(t)
	ctx := context.Background()

	// Missing title.
	storeBooking(t, bookings, types.BookingRecord{
		StationID: "TBS",
		Start:     "20260827210000",
		End:       "20260827220000",
		ImageURL:  "https://img.example.com/x.jpg",
		Status:    types.StatusReserved,
	})

	// End before start.
	storeBooking(t, bookings, types.BookingRecord{
		StationID: "TBS",
		Start:     "20260827220000",
		End:       "20260827210000",
		Title:     "Backwards",
		ImageURL:  "https://img.example.com/y.jpg",
		Status:    types.StatusReserved,
	})

	// Unparseable timestamps.
	storeBooking(t, bookings, types.BookingRecord{
		StationID: "TBS",
		Start:     "not-a-time",
		End:       "also-not",
		Title:     "Garbled",
		ImageURL:  "https://img.example.com/z.jpg",
		Status:    types.StatusReserved,
	})

	jobs, err := builder.Build(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestJobBuilderStationNameHook(t *testing.T) {
	builder, bookings := newBuilderFixture(t)
	builder.StationName = func(stationID string) string {
		return "Station " + stationID
	}

	storeBooking(t, bookings, types.BookingRecord{
		StationID: "LFR",
		Start:     "20260827210000",
		End:       "20260827213000",
		Title:     "Half Hour",
		ImageURL:  "https://img.example.com/h.jpg",
		Status:    types.StatusReserved,
	})

	jobs, err := builder.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Station LFR", jobs[0].Artist)
	assert.Equal(t, int64(1800), jobs[0].ExpectedSec)
}

func TestCoverFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://img.example.com/program/abc.jpg", want: "abc.jpg"},
		{url: "https://img.example.com/abc.jpg?size=large", want: "abc.jpg"},
		{url: "https://img.example.com/", want: ""},
		{url: "://bad", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, coverFileName(tt.url), "url=%s", tt.url)
	}
}
