package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radisnap/services"
	"radisnap/store"
	"radisnap/types"
	"radisnap/websocket"
)

// stubTranscoder always reports success immediately.
type stubTranscoder struct{}

type stubHandle struct{}

func (stubHandle) Cancel() {}

func (stubTranscoder) Start(req services.TranscodeRequest, onProgress func(int64), onComplete func(bool)) (services.TranscodeHandle, error) {
	go onComplete(true)
	return stubHandle{}, nil
}

type downloadFixture struct {
	router    *gin.Engine
	bookings  store.BookingStore
	downloads store.DownloadStore
	authSrv   *httptest.Server
}

func newDownloadFixture(t *testing.T, authOK bool) *downloadFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	db, err := store.Connect(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	bookings := store.NewBookingStore(db)
	downloads := store.NewDownloadStore(db)

	quota, err := services.NewQuotaGate(context.Background(), store.NewCouponStore(db), false)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/api/auth1", func(w http.ResponseWriter, r *http.Request) {
		if !authOK {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-Radiko-AUTHTOKEN", "token-123")
		w.Header().Set("X-Radiko-KeyLength", "16")
		w.Header().Set("X-Radiko-KeyOffset", "0")
	})
	mux.HandleFunc("/v2/api/auth2", func(w http.ResponseWriter, r *http.Request) {})
	authSrv := httptest.NewServer(mux)
	t.Cleanup(authSrv.Close)

	builder, err := services.NewJobBuilder(bookings, authSrv.URL,
		filepath.Join(dir, "audio"), filepath.Join(dir, "cache"))
	require.NoError(t, err)

	hub := websocket.NewHub()
	go hub.Run()

	scheduler := services.NewScheduler(bookings, downloads, quota, stubTranscoder{}, hub,
		services.NoopLeaser{}, services.NoopWakeLock{})
	runner := services.NewBatchRunner(services.NewAuthClient(authSrv.URL), builder, scheduler, 2)

	h := NewDownloadHandler(runner, downloads, hub)

	router := gin.New()
	router.POST("/api/downloads/start", h.StartBatch)
	router.POST("/api/downloads/cancel", h.CancelBatch)
	router.GET("/api/downloads/status", h.BatchStatus)
	router.GET("/api/downloads", h.ListDownloads)
	router.DELETE("/api/downloads/:id", h.DeleteDownload)
	router.POST("/api/downloads/:id/playback", h.UpdatePlayback)

	return &downloadFixture{router: router, bookings: bookings, downloads: downloads, authSrv: authSrv}
}

func (f *downloadFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestStartBatchWithoutReservations(t *testing.T) {
	f := newDownloadFixture(t, true)

	w := f.do(t, http.MethodPost, "/api/downloads/start", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartBatchAuthFailure(t *testing.T) {
	f := newDownloadFixture(t, false)

	rec := types.BookingRecord{
		StationID: "TBS",
		Start:     "20260827210000",
		End:       "20260827220000",
		Title:     "Night Owl",
		ImageURL:  "https://img.example.com/owl.jpg",
		Status:    types.StatusReserved,
	}
	_, err := f.bookings.Store(context.Background(), &rec)
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/api/downloads/start", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The reservation survives the failed start for a later retry.
	got, err := f.bookings.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusReserved, got.Status)
}

func TestStartBatchAccepted(t *testing.T) {
	f := newDownloadFixture(t, true)

	rec := types.BookingRecord{
		StationID: "TBS",
		Start:     "20260827210000",
		End:       "20260827220000",
		Title:     "Night Owl",
		ImageURL:  "https://img.example.com/owl.jpg",
		Status:    types.StatusReserved,
	}
	_, err := f.bookings.Store(context.Background(), &rec)
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/api/downloads/start", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestCancelWithoutBatch(t *testing.T) {
	f := newDownloadFixture(t, true)

	w := f.do(t, http.MethodPost, "/api/downloads/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBatchStatusIdle(t *testing.T) {
	f := newDownloadFixture(t, true)

	w := f.do(t, http.MethodGet, "/api/downloads/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Running bool `json:"running"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Running)
}

func TestDownloadRecordEndpoints(t *testing.T) {
	f := newDownloadFixture(t, true)
	ctx := context.Background()

	rec := types.DownloadRecord{
		StationID: "TBS",
		Start:     "20260827210000",
		End:       "20260827220000",
		Title:     "Night Owl",
	}
	id, err := f.downloads.Store(ctx, &rec)
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/downloads", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listResp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Equal(t, 1, listResp.Total)

	w = f.do(t, http.MethodPost, "/api/downloads/"+id+"/playback", map[string]interface{}{
		"positionSec": 120,
		"played":      false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	got, err := f.downloads.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(120), got.PlaybackSec)

	w = f.do(t, http.MethodDelete, "/api/downloads/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, err = f.downloads.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
