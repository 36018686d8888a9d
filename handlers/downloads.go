package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"radisnap/services"
	"radisnap/store"
	"radisnap/websocket"
)

// DownloadHandler handles batch download and library record endpoints
type DownloadHandler struct {
	runner    *services.BatchRunner
	downloads store.DownloadStore
	hub       websocket.Hub
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(runner *services.BatchRunner, downloads store.DownloadStore, hub websocket.Hub) *DownloadHandler {
	return &DownloadHandler{
		runner:    runner,
		downloads: downloads,
		hub:       hub,
	}
}

// startRequest carries the optional member credentials for a batch
type startRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StartBatch starts downloading every reserved booking
func (h *DownloadHandler) StartBatch(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid request format",
				"details": err.Error(),
			})
			return
		}
	}

	err := h.runner.Start(c.Request.Context(), services.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{
			"message": "Download batch started",
		})
	case errors.Is(err, services.ErrBatchActive):
		c.JSON(http.StatusConflict, gin.H{
			"error": "a download batch is already running",
		})
	case errors.Is(err, services.ErrNoReservations):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "no reserved bookings to download",
		})
	case errors.Is(err, services.ErrAuthFailed):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "authentication failed, please retry",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to start batch",
			"details": err.Error(),
		})
	}
}

// CancelBatch cancels the running batch
func (h *DownloadHandler) CancelBatch(c *gin.Context) {
	if !h.runner.Running() {
		c.JSON(http.StatusConflict, gin.H{
			"error": "no download batch is running",
		})
		return
	}

	h.runner.Cancel()
	c.JSON(http.StatusOK, gin.H{
		"message": "Batch cancellation requested",
	})
}

// BatchStatus reports whether a batch is in flight
func (h *DownloadHandler) BatchStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running": h.runner.Running(),
	})
}

// ListDownloads returns all finished recordings, most recent first
func (h *DownloadHandler) ListDownloads(c *gin.Context) {
	records, err := h.downloads.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list downloads",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"downloads": records,
		"total":     len(records),
	})
}

// DeleteDownload removes a recording's library entry
func (h *DownloadHandler) DeleteDownload(c *gin.Context) {
	if err := h.downloads.Remove(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Download removed successfully"})
}

// playbackRequest carries a playback position update
type playbackRequest struct {
	PositionSec int64 `json:"positionSec"`
	Played      bool  `json:"played"`
}

// UpdatePlayback records the resume position of a recording
func (h *DownloadHandler) UpdatePlayback(c *gin.Context) {
	var req playbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request format",
			"details": err.Error(),
		})
		return
	}

	if err := h.downloads.UpdatePlayback(c.Request.Context(), c.Param("id"), req.PositionSec, req.Played); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Playback position saved"})
}

// HandleWebSocketConnection handles WebSocket connections for a single job's progress
func (h *DownloadHandler) HandleWebSocketConnection(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job ID is required"})
		return
	}

	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, jobID)
	h.hub.RegisterClient(client)

	// Start client pumps
	client.StartPumps()
}

// HandleWebSocketAllConnection handles WebSocket connections for all job progress
func (h *DownloadHandler) HandleWebSocketAllConnection(c *gin.Context) {
	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, "all")
	h.hub.RegisterClient(client)

	// Start client pumps
	client.StartPumps()
}
