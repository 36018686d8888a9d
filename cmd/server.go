package cmd

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"radisnap/config"
	"radisnap/handlers"
	"radisnap/middleware"
	"radisnap/services"
	"radisnap/store"
	"radisnap/websocket"
)

// StartWebServer starts the web server
func StartWebServer(port int) {
	// Set production mode if not specified
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Open the database
	db, err := store.Connect(config.GetDatabasePath())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	bookings := store.NewBookingStore(db)
	downloads := store.NewDownloadStore(db)
	coupons := store.NewCouponStore(db)

	// Initialize services
	hub := websocket.NewHub()
	go hub.Run()

	privileged := config.IsPrivilegedUser()
	quota, err := services.NewQuotaGate(context.Background(), coupons, privileged)
	if err != nil {
		log.Fatalf("Failed to initialize coupon balance: %v", err)
	}

	builder, err := services.NewJobBuilder(bookings, config.GetEndpoint(), config.GetAudioDir(), config.GetCacheDir())
	if err != nil {
		log.Fatalf("Failed to prepare directories: %v", err)
	}

	transcoder := services.NewFFmpegTranscoder(config.GetFFmpegPath())
	if err := transcoder.CheckBinary(); err != nil {
		log.Fatalf("ffmpeg is required: %v", err)
	}

	var leaser services.Leaser = services.NoopLeaser{}
	if ttl := config.GetBatchTTL(); ttl > 0 {
		leaser = services.TimedLeaser{TTL: ttl}
	}

	var wake services.WakeLock = services.NoopWakeLock{}
	if settings, err := config.LoadSettings(); err == nil && settings.KeepScreenOn {
		wake = services.LoggingWakeLock{}
	}

	scheduler := services.NewScheduler(bookings, downloads, quota, transcoder, hub, leaser, wake)
	auth := services.NewAuthClient(config.GetEndpoint())
	runner := services.NewBatchRunner(auth, builder, scheduler, config.GetMaxConcurrency())

	libraryService := services.NewLibraryService()

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(bookings, quota)
	downloadHandler := handlers.NewDownloadHandler(runner, downloads, hub)
	libraryHandler := handlers.NewLibraryHandler(libraryService)
	healthHandler := handlers.NewHealthHandler()
	settingsHandler := handlers.NewSettingsHandler()

	// Setup router
	r := gin.Default()

	// Apply middleware
	r.Use(middleware.CORS())
	r.Use(middleware.Logging())
	r.Use(middleware.Security())

	// Setup routes
	setupRoutes(r, bookingHandler, downloadHandler, libraryHandler, healthHandler, settingsHandler)

	// Start server
	portStr := strconv.Itoa(port)
	if serverPort := os.Getenv("SERVER_PORT"); serverPort != "" {
		portStr = serverPort
	}

	log.Printf("Radisnap web server starting on port %s", portStr)
	if err := r.Run(":" + portStr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, bookingHandler *handlers.BookingHandler, downloadHandler *handlers.DownloadHandler, libraryHandler *handlers.LibraryHandler, healthHandler *handlers.HealthHandler, settingsHandler *handlers.SettingsHandler) {
	// Health check endpoint
	r.GET("/health", healthHandler.HealthCheck)

	// API routes group
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		// Booking management endpoints
		bookingsGroup := apiGroup.Group("/bookings")
		{
			bookingsGroup.GET("", bookingHandler.ListBookings)
			bookingsGroup.POST("", bookingHandler.CreateBooking)
			bookingsGroup.GET("/:id", bookingHandler.GetBooking)
			bookingsGroup.DELETE("/:id", bookingHandler.DeleteBooking)

			// Reservation toggles
			bookingsGroup.POST("/:id/reserve", bookingHandler.Reserve)
			bookingsGroup.DELETE("/:id/reserve", bookingHandler.Unreserve)
		}

		// Coupon balance endpoints
		apiGroup.GET("/coupons", bookingHandler.GetCoupons)
		apiGroup.POST("/coupons/grant", bookingHandler.GrantDailyCoupons)

		// Batch download endpoints
		downloadsGroup := apiGroup.Group("/downloads")
		{
			downloadsGroup.POST("/start", downloadHandler.StartBatch)
			downloadsGroup.POST("/cancel", downloadHandler.CancelBatch)
			downloadsGroup.GET("/status", downloadHandler.BatchStatus)

			// Finished recording records
			downloadsGroup.GET("", downloadHandler.ListDownloads)
			downloadsGroup.DELETE("/:id", downloadHandler.DeleteDownload)
			downloadsGroup.POST("/:id/playback", downloadHandler.UpdatePlayback)
		}

		// WebSocket endpoints for real-time progress
		wsGroup := apiGroup.Group("/ws")
		{
			// WebSocket endpoint for specific job progress
			wsGroup.GET("/downloads/:jobId", downloadHandler.HandleWebSocketConnection)

			// WebSocket endpoint for all downloads progress
			wsGroup.GET("/downloads", downloadHandler.HandleWebSocketAllConnection)
		}

		// Recording discovery and streaming endpoints
		apiGroup.GET("/library", libraryHandler.ListRecordings)
		apiGroup.GET("/library/stream/*filepath", libraryHandler.StreamRecording)

		// Settings endpoints
		apiGroup.GET("/settings", settingsHandler.GetSettings)
		apiGroup.POST("/settings", settingsHandler.UpdateSettings)
	}
}
