package cmd

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"radisnap/config"
	"radisnap/services"
	"radisnap/store"
	"radisnap/types"
)

// RunBatch downloads every reserved booking from the command line and exits.
// Progress is rendered with one terminal bar per job instead of the web
// socket bus.
func RunBatch() {
	ctx := context.Background()

	db, err := store.Connect(config.GetDatabasePath())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	bookings := store.NewBookingStore(db)
	downloads := store.NewDownloadStore(db)
	coupons := store.NewCouponStore(db)

	quota, err := services.NewQuotaGate(ctx, coupons, config.IsPrivilegedUser())
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

	notifier := newConsoleNotifier()
	scheduler := services.NewScheduler(bookings, downloads, quota, transcoder, notifier, leaser, services.NoopWakeLock{})
	auth := services.NewAuthClient(config.GetEndpoint())

	jobs, err := builder.Build(ctx)
	if err != nil {
		log.Fatalf("Failed to build job list: %v", err)
	}
	if len(jobs) == 0 {
		log.Println("Nothing reserved, nothing to do")
		return
	}

	token, err := auth.Authenticate(ctx, services.Credentials{
		Email:    os.Getenv("RADISNAP_MAIL"),
		Password: os.Getenv("RADISNAP_PASS"),
	})
	if err != nil {
		log.Fatalf("Authentication failed: %v", err)
	}

	results, err := scheduler.Run(ctx, jobs, token, config.GetMaxConcurrency())
	if err != nil {
		log.Fatalf("Batch did not run: %v", err)
	}

	failed := 0
	for _, r := range results {
		log.Printf("  %s: %s", r.Title, r.Status)
		if r.Status == types.StatusError {
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// consoleNotifier renders job events as terminal progress bars.
type consoleNotifier struct {
	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

func newConsoleNotifier() *consoleNotifier {
	return &consoleNotifier{
		bars: make(map[string]*progressbar.ProgressBar),
	}
}

func (n *consoleNotifier) Notify(event types.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch event.Kind {
	case types.EventStarted:
		n.bars[event.JobID] = progressbar.NewOptions(100,
			progressbar.OptionSetDescription(event.Message),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	case types.EventProgress:
		if bar, ok := n.bars[event.JobID]; ok {
			_ = bar.Set(event.Percent)
		}
	case types.EventCompleted:
		if bar, ok := n.bars[event.JobID]; ok {
			_ = bar.Finish()
			delete(n.bars, event.JobID)
		}
	}
}
