package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads an optional .env file into the process environment. Missing
// files are not an error; explicit environment variables always win.
func Load() {
	_ = godotenv.Load()
}

// GetEndpoint returns the base URL of the broadcast service API.
func GetEndpoint() string {
	if endpoint := os.Getenv("RADISNAP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	return "https://radiko.jp"
}

// GetAudioDir returns the directory where finished recordings are stored.
func GetAudioDir() string {
	if customPath := os.Getenv("RADISNAP_AUDIO_DIR"); customPath != "" {
		return customPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if can't get home dir
		return filepath.Join(".", "audio")
	}
	return filepath.Join(homeDir, "Music", "Radisnap")
}

// GetCacheDir returns the directory used for side-loaded cover artwork.
func GetCacheDir() string {
	if customPath := os.Getenv("RADISNAP_CACHE_DIR"); customPath != "" {
		return customPath
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", "cache")
	}
	return filepath.Join(cacheDir, "radisnap")
}

// GetDatabasePath returns the sqlite database location.
func GetDatabasePath() string {
	if dsn := os.Getenv("RADISNAP_DB"); dsn != "" {
		return dsn
	}
	return filepath.Join(GetAudioDir(), "radisnap.db")
}

// GetMaxConcurrency returns the download worker limit. Privileged users get
// a higher default, mirroring the in-app licensing behavior.
func GetMaxConcurrency() int {
	if raw := os.Getenv("RADISNAP_MAX_CONCURRENCY"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	if IsPrivilegedUser() {
		return 6
	}
	return 3
}

// IsPrivilegedUser reports whether the privileged (donation) flag is set.
func IsPrivilegedUser() bool {
	on, _ := strconv.ParseBool(os.Getenv("RADISNAP_PRIVILEGED"))
	return on
}

// GetBatchTTL returns the execution budget for a batch. Zero means no
// limit; a positive value revokes and cancels batches that overrun it.
func GetBatchTTL() time.Duration {
	if raw := os.Getenv("RADISNAP_BATCH_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return 0
}

// GetFFmpegPath returns the transcode binary to invoke.
func GetFFmpegPath() string {
	if path := os.Getenv("RADISNAP_FFMPEG"); path != "" {
		return path
	}
	return "ffmpeg"
}
