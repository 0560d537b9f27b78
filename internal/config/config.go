// Package config loads the voice poller's startup configuration from the
// environment, the same getEnvWithDefault/getEnvInt pattern the rest of
// this codebase already uses.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the complete set of values the voice poller needs at startup.
// Nothing here is reloaded after the process starts.
type Config struct {
	FolderPath            string
	AudioExtension        string
	PollInterval          time.Duration
	DownloadWaitTimeout   time.Duration
	CloudRetryCount       int
	LedgerPath            string
	ValkeyHost            string
	ValkeyPort            int
	StatusAddr            string
	WatermarkKey          string
	FingerprintSetKey     string
	CloudCheckCommand     string
	CloudDownloadCommand  string
}

// Load reads Config from the process environment, applying the same
// defaults documented for this service's deployment.
func Load() (Config, error) {
	cfg := Config{
		FolderPath:           os.Getenv("VOICE_FOLDER_PATH"),
		AudioExtension:       getEnvWithDefault("VOICE_AUDIO_EXTENSION", ".m4a"),
		PollInterval:         time.Duration(getEnvInt("VOICE_POLL_INTERVAL_MS", 30000)) * time.Millisecond,
		DownloadWaitTimeout:  time.Duration(getEnvInt("VOICE_DOWNLOAD_WAIT_TIMEOUT_MS", 60000)) * time.Millisecond,
		CloudRetryCount:      getEnvInt("VOICE_CLOUD_RETRY_COUNT", 3),
		LedgerPath:           getEnvWithDefault("VOICE_LEDGER_PATH", "./voice-poller.db"),
		ValkeyHost:           getEnvWithDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:           getEnvInt("VALKEY_PORT", 6379),
		StatusAddr:           getEnvWithDefault("VOICE_STATUS_ADDR", ":8089"),
		WatermarkKey:         "voice_last_poll",
		FingerprintSetKey:    "voice:fingerprints",
		CloudCheckCommand:    getEnvWithDefault("VOICE_CLOUD_CHECK_CMD", "icloudctl"),
		CloudDownloadCommand: getEnvWithDefault("VOICE_CLOUD_DOWNLOAD_CMD", "icloudctl"),
	}

	if cfg.FolderPath == "" {
		return Config{}, fmt.Errorf("config: VOICE_FOLDER_PATH is required")
	}
	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
