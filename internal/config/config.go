// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // FEED_TIMEZONE must resolve on hosts without zoneinfo.

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	AdminIDs         []int64
	LogChannel       int64

	SupportGroup   string
	SupportChannel string
	OwnerLink      string

	FeedURL      string
	FeedLimit    int
	FeedTimezone *time.Location
	FeedInclude  string
	FeedExclude  string

	TickInterval   time.Duration
	SendDelay      time.Duration
	BroadcastDelay time.Duration
	SendTimeout    time.Duration
	DedupRetention time.Duration

	WebAddr     string
	WebPassword string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables
// take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	feedURL := os.Getenv("FEED_URL")
	if feedURL == "" {
		return nil, fmt.Errorf("FEED_URL is required")
	}

	adminIDs, err := parseIDList("ADMIN_IDS")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TelegramBotToken: token,
		DatabasePath:     envOrDefault("DATABASE_PATH", "./data/bot.db"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		AdminIDs:         adminIDs,
		SupportGroup:     envOrDefault("SUPPORT_GROUP", "https://t.me/TushxEternal"),
		SupportChannel:   envOrDefault("SUPPORT_CHANNEL", "https://t.me/SarkariJobDiscussions"),
		OwnerLink:        envOrDefault("OWNER_LINK", "https://t.me/Waitdaddy"),
		FeedURL:          feedURL,
		FeedInclude:      os.Getenv("FEED_INCLUDE"),
		FeedExclude:      os.Getenv("FEED_EXCLUDE"),
		WebAddr:          os.Getenv("WEB_ADDR"),
		WebPassword:      os.Getenv("WEB_PASSWORD"),
	}

	if cfg.LogChannel, err = parseInt64("LOG_CHANNEL", 0); err != nil {
		return nil, err
	}
	if cfg.FeedLimit, err = parseInt("FEED_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.FeedLimit < 1 {
		return nil, fmt.Errorf("FEED_LIMIT must be positive")
	}

	tz := envOrDefault("FEED_TIMEZONE", "Asia/Kolkata")
	if cfg.FeedTimezone, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid FEED_TIMEZONE %q: %w", tz, err)
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"TICK_INTERVAL", time.Minute, &cfg.TickInterval},
		{"SEND_DELAY", 500 * time.Millisecond, &cfg.SendDelay},
		{"BROADCAST_DELAY", 100 * time.Millisecond, &cfg.BroadcastDelay},
		{"SEND_TIMEOUT", 15 * time.Second, &cfg.SendTimeout},
		{"DEDUP_RETENTION", 72 * time.Hour, &cfg.DedupRetention},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.WebAddr != "" && cfg.WebPassword == "" {
		return nil, fmt.Errorf("WEB_PASSWORD is required when WEB_ADDR is set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseIDList(key string) ([]int64, error) {
	var ids []int64
	raw := os.Getenv(key)
	if raw == "" {
		return nil, nil
	}
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q in %s: %w", s, key, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseInt64(key string, def int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func parseInt(key string, def int) (int, error) {
	v, err := parseInt64(key, int64(def))
	return int(v), err
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
