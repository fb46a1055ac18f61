package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// webhookPrefix is what every Discord webhook URL starts with.
const webhookPrefix = "https://discord.com/api/webhooks/"

// maxBackfill caps one-shot sends; Discord throttles webhook bursts
// well before this.
const maxBackfill = 25

// Common holds settings shared by both binaries.
type Common struct {
	WebhookURL       string
	Subreddit        string
	UserAgent        string
	FetchTimeout     time.Duration
	AffiliateTag     string
	AffiliateDomains []string
}

// FeedURL returns the RSS endpoint for the configured subreddit.
func (c Common) FeedURL() string {
	return fmt.Sprintf("https://www.reddit.com/r/%s/new/.rss", c.Subreddit)
}

// Watcher configures the long-running polling service.
type Watcher struct {
	Common
	PollInterval time.Duration
	SeenTTL      time.Duration
	RoleMention  string
	StatusAddr   string
}

// Backfill configures the one-shot resend tool.
type Backfill struct {
	Common
	Count int
	Delay time.Duration
}

// LoadWatcher builds a Watcher config from environment variables.
func LoadWatcher() (*Watcher, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	c := &Watcher{
		Common:       common,
		PollInterval: time.Duration(getInt("POLL_INTERVAL", 2)) * time.Second,
		SeenTTL:      getDuration("SEEN_TTL", "24h"),
		RoleMention:  getEnv("ROLE_MENTION", ""),
		StatusAddr:   getEnv("STATUS_ADDR", "0.0.0.0:8080"),
	}

	if c.PollInterval < time.Second {
		return nil, fmt.Errorf("POLL_INTERVAL must be at least 1 second")
	}
	if c.SeenTTL <= 0 {
		return nil, fmt.Errorf("SEEN_TTL must be positive")
	}

	return c, nil
}

// LoadBackfill builds a Backfill config from environment variables.
func LoadBackfill() (*Backfill, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	c := &Backfill{
		Common: common,
		Count:  getInt("BACKFILL_COUNT", 5),
		Delay:  getDuration("BACKFILL_DELAY", "1s"),
	}

	if c.Count <= 0 {
		return nil, fmt.Errorf("BACKFILL_COUNT must be positive")
	}
	if c.Count > maxBackfill {
		return nil, fmt.Errorf("BACKFILL_COUNT cannot exceed %d", maxBackfill)
	}
	if c.Delay < 0 {
		return nil, fmt.Errorf("BACKFILL_DELAY cannot be negative")
	}

	return c, nil
}

func loadCommon() (Common, error) {
	// Optional .env file for local runs.
	_ = godotenv.Load()

	c := Common{
		WebhookURL:       getEnv("DISCORD_WEBHOOK_URL", ""),
		Subreddit:        getEnv("SUBREDDIT", "legodeal"),
		UserAgent:        getEnv("USER_AGENT", "bricksniper/1.0 (Reddit RSS reader)"),
		FetchTimeout:     getDuration("FETCH_TIMEOUT", "10s"),
		AffiliateTag:     getEnv("AFFILIATE_TAG", ""),
		AffiliateDomains: splitAndTrim(getEnv("AFFILIATE_DOMAINS", "amazon.com,a.co,amzn.to")),
	}

	if c.WebhookURL == "" {
		return Common{}, fmt.Errorf("DISCORD_WEBHOOK_URL is required")
	}
	if !strings.HasPrefix(c.WebhookURL, webhookPrefix) {
		return Common{}, fmt.Errorf("DISCORD_WEBHOOK_URL must start with %s", webhookPrefix)
	}
	if c.FetchTimeout <= 0 {
		return Common{}, fmt.Errorf("FETCH_TIMEOUT must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := parseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDuration(raw string) (time.Duration, error) {
	return time.ParseDuration(raw)
}
