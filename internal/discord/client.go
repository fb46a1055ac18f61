package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bricksniper/notifier/internal/models"
)

// Client delivers post notifications to a Discord webhook.
type Client struct {
	webhookURL string
	footer     string
	mention    string
	userAgent  string
	httpClient *http.Client
	log        *slog.Logger
}

// Options adjust how notifications are rendered and sent.
type Options struct {
	// Footer is shown at the bottom of every embed, e.g. "r/legodeal".
	Footer string
	// Mention is prepended to the message content when set.
	Mention string
	// UserAgent is sent with every request.
	UserAgent string
	// Timeout bounds a single delivery. Defaults to 10 seconds.
	Timeout time.Duration
}

// New builds a webhook client.
func New(webhookURL string, opts Options, log *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		webhookURL: webhookURL,
		footer:     opts.Footer,
		mention:    opts.Mention,
		userAgent:  opts.UserAgent,
		httpClient: &http.Client{Timeout: opts.Timeout},
		log:        log,
	}
}

// Send delivers one post notification. Failures come back as *Error with
// the kind set; cancellation of the context passes through untouched.
// No retries happen here, not even on rate limits.
func (c *Client) Send(ctx context.Context, post models.Post) error {
	payload, err := json.Marshal(NewMessage(post, c.footer, c.mention))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return context.Canceled
		}
		return &Error{Kind: KindUnreachable, cause: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		c.log.Debug("webhook delivered", slog.String("id", post.ID), slog.Int("status", res.StatusCode))
		return nil
	}

	if res.StatusCode == http.StatusTooManyRequests {
		retry := parseRetryAfter(res.Header.Get("Retry-After"))
		c.log.Warn("discord rate limit hit", slog.Duration("retry_after", retry))
		return &Error{Kind: KindRateLimited, Status: res.StatusCode, RetryAfter: retry}
	}

	body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	rejected := &Error{Kind: KindRejected, Status: res.StatusCode}
	if snippet := strings.TrimSpace(string(body)); snippet != "" {
		rejected.cause = errors.New(snippet)
	}
	return rejected
}

// parseRetryAfter reads the Retry-After header, which Discord sends in
// seconds, possibly fractional.
func parseRetryAfter(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
