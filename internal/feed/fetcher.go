package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is one syndication item as fetched, before post extraction.
type Entry struct {
	GUID        string
	Title       string
	Link        string
	Content     string
	MediaURLs   []string
	PublishedAt time.Time
}

// Fetcher downloads and parses the subreddit feed.
type Fetcher struct {
	url        string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	parser     *gofeed.Parser
}

// NewFetcher builds a fetcher for the given feed URL. Reddit throttles
// requests without a descriptive User-Agent, so one is always sent.
func NewFetcher(url, userAgent string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		url:        url,
		userAgent:  userAgent,
		timeout:    timeout,
		httpClient: &http.Client{},
		parser:     gofeed.NewParser(),
	}
}

// Fetch retrieves the feed once and returns its entries in document order,
// which for Reddit means newest first. Failures come back as *Error with
// the kind set; cancellation of the parent context passes through untouched.
func (f *Fetcher) Fetch(ctx context.Context) ([]Entry, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	res, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, context.Canceled
		}
		return nil, classifyTransport(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, &Error{Kind: KindHTTPStatus, Status: res.StatusCode}
	}

	parsed, err := f.parser.Parse(res.Body)
	if err != nil {
		return nil, &Error{Kind: KindMalformed, cause: err}
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entries = append(entries, Entry{
			GUID:        item.GUID,
			Title:       item.Title,
			Link:        item.Link,
			Content:     itemContent(item),
			MediaURLs:   mediaURLs(item),
			PublishedAt: itemTime(item),
		})
	}
	return entries, nil
}

func classifyTransport(err error) error {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return &Error{Kind: KindTimeout, cause: err}
	}
	return &Error{Kind: KindUnreachable, cause: err}
}

func itemContent(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Time{}
}

// mediaURLs collects URLs from the media RSS extension, thumbnails first.
// Reddit attaches a media:thumbnail element to image posts.
func mediaURLs(item *gofeed.Item) []string {
	media, ok := item.Extensions["media"]
	if !ok {
		return nil
	}
	var urls []string
	for _, name := range []string{"thumbnail", "content"} {
		for _, ext := range media[name] {
			if u := ext.Attrs["url"]; u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls
}
