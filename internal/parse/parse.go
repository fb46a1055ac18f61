package parse

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bricksniper/notifier/internal/feed"
	"github.com/bricksniper/notifier/internal/models"
)

// bodyLimit caps the extracted body at a display-friendly length.
const bodyLimit = 500

var (
	urlRegex    = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+[^\s<>"{}|\\^` + "`" + `\[\].,;:!?]`)
	imgTagRegex = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["']`)
	markupTags  = regexp.MustCompile(`<[^>]*>`)
	whitespace  = regexp.MustCompile(`\s+`)
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg"}

var imageHosts = []string{"i.redd.it", "preview.redd.it", "i.imgur.com"}

// Parser turns feed entries into posts, applying the affiliate tag
// rewrite when one is configured.
type Parser struct {
	tag     string
	domains []string
}

// NewParser builds a parser. domains lists the merchant hosts whose links
// receive the affiliate tag; matching covers subdomains.
func NewParser(tag string, domains []string) *Parser {
	lowered := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			lowered = append(lowered, d)
		}
	}
	return &Parser{tag: strings.TrimSpace(tag), domains: lowered}
}

// Parse extracts a Post from the entry. The second return value is false
// when the entry carries no usable identifier and must be skipped.
func (p *Parser) Parse(e feed.Entry) (models.Post, bool) {
	id := e.GUID
	if id == "" {
		id = e.Link
	}
	if id == "" {
		return models.Post{}, false
	}

	// Raw markup with entities decoded; href and src attributes stay
	// visible to the URL scan here, unlike in the stripped body.
	raw := html.UnescapeString(e.Content)

	post := models.Post{
		ID:          id,
		Title:       strings.TrimSpace(e.Title),
		Permalink:   e.Link,
		Body:        truncate(stripMarkup(e.Content), bodyLimit),
		PublishedAt: e.PublishedAt,
	}

	post.ImageURL = firstImage(e, raw)
	for _, u := range ExtractURLs(raw) {
		if u != post.ImageURL {
			post.LinkURL = u
			break
		}
	}

	post.ImageURL = p.Rewrite(post.ImageURL)
	post.LinkURL = p.Rewrite(post.LinkURL)
	if post.LinkURL != "" && post.LinkURL == post.ImageURL {
		post.LinkURL = ""
	}

	return post, true
}

// Rewrite appends the affiliate tag to URLs on one of the configured
// domains. Reapplying it to an already tagged URL yields the same URL.
func (p *Parser) Rewrite(raw string) string {
	if p.tag == "" || raw == "" {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if !p.affiliateHost(u.Hostname()) {
		return raw
	}

	q := u.Query()
	q.Set("tag", p.tag)
	u.RawQuery = q.Encode()
	return u.String()
}

func (p *Parser) affiliateHost(host string) bool {
	host = strings.ToLower(host)
	for _, d := range p.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// firstImage picks the post image: media extension URLs win, then a
// permalink that is itself an image, then embedded markup, then any
// image-looking URL in the body.
func firstImage(e feed.Entry, raw string) string {
	for _, u := range e.MediaURLs {
		if IsImageURL(u) {
			return u
		}
	}
	if IsImageURL(e.Link) {
		return e.Link
	}
	if m := imgTagRegex.FindStringSubmatch(raw); len(m) > 1 {
		return m[1]
	}
	for _, u := range ExtractURLs(raw) {
		if IsImageURL(u) {
			return u
		}
	}
	return ""
}

// ExtractURLs returns every HTTP(S) URL in the input, duplicates removed,
// order preserved. Trailing punctuation is not considered part of a URL.
func ExtractURLs(input string) []string {
	if input == "" {
		return nil
	}
	matches := urlRegex.FindAllString(input, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var urls []string
	for _, u := range matches {
		if _, ok := seen[u]; !ok {
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
	}
	return urls
}

// IsImageURL reports whether the URL points at an image, judged by the
// known image hosts and common file extensions.
func IsImageURL(raw string) bool {
	if raw == "" {
		return false
	}
	lower := strings.ToLower(raw)
	for _, host := range imageHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

// stripMarkup removes tags, decodes HTML entities, and squeezes whitespace.
func stripMarkup(input string) string {
	if input == "" {
		return ""
	}
	out := markupTags.ReplaceAllString(input, " ")
	out = html.UnescapeString(out)
	out = whitespace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// truncate cuts s at limit runes, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
