package discord

import (
	"time"
	"unicode/utf8"

	"github.com/bricksniper/notifier/internal/models"
)

// embedColor is the red accent used on every notification.
const embedColor = 16711680

// maxTitleLen is the embed title limit imposed by Discord.
const maxTitleLen = 256

// Message is the webhook request body.
type Message struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed is a single rich block inside a message.
type Embed struct {
	Title       string  `json:"title,omitempty"`
	URL         string  `json:"url,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
	Footer      *Footer `json:"footer,omitempty"`
	Image       *Image  `json:"image,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
}

type Footer struct {
	Text string `json:"text"`
}

type Image struct {
	URL string `json:"url"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// NewMessage renders a post as a webhook payload: one red embed whose title
// links to the post, with the body as description. The outbound link becomes
// a LINK field unless it is the same URL as the embedded image.
func NewMessage(post models.Post, footer, mention string) Message {
	title := post.Title
	if title == "" {
		title = post.Permalink
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		runes := []rune(title)
		title = string(runes[:maxTitleLen-1]) + "…"
	}

	description := post.Body
	if description == "" {
		description = "No description"
	}

	embed := Embed{
		Title:       title,
		URL:         post.Permalink,
		Description: description,
		Color:       embedColor,
	}
	if footer != "" {
		embed.Footer = &Footer{Text: footer}
	}
	if !post.PublishedAt.IsZero() {
		embed.Timestamp = post.PublishedAt.UTC().Format(time.RFC3339)
	}
	if post.ImageURL != "" {
		embed.Image = &Image{URL: post.ImageURL}
	}
	if post.LinkURL != "" && post.LinkURL != post.ImageURL {
		embed.Fields = []Field{{Name: "LINK", Value: post.LinkURL}}
	}

	content := "🔔 New deal posted!"
	if mention != "" {
		content = mention + " " + content
	}

	return Message{Content: content, Embeds: []Embed{embed}}
}
