package models

import "time"

// Post is the canonical structure extracted from one feed entry.
type Post struct {
	ID          string
	Title       string
	Permalink   string
	Body        string
	ImageURL    string
	LinkURL     string
	PublishedAt time.Time
}
