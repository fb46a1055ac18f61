package discord_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bricksniper/notifier/internal/discord"
	"github.com/bricksniper/notifier/internal/models"
	"github.com/stretchr/testify/require"
)

func samplePost() models.Post {
	return models.Post{
		ID:          "t3_abc123",
		Title:       "LEGO Modular 40% off",
		Permalink:   "https://www.reddit.com/r/legodeal/comments/abc123/lego_modular/",
		Body:        "Great price, ships free",
		ImageURL:    "https://i.redd.it/abc123.jpg",
		LinkURL:     "https://a.co/d/xyz1?tag=bricks-20",
		PublishedAt: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestNewMessage(t *testing.T) {
	msg := discord.NewMessage(samplePost(), "r/legodeal", "")

	require.Equal(t, "🔔 New deal posted!", msg.Content)
	require.Len(t, msg.Embeds, 1)

	embed := msg.Embeds[0]
	require.Equal(t, "LEGO Modular 40% off", embed.Title)
	require.Equal(t, "https://www.reddit.com/r/legodeal/comments/abc123/lego_modular/", embed.URL)
	require.Equal(t, "Great price, ships free", embed.Description)
	require.Equal(t, 16711680, embed.Color)
	require.Equal(t, "2024-05-01T10:30:00Z", embed.Timestamp)
	require.NotNil(t, embed.Footer)
	require.Equal(t, "r/legodeal", embed.Footer.Text)
	require.NotNil(t, embed.Image)
	require.Equal(t, "https://i.redd.it/abc123.jpg", embed.Image.URL)
	require.Len(t, embed.Fields, 1)
	require.Equal(t, "LINK", embed.Fields[0].Name)
	require.Equal(t, "https://a.co/d/xyz1?tag=bricks-20", embed.Fields[0].Value)
}

func TestNewMessageMentionPrefix(t *testing.T) {
	msg := discord.NewMessage(samplePost(), "r/legodeal", "<@&1234>")
	require.Equal(t, "<@&1234> 🔔 New deal posted!", msg.Content)
}

func TestNewMessageTitleFallsBackToPermalink(t *testing.T) {
	post := samplePost()
	post.Title = ""

	msg := discord.NewMessage(post, "", "")
	require.Equal(t, post.Permalink, msg.Embeds[0].Title)
	require.Nil(t, msg.Embeds[0].Footer)
}

func TestNewMessageTruncatesLongTitle(t *testing.T) {
	post := samplePost()
	post.Title = strings.Repeat("x", 300)

	msg := discord.NewMessage(post, "", "")
	title := []rune(msg.Embeds[0].Title)
	require.Len(t, title, 256)
	require.Equal(t, '…', title[255])
}

func TestNewMessageEmptyBody(t *testing.T) {
	post := samplePost()
	post.Body = ""

	msg := discord.NewMessage(post, "", "")
	require.Equal(t, "No description", msg.Embeds[0].Description)
}

func TestNewMessageSuppressesLinkEqualToImage(t *testing.T) {
	post := samplePost()
	post.LinkURL = post.ImageURL

	msg := discord.NewMessage(post, "", "")
	require.Empty(t, msg.Embeds[0].Fields)
}

func TestNewMessageNoImage(t *testing.T) {
	post := samplePost()
	post.ImageURL = ""

	msg := discord.NewMessage(post, "", "")
	require.Nil(t, msg.Embeds[0].Image)
	require.Len(t, msg.Embeds[0].Fields, 1)
}

func TestSendDeliversPayload(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotUserAgent   string
		gotMessage     discord.Message
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotUserAgent = r.Header.Get("User-Agent")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotMessage))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := discord.New(srv.URL, discord.Options{
		Footer:    "r/legodeal",
		UserAgent: "bricksniper/1.0 (Reddit RSS reader)",
	}, nil)

	require.NoError(t, client.Send(context.Background(), samplePost()))
	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, "bricksniper/1.0 (Reddit RSS reader)", gotUserAgent)
	require.Equal(t, "🔔 New deal posted!", gotMessage.Content)
	require.Len(t, gotMessage.Embeds, 1)
	require.Equal(t, "r/legodeal", gotMessage.Embeds[0].Footer.Text)
}

func TestSendRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2.5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := discord.New(srv.URL, discord.Options{}, nil)
	err := client.Send(context.Background(), samplePost())
	require.Error(t, err)

	var sendErr *discord.Error
	require.ErrorAs(t, err, &sendErr)
	require.Equal(t, discord.KindRateLimited, sendErr.Kind)
	require.Equal(t, http.StatusTooManyRequests, sendErr.Status)
	require.Equal(t, 2500*time.Millisecond, sendErr.RetryAfter)
}

func TestSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Invalid Webhook Token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := discord.New(srv.URL, discord.Options{}, nil)
	err := client.Send(context.Background(), samplePost())

	var sendErr *discord.Error
	require.ErrorAs(t, err, &sendErr)
	require.Equal(t, discord.KindRejected, sendErr.Kind)
	require.Equal(t, http.StatusUnauthorized, sendErr.Status)
	require.Contains(t, err.Error(), "Invalid Webhook Token")
}

func TestSendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := discord.New(srv.URL, discord.Options{}, nil)
	err := client.Send(context.Background(), samplePost())

	var sendErr *discord.Error
	require.ErrorAs(t, err, &sendErr)
	require.Equal(t, discord.KindUnreachable, sendErr.Kind)
}

func TestSendCanceledContextPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := discord.New(srv.URL, discord.Options{}, nil)
	err := client.Send(ctx, samplePost())
	require.ErrorIs(t, err, context.Canceled)

	var sendErr *discord.Error
	require.False(t, errors.As(err, &sendErr))
}
