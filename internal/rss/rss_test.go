package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feeds.yaml")
	content := `feeds:
  "VnExpress Góc Nhìn": "https://vnexpress.net/rss/goc-nhin.rss"
  "Another Feed": "https://example.com/rss"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	sources, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	// Sorted by name for a stable processing order.
	assert.Equal(t, "Another Feed", sources[0].Name)
	assert.Equal(t, "https://example.com/rss", sources[0].URL)
	assert.Equal(t, "VnExpress Góc Nhìn", sources[1].Name)
}

func TestLoadSourcesMissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestResolveTimestampPriority(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	published := now.Add(-48 * time.Hour)
	updated := now.Add(-24 * time.Hour)

	tests := []struct {
		name  string
		entry *gofeed.Item
		want  time.Time
	}{
		{
			name:  "published wins over updated",
			entry: &gofeed.Item{PublishedParsed: &published, UpdatedParsed: &updated},
			want:  published,
		},
		{
			name:  "updated when published missing",
			entry: &gofeed.Item{UpdatedParsed: &updated},
			want:  updated,
		},
		{
			name:  "defaults to now when both missing",
			entry: &gofeed.Item{},
			want:  now,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveTimestamp(tt.entry, now))
		})
	}
}

func TestItemsFromEntriesLookbackFilter(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-7 * 24 * time.Hour)

	fresh := now.Add(-24 * time.Hour)
	stale := now.Add(-8 * 24 * time.Hour)
	exact := cutoff // exactly on the boundary is excluded (strictly greater required)

	entries := []*gofeed.Item{
		{Title: "fresh", Link: "https://example.com/a", PublishedParsed: &fresh},
		{Title: "stale", Link: "https://example.com/b", PublishedParsed: &stale},
		{Title: "boundary", Link: "https://example.com/c", PublishedParsed: &exact},
		nil,
		{Title: "undated", Link: "https://example.com/d"},
	}

	items := itemsFromEntries(entries, Source{Name: "Test"}, cutoff, now)
	require.Len(t, items, 2)

	assert.Equal(t, "fresh", items[0].Title)
	assert.Equal(t, "Test", items[0].Source)
	assert.Equal(t, fresh, items[0].Published)

	// An entry without any date is still admitted with the run time.
	assert.Equal(t, "undated", items[1].Title)
	assert.Equal(t, now, items[1].Published)
}

func TestFetchItemsReturnsAgainstHungServer(t *testing.T) {
	release := make(chan struct{})

	// Accepts the connection, never responds.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	// Cleanups run LIFO: release the handler first so Close can drain the connection.
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	fetcher := NewFetcher(100 * time.Millisecond)
	start := time.Now()
	items := fetcher.FetchItems(context.Background(), []Source{{Name: "Hung", URL: server.URL}}, time.Hour, time.Now())

	assert.Empty(t, items, "an unresponsive feed contributes nothing")
	assert.Less(t, time.Since(start), 3*time.Second, "the feed fetch must be bounded by the client timeout")
}

func TestItemsFromEntriesKeepsRawEntry(t *testing.T) {
	now := time.Now()
	entry := &gofeed.Item{Title: "t", Description: "feed summary text"}

	items := itemsFromEntries([]*gofeed.Item{entry}, Source{Name: "S"}, now.Add(-time.Hour), now)
	require.Len(t, items, 1)
	assert.Same(t, entry, items[0].Entry)
}
