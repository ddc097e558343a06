// Package rss turns configured feeds into candidate articles for one run.
package rss

import (
	"context"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"vndigest/internal/logger"
)

// Source is one configured feed: a human-readable name mapped to its URL.
type Source struct {
	Name string
	URL  string
}

// Item is a candidate article taken from a feed entry. Entry carries the raw
// parsed entry so the extractor can read its summary/description/content fields.
type Item struct {
	Title     string
	Link      string
	Published time.Time
	Source    string
	Entry     *gofeed.Item
}

type feedsFile struct {
	Feeds map[string]string `yaml:"feeds"`
}

// LoadSources reads the feeds YAML file. Sources come back sorted by name so a
// run processes them in a stable order.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg feedsFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	sources := make([]Source, 0, len(cfg.Feeds))
	for name, url := range cfg.Feeds {
		sources = append(sources, Source{Name: name, URL: url})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources, nil
}

// Fetcher downloads feeds with a bounded per-request timeout so a feed server
// that accepts the connection but never responds cannot stall the run.
type Fetcher struct {
	parser *gofeed.Parser
}

// NewFetcher builds a Fetcher. A non-positive timeout falls back to the
// default used by the production pipeline.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &Fetcher{parser: parser}
}

// FetchItems downloads and parses every source, keeping entries whose resolved
// timestamp falls inside the lookback window. A feed that is unreachable or
// empty contributes nothing; it never fails the run.
func (f *Fetcher) FetchItems(ctx context.Context, sources []Source, lookback time.Duration, now time.Time) []Item {
	cutoff := now.Add(-lookback)

	var items []Item
	for _, src := range sources {
		feed, err := f.parser.ParseURLWithContext(src.URL, ctx)
		if err != nil {
			logger.Warn("feed fetch failed", "source", src.Name, "url", src.URL, "error", err)
			continue
		}
		if len(feed.Items) == 0 {
			logger.Warn("feed has no entries", "source", src.Name)
			continue
		}

		kept := itemsFromEntries(feed.Items, src, cutoff, now)
		items = append(items, kept...)
		logger.Info("feed loaded", "source", src.Name, "entries", len(feed.Items), "kept", len(kept))
	}
	return items
}

// itemsFromEntries converts feed entries to items, dropping anything whose
// resolved timestamp is not strictly inside the lookback window.
func itemsFromEntries(entries []*gofeed.Item, src Source, cutoff, now time.Time) []Item {
	var items []Item
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		published := resolveTimestamp(entry, now)
		if !published.After(cutoff) {
			continue
		}
		items = append(items, Item{
			Title:     entry.Title,
			Link:      entry.Link,
			Published: published,
			Source:    src.Name,
			Entry:     entry,
		})
	}
	return items
}

// resolveTimestamp picks the entry's publication time: published, then updated,
// then the run time. Entries without any date are admitted rather than dropped.
func resolveTimestamp(entry *gofeed.Item, now time.Time) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	return now
}
