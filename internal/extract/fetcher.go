package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"vndigest/internal/logger"
)

// Page is one fetched article page. The raw body is kept so the readability
// stage can re-parse it independently of the goquery document.
type Page struct {
	URL  string
	Body []byte

	doc *goquery.Document
}

// Document lazily parses the page body. Returns nil when the HTML is unusable.
func (p *Page) Document() *goquery.Document {
	if p.doc != nil {
		return p.doc
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		logger.Warn("html parse failed", "url", p.URL, "error", err)
		return nil
	}
	p.doc = doc
	return p.doc
}

// Fetcher retrieves an article page. Injected into the Extractor so tests can
// record whether the live fetch was attempted.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// HTTPFetcher fetches pages with a bounded timeout and browser-like headers.
// News sites routinely reject requests without them.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher builds the production fetcher.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "vi-VN,vi;q=0.8,en-US;q=0.5,en;q=0.3",
	"Connection":      "keep-alive",
}

// Fetch retrieves the page. A non-success status is an error; the extractor
// treats any fetch error as "no content" and moves on.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read page body: %w", err)
	}
	return &Page{URL: pageURL, Body: body}, nil
}

// extractReadable runs the readability pass over the raw page. It handles the
// layouts the selector lists miss.
func extractReadable(p *Page) string {
	pageURL, err := url.Parse(p.URL)
	if err != nil {
		pageURL = nil
	}
	article, err := readability.FromReader(bytes.NewReader(p.Body), pageURL)
	if err != nil {
		logger.Debug("readability extraction failed", "url", p.URL, "error", err)
		return ""
	}
	return article.TextContent
}
