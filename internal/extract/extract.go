// Package extract produces the best-available plain text body for an article
// through an ordered chain of fallback stages. Extraction never fails: when
// every stage comes up empty the result is a placeholder built from the title.
package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"vndigest/internal/logger"
	"vndigest/internal/rss"
)

// Tier describes how substantive the extracted text is. The summarizer uses it
// to avoid spending API quota on placeholder content.
type Tier int

const (
	// TierDegraded is a synthetic placeholder referencing only the title.
	TierDegraded Tier = iota
	// TierPartial is a short feed-provided summary or description.
	TierPartial
	// TierRich is multiple structured paragraphs of real article text.
	TierRich
)

func (t Tier) String() string {
	switch t {
	case TierRich:
		return "rich"
	case TierPartial:
		return "partial"
	default:
		return "degraded"
	}
}

// Content is the extraction result: non-empty text plus its quality tier.
type Content struct {
	Text string
	Tier Tier
}

// Extractor runs the fallback chain. The page fetcher is injected so tests can
// verify the network is not touched when feed fields already carry enough text.
type Extractor struct {
	fetcher  Fetcher
	minStage int // minimum usable characters per stage
	maxChars int // final content budget, applied once at the end
}

// New builds an Extractor. Zero thresholds fall back to the defaults used by
// the production pipeline.
func New(fetcher Fetcher, minStageChars, maxContentChars int) *Extractor {
	if minStageChars <= 0 {
		minStageChars = 20
	}
	if maxContentChars <= 0 {
		maxContentChars = 4000
	}
	return &Extractor{fetcher: fetcher, minStage: minStageChars, maxChars: maxContentChars}
}

// stage is one strategy in the chain. run returns candidate text; the chain
// takes the first stage whose trimmed output meets the minimum length.
type stage struct {
	name string
	tier Tier
	run  func() string
}

// Extract walks the fallback chain for one item. The article page is fetched
// lazily and at most once, shared by all page-backed stages.
func (e *Extractor) Extract(ctx context.Context, item rss.Item) Content {
	var (
		page        *Page
		pageFetched bool
	)
	getPage := func() *Page {
		if pageFetched {
			return page
		}
		pageFetched = true
		p, err := e.fetcher.Fetch(ctx, item.Link)
		if err != nil {
			logger.Warn("page fetch failed", "url", item.Link, "error", err)
			return nil
		}
		page = p
		return page
	}

	feedSummary := ""
	stages := []stage{
		{name: "feed_summary", tier: TierPartial, run: func() string {
			feedSummary = stripHTML(entryDescription(item), false)
			return feedSummary
		}},
		{name: "feed_dc_description", tier: TierPartial, run: func() string {
			dc := stripHTML(dublinCoreDescription(item), false)
			if dc == "" || dc == feedSummary {
				return feedSummary
			}
			if feedSummary == "" {
				return dc
			}
			return feedSummary + "\n\n" + dc
		}},
		{name: "feed_content", tier: TierPartial, run: func() string {
			return stripHTML(entryContent(item), true)
		}},
		{name: "page_selectors", tier: TierRich, run: func() string {
			p := getPage()
			if p == nil {
				return ""
			}
			return extractVnExpress(p.Document())
		}},
		{name: "page_generic_selectors", tier: TierRich, run: func() string {
			p := getPage()
			if p == nil {
				return ""
			}
			return extractGenericSelectors(p.Document())
		}},
		{name: "page_readability", tier: TierRich, run: func() string {
			p := getPage()
			if p == nil {
				return ""
			}
			return extractReadable(p)
		}},
		{name: "page_line_sweep", tier: TierRich, run: func() string {
			p := getPage()
			if p == nil {
				return ""
			}
			return extractLongLines(p.Document())
		}},
	}

	for _, s := range stages {
		text := strings.TrimSpace(s.run())
		// Thresholds count runes: Vietnamese diacritics take several bytes each.
		if utf8.RuneCountInString(text) < e.minStage {
			continue
		}
		tier := s.tier
		if tier == TierPartial && strings.Contains(text, "\n\n") {
			tier = TierRich
		}
		logger.Debug("extraction stage succeeded", "stage", s.name, "chars", utf8.RuneCountInString(text), "tier", tier.String())
		return Content{Text: truncateRunes(text, e.maxChars), Tier: tier}
	}

	logger.Warn("extraction exhausted all stages", "url", item.Link, "title", item.Title)
	return Content{
		Text: "Không thể truy cập nội dung bài viết: " + item.Title,
		Tier: TierDegraded,
	}
}

// entryDescription reads the feed's summary/description field.
func entryDescription(item rss.Item) string {
	if item.Entry == nil {
		return ""
	}
	return item.Entry.Description
}

// dublinCoreDescription reads the dc:description extension when the feed
// carries one alongside the plain description.
func dublinCoreDescription(item rss.Item) string {
	if item.Entry == nil || item.Entry.DublinCoreExt == nil {
		return ""
	}
	return strings.Join(item.Entry.DublinCoreExt.Description, " ")
}

// entryContent reads the feed's full-content field (content:encoded and kin).
func entryContent(item rss.Item) string {
	if item.Entry == nil {
		return ""
	}
	return item.Entry.Content
}

// extractVnExpress applies the selectors of the known source's page layout:
// the lede paragraph first, then the body paragraphs. Accepted only when at
// least two parts were found.
func extractVnExpress(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	var parts []string

	if lede := strings.TrimSpace(doc.Find("p.description").First().Text()); lede != "" {
		parts = append(parts, lede)
	}
	doc.Find("p.Normal").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(text) > 20 {
			parts = append(parts, text)
		}
	})

	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts, "\n\n")
}

// genericSelectors is the ordered fallback list tried when the known layout
// selectors find nothing.
var genericSelectors = []string{
	"article.fck_detail p",
	".content_detail p",
	".article-content p",
	".content-detail p",
	"div.fck_detail p",
	".Normal",
	"p",
}

// extractGenericSelectors tries each selector in order and keeps the first one
// yielding at least two distinct paragraphs of minimum length.
func extractGenericSelectors(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	for _, selector := range genericSelectors {
		var parts []string
		seen := map[string]bool{}
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if utf8.RuneCountInString(text) > 30 && !seen[text] {
				seen[text] = true
				parts = append(parts, text)
			}
		})
		if len(parts) >= 2 {
			return strings.Join(parts, "\n\n")
		}
	}
	return ""
}

// extractLongLines is the last-resort sweep: strip non-content markup from the
// whole page, then keep lines long enough to look like prose, capped at ten.
func extractLongLines(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	doc.Find("script, style, nav, header, footer, aside, iframe").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) > 50 {
			lines = append(lines, line)
		}
		if len(lines) >= 10 {
			break
		}
	}
	return strings.Join(lines, "\n\n")
}

// stripHTML removes script/style subtrees entirely, extracts the text, and
// collapses whitespace runs to single spaces. With keepParagraphs the block
// boundaries survive as blank lines so downstream can tell rich from flat text.
func stripHTML(raw string, keepParagraphs bool) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if keepParagraphs {
		raw = strings.ReplaceAll(raw, "</p>", "\n\n")
		raw = strings.ReplaceAll(raw, "<br>", "\n")
		raw = strings.ReplaceAll(raw, "<br/>", "\n")
		raw = strings.ReplaceAll(raw, "<br />", "\n")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapseWhitespace(raw)
	}
	doc.Find("script, style").Remove()
	text := doc.Text()

	if !keepParagraphs {
		return collapseWhitespace(text)
	}

	var paragraphs []string
	for _, p := range strings.Split(text, "\n") {
		if p = collapseWhitespace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts text to at most max runes. The budget applies once, after
// the winning stage, never per stage.
func truncateRunes(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max]))
}
