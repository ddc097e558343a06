// Package app orchestrates one digest run: fetch the feed, extract and
// summarize each article in order, render the digest, send it once.
package app

import (
	"context"
	"fmt"
	"time"

	"vndigest/internal/config"
	"vndigest/internal/digest"
	"vndigest/internal/extract"
	"vndigest/internal/logger"
	"vndigest/internal/mail"
	"vndigest/internal/metrics"
	"vndigest/internal/pacing"
	"vndigest/internal/rss"
	"vndigest/internal/summarize"
)

// Extractor produces article text; it never fails.
type Extractor interface {
	Extract(ctx context.Context, item rss.Item) extract.Content
}

// Summarizer produces one summary per article. NeedsModel reports whether the
// content would actually reach the model, so callers can spare the request
// budget otherwise. The bool from Summarize reports whether the text is
// genuine model output.
type Summarizer interface {
	NeedsModel(content extract.Content) bool
	Summarize(ctx context.Context, title string, content extract.Content) (string, bool)
}

// Pacer spaces and budgets summarizer calls.
type Pacer interface {
	Allow() bool
	Wait(ctx context.Context) error
}

// FetchFunc retrieves feed items for a run.
type FetchFunc func(ctx context.Context, sources []rss.Source, lookback time.Duration, now time.Time) []rss.Item

// Pipeline wires the run's collaborators. All of them are injected so the
// end-to-end behavior can be exercised with fakes.
type Pipeline struct {
	Cfg        *config.Config
	Fetch      FetchFunc
	Extractor  Extractor
	Summarizer Summarizer
	Sender     mail.Sender
	Pacer      Pacer
	Now        func() time.Time
}

// Run executes the pipeline end to end.
//
// Outcomes: zero feed items is a successful no-op; per-article extraction and
// summarization failures degrade to placeholders; a delivery failure is the
// run's terminal error even though every article was already processed.
func (p *Pipeline) Run(ctx context.Context, sources []rss.Source) error {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	start := now()

	items := p.Fetch(ctx, sources, p.Cfg.Lookback, start)
	if len(items) == 0 {
		logger.Info("no new articles inside the lookback window, nothing to do")
		metrics.Global.SetLastRun(time.Since(start))
		return nil
	}
	logger.Info("processing articles", "count", len(items))

	articles := make([]digest.Article, 0, len(items))
	for i, item := range items {
		metrics.Global.IncrementItemsSeen()
		if err := p.Pacer.Wait(ctx); err != nil {
			return fmt.Errorf("run cancelled while pacing: %w", err)
		}

		logger.Info("processing article", "index", i+1, "total", len(items), "title", item.Title)
		content := p.Extractor.Extract(ctx, item)
		metrics.Global.RecordExtractionTier(content.Tier.String())

		var (
			summary   string
			fromModel bool
		)
		// Budget is only consumed for articles that would reach the model.
		if p.Summarizer.NeedsModel(content) && p.Pacer.Allow() {
			summary, fromModel = p.Summarizer.Summarize(ctx, item.Title, content)
		} else {
			summary = summarize.UnavailablePlaceholder(item.Title)
		}
		if fromModel {
			metrics.Global.IncrementSummariesOK()
		} else {
			metrics.Global.IncrementSummariesFailed()
		}

		articles = append(articles, digest.Article{
			Title:   item.Title,
			Summary: summary,
			Link:    item.Link,
			Source:  item.Source,
		})
		metrics.Global.IncrementItemsProcessed()
	}

	// Extraction never fails, so this only fires if every item vanished above.
	if len(articles) == 0 {
		logger.Info("no processed articles, skipping digest")
		metrics.Global.SetLastRun(time.Since(start))
		return nil
	}

	body, err := digest.Render(articles, start)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return fmt.Errorf("render digest: %w", err)
	}

	if err := p.Sender.Send(ctx, digest.Subject(start), body); err != nil {
		metrics.Global.SetError(err.Error())
		return fmt.Errorf("digest not delivered (%d articles processed): %w", len(articles), err)
	}

	metrics.Global.IncrementDigestsSent()
	metrics.Global.SetLastRun(time.Since(start))
	logger.Info("run complete", "articles", len(articles), "duration", time.Since(start).String())
	return nil
}

// Run performs one production run with real collaborators. A missing
// summarizer API key fails here, before any network activity.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sources, err := rss.LoadSources(cfg.FeedsConfigPath)
	if err != nil {
		return fmt.Errorf("load feed sources: %w", err)
	}

	if !cfg.HasMailCredentials() {
		logger.Warn("mail credentials incomplete; articles will be processed but the digest will not be delivered")
	}

	summarizer, err := summarize.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Temperature, cfg.MaxOutputTokens, cfg.MinContentChars)
	if err != nil {
		return fmt.Errorf("init summarizer: %w", err)
	}
	defer summarizer.Close()

	pipeline := &Pipeline{
		Cfg:        cfg,
		Fetch:      rss.NewFetcher(cfg.FeedFetchTimeout).FetchItems,
		Extractor:  extract.New(extract.NewHTTPFetcher(cfg.PageFetchTimeout), cfg.MinStageChars, cfg.MaxContentChars),
		Summarizer: summarizer,
		Sender:     mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.MailFrom, cfg.MailPassword, cfg.MailTo),
		Pacer:      pacing.New(cfg.SummaryMinInterval, cfg.MaxSummaryRequests),
	}
	return pipeline.Run(ctx, sources)
}
