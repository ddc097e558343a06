// Package summarize wraps the Gemini text-generation API behind a single-call
// summarizer. Failures never abort a run: unusable input and API errors both
// come back as deterministic placeholder strings.
package summarize

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"vndigest/internal/extract"
	"vndigest/internal/logger"
)

// promptMaxChars bounds the article text embedded in the prompt.
const promptMaxChars = 6000

// Generator is the lone model call the client depends on. Tests substitute a
// fake that counts invocations.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client produces one summary per article with no retries.
type Client struct {
	gen      Generator
	minChars int
	close    func()
}

// New builds a Gemini-backed client.
func New(ctx context.Context, apiKey, model string, temperature float32, maxOutputTokens int32, minContentChars int) (*Client, error) {
	gc, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	m := gc.GenerativeModel(model)
	m.SetTemperature(temperature)
	m.SetMaxOutputTokens(maxOutputTokens)

	return &Client{
		gen:      &geminiGenerator{model: m},
		minChars: minContentChars,
		close:    func() { gc.Close() },
	}, nil
}

// NewWithGenerator builds a client on a caller-supplied generator.
func NewWithGenerator(gen Generator, minContentChars int) *Client {
	return &Client{gen: gen, minChars: minContentChars}
}

// Close releases the underlying API client.
func (c *Client) Close() {
	if c.close != nil {
		c.close()
	}
}

// UnavailablePlaceholder is the summary shown when an article's content could
// not be retrieved or the summarizer was not allowed to run.
func UnavailablePlaceholder(title string) string {
	return "Không thể truy cập bài viết: " + title
}

// NeedsModel reports whether the content is worth an API call: not degraded
// and long enough to summarize. Callers can use it to avoid spending request
// budget on articles that would only get a placeholder anyway.
func (c *Client) NeedsModel(content extract.Content) bool {
	text := strings.TrimSpace(content.Text)
	return content.Tier != extract.TierDegraded && utf8.RuneCountInString(text) >= c.minChars
}

// Summarize returns a model-generated summary, or a placeholder when the
// content is degraded, too short, or the API call fails. The API is called at
// most once. The second return value reports whether the text came from the
// model rather than a placeholder.
func (c *Client) Summarize(ctx context.Context, title string, content extract.Content) (string, bool) {
	text := strings.TrimSpace(content.Text)
	if !c.NeedsModel(content) {
		logger.Debug("skipping summarizer call", "title", title, "tier", content.Tier.String(), "chars", utf8.RuneCountInString(text))
		return UnavailablePlaceholder(title), false
	}

	prompt := buildPrompt(title, sanitize(text))
	summary, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		logger.Error("summarization failed", "title", title, "error", err)
		return fmt.Sprintf("Lỗi tóm tắt '%s': %v", title, err), false
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return UnavailablePlaceholder(title), false
	}
	return summary, true
}

// buildPrompt renders the fixed instruction template: Vietnamese output,
// straight to the main viewpoint, arguments on separate lines, bounded length,
// no title restatement.
func buildPrompt(title, content string) string {
	return fmt.Sprintf(`Viết tóm tắt chi tiết bài viết theo yêu cầu sau bằng tiếng Việt:

Yêu cầu:
- Bắt đầu ngay bằng quan điểm chính, không viết dòng mở đầu "Tóm tắt bài viết..."
- Bao gồm quan điểm chính và các lập luận ủng hộ
- Các lập luận cần trình bày xuống dòng cho dễ đọc
- Không quá 250 chữ
- Không lặp lại tiêu đề trong nội dung tóm tắt
- Tập trung vào những thông tin quan trọng và ý kiến của tác giả

Tiêu đề: %s

Nội dung: %s

Tóm tắt chi tiết:`, title, content)
}

// sanitize normalizes article text for the prompt and cuts over-long inputs on
// a rune boundary, backtracking to a sentence end when one is near.
func sanitize(content string) string {
	content = strings.ReplaceAll(content, "\r", "")
	content = strings.Join(strings.Fields(content), " ")

	if utf8.RuneCountInString(content) <= promptMaxChars {
		return content
	}
	runes := []rune(content)
	trimmed := string(runes[:promptMaxChars])
	if idx := strings.LastIndex(trimmed, ". "); idx > 1200 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed
}

type geminiGenerator struct {
	model *genai.GenerativeModel
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}
