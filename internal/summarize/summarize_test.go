package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vndigest/internal/extract"
)

// fakeGenerator counts model invocations.
type fakeGenerator struct {
	calls    int
	response string
	err      error
	prompt   string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	g.prompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func richContent() extract.Content {
	return extract.Content{
		Text: strings.Repeat("Nội dung bài viết có đủ độ dài để tóm tắt. ", 5),
		Tier: extract.TierRich,
	}
}

func TestSummarizeCallsModelExactlyOnce(t *testing.T) {
	gen := &fakeGenerator{response: "  Quan điểm chính của bài viết.  "}
	c := NewWithGenerator(gen, 50)

	summary, fromModel := c.Summarize(context.Background(), "Tựa đề", richContent())

	assert.Equal(t, 1, gen.calls)
	assert.True(t, fromModel)
	assert.Equal(t, "Quan điểm chính của bài viết.", summary)
}

func TestSummarizeSkipsShortContent(t *testing.T) {
	gen := &fakeGenerator{response: "never used"}
	c := NewWithGenerator(gen, 50)

	summary, fromModel := c.Summarize(context.Background(), "Tựa đề", extract.Content{
		Text: "ngắn quá",
		Tier: extract.TierPartial,
	})

	assert.Equal(t, 0, gen.calls, "no quota spent on unusable input")
	assert.False(t, fromModel)
	assert.Equal(t, UnavailablePlaceholder("Tựa đề"), summary)
}

func TestSummarizeSkipsDegradedContentRegardlessOfLength(t *testing.T) {
	gen := &fakeGenerator{response: "never used"}
	c := NewWithGenerator(gen, 50)

	// A degraded placeholder can exceed the length threshold; the tier alone
	// must short-circuit the call.
	long := extract.Content{
		Text: "Không thể truy cập nội dung bài viết: một tiêu đề rất dài của một bài viết rất dài",
		Tier: extract.TierDegraded,
	}
	summary, fromModel := c.Summarize(context.Background(), "Tựa đề", long)

	assert.Equal(t, 0, gen.calls)
	assert.False(t, fromModel)
	assert.Contains(t, summary, "Tựa đề")
}

func TestNeedsModelCountsRunes(t *testing.T) {
	c := NewWithGenerator(&fakeGenerator{}, 50)

	// 49 runes but well over 50 bytes: diacritics must not count double.
	short := strings.Repeat("Đậm đà ", 7) // 49 runes including the trailing space
	require.Less(t, utf8.RuneCountInString(short), 50)
	require.Greater(t, len(short), 50)

	assert.False(t, c.NeedsModel(extract.Content{Text: short, Tier: extract.TierPartial}))
	assert.True(t, c.NeedsModel(richContent()))
	assert.False(t, c.NeedsModel(extract.Content{Text: strings.Repeat("a", 100), Tier: extract.TierDegraded}))
}

func TestSummarizeAPIErrorBecomesPlaceholder(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rate limited")}
	c := NewWithGenerator(gen, 50)

	summary, fromModel := c.Summarize(context.Background(), "Tựa đề", richContent())

	assert.Equal(t, 1, gen.calls, "exactly one attempt, no retry")
	assert.False(t, fromModel)
	assert.Contains(t, summary, "Tựa đề")
	assert.Contains(t, summary, "rate limited")
}

func TestSummarizePromptCarriesTitleAndContent(t *testing.T) {
	gen := &fakeGenerator{response: "ok"}
	c := NewWithGenerator(gen, 50)

	content := richContent()
	_, _ = c.Summarize(context.Background(), "Tiêu đề bài viết", content)

	require.NotEmpty(t, gen.prompt)
	assert.Contains(t, gen.prompt, "Tiêu đề bài viết")
	assert.Contains(t, gen.prompt, "bằng tiếng Việt")
	assert.Contains(t, gen.prompt, "Không quá 250 chữ")
}

func TestSanitizeTruncatesLongInputOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("Câu văn tiếng Việt có dấu để kiểm tra cắt chuỗi. ", 400)
	got := sanitize(long)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), promptMaxChars)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "."), "cut backtracks to a sentence end")
}

func TestSanitizeCollapsesWhitespace(t *testing.T) {
	got := sanitize("dòng một\r\ndòng   hai\tba")
	assert.Equal(t, "dòng một dòng hai ba", got)
}
