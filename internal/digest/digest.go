// Package digest renders the processed articles of one run into the HTML
// email body. Rendering is deterministic for a given article list and run time.
package digest

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"
)

// Article is one summarized entry in the digest, in feed order.
type Article struct {
	Title   string
	Summary string
	Link    string
	Source  string
}

// Subject builds the email subject for a run.
func Subject(runTime time.Time) string {
	return fmt.Sprintf("📰 VnExpress Góc Nhìn - Tuần %s", runTime.Format("02/01/2006"))
}

var boldMarker = regexp.MustCompile(`\*\*(.+?)\*\*`)

// formatSummary escapes the summary text, then converts the summarizer's
// **bold** marker convention into <strong> tags. Line breaks survive through
// the pre-line style on the summary block.
func formatSummary(summary string) template.HTML {
	escaped := template.HTMLEscapeString(summary)
	withBold := boldMarker.ReplaceAllString(escaped, "<strong>$1</strong>")
	return template.HTML(withBold)
}

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"formatSummary": formatSummary,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
  body { font-family: Arial, sans-serif; line-height: 1.4; max-width: 800px; margin: 0 auto; padding: 20px; }
  .header { background: #c8102e; color: white; padding: 20px; text-align: center; border-radius: 8px; }
  .article { background: #f8f9fa; padding: 20px; margin: 15px 0; border-radius: 8px; border-left: 4px solid #c8102e; }
  .article-title { font-weight: bold; color: #2c3e50; margin-bottom: 10px; font-size: 18px; }
  .summary { margin-bottom: 15px; color: #34495e; line-height: 1.6; white-space: pre-line; word-wrap: break-word; }
  .read-more { color: #c8102e; text-decoration: none; font-weight: bold; }
  .footer { text-align: center; margin-top: 40px; color: #7f8c8d; font-size: 14px; }
  .run-info { color: #888; font-size: 12px; margin-top: 10px; }
</style>
</head>
<body>
<div class="header">
  <h1>📰 Tóm Tắt VnExpress Góc Nhìn</h1>
  <p>Tuần {{.Date}}</p>
</div>
{{range .Articles}}<div class="article">
  <div class="article-title">{{.Title}}</div>
  <div class="summary">{{formatSummary .Summary}}</div>
  <a href="{{.Link}}" class="read-more" target="_blank">Đọc bài gốc →</a>
</div>
{{end}}<div class="run-info">
  <p>Đã xử lý {{len .Articles}} bài viết • Tạo lúc {{.GeneratedAt}}</p>
</div>
<div class="footer">
  <p>Tạo tự động • VnExpress Góc Nhìn</p>
</div>
</body>
</html>
`))

type templateData struct {
	Date        string
	GeneratedAt string
	Articles    []Article
}

// Render assembles the digest document. An empty article list still renders a
// valid document; the orchestrator short-circuits before that happens.
func Render(articles []Article, runTime time.Time) (string, error) {
	data := templateData{
		Date:        runTime.Format("02/01/2006"),
		GeneratedAt: runTime.Format("15:04 02/01/2006"),
		Articles:    articles,
	}

	var b strings.Builder
	if err := digestTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return b.String(), nil
}
