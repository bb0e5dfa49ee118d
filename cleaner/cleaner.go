// Package cleaner turns raw fetched HTML into LLM-friendly output. It is a
// downstream consumer of the escalation engine's results; the engine itself
// never depends on it.
package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/use-agent/ladder/models"
)

// minContentLength is the minimum extracted text length (in characters) for
// readability output to be considered valid; below it we assume the
// algorithm missed the main content and fall back to the raw HTML.
const minContentLength = 50

// Cleaner runs the two-stage pipeline: readability extracts the main
// content, then the converter renders it in the requested format. The
// markdown converter is created once and shared (goroutine-safe).
type Cleaner struct {
	mdConverter *converter.Converter
}

// NewCleaner initialises the Cleaner with a pre-configured converter.
func NewCleaner() *Cleaner {
	return &Cleaner{mdConverter: newMarkdownConverter()}
}

// Clean produces a partial ScrapeResponse (Content, Metadata, Tokens);
// the API layer fills in tier, timing and status fields.
func (c *Cleaner) Clean(rawHTML, sourceURL, format, extractMode string) (*models.ScrapeResponse, error) {
	originalTokens := EstimateTokens(rawHTML)

	var article readability.Article
	if extractMode == "raw" {
		article = fallbackArticle(rawHTML)
	} else {
		article = extractContent(rawHTML, sourceURL)
	}

	var content string
	switch format {
	case "html":
		content = article.Content
	case "text":
		content = article.TextContent
	default: // "markdown"
		md, err := c.mdConverter.ConvertString(article.Content, converter.WithDomain(sourceURL))
		if err != nil {
			return nil, &models.EscalationError{
				Code:    models.ErrCodeInternal,
				Message: "markdown conversion failed",
				Err:     err,
			}
		}
		content = md
	}

	cleanedTokens := EstimateTokens(content)
	savings := 0.0
	if originalTokens > 0 {
		savings = float64(originalTokens-cleanedTokens) / float64(originalTokens) * 100
	}

	return &models.ScrapeResponse{
		Success: true,
		Content: content,
		Metadata: models.Metadata{
			Title:       article.Title,
			Description: article.Excerpt,
			SiteName:    article.SiteName,
			Author:      article.Byline,
			Language:    article.Language,
			SourceURL:   sourceURL,
		},
		Tokens: models.TokenInfo{
			OriginalEstimate: originalTokens,
			CleanedEstimate:  cleanedTokens,
			SavingsPercent:   savings,
		},
	}, nil
}

// extractContent runs the Mozilla Readability algorithm, falling back to
// the raw HTML whenever extraction fails or produces too little text — the
// caller must never lose content just because readability choked.
func extractContent(rawHTML, sourceURL string) readability.Article {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("cleaner: invalid source URL, using raw HTML", "url", sourceURL, "error", err)
		return fallbackArticle(rawHTML)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("cleaner: readability failed, using raw HTML", "url", sourceURL, "error", err)
		return fallbackArticle(rawHTML)
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		slog.Warn("cleaner: extracted content too short, using raw HTML",
			"url", sourceURL, "length", len(article.TextContent))
		return fallbackArticle(rawHTML)
	}
	return article
}

// fallbackArticle wraps raw HTML into an Article so the pipeline proceeds
// uniformly regardless of whether readability succeeded.
func fallbackArticle(rawHTML string) readability.Article {
	return readability.Article{
		Content:     rawHTML,
		TextContent: stripTags(rawHTML),
	}
}

// stripTags extracts visible text from an HTML fragment.
func stripTags(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}
