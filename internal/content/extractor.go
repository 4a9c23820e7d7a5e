package content

import (
	"context"
	"errors"
	"fmt"
	nurl "net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/blogcaster/api/internal/client"
	"github.com/blogcaster/api/internal/model"
)

// ErrNoContent is returned when a page yields no readable text
var ErrNoContent = errors.New("no readable text found on page")

// visualSelectors are removed before text extraction; a listener cannot see them
const visualSelectors = "script, style, noscript, figure, figcaption, img, picture, svg, video, iframe, canvas, nav, footer, aside, form"

var (
	blankLines = regexp.MustCompile(`\n{3,}`)
	spaceRuns  = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
)

// Extractor turns a blog URL into plain article text
type Extractor struct {
	scraper client.PageScraper
}

// NewExtractor creates an extractor backed by a page scraper
func NewExtractor(scraper client.PageScraper) *Extractor {
	return &Extractor{scraper: scraper}
}

// Extract fetches the page and returns its title and main text
func (e *Extractor) Extract(ctx context.Context, pageURL string) (*model.ExtractedContent, error) {
	page, err := e.scraper.Scrape(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var title, text string
	if strings.TrimSpace(page.HTML) != "" {
		title, text, err = ArticleText(page.HTML, page.URL)
		if err != nil {
			return nil, err
		}
	}

	// Firecrawl sometimes returns markdown only
	if text == "" && strings.TrimSpace(page.Markdown) != "" {
		text = normalizeWhitespace(page.Markdown)
	}

	if text == "" {
		return nil, ErrNoContent
	}

	if page.Title != "" {
		title = page.Title
	}

	return &model.ExtractedContent{
		URL:     page.URL,
		Title:   strings.TrimSpace(title),
		RawText: text,
	}, nil
}

// ArticleText extracts the title and readable body text from HTML
func ArticleText(htmlContent, pageURL string) (string, string, error) {
	cleaned, err := StripVisuals(htmlContent)
	if err != nil {
		return "", "", err
	}

	var base *nurl.URL
	if pageURL != "" {
		base, _ = nurl.Parse(pageURL)
	}

	article, err := readability.FromReader(strings.NewReader(cleaned), base)
	if err == nil {
		if text := normalizeWhitespace(article.TextContent); text != "" {
			return strings.TrimSpace(article.Title), text, nil
		}
	}

	// Fallback: plain body text
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cleaned))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	return title, normalizeWhitespace(doc.Find("body").Text()), nil
}

// StripVisuals removes elements that only make sense on screen
func StripVisuals(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(visualSelectors).Remove()

	html, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return html, nil
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRuns.ReplaceAllString(line, " "))
	}
	out := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}
