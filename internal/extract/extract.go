package extract

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"newsbrief/internal/core"
	"newsbrief/internal/logger"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodyBytes caps how much of a response body is parsed.
	DefaultMaxBodyBytes = 2 << 20

	// userAgent is a standard desktop Chrome identity; several news sites
	// serve stripped or blocked pages to unknown agents.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

var (
	whitespaceRegex  = regexp.MustCompile(`\s+`)
	boilerplateRegex = regexp.MustCompile(`(?i)Advertisement|Sponsored|Related.*`)
	urlRegex         = regexp.MustCompile(`https?://\S+`)
)

// contentSelectors is the priority-ordered list of containers that usually
// hold an article's prose. The first one that yields paragraph text wins.
var contentSelectors = []string{
	"article",
	"main",
	".article-content",
	".post-content",
	".entry-content",
	"#content",
}

// Extractor fetches article pages and recovers a title plus readable body
// text. Extraction is best-effort: per-URL failures surface as an absent
// result, never as an error, so one unreadable page cannot abort a run.
type Extractor struct {
	client       *http.Client
	maxBodyBytes int64
}

// New returns an Extractor with the default fetch timeout and body cap.
func New() *Extractor {
	return NewWithClient(&http.Client{Timeout: DefaultTimeout}, DefaultMaxBodyBytes)
}

// NewWithClient returns an Extractor using the given HTTP client. A zero or
// negative maxBodyBytes falls back to the default cap.
func NewWithClient(client *http.Client, maxBodyBytes int64) *Extractor {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Extractor{client: client, maxBodyBytes: maxBodyBytes}
}

// Extract fetches rawURL and returns its extracted content. A nil content
// with a nil error means the page yielded nothing usable (malformed URL,
// fetch failure, or no extractable prose). The error return is reserved for
// context cancellation so callers can tell shutdown apart from a bad page.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*core.ExtractedContent, error) {
	if !isValidURL(rawURL) {
		logger.Debug("Skipping malformed article URL", "url", rawURL)
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		logger.Debug("Failed to build article request", "url", rawURL, "error", err.Error())
		return nil, nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debug("Article fetch failed", "url", rawURL, "error", err.Error())
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug("Article fetch returned non-success status", "url", rawURL, "status", resp.StatusCode)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, e.maxBodyBytes))
	if err != nil {
		logger.Debug("Failed to parse article HTML", "url", rawURL, "error", err.Error())
		return nil, nil
	}

	body := CleanText(extractBody(doc))
	if body == "" {
		logger.Debug("No readable content extracted", "url", rawURL)
		return nil, nil
	}

	return &core.ExtractedContent{
		Title: extractTitle(doc),
		Body:  body,
		Link:  rawURL,
	}, nil
}

// isValidURL requires an http(s) scheme and a host before any network call.
func isValidURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}

// extractTitle tries common title locations in priority order: the first
// h1, the document title, then Open Graph and Twitter card metadata.
func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if title, _ := doc.Find("meta[property='og:title']").Attr("content"); strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	if title, _ := doc.Find("meta[name='twitter:title']").Attr("content"); strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return ""
}

// extractBody walks the content selectors and returns the paragraph text of
// the first container that has any. With no matching container it falls back
// to every paragraph on the page.
func extractBody(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		container := doc.Find(selector)
		if container.Length() == 0 {
			continue
		}
		if text := paragraphText(container); text != "" {
			return text
		}
	}
	return paragraphText(doc.Selection)
}

// paragraphText joins the trimmed text of every <p> under s with single
// spaces, skipping empty paragraphs.
func paragraphText(s *goquery.Selection) string {
	var parts []string
	s.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// CleanText normalizes extracted prose: whitespace runs collapse to single
// spaces, boilerplate phrases ("Advertisement", "Sponsored", trailing
// "Related..." blocks) and bare URLs are stripped, and the result is trimmed.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = whitespaceRegex.ReplaceAllString(text, " ")
	text = boilerplateRegex.ReplaceAllString(text, "")
	text = urlRegex.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
