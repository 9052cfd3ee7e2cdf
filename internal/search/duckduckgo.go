package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"newsbrief/internal/core"
	"newsbrief/internal/logger"
)

// Patterns for parsing DuckDuckGo's HTML results page. The markup may change
// without notice; these match the structure served by html.duckduckgo.com.
var (
	ddgTitlePattern   = regexp.MustCompile(`(?s)<a[^>]*class="result__a"[^>]*href="([^"]*)"[^>]*>(.*?)</a>`)
	ddgSnippetPattern = regexp.MustCompile(`(?s)<a[^>]*class="result__snippet"[^>]*>(.*?)</a>`)
	ddgTagPattern     = regexp.MustCompile(`<[^>]*>`)
	ddgSpacePattern   = regexp.MustCompile(`\s+`)
)

// DuckDuckGoProvider implements Provider by scraping DuckDuckGo's HTML
// endpoint. It needs no API key, at the cost of patchier metadata: results
// carry no published date and the source falls back to the link's domain.
type DuckDuckGoProvider struct {
	baseURL   string
	client    *http.Client
	userAgent string
	rateLimit time.Duration
	lastCall  time.Time
}

// NewDuckDuckGoProvider creates a keyless DuckDuckGo search provider
func NewDuckDuckGoProvider() *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		baseURL: "https://html.duckduckgo.com/html/",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		rateLimit: 2 * time.Second, // html.duckduckgo.com blocks aggressive clients
	}
}

// GetName returns the name of this provider
func (d *DuckDuckGoProvider) GetName() string {
	return "DuckDuckGo"
}

// Search scrapes the HTML results page for the query, scoped to the config's
// window through the df time filter. An empty result set is a valid outcome
// and returns an empty slice, not an error.
func (d *DuckDuckGoProvider) Search(ctx context.Context, query string, config Config) ([]core.CandidateArticle, error) {
	// Respect rate limiting
	if elapsed := time.Since(d.lastCall); elapsed < d.rateLimit {
		time.Sleep(d.rateLimit - elapsed)
	}
	d.lastCall = time.Now()

	searchURL := d.buildSearchURL(query, config)

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDuckGo request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	html := string(body)
	// DuckDuckGo serves a challenge page with a 200 status when it decides a
	// client is scraping too hard.
	if strings.Contains(html, "captcha") || strings.Contains(html, "Captcha") {
		return nil, fmt.Errorf("%w: blocked by CAPTCHA", ErrRequestFailed)
	}

	results := d.parseResults(html, config.MaxResults)

	logger.Info("DuckDuckGo search completed", "query", query, "results_found", len(results))

	return results, nil
}

// buildSearchURL constructs the DuckDuckGo search URL with parameters
func (d *DuckDuckGoProvider) buildSearchURL(query string, config Config) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("b", "0") // Start from first result

	switch config.Window {
	case WindowDay:
		params.Set("df", "d")
	case WindowMonth:
		params.Set("df", "m")
	default:
		params.Set("df", "w")
	}

	if config.Country != "" && config.Language != "" {
		params.Set("kl", config.Country+"-"+config.Language)
	}

	return d.baseURL + "?" + params.Encode()
}

// parseResults extracts candidate articles from the results page. Each result
// block starts at a `<div class="result` boundary; blocks without a result
// anchor (ads, navigation) are skipped.
func (d *DuckDuckGoProvider) parseResults(html string, maxResults int) []core.CandidateArticle {
	results := make([]core.CandidateArticle, 0, maxResults)

	segments := strings.Split(html, `<div class="result`)
	for _, segment := range segments[1:] {
		if len(results) >= maxResults {
			break
		}

		titleMatch := ddgTitlePattern.FindStringSubmatch(segment)
		if len(titleMatch) < 3 {
			continue
		}

		link := d.extractFinalURL(titleMatch[1])
		if link == "" {
			continue
		}

		snippet := ""
		if m := ddgSnippetPattern.FindStringSubmatch(segment); len(m) >= 2 {
			snippet = d.cleanHTMLText(m[1])
		}

		results = append(results, core.CandidateArticle{
			Title:   d.cleanHTMLText(titleMatch[2]),
			Link:    link,
			Source:  d.extractDomain(link),
			Snippet: snippet,
		})
	}

	return results
}

// extractFinalURL unwraps DuckDuckGo's redirect URLs, which look like
// /l/?uddg=https%3A//example.com/...&rut=...
func (d *DuckDuckGoProvider) extractFinalURL(redirectURL string) string {
	if strings.HasPrefix(redirectURL, "/l/?") || strings.HasPrefix(redirectURL, "//duckduckgo.com/l/?") {
		parsed, err := url.Parse(redirectURL)
		if err != nil {
			return ""
		}
		if uddg := parsed.Query().Get("uddg"); uddg != "" {
			decoded, err := url.QueryUnescape(uddg)
			if err != nil {
				return ""
			}
			return decoded
		}
	}

	if strings.HasPrefix(redirectURL, "http") {
		return redirectURL
	}

	return ""
}

// extractDomain returns the hostname of a URL without a www. prefix.
func (d *DuckDuckGoProvider) extractDomain(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

// cleanHTMLText strips tags, decodes the entities DuckDuckGo emits, and
// collapses whitespace.
func (d *DuckDuckGoProvider) cleanHTMLText(text string) string {
	text = ddgTagPattern.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&nbsp;", " ")

	text = ddgSpacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
