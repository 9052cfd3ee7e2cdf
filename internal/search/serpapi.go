package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"newsbrief/internal/core"
	"newsbrief/internal/logger"
)

// serpDateFormat is the MM/DD/YYYY format SerpAPI expects in custom date
// range (cdr) filters.
const serpDateFormat = "01/02/2006"

// SerpAPIProvider implements Provider using SerpAPI's Google News engine
type SerpAPIProvider struct {
	apiKey    string
	baseURL   string
	client    *http.Client
	rateLimit time.Duration
	lastCall  time.Time
	now       func() time.Time
}

// NewSerpAPIProvider creates a new SerpAPI news search provider
func NewSerpAPIProvider(apiKey string) *SerpAPIProvider {
	return &SerpAPIProvider{
		apiKey:  apiKey,
		baseURL: "https://serpapi.com/search",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimit: 1 * time.Second, // SerpAPI has generous rate limits
		now:       time.Now,
	}
}

// GetName returns the name of this provider
func (s *SerpAPIProvider) GetName() string {
	return "SerpAPI"
}

// Search performs a Google News search scoped to the config's date window.
// An empty result set is a valid outcome and returns an empty slice, not an
// error.
func (s *SerpAPIProvider) Search(ctx context.Context, query string, config Config) ([]core.CandidateArticle, error) {
	// Respect rate limiting
	if elapsed := time.Since(s.lastCall); elapsed < s.rateLimit {
		time.Sleep(s.rateLimit - elapsed)
	}
	s.lastCall = time.Now()

	from, to := config.Window.Range(s.now())

	params := url.Values{}
	params.Set("q", query)
	params.Set("engine", "google")
	params.Set("tbm", "nws")
	params.Set("api_key", s.apiKey)
	params.Set("num", strconv.Itoa(config.MaxResults))
	params.Set("gl", config.Country)
	params.Set("hl", config.Language)
	params.Set("tbs", fmt.Sprintf("cdr:1,cd_min:%s,cd_max:%s",
		from.Format(serpDateFormat), to.Format(serpDateFormat)))

	fullURL := s.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create SerpAPI request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var apiResponse struct {
		NewsResults []struct {
			Title     string `json:"title"`
			Link      string `json:"link"`
			Source    string `json:"source"`
			Date      string `json:"date"`
			Snippet   string `json:"snippet"`
			Thumbnail string `json:"thumbnail"`
		} `json:"news_results"`
		Error string `json:"error,omitempty"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	// SerpAPI reports auth and quota problems in-band
	if apiResponse.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrRequestFailed, apiResponse.Error)
	}

	results := make([]core.CandidateArticle, 0, len(apiResponse.NewsResults))
	for _, item := range apiResponse.NewsResults {
		results = append(results, core.CandidateArticle{
			Title:         item.Title,
			Link:          item.Link,
			Source:        item.Source,
			PublishedDate: item.Date,
			Snippet:       item.Snippet,
			Thumbnail:     item.Thumbnail,
		})
	}

	logger.Info("SerpAPI news search completed", "query", query, "results_found", len(results))

	return results, nil
}
