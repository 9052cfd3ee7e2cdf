package search

import (
	"context"

	"newsbrief/internal/core"
)

// MockProvider implements Provider for testing purposes
type MockProvider struct {
	name      string
	results   []core.CandidateArticle
	err       error
	callCount int
	lastQuery string
}

// NewMockProvider creates a new mock search provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		name: "Mock",
		results: []core.CandidateArticle{
			{
				Title:         "Example Article 1",
				Link:          "https://example.com/article1",
				Source:        "example.com",
				PublishedDate: "06/01/2025",
				Snippet:       "This is a mock search result for testing purposes.",
			},
			{
				Title:         "Test Article 2",
				Link:          "https://test.org/article2",
				Source:        "test.org",
				PublishedDate: "06/02/2025",
				Snippet:       "Another mock search result with different content.",
			},
			{
				Title:         "Demo Article 3",
				Link:          "https://demo.net/article3",
				Source:        "demo.net",
				PublishedDate: "06/03/2025",
				Snippet:       "Third mock result to simulate multiple search results.",
			},
		},
	}
}

// GetName returns the name of this provider
func (m *MockProvider) GetName() string {
	return m.name
}

// Search returns the configured mock results, truncated to MaxResults
func (m *MockProvider) Search(ctx context.Context, query string, config Config) ([]core.CandidateArticle, error) {
	m.callCount++
	m.lastQuery = query

	if m.err != nil {
		return nil, m.err
	}

	maxResults := config.MaxResults
	if maxResults <= 0 || maxResults > len(m.results) {
		maxResults = len(m.results)
	}

	results := make([]core.CandidateArticle, maxResults)
	copy(results, m.results[:maxResults])
	return results, nil
}

// SetResults allows customization of mock results for testing
func (m *MockProvider) SetResults(results []core.CandidateArticle) {
	m.results = results
}

// SetError makes every subsequent Search call fail with err
func (m *MockProvider) SetError(err error) {
	m.err = err
}

// SetName allows customization of provider name for testing
func (m *MockProvider) SetName(name string) {
	m.name = name
}

// CallCount returns how many times Search has been invoked
func (m *MockProvider) CallCount() int {
	return m.callCount
}

// LastQuery returns the query passed to the most recent Search call
func (m *MockProvider) LastQuery() string {
	return m.lastQuery
}
