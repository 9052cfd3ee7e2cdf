package search

import (
	"context"
	"time"

	"newsbrief/internal/core"
)

// Provider defines the unified interface for news search providers
type Provider interface {
	// Search returns candidate articles for a query within the config's window
	Search(ctx context.Context, query string, config Config) ([]core.CandidateArticle, error)

	// GetName returns the name of the search provider
	GetName() string
}

// Config holds configuration for search requests
type Config struct {
	MaxResults int    // Maximum number of results to return
	Window     Window // Look-back period for news results
	Country    string // Country code for result localization (e.g. "us")
	Language   string // Language preference (e.g. "en")
}

// Window is the retrieval look-back period.
type Window string

const (
	WindowDay   Window = "day"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
)

// ParseWindow maps a raw string to a Window. Unrecognized values fall back to
// week, matching the retrieval contract.
func ParseWindow(raw string) Window {
	switch Window(raw) {
	case WindowDay, WindowWeek, WindowMonth:
		return Window(raw)
	}
	return WindowWeek
}

// Days returns the look-back length in days.
func (w Window) Days() int {
	switch w {
	case WindowDay:
		return 1
	case WindowMonth:
		return 30
	default:
		return 7
	}
}

// Range computes the inclusive date range ending at now.
func (w Window) Range(now time.Time) (from, to time.Time) {
	return now.AddDate(0, 0, -w.Days()), now
}

// ProviderType represents the type of search provider
type ProviderType string

const (
	ProviderTypeSerpAPI    ProviderType = "serpapi"
	ProviderTypeDuckDuckGo ProviderType = "duckduckgo"
	ProviderTypeMock       ProviderType = "mock"
)

// ProviderFactory creates search providers based on type and configuration
type ProviderFactory struct{}

// NewProviderFactory creates a new provider factory
func NewProviderFactory() *ProviderFactory {
	return &ProviderFactory{}
}

// CreateProvider creates a search provider of the specified type
func (f *ProviderFactory) CreateProvider(providerType ProviderType, config map[string]string) (Provider, error) {
	switch providerType {
	case ProviderTypeSerpAPI:
		apiKey, exists := config["api_key"]
		if !exists || apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewSerpAPIProvider(apiKey), nil
	case ProviderTypeDuckDuckGo:
		return NewDuckDuckGoProvider(), nil
	case ProviderTypeMock:
		return NewMockProvider(), nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// GetAvailableProviders returns a list of available provider types
func (f *ProviderFactory) GetAvailableProviders() []ProviderType {
	return []ProviderType{
		ProviderTypeSerpAPI,
		ProviderTypeDuckDuckGo,
		ProviderTypeMock,
	}
}
