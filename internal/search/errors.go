package search

import "errors"

var (
	// ErrMissingAPIKey is returned when a required API key is not provided
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrUnsupportedProvider is returned when an unsupported provider type is specified
	ErrUnsupportedProvider = errors.New("unsupported search provider")

	// ErrRequestFailed is returned when the provider call fails at the
	// transport or auth level (non-2xx status, timeout, provider-reported error)
	ErrRequestFailed = errors.New("search request failed")

	// ErrInvalidResponse is returned when the provider response body cannot
	// be decoded
	ErrInvalidResponse = errors.New("invalid search response")
)
