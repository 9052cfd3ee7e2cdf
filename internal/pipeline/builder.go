package pipeline

import (
	"fmt"
	"net/http"

	"newsbrief/internal/chunker"
	"newsbrief/internal/config"
	"newsbrief/internal/delivery"
	"newsbrief/internal/extract"
	"newsbrief/internal/llm"
	"newsbrief/internal/search"
	"newsbrief/internal/summarize"
)

// Builder assembles a fully wired pipeline, and optionally the job around
// it, from configuration. Every component can be overridden before Build,
// which is how tests substitute scripted providers and summarizers.
type Builder struct {
	cfg        *config.Config
	provider   search.Provider
	extractor  Extractor
	summarizer Summarizer
	store      Store
	transport  delivery.Transport
	window     search.Window
	outputDir  string
	emailOff   bool
}

// NewBuilder creates a builder over the given configuration.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// WithProvider overrides the search provider.
func (b *Builder) WithProvider(p search.Provider) *Builder {
	b.provider = p
	return b
}

// WithExtractor overrides the content extractor.
func (b *Builder) WithExtractor(e Extractor) *Builder {
	b.extractor = e
	return b
}

// WithSummarizer overrides the summarizer.
func (b *Builder) WithSummarizer(s Summarizer) *Builder {
	b.summarizer = s
	return b
}

// WithStore sets the persistence layer BuildJob requires.
func (b *Builder) WithStore(s Store) *Builder {
	b.store = s
	return b
}

// WithTransport overrides the email transport.
func (b *Builder) WithTransport(t delivery.Transport) *Builder {
	b.transport = t
	return b
}

// WithWindow overrides the configured retrieval window for this run.
func (b *Builder) WithWindow(w search.Window) *Builder {
	b.window = w
	return b
}

// WithOutputDir overrides the markdown export directory for this run.
func (b *Builder) WithOutputDir(dir string) *Builder {
	b.outputDir = dir
	return b
}

// WithoutEmail disables delivery regardless of configuration.
func (b *Builder) WithoutEmail() *Builder {
	b.emailOff = true
	return b
}

// Build constructs the pipeline, creating from configuration any component
// that was not supplied.
func (b *Builder) Build() (*Pipeline, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	if b.provider == nil {
		provider, err := search.NewProviderFactory().CreateProvider(
			search.ProviderType(b.cfg.Search.Provider),
			map[string]string{"api_key": b.cfg.Search.APIKey},
		)
		if err != nil {
			return nil, fmt.Errorf("creating search provider: %w", err)
		}
		b.provider = provider
	}

	if b.extractor == nil {
		client := &http.Client{Timeout: config.GetExtractTimeout()}
		b.extractor = extract.NewWithClient(client, b.cfg.Extract.MaxBodyBytes)
	}

	if b.summarizer == nil {
		generator, err := llm.NewClient(b.cfg.Gemini.Model)
		if err != nil {
			return nil, fmt.Errorf("creating generation client: %w", err)
		}
		b.summarizer = summarize.New(generator, chunker.New(b.cfg.Pipeline.MaxTokens))
	}

	window := b.window
	if window == "" {
		window = search.ParseWindow(b.cfg.Search.Window)
	}

	opts := Options{
		SearchConfig: search.Config{
			MaxResults: b.cfg.Search.ResultCount,
			Window:     window,
			Country:    b.cfg.Search.Country,
			Language:   b.cfg.Search.Language,
		},
		MaxConcurrentExtractions: b.cfg.Pipeline.MaxConcurrentExtractions,
	}

	return New(b.provider, b.extractor, b.summarizer, opts), nil
}

// BuildJob constructs the pipeline plus the job around it. A store is
// required; the email transport is created from configuration when delivery
// is enabled and none was supplied.
func (b *Builder) BuildJob() (*Job, error) {
	if b.store == nil {
		return nil, fmt.Errorf("store is required")
	}

	p, err := b.Build()
	if err != nil {
		return nil, err
	}

	emailEnabled := b.cfg.Email.Enabled && !b.emailOff
	if emailEnabled && b.transport == nil {
		transport, err := delivery.NewClient(b.cfg.Email.APIKey, b.cfg.Email.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("creating email transport: %w", err)
		}
		b.transport = transport
	}

	outputDir := b.outputDir
	if outputDir == "" {
		outputDir = b.cfg.Output.Directory
	}

	opts := JobOptions{
		EmailEnabled:       emailEnabled,
		SenderName:         b.cfg.Email.SenderName,
		SenderEmail:        b.cfg.Email.SenderEmail,
		UnsubscribeBaseURL: b.cfg.Email.UnsubscribeBaseURL,
		OutputDir:          outputDir,
	}

	return NewJob(p, b.store, b.transport, opts), nil
}
