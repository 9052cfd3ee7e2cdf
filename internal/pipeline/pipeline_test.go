package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"newsbrief/internal/core"
	"newsbrief/internal/search"
)

// scriptedProvider returns canned results or errors keyed by query.
type scriptedProvider struct {
	results map[string][]core.CandidateArticle
	errs    map[string]error

	mu      sync.Mutex
	queries []string
}

func (p *scriptedProvider) Search(ctx context.Context, query string, cfg search.Config) ([]core.CandidateArticle, error) {
	p.mu.Lock()
	p.queries = append(p.queries, query)
	p.mu.Unlock()

	if err := p.errs[query]; err != nil {
		return nil, err
	}
	return p.results[query], nil
}

func (p *scriptedProvider) GetName() string { return "Scripted" }

// mapExtractor serves extractions from a fixed map and records call order
// and the maximum number of concurrent calls it observed.
type mapExtractor struct {
	contents map[string]*core.ExtractedContent
	delay    time.Duration

	mu       sync.Mutex
	calls    []string
	inFlight int32
	maxSeen  int32
}

func (e *mapExtractor) Extract(ctx context.Context, url string) (*core.ExtractedContent, error) {
	cur := atomic.AddInt32(&e.inFlight, 1)
	defer atomic.AddInt32(&e.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&e.maxSeen)
		if cur <= seen || atomic.CompareAndSwapInt32(&e.maxSeen, seen, cur) {
			break
		}
	}

	if e.delay > 0 {
		time.Sleep(e.delay)
	}

	e.mu.Lock()
	e.calls = append(e.calls, url)
	e.mu.Unlock()

	return e.contents[url], nil
}

// recordingSummarizer captures its input and returns a fixed summary text.
type recordingSummarizer struct {
	summaryText string
	calls       int
	received    []core.EnrichedArticle
}

func (s *recordingSummarizer) SummarizeAll(ctx context.Context, articles []core.EnrichedArticle) core.Digest {
	s.calls++
	s.received = articles
	return core.Digest{
		ID:             "digest-1",
		SummaryText:    s.summaryText,
		SourceArticles: articles,
		ChunkCount:     1,
		ModelUsed:      "test-model",
		GeneratedAt:    time.Now().UTC(),
	}
}

func candidate(n int) core.CandidateArticle {
	return core.CandidateArticle{
		Title:         fmt.Sprintf("Candidate %d", n),
		Link:          fmt.Sprintf("https://example.com/%d", n),
		Source:        "Example",
		PublishedDate: "06/10/2025",
		Snippet:       "snippet",
	}
}

func content(n int, title string) *core.ExtractedContent {
	return &core.ExtractedContent{
		Title: title,
		Body:  fmt.Sprintf("Body of article %d.", n),
		Link:  fmt.Sprintf("https://example.com/%d", n),
	}
}

func TestRunTopicJoinsInOrderAndDropsEmpties(t *testing.T) {
	provider := &scriptedProvider{results: map[string][]core.CandidateArticle{
		"artificial intelligence": {candidate(1), candidate(2), candidate(3), candidate(4)},
	}}
	extractor := &mapExtractor{contents: map[string]*core.ExtractedContent{
		"https://example.com/1": content(1, ""),
		"https://example.com/2": nil,
		"https://example.com/3": content(3, "Better Title"),
		"https://example.com/4": content(4, ""),
	}}
	summarizer := &recordingSummarizer{summaryText: "<p>digest</p>"}

	p := New(provider, extractor, summarizer, Options{MaxConcurrentExtractions: 2})
	result, err := p.RunTopic(context.Background(), "ai", []string{"artificial intelligence"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(result.Articles) != 3 {
		t.Fatalf("Expected 3 enriched articles, got %d", len(result.Articles))
	}
	wantLinks := []string{"https://example.com/1", "https://example.com/3", "https://example.com/4"}
	for i, want := range wantLinks {
		if result.Articles[i].Link != want {
			t.Errorf("Article %d: expected link %s, got %s", i, want, result.Articles[i].Link)
		}
	}

	if result.Articles[0].Title != "Candidate 1" {
		t.Errorf("Expected candidate title kept when page had none, got %q", result.Articles[0].Title)
	}
	if result.Articles[1].Title != "Better Title" {
		t.Errorf("Expected extracted title to win, got %q", result.Articles[1].Title)
	}

	for i, article := range result.Articles {
		if article.Topic != "ai" {
			t.Errorf("Article %d missing topic stamp: %q", i, article.Topic)
		}
		if article.ProcessedAt.IsZero() {
			t.Errorf("Article %d missing processedAt stamp", i)
		}
	}

	if result.Digest.Topic != "ai" {
		t.Errorf("Expected digest stamped with topic, got %q", result.Digest.Topic)
	}
	if result.Digest.SummaryText != "<p>digest</p>" {
		t.Errorf("Unexpected digest text %q", result.Digest.SummaryText)
	}
	if len(result.Digest.SourceArticles) != 3 || result.Digest.SourceArticles[0].Topic != "ai" {
		t.Error("Expected digest source articles to carry the processing stamps")
	}

	if summarizer.calls != 1 {
		t.Errorf("Expected one summarization call, got %d", summarizer.calls)
	}
	if len(summarizer.received) != 3 {
		t.Errorf("Expected summarizer to receive 3 articles, got %d", len(summarizer.received))
	}
}

func TestRunTopicEmptySearchIsNotAnError(t *testing.T) {
	provider := &scriptedProvider{results: map[string][]core.CandidateArticle{}}
	extractor := &mapExtractor{}
	summarizer := &recordingSummarizer{}

	p := New(provider, extractor, summarizer, Options{})
	result, err := p.RunTopic(context.Background(), "quiet", nil)
	if err != nil {
		t.Fatalf("Expected no error for empty results, got: %v", err)
	}
	if len(result.Articles) != 0 {
		t.Errorf("Expected no articles, got %d", len(result.Articles))
	}
	if len(extractor.calls) != 0 {
		t.Errorf("Expected no extractions, got %d", len(extractor.calls))
	}
	if summarizer.calls != 0 {
		t.Errorf("Expected no summarization, got %d calls", summarizer.calls)
	}
}

func TestRunTopicRetrievalError(t *testing.T) {
	provider := &scriptedProvider{errs: map[string]error{"ai": fmt.Errorf("provider down")}}
	p := New(provider, &mapExtractor{}, &recordingSummarizer{}, Options{})

	result, err := p.RunTopic(context.Background(), "ai", nil)
	if err == nil {
		t.Fatal("Expected retrieval error to propagate")
	}
	if len(result.Articles) != 0 {
		t.Errorf("Expected empty result on retrieval failure, got %d articles", len(result.Articles))
	}
}

func TestRunTopicAllExtractionsEmpty(t *testing.T) {
	provider := &scriptedProvider{results: map[string][]core.CandidateArticle{
		"ai": {candidate(1), candidate(2)},
	}}
	extractor := &mapExtractor{contents: map[string]*core.ExtractedContent{}}
	summarizer := &recordingSummarizer{}

	p := New(provider, extractor, summarizer, Options{})
	result, err := p.RunTopic(context.Background(), "ai", nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.Articles) != 0 {
		t.Errorf("Expected no articles, got %d", len(result.Articles))
	}
	if summarizer.calls != 0 {
		t.Error("Summarizer must not run without extracted content")
	}
}

func TestRunTopicDedupesCandidateLinks(t *testing.T) {
	provider := &scriptedProvider{results: map[string][]core.CandidateArticle{
		"ai": {candidate(1), candidate(1), candidate(2)},
	}}
	extractor := &mapExtractor{contents: map[string]*core.ExtractedContent{
		"https://example.com/1": content(1, ""),
		"https://example.com/2": content(2, ""),
	}}
	summarizer := &recordingSummarizer{summaryText: "ok"}

	p := New(provider, extractor, summarizer, Options{})
	result, err := p.RunTopic(context.Background(), "ai", nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(extractor.calls) != 2 {
		t.Errorf("Expected 2 extractions after dedup, got %d", len(extractor.calls))
	}
	if len(result.Articles) != 2 {
		t.Errorf("Expected 2 articles after dedup, got %d", len(result.Articles))
	}
	if result.CandidateCount != 2 {
		t.Errorf("Expected candidate count 2 after dedup, got %d", result.CandidateCount)
	}
}

func TestCollectSkipsSummarizationAndStamps(t *testing.T) {
	provider := &scriptedProvider{results: map[string][]core.CandidateArticle{
		"ai": {candidate(1), candidate(2), candidate(2)},
	}}
	extractor := &mapExtractor{contents: map[string]*core.ExtractedContent{
		"https://example.com/1": content(1, ""),
		"https://example.com/2": content(2, ""),
	}}
	summarizer := &recordingSummarizer{}

	p := New(provider, extractor, summarizer, Options{})
	articles, candidates, err := p.Collect(context.Background(), "ai", nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if candidates != 2 {
		t.Errorf("Expected 2 candidates after dedup, got %d", candidates)
	}
	if len(articles) != 2 {
		t.Fatalf("Expected 2 collected articles, got %d", len(articles))
	}
	for i, article := range articles {
		if article.Topic != "" || !article.ProcessedAt.IsZero() {
			t.Errorf("Article %d should be unstamped before summarization", i)
		}
	}
	if summarizer.calls != 0 {
		t.Errorf("Collect must not summarize, got %d calls", summarizer.calls)
	}
}

func TestRunTopicBoundsExtractionConcurrency(t *testing.T) {
	candidates := make([]core.CandidateArticle, 10)
	contents := make(map[string]*core.ExtractedContent, 10)
	for i := range candidates {
		candidates[i] = candidate(i + 1)
		contents[candidates[i].Link] = content(i+1, "")
	}
	provider := &scriptedProvider{results: map[string][]core.CandidateArticle{"ai": candidates}}
	extractor := &mapExtractor{contents: contents, delay: 10 * time.Millisecond}
	summarizer := &recordingSummarizer{summaryText: "ok"}

	p := New(provider, extractor, summarizer, Options{MaxConcurrentExtractions: 3})
	if _, err := p.RunTopic(context.Background(), "ai", nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if max := atomic.LoadInt32(&extractor.maxSeen); max > 3 {
		t.Errorf("Expected at most 3 concurrent extractions, observed %d", max)
	}
	if len(extractor.calls) != 10 {
		t.Errorf("Expected all 10 candidates extracted, got %d", len(extractor.calls))
	}
}

func TestRunAllTopicsIsolatesFailingTopic(t *testing.T) {
	provider := &scriptedProvider{
		results: map[string][]core.CandidateArticle{"healthy": {candidate(1)}},
		errs:    map[string]error{"broken": fmt.Errorf("auth failure")},
	}
	extractor := &mapExtractor{contents: map[string]*core.ExtractedContent{
		"https://example.com/1": content(1, ""),
	}}
	summarizer := &recordingSummarizer{summaryText: "<p>ok</p>"}

	p := New(provider, extractor, summarizer, Options{})
	results := p.RunAllTopics(context.Background(), map[string][]string{
		"broken":  nil,
		"healthy": nil,
	})

	if len(results) != 2 {
		t.Fatalf("Expected results for both topics, got %d", len(results))
	}

	broken := results["broken"]
	if len(broken.Articles) != 0 {
		t.Errorf("Expected empty result for failing topic, got %d articles", len(broken.Articles))
	}
	if broken.Digest.SummaryText != "" {
		t.Errorf("Expected zero digest for failing topic, got %q", broken.Digest.SummaryText)
	}

	healthy := results["healthy"]
	if len(healthy.Articles) != 1 {
		t.Errorf("Expected sibling topic unaffected, got %d articles", len(healthy.Articles))
	}
	if healthy.Digest.SummaryText != "<p>ok</p>" {
		t.Errorf("Expected sibling digest intact, got %q", healthy.Digest.SummaryText)
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		topic string
		terms []string
		want  string
	}{
		{"ai", nil, "ai"},
		{"ai", []string{}, "ai"},
		{"ai", []string{"  "}, "ai"},
		{"ai", []string{"machine learning"}, "machine learning"},
		{"ai", []string{"machine learning", "neural networks"}, "machine learning OR neural networks"},
	}

	for _, tt := range tests {
		if got := buildQuery(tt.topic, tt.terms); got != tt.want {
			t.Errorf("buildQuery(%q, %v) = %q, want %q", tt.topic, tt.terms, got, tt.want)
		}
	}
}

func TestRunTopicCanceledContext(t *testing.T) {
	provider := &scriptedProvider{results: map[string][]core.CandidateArticle{
		"ai": {candidate(1)},
	}}
	extractor := &mapExtractor{contents: map[string]*core.ExtractedContent{
		"https://example.com/1": content(1, ""),
	}}
	summarizer := &recordingSummarizer{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(provider, extractor, summarizer, Options{})
	_, err := p.RunTopic(ctx, "ai", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected cancellation error, got: %v", err)
	}
	if summarizer.calls != 0 {
		t.Error("Summarizer must not run after cancellation")
	}
}
