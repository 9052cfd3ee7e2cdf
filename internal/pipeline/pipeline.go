// Package pipeline composes retrieval, extraction, and summarization into
// per-topic digest runs and fans the whole flow out across topics.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"newsbrief/internal/core"
	"newsbrief/internal/logger"
	"newsbrief/internal/search"
)

// DefaultMaxConcurrentExtractions bounds the per-topic page fetch fan-out.
const DefaultMaxConcurrentExtractions = 5

// Extractor recovers readable content from one article URL. A nil content
// with a nil error is the absent outcome; errors are reserved for
// cancellation.
type Extractor interface {
	Extract(ctx context.Context, url string) (*core.ExtractedContent, error)
}

// Summarizer folds enriched articles into one digest.
type Summarizer interface {
	SummarizeAll(ctx context.Context, articles []core.EnrichedArticle) core.Digest
}

// Options configures a pipeline instance.
type Options struct {
	SearchConfig search.Config

	// MaxConcurrentExtractions caps parallel page fetches within one topic.
	// Zero or negative means unbounded; configuration supplies the default
	// of DefaultMaxConcurrentExtractions.
	MaxConcurrentExtractions int
}

// Pipeline runs Retrieve -> Extract -> Summarize for topics. Stages never
// call back upstream and per-item failures never abort sibling items.
type Pipeline struct {
	provider      search.Provider
	extractor     Extractor
	summarizer    Summarizer
	searchConfig  search.Config
	maxConcurrent int
}

// New creates a pipeline from its three stage dependencies.
func New(provider search.Provider, extractor Extractor, summarizer Summarizer, opts Options) *Pipeline {
	return &Pipeline{
		provider:      provider,
		extractor:     extractor,
		summarizer:    summarizer,
		searchConfig:  opts.SearchConfig,
		maxConcurrent: opts.MaxConcurrentExtractions,
	}
}

// Collect runs the free half of a topic: search for candidates, extract
// every candidate's page concurrently, join extractions back onto their
// candidates in the original order, and drop the empties. The returned
// articles are not yet stamped with the topic. candidates reports how many
// deduplicated links were attempted; an empty slice with a nil error means
// the topic legitimately yielded nothing, and the error return covers
// retrieval failure and cancellation only.
func (p *Pipeline) Collect(ctx context.Context, topic string, searchTerms []string) (articles []core.EnrichedArticle, candidates int, err error) {
	query := buildQuery(topic, searchTerms)
	logger.Info("Processing topic", "topic", topic, "query", query)

	found, err := p.provider.Search(ctx, query, p.searchConfig)
	if err != nil {
		return nil, 0, fmt.Errorf("retrieving articles for topic %q: %w", topic, err)
	}
	if len(found) == 0 {
		logger.Warn("No news articles found", "topic", topic)
		return []core.EnrichedArticle{}, 0, nil
	}
	found = dedupeCandidates(found)

	extracted := p.extractAll(ctx, found)
	if err := ctx.Err(); err != nil {
		return nil, len(found), err
	}

	enriched := make([]core.EnrichedArticle, 0, len(found))
	for i, candidate := range found {
		content := extracted[i]
		if content == nil || strings.TrimSpace(content.Body) == "" {
			continue
		}
		enriched = append(enriched, core.Enrich(candidate, *content))
	}
	if len(enriched) == 0 {
		logger.Warn("No content extracted", "topic", topic, "candidates", len(found))
	}
	return enriched, len(found), nil
}

// RunTopic processes one topic end to end: collect the topic's readable
// articles, summarize them, and stamp the survivors with the topic and
// processing time. An empty result with a nil error means the topic
// legitimately yielded nothing; the error return covers retrieval failure
// and cancellation only.
func (p *Pipeline) RunTopic(ctx context.Context, topic string, searchTerms []string) (core.TopicResult, error) {
	result := core.TopicResult{Topic: topic, Articles: []core.EnrichedArticle{}}

	enriched, candidates, err := p.Collect(ctx, topic, searchTerms)
	result.CandidateCount = candidates
	if err != nil {
		return result, err
	}
	if len(enriched) == 0 {
		return result, nil
	}

	digest := p.summarizer.SummarizeAll(ctx, enriched)
	digest.Topic = topic

	processedAt := time.Now().UTC()
	for i := range enriched {
		enriched[i].Topic = topic
		enriched[i].ProcessedAt = processedAt
	}

	result.Articles = enriched
	result.Digest = digest
	logger.Info("Topic processed",
		"topic", topic, "articles", len(enriched), "chunks", digest.ChunkCount)
	return result, nil
}

// RunAllTopics processes every topic in name order. A topic's failure
// degrades to an empty result under its key and never aborts the others.
func (p *Pipeline) RunAllTopics(ctx context.Context, topics map[string][]string) map[string]core.TopicResult {
	results := make(map[string]core.TopicResult, len(topics))

	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		result, err := p.RunTopic(ctx, name, topics[name])
		if err != nil {
			logger.Error("Topic processing failed", err, "topic", name)
			results[name] = core.TopicResult{Topic: name, Articles: []core.EnrichedArticle{}}
			continue
		}
		results[name] = result
	}

	return results
}

// extractAll fetches every candidate's page and returns the results
// index-aligned with candidates, so the caller's join preserves retrieval
// order. Failed or empty extractions leave a nil slot.
func (p *Pipeline) extractAll(ctx context.Context, candidates []core.CandidateArticle) []*core.ExtractedContent {
	extracted := make([]*core.ExtractedContent, len(candidates))

	var sem chan struct{}
	if p.maxConcurrent > 0 {
		sem = make(chan struct{}, p.maxConcurrent)
	}
	var wg sync.WaitGroup

	for i := range candidates {
		wg.Add(1)
		if sem != nil {
			sem <- struct{}{} // Acquire semaphore
		}

		go func(i int, link string) {
			defer wg.Done()
			if sem != nil {
				defer func() { <-sem }() // Release semaphore
			}

			content, err := p.extractor.Extract(ctx, link)
			if err != nil {
				logger.Debug("Extraction aborted", "link", link, "error", err.Error())
				return
			}
			extracted[i] = content
		}(i, candidates[i].Link)
	}
	wg.Wait()

	return extracted
}

// buildQuery forms the provider query for a topic. Search terms are OR-joined
// so any of them may match; a topic without terms searches its own name.
func buildQuery(topic string, searchTerms []string) string {
	terms := make([]string, 0, len(searchTerms))
	for _, raw := range searchTerms {
		if term := strings.TrimSpace(raw); term != "" {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return topic
	}
	return strings.Join(terms, " OR ")
}

// dedupeCandidates drops repeated links, keeping the first occurrence.
func dedupeCandidates(candidates []core.CandidateArticle) []core.CandidateArticle {
	seen := make(map[string]struct{}, len(candidates))
	deduped := make([]core.CandidateArticle, 0, len(candidates))
	for _, candidate := range candidates {
		if _, dup := seen[candidate.Link]; dup {
			logger.Debug("Skipping duplicate candidate link", "link", candidate.Link)
			continue
		}
		seen[candidate.Link] = struct{}{}
		deduped = append(deduped, candidate)
	}
	return deduped
}
