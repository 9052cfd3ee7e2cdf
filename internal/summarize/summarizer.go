// Package summarize turns extracted articles into a single topic digest by
// summarizing token-bounded chunks and folding the results together.
package summarize

import (
	"context"
	"strings"
	"time"

	"newsbrief/internal/chunker"
	"newsbrief/internal/core"
	"newsbrief/internal/logger"

	"github.com/google/uuid"
)

// Generator is the text-generation capability the summarizer depends on.
// llm.Client satisfies it; tests substitute a scripted implementation.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GetModelName() string
}

// Summarizer produces digests from enriched articles.
type Summarizer struct {
	generator Generator
	chunker   *chunker.Chunker
}

// New creates a summarizer that partitions input with the given chunker and
// generates prose with the given generator.
func New(generator Generator, c *chunker.Chunker) *Summarizer {
	return &Summarizer{
		generator: generator,
		chunker:   c,
	}
}

// SummarizeChunk runs the digest prompt over one chunk's formatted text and
// returns the generated summary. Any failure, including an empty model
// response, comes back as an error; callers skip the chunk and move on.
func (s *Summarizer) SummarizeChunk(ctx context.Context, chunkText string) (string, error) {
	summary, err := s.generator.Generate(ctx, BuildDigestPrompt(chunkText))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

// SummarizeAll produces one digest for the full article set: partition into
// chunks, summarize each chunk independently in order, then fold multiple
// chunk summaries into a final text with one more generation pass. Failures
// never abort sibling chunks; when nothing usable comes back the digest
// carries a sentinel summary instead.
func (s *Summarizer) SummarizeAll(ctx context.Context, articles []core.EnrichedArticle) core.Digest {
	digest := core.Digest{
		ID:             uuid.NewString(),
		SourceArticles: articles,
		ModelUsed:      s.generator.GetModelName(),
		GeneratedAt:    time.Now().UTC(),
	}

	if len(articles) == 0 {
		logger.Warn("No articles provided for summarization")
		digest.SummaryText = core.SummaryNoArticles
		return digest
	}

	chunks := s.chunker.Split(articles)
	digest.ChunkCount = len(chunks)
	logger.Info("Starting batch summarization",
		"articles", len(articles), "chunks", len(chunks))

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := s.SummarizeChunk(ctx, chunk.Text())
		if err != nil {
			logger.Error("Chunk summarization failed", err,
				"chunk", i+1, "chunks", len(chunks), "chunk_articles", len(chunk.Articles))
			continue
		}
		summaries = append(summaries, summary)
	}

	switch len(summaries) {
	case 0:
		logger.Error("No chunk summaries generated", nil, "chunks", len(chunks))
		digest.SummaryText = core.SummaryFailed
	case 1:
		digest.SummaryText = summaries[0]
	default:
		combined, err := s.SummarizeChunk(ctx, strings.Join(summaries, core.BlockSeparator))
		if err != nil {
			logger.Error("Failed to combine chunk summaries", err, "summaries", len(summaries))
			digest.SummaryText = core.SummaryCombineFailed
			return digest
		}
		digest.SummaryText = combined
	}

	return digest
}
