// Package chunker partitions extracted articles into token-bounded chunks.
package chunker

import (
	"newsbrief/internal/core"
	"newsbrief/internal/logger"
	"newsbrief/internal/tokens"
)

// DefaultMaxTokens is the fallback chunk budget when none is configured.
const DefaultMaxTokens = 50000

// CountFunc estimates the token count of one rendered article block.
type CountFunc func(text string) int

// Chunker groups articles greedily so each chunk's combined formatted text
// stays within a token budget. Input order is preserved and the same input
// always yields the same partition.
type Chunker struct {
	maxTokens int
	count     CountFunc
}

// New creates a chunker with the given budget and the standard token
// estimator. A zero or negative budget falls back to DefaultMaxTokens.
func New(maxTokens int) *Chunker {
	return NewWithCounter(maxTokens, tokens.Estimate)
}

// NewWithCounter creates a chunker with a caller-supplied token counter.
func NewWithCounter(maxTokens int, count CountFunc) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if count == nil {
		count = tokens.Estimate
	}
	return &Chunker{
		maxTokens: maxTokens,
		count:     count,
	}
}

// Split partitions articles into chunks without reordering or splitting any
// article. An article is added to the current chunk unless it would push the
// chunk over budget while the chunk already holds something; then the chunk
// is closed and the article starts the next one. An article that exceeds the
// budget on its own still gets placed, alone in its own chunk.
func (c *Chunker) Split(articles []core.EnrichedArticle) []core.Chunk {
	if len(articles) == 0 {
		return nil
	}

	var chunks []core.Chunk
	var current []core.EnrichedArticle
	currentTokens := 0

	for _, article := range articles {
		articleTokens := c.count(article.FormattedText())
		if currentTokens+articleTokens > c.maxTokens && len(current) > 0 {
			chunks = append(chunks, core.Chunk{Articles: current, TokenCount: currentTokens})
			current = nil
			currentTokens = 0
		}
		current = append(current, article)
		currentTokens += articleTokens

		if articleTokens > c.maxTokens {
			logger.Warn("Article alone exceeds chunk budget",
				"link", article.Link, "tokens", articleTokens, "max_tokens", c.maxTokens)
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, core.Chunk{Articles: current, TokenCount: currentTokens})
	}

	logger.Debug("Partitioned articles into chunks",
		"articles", len(articles), "chunks", len(chunks), "max_tokens", c.maxTokens)
	return chunks
}
