package core

import (
	"strings"
	"time"
)

// CandidateArticle is a single normalized search result for a topic.
// It is ephemeral: produced by the retriever, consumed within one pipeline run.
type CandidateArticle struct {
	Title         string `json:"title"`          // Headline as reported by the search provider
	Link          string `json:"link"`           // Article URL; unique key for the join step
	Source        string `json:"source"`         // Publisher name
	PublishedDate string `json:"published_date"` // Free-text or ISO date from the provider
	Snippet       string `json:"snippet"`        // Short preview text
	Thumbnail     string `json:"thumbnail"`      // Thumbnail image URL, often empty
}

// ExtractedContent is the readable content recovered from an article page.
// A nil ExtractedContent means extraction produced nothing usable; that is a
// valid outcome, not an error.
type ExtractedContent struct {
	Title string `json:"title"` // Title found in the page markup; may override the candidate's
	Body  string `json:"body"`  // Cleaned plain-text body
	Link  string `json:"link"`  // URL the content was extracted from
}

// EnrichedArticle merges a CandidateArticle with its ExtractedContent and the
// processing metadata stamped by the orchestrator. It is the unit the chunker
// and summarizer operate on. Articles entering the chunker always have a
// non-empty Body.
type EnrichedArticle struct {
	Title         string    `json:"title"`
	Link          string    `json:"link"`
	Source        string    `json:"source"`
	PublishedDate string    `json:"published_date"`
	Snippet       string    `json:"snippet"`
	Thumbnail     string    `json:"thumbnail"`
	Body          string    `json:"body"`
	Topic         string    `json:"topic"`        // Topic name, stamped after summarization
	ProcessedAt   time.Time `json:"processed_at"` // UTC instant of the pipeline run
}

// Enrich joins a candidate with its extracted content by explicit field copy.
// The extracted title wins over the candidate's when non-empty.
func Enrich(candidate CandidateArticle, content ExtractedContent) EnrichedArticle {
	title := candidate.Title
	if content.Title != "" {
		title = content.Title
	}
	return EnrichedArticle{
		Title:         title,
		Link:          candidate.Link,
		Source:        candidate.Source,
		PublishedDate: candidate.PublishedDate,
		Snippet:       candidate.Snippet,
		Thumbnail:     candidate.Thumbnail,
		Body:          content.Body,
	}
}

// BlockSeparator joins per-article formatted blocks inside one chunk. The same
// separator joins per-chunk summaries before the combine pass, so the model
// always sees the same visual structure.
const BlockSeparator = "\n\n---\n\n"

// FormattedText renders the canonical block for one article. The chunker
// counts tokens over this exact rendering and the summarizer submits it
// verbatim, so budget estimates stay representative of what the model sees.
func (a EnrichedArticle) FormattedText() string {
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(a.Title)
	b.WriteString("\nSource: ")
	b.WriteString(a.Source)
	b.WriteString("\nDate: ")
	b.WriteString(a.PublishedDate)
	b.WriteString("\nContent: ")
	b.WriteString(a.Body)
	b.WriteString("\nLink: ")
	b.WriteString(a.Link)
	return b.String()
}

// Chunk is an ordered, non-empty group of articles whose combined formatted
// text fits the configured token budget. The only permitted overflow is a
// chunk holding exactly one oversized article.
type Chunk struct {
	Articles   []EnrichedArticle `json:"articles"`
	TokenCount int               `json:"token_count"` // Sum of the members' estimated token counts
}

// Text concatenates the formatted blocks of all articles in the chunk.
func (c Chunk) Text() string {
	blocks := make([]string, 0, len(c.Articles))
	for _, a := range c.Articles {
		blocks = append(blocks, a.FormattedText())
	}
	return strings.Join(blocks, BlockSeparator)
}

// Sentinel summary values. Downstream code must detect these explicitly; a
// digest carrying one of them has no usable summary text.
const (
	SummaryNoArticles    = "No articles to summarize"
	SummaryFailed        = "Failed to generate summary"
	SummaryCombineFailed = "Failed to combine chunk summaries"
)

// IsSentinelSummary reports whether text is one of the well-known failure
// values rather than generated prose.
func IsSentinelSummary(text string) bool {
	switch text {
	case SummaryNoArticles, SummaryFailed, SummaryCombineFailed:
		return true
	}
	return false
}

// Digest is the terminal output for one topic: the combined summary plus the
// full article set it was generated from.
type Digest struct {
	ID             string            `json:"id"`
	Topic          string            `json:"topic"`
	SummaryText    string            `json:"summary_text"` // HTML prose, or a sentinel value
	SourceArticles []EnrichedArticle `json:"source_articles"`
	ChunkCount     int               `json:"chunk_count"` // Chunks the input was partitioned into
	ModelUsed      string            `json:"model_used"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// Usable reports whether the digest carries generated prose worth delivering.
func (d Digest) Usable() bool {
	return d.SummaryText != "" && !IsSentinelSummary(d.SummaryText)
}

// Topic is a named subject with search terms, owned by the topic store.
type Topic struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SearchTerms []string  `json:"search_terms"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Subscriber statuses as stored.
const (
	SubscriberActive       = "active"
	SubscriberUnsubscribed = "unsubscribed"
)

// Subscriber is a delivery recipient for one topic, owned by the subscriber
// store. The pipeline only reads active subscribers.
type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Topic     string    `json:"topic"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ArticleStatusProcessed marks persisted article records written by a
// completed pipeline run.
const ArticleStatusProcessed = "processed"

// TopicResult is what one topic's pipeline run produces. A failed topic
// degrades to an empty Articles slice and a zero Digest.
type TopicResult struct {
	Topic          string            `json:"topic"`
	CandidateCount int               `json:"candidate_count"` // Unique search results before extraction
	Articles       []EnrichedArticle `json:"articles"`
	Digest         Digest            `json:"digest"`
}
