package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"newsbrief/internal/core"
	"newsbrief/internal/delivery"
	"newsbrief/internal/email"
	"newsbrief/internal/logger"
	"newsbrief/internal/render"
)

// Store is the persistence surface the weekly job needs. store.Store
// satisfies it.
type Store interface {
	ListTopics(ctx context.Context, activeOnly bool) ([]core.Topic, error)
	ListSubscribers(ctx context.Context, topic string, activeOnly bool) ([]core.Subscriber, error)
	SaveArticles(ctx context.Context, articles []core.EnrichedArticle) error
	SaveDigest(ctx context.Context, digest core.Digest) error
}

// JobOptions tunes one digest-and-deliver run.
type JobOptions struct {
	EmailEnabled       bool
	SenderName         string
	SenderEmail        string
	UnsubscribeBaseURL string
	OutputDir          string // when set, usable digests are exported as markdown
}

// Job runs the full weekly flow: read active topics from the store, run the
// pipeline, persist the results, export files, and email subscribers.
type Job struct {
	pipeline  *Pipeline
	store     Store
	transport delivery.Transport
	opts      JobOptions
}

// NewJob wires a job. transport may be nil when email delivery is disabled.
func NewJob(p *Pipeline, store Store, transport delivery.Transport, opts JobOptions) *Job {
	return &Job{
		pipeline:  p,
		store:     store,
		transport: transport,
		opts:      opts,
	}
}

// Run executes the scheduled weekly job. Without at least one active
// subscriber the run is skipped entirely; topics without search terms are
// skipped individually.
func (j *Job) Run(ctx context.Context) error {
	logger.Info("Starting news processing job")

	subscribers, err := j.store.ListSubscribers(ctx, "", true)
	if err != nil {
		return fmt.Errorf("listing subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		logger.Info("No active subscribers, skipping run")
		return nil
	}

	topics, err := j.ActiveTopics(ctx)
	if err != nil {
		return err
	}
	if len(topics) == 0 {
		logger.Warn("No valid topics found for processing")
		return nil
	}

	if _, err := j.RunTopics(ctx, topics); err != nil {
		return err
	}

	logger.Info("News processing job completed")
	return nil
}

// ActiveTopics reads the active topics eligible for a run: name mapped to
// search terms, minus topics with no terms configured.
func (j *Job) ActiveTopics(ctx context.Context) (map[string][]string, error) {
	topics, err := j.store.ListTopics(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing topics: %w", err)
	}

	eligible := make(map[string][]string, len(topics))
	for _, topic := range topics {
		if len(topic.SearchTerms) == 0 {
			logger.Warn("Topic has no search terms, skipping", "topic", topic.Name)
			continue
		}
		eligible[topic.Name] = topic.SearchTerms
	}

	return eligible, nil
}

// RunTopics runs the pipeline over the given topics, persists articles and
// usable digests, exports markdown when configured, and delivers email to
// each topic's active subscribers. Per-topic and per-subscriber failures are
// logged and skipped; the returned error covers cancellation only.
func (j *Job) RunTopics(ctx context.Context, topics map[string][]string) (map[string]core.TopicResult, error) {
	results := j.pipeline.RunAllTopics(ctx, topics)
	if err := ctx.Err(); err != nil {
		return results, err
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		result := results[name]

		if len(result.Articles) > 0 {
			if err := j.store.SaveArticles(ctx, result.Articles); err != nil {
				logger.Error("Failed to store articles", err, "topic", name)
			} else {
				logger.Info("Stored articles", "topic", name, "count", len(result.Articles))
			}
		}

		if !result.Digest.Usable() {
			logger.Warn("No usable digest for topic", "topic", name)
			continue
		}

		if err := j.store.SaveDigest(ctx, result.Digest); err != nil {
			logger.Error("Failed to store digest", err, "topic", name)
		}

		if j.opts.OutputDir != "" {
			if path, err := render.WriteMarkdownDigest(result.Digest, j.opts.OutputDir); err != nil {
				logger.Error("Failed to export digest", err, "topic", name)
			} else {
				logger.Info("Exported digest", "topic", name, "path", path)
			}
		}

		j.deliverDigest(ctx, name, result.Digest)
	}

	return results, ctx.Err()
}

// deliverDigest emails one topic's digest to its active subscribers.
func (j *Job) deliverDigest(ctx context.Context, topic string, digest core.Digest) {
	if !j.opts.EmailEnabled || j.transport == nil {
		return
	}

	subscribers, err := j.store.ListSubscribers(ctx, topic, true)
	if err != nil {
		logger.Error("Failed to list subscribers", err, "topic", topic)
		return
	}
	if len(subscribers) == 0 {
		logger.Info("No subscribers for topic", "topic", topic)
		return
	}

	logger.Info("Starting email distribution", "topic", topic, "subscribers", len(subscribers))
	sent := 0
	for _, subscriber := range subscribers {
		if err := ctx.Err(); err != nil {
			return
		}

		unsubscribe := email.UnsubscribeLink(j.opts.UnsubscribeBaseURL, subscriber.Email)
		html, err := email.RenderHTMLEmail(email.ConvertDigest(digest, unsubscribe))
		if err != nil {
			logger.Error("Failed to render email", err, "topic", topic, "to", subscriber.Email)
			continue
		}

		msg := delivery.Message{
			SenderName:  j.opts.SenderName,
			SenderEmail: j.opts.SenderEmail,
			To:          subscriber.Email,
			ToName:      subscriber.Name,
			Subject:     email.Subject(topic),
			HTMLContent: html,
		}
		if err := j.transport.Send(ctx, msg); err != nil {
			logger.Error("Failed to send email", err, "topic", topic, "to", subscriber.Email)
			continue
		}
		sent++
		logger.Info("Sent digest email", "topic", topic, "to", subscriber.Email)
	}
	logger.Info("Email distribution completed", "topic", topic, "sent", sent)
}

// buildTopicsFilter narrows a topics map to one name. The lookup is
// case-insensitive so CLI input matches stored names loosely.
func buildTopicsFilter(topics map[string][]string, only string) (map[string][]string, error) {
	if only == "" {
		return topics, nil
	}
	for name, terms := range topics {
		if strings.EqualFold(name, only) {
			return map[string][]string{name: terms}, nil
		}
	}
	return nil, fmt.Errorf("topic %q is not an active topic with search terms", only)
}

// FilterTopic narrows the active topics to a single named topic.
func (j *Job) FilterTopic(ctx context.Context, only string) (map[string][]string, error) {
	topics, err := j.ActiveTopics(ctx)
	if err != nil {
		return nil, err
	}
	return buildTopicsFilter(topics, only)
}
