// Package store persists topics, subscribers, processed articles, and
// generated digests in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"newsbrief/internal/core"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite database holding all durable pipeline state.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "newsbrief.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:   db,
		path: dbPath,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables
func (s *Store) initialize() error {
	topicsTable := `
	CREATE TABLE IF NOT EXISTS topics (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		search_terms TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME
	);`

	subscribersTable := `
	CREATE TABLE IF NOT EXISTS subscribers (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		name TEXT,
		topic TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME,
		UNIQUE (email, topic)
	);`

	// Articles are keyed by (link, topic) so re-running a topic replaces the
	// stored snapshot of each article instead of accumulating duplicates.
	articlesTable := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT NOT NULL,
		topic TEXT NOT NULL,
		title TEXT,
		link TEXT NOT NULL,
		source TEXT,
		published_date TEXT,
		snippet TEXT,
		thumbnail TEXT,
		body TEXT,
		processed_at DATETIME,
		status TEXT,
		PRIMARY KEY (link, topic)
	);`

	digestsTable := `
	CREATE TABLE IF NOT EXISTS digests (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		summary_text TEXT,
		chunk_count INTEGER,
		model_used TEXT,
		generated_at DATETIME
	);`

	tables := []string{topicsTable, subscribersTable, articlesTable, digestsTable}
	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// AddTopic inserts a topic, updating search terms and active state when a
// topic with the same name already exists. The ID and creation time are
// filled in when the caller leaves them zero.
func (s *Store) AddTopic(ctx context.Context, topic core.Topic) error {
	if topic.ID == "" {
		topic.ID = uuid.NewString()
	}
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = time.Now().UTC()
	}
	terms, _ := json.Marshal(topic.SearchTerms)

	query := `
	INSERT INTO topics (id, name, search_terms, is_active, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (name) DO UPDATE
	SET search_terms = excluded.search_terms,
	    is_active = excluded.is_active`

	_, err := s.db.ExecContext(ctx, query,
		topic.ID,
		topic.Name,
		string(terms),
		topic.IsActive,
		topic.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save topic: %w", err)
	}

	return nil
}

// ListTopics returns topics ordered by name, optionally only active ones.
func (s *Store) ListTopics(ctx context.Context, activeOnly bool) ([]core.Topic, error) {
	builder := sq.Select("id", "name", "search_terms", "is_active", "created_at").
		From("topics").
		OrderBy("name")
	if activeOnly {
		builder = builder.Where(sq.Eq{"is_active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build topics query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	var topics []core.Topic
	for rows.Next() {
		var topic core.Topic
		var terms string
		if err := rows.Scan(&topic.ID, &topic.Name, &terms, &topic.IsActive, &topic.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		json.Unmarshal([]byte(terms), &topic.SearchTerms)
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read topics: %w", err)
	}

	return topics, nil
}

// SetTopicActive toggles a topic's active flag by name.
func (s *Store) SetTopicActive(ctx context.Context, name string, active bool) error {
	result, err := s.db.ExecContext(ctx, "UPDATE topics SET is_active = ? WHERE name = ?", active, name)
	if err != nil {
		return fmt.Errorf("failed to update topic: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("topic %q not found", name)
	}

	return nil
}

// AddSubscriber inserts a subscriber, updating name and status when the same
// email is already subscribed to the topic.
func (s *Store) AddSubscriber(ctx context.Context, sub core.Subscriber) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.Status == "" {
		sub.Status = core.SubscriberActive
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO subscribers (id, email, name, topic, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (email, topic) DO UPDATE
	SET name = excluded.name,
	    status = excluded.status`

	_, err := s.db.ExecContext(ctx, query,
		sub.ID,
		sub.Email,
		sub.Name,
		sub.Topic,
		sub.Status,
		sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save subscriber: %w", err)
	}

	return nil
}

// ListSubscribers returns subscribers ordered by email. An empty topic
// matches every topic; activeOnly filters out unsubscribed entries.
func (s *Store) ListSubscribers(ctx context.Context, topic string, activeOnly bool) ([]core.Subscriber, error) {
	builder := sq.Select("id", "email", "name", "topic", "status", "created_at").
		From("subscribers").
		OrderBy("email")
	if topic != "" {
		builder = builder.Where(sq.Eq{"topic": topic})
	}
	if activeOnly {
		builder = builder.Where(sq.Eq{"status": core.SubscriberActive})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build subscribers query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	var subs []core.Subscriber
	for rows.Next() {
		var sub core.Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.Name, &sub.Topic, &sub.Status, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subscribers: %w", err)
	}

	return subs, nil
}

// SetSubscriberStatus updates the status of one email's subscription to a
// topic, e.g. marking it unsubscribed.
func (s *Store) SetSubscriberStatus(ctx context.Context, email, topic, status string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE subscribers SET status = ? WHERE email = ? AND topic = ?",
		status, email, topic,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscriber: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("subscriber %q for topic %q not found", email, topic)
	}

	return nil
}

// SaveArticles persists one run's enriched articles in a single transaction.
// Rows are replaced on (link, topic) so repeat runs refresh the stored
// snapshot.
func (s *Store) SaveArticles(ctx context.Context, articles []core.EnrichedArticle) error {
	if len(articles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT OR REPLACE INTO articles
	(id, topic, title, link, source, published_date, snippet, thumbnail, body, processed_at, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare article insert: %w", err)
	}
	defer stmt.Close()

	for _, article := range articles {
		_, err := stmt.ExecContext(ctx,
			uuid.NewString(),
			article.Topic,
			article.Title,
			article.Link,
			article.Source,
			article.PublishedDate,
			article.Snippet,
			article.Thumbnail,
			article.Body,
			article.ProcessedAt,
			core.ArticleStatusProcessed,
		)
		if err != nil {
			return fmt.Errorf("failed to save article %s: %w", article.Link, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit articles: %w", err)
	}

	return nil
}

// CountArticles returns the number of stored articles for a topic. An empty
// topic counts every article.
func (s *Store) CountArticles(ctx context.Context, topic string) (int, error) {
	builder := sq.Select("COUNT(*)").From("articles")
	if topic != "" {
		builder = builder.Where(sq.Eq{"topic": topic})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}

	return count, nil
}

// SaveDigest stores a generated digest. Source articles are persisted
// separately via SaveArticles.
func (s *Store) SaveDigest(ctx context.Context, digest core.Digest) error {
	query := `
	INSERT OR REPLACE INTO digests
	(id, topic, summary_text, chunk_count, model_used, generated_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		digest.ID,
		digest.Topic,
		digest.SummaryText,
		digest.ChunkCount,
		digest.ModelUsed,
		digest.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save digest: %w", err)
	}

	return nil
}

// ListDigests returns digests newest first. An empty topic matches every
// topic; limit <= 0 returns all.
func (s *Store) ListDigests(ctx context.Context, topic string, limit int) ([]core.Digest, error) {
	builder := sq.Select("id", "topic", "summary_text", "chunk_count", "model_used", "generated_at").
		From("digests").
		OrderBy("generated_at DESC")
	if topic != "" {
		builder = builder.Where(sq.Eq{"topic": topic})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build digests query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query digests: %w", err)
	}
	defer rows.Close()

	var digests []core.Digest
	for rows.Next() {
		var digest core.Digest
		if err := rows.Scan(
			&digest.ID,
			&digest.Topic,
			&digest.SummaryText,
			&digest.ChunkCount,
			&digest.ModelUsed,
			&digest.GeneratedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan digest: %w", err)
		}
		digests = append(digests, digest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read digests: %w", err)
	}

	return digests, nil
}

// GetDigest retrieves one digest by ID. A missing ID returns (nil, nil).
func (s *Store) GetDigest(ctx context.Context, id string) (*core.Digest, error) {
	query := `
	SELECT id, topic, summary_text, chunk_count, model_used, generated_at
	FROM digests
	WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)

	var digest core.Digest
	err := row.Scan(
		&digest.ID,
		&digest.Topic,
		&digest.SummaryText,
		&digest.ChunkCount,
		&digest.ModelUsed,
		&digest.GeneratedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan digest: %w", err)
	}

	return &digest, nil
}
