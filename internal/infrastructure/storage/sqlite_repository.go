// Package storage persists the article snapshot and the translation cache in
// one embedded SQLite database.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/AbdElbassetKh/PharmaCentral/internal/domain"
	"github.com/AbdElbassetKh/PharmaCentral/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshot_articles (
    id                 TEXT PRIMARY KEY,
    title              TEXT NOT NULL,
    excerpt            TEXT,
    url                TEXT,
    source             TEXT NOT NULL,
    category           TEXT,
    localized_category TEXT,
    tags               TEXT,
    published_at       TIMESTAMP,
    fetched_at         TIMESTAMP,
    localized_title    TEXT,
    localized_excerpt  TEXT,
    position           INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot_meta (
    name  TEXT PRIMARY KEY,
    value TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS translations (
    key         TEXT PRIMARY KEY,
    original    TEXT,
    translation TEXT NOT NULL,
    created_at  TIMESTAMP NOT NULL
);`

const lastUpdateKey = "last_update"

// SQLiteRepository implements both persistence ports on one database handle.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.SnapshotRepository = (*SQLiteRepository)(nil)
var _ ports.TranslationRepository = (*SQLiteRepository)(nil)

// Open creates (or reuses) the database file and bootstraps the schema.
func Open(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveSnapshot replaces the persisted article list wholesale and records the
// refresh timestamp, all in one transaction.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, articles []domain.Article, lastUpdate time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := sq.Delete("snapshot_articles").RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	insert := sq.Insert("snapshot_articles").Columns(
		"id", "title", "excerpt", "url", "source", "category",
		"localized_category", "tags", "published_at", "fetched_at",
		"localized_title", "localized_excerpt", "position",
	)
	for i, a := range articles {
		tags, err := json.Marshal(a.Tags)
		if err != nil {
			return fmt.Errorf("encode tags for %s: %w", a.ID, err)
		}
		insert = insert.Values(
			a.ID, a.Title, a.Excerpt, a.URL, a.Source, a.Category,
			a.LocalizedCategory, string(tags), a.PublishedAt, a.FetchedAt,
			a.LocalizedTitle, a.LocalizedExcerpt, i,
		)
	}
	if len(articles) > 0 {
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}

	_, err = sq.Insert("snapshot_meta").Columns("name", "value").
		Values(lastUpdateKey, lastUpdate).
		Suffix("ON CONFLICT(name) DO UPDATE SET value = excluded.value").
		RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("record last update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the persisted articles in their saved order together
// with the refresh timestamp. An empty database yields an empty list and a
// zero time, not an error.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context) ([]domain.Article, time.Time, error) {
	var lastUpdate time.Time
	err := sq.Select("value").From("snapshot_meta").
		Where(sq.Eq{"name": lastUpdateKey}).
		RunWith(r.db).QueryRowContext(ctx).Scan(&lastUpdate)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read last update: %w", err)
	}

	rows, err := sq.Select(
		"id", "title", "excerpt", "url", "source", "category",
		"localized_category", "tags", "published_at", "fetched_at",
		"localized_title", "localized_excerpt",
	).From("snapshot_articles").OrderBy("position").
		RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var a domain.Article
		var tags string
		err := rows.Scan(
			&a.ID, &a.Title, &a.Excerpt, &a.URL, &a.Source, &a.Category,
			&a.LocalizedCategory, &tags, &a.PublishedAt, &a.FetchedAt,
			&a.LocalizedTitle, &a.LocalizedExcerpt,
		)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("scan article: %w", err)
		}
		if tags != "" {
			if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
				return nil, time.Time{}, fmt.Errorf("decode tags for %s: %w", a.ID, err)
			}
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterate snapshot: %w", err)
	}

	return articles, lastUpdate, nil
}

// Get returns a cached translation entry by key.
func (r *SQLiteRepository) Get(ctx context.Context, key string) (domain.TranslationEntry, bool, error) {
	var entry domain.TranslationEntry
	err := sq.Select("key", "original", "translation", "created_at").
		From("translations").Where(sq.Eq{"key": key}).
		RunWith(r.db).QueryRowContext(ctx).
		Scan(&entry.Key, &entry.Original, &entry.Translation, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.TranslationEntry{}, false, nil
	}
	if err != nil {
		return domain.TranslationEntry{}, false, fmt.Errorf("read translation: %w", err)
	}
	return entry, true, nil
}

// Put upserts one translation entry.
func (r *SQLiteRepository) Put(ctx context.Context, entry domain.TranslationEntry) error {
	_, err := sq.Insert("translations").
		Columns("key", "original", "translation", "created_at").
		Values(entry.Key, entry.Original, entry.Translation, entry.CreatedAt).
		Suffix("ON CONFLICT(key) DO UPDATE SET original = excluded.original, translation = excluded.translation, created_at = excluded.created_at").
		RunWith(r.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("upsert translation: %w", err)
	}
	return nil
}

// Delete purges one expired entry; missing keys are not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := sq.Delete("translations").Where(sq.Eq{"key": key}).
		RunWith(r.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("delete translation: %w", err)
	}
	return nil
}
