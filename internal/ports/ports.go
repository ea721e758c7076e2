package ports

import (
	"context"
	"time"

	"github.com/AbdElbassetKh/PharmaCentral/internal/domain"
)

// SourceFetcher pulls and normalizes articles for one configured source,
// walking the relay cascade before a last-resort direct connection.
type SourceFetcher interface {
	Fetch(ctx context.Context, source domain.Source) ([]domain.Article, error)
}

// FeedParser converts a tagged payload into normalized articles. Malformed
// entries are skipped, never fatal to the batch.
type FeedParser interface {
	Parse(payload domain.Payload, source domain.Source) []domain.Article
}

// Translator produces a translation for one text; implementations degrade to
// returning the input unchanged rather than failing.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// SnapshotRepository persists the full article collection between runs.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, articles []domain.Article, lastUpdate time.Time) error
	LoadSnapshot(ctx context.Context) ([]domain.Article, time.Time, error)
}

// TranslationRepository persists accepted translations keyed by text digest.
type TranslationRepository interface {
	Get(ctx context.Context, key string) (domain.TranslationEntry, bool, error)
	Put(ctx context.Context, entry domain.TranslationEntry) error
	Delete(ctx context.Context, key string) error
}

// ProgressSink receives pipeline progress events for the presentation layer.
type ProgressSink interface {
	RefreshProgress(succeeded, failed int)
	TranslationProgress(processed, total int)
}

// Notifier delivers terminal success/failure notifications out of band.
type Notifier interface {
	Publish(ctx context.Context, message string) error
}

// Scheduler controls the recurring background refresh.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
