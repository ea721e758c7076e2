package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AbdElbassetKh/PharmaCentral/internal/domain"
	"github.com/AbdElbassetKh/PharmaCentral/internal/ports"
	"github.com/AbdElbassetKh/PharmaCentral/internal/session"
)

// StoreDeps wires all collaborators into the article store.
type StoreDeps struct {
	Fetcher     ports.SourceFetcher
	Repository  ports.SnapshotRepository
	Sink        ports.ProgressSink
	Notifier    ports.Notifier
	Session     *session.Session
	Sources     []domain.Source
	SnapshotTTL time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// ArticleStore owns the current article collection: concurrent fan-out
// refresh across all sources, persistence, and aggregate views. Writes are
// guarded by a mutex since fetches run on real goroutines.
type ArticleStore struct {
	fetcher     ports.SourceFetcher
	repo        ports.SnapshotRepository
	sink        ports.ProgressSink
	notifier    ports.Notifier
	session     *session.Session
	sources     []domain.Source
	snapshotTTL time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu          sync.RWMutex
	articles    []domain.Article
	lastRefresh time.Time
}

// NewArticleStore constructs the store.
func NewArticleStore(deps StoreDeps) *ArticleStore {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.SnapshotTTL <= 0 {
		deps.SnapshotTTL = 24 * time.Hour
	}
	return &ArticleStore{
		fetcher:     deps.Fetcher,
		repo:        deps.Repository,
		sink:        deps.Sink,
		notifier:    deps.Notifier,
		session:     deps.Session,
		sources:     deps.Sources,
		snapshotTTL: deps.SnapshotTTL,
		logger:      deps.Logger,
		now:         deps.Now,
	}
}

type fetchOutcome struct {
	source   domain.Source
	articles []domain.Article
	err      error
}

// RefreshAll fans out one fetch per configured source, waits for every
// outcome, and merges the results. A failed source contributes its
// last-known-good articles instead of silently vanishing from the view; the
// failure only shows up in the progress counts.
func (s *ArticleStore) RefreshAll(ctx context.Context) ([]domain.Article, error) {
	outcomes := make(chan fetchOutcome, len(s.sources))
	for _, src := range s.sources {
		go func(src domain.Source) {
			articles, err := s.fetcher.Fetch(ctx, src)
			outcomes <- fetchOutcome{source: src, articles: articles, err: err}
		}(src)
	}

	bySource := make(map[string][]domain.Article, len(s.sources))
	succeeded, failed := 0, 0
	for range s.sources {
		outcome := <-outcomes
		if outcome.err != nil {
			failed++
			s.warn("source fetch exhausted", "source", outcome.source.Name, "error", outcome.err)
			bySource[outcome.source.Name] = s.lastKnownGood(outcome.source.Name)
			continue
		}
		succeeded++
		bySource[outcome.source.Name] = outcome.articles
	}

	// Deterministic merge order: configured source order, not completion
	// order.
	merged := make([]domain.Article, 0)
	for _, src := range s.sources {
		merged = append(merged, bySource[src.Name]...)
	}

	refreshedAt := s.now()
	s.mu.Lock()
	s.articles = merged
	s.lastRefresh = refreshedAt
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.SaveSnapshot(ctx, merged, refreshedAt); err != nil {
			s.warn("snapshot save failed", "error", err)
		}
	}

	if s.sink != nil {
		s.sink.RefreshProgress(succeeded, failed)
	}
	s.notify(ctx, succeeded, failed)

	return merged, nil
}

// Load restores the persisted snapshot. Snapshots older than the expiry
// window are discarded and treated as a cache miss; so are read failures.
func (s *ArticleStore) Load(ctx context.Context) bool {
	if s.repo == nil {
		return false
	}

	articles, lastUpdate, err := s.repo.LoadSnapshot(ctx)
	if err != nil {
		s.warn("snapshot load failed", "error", err)
		return false
	}
	if lastUpdate.IsZero() || s.now().Sub(lastUpdate) > s.snapshotTTL {
		return false
	}

	s.mu.Lock()
	s.articles = articles
	s.lastRefresh = lastUpdate
	s.mu.Unlock()
	return true
}

// Articles returns a copy of the current collection; callers treat it as an
// immutable snapshot.
func (s *ArticleStore) Articles() []domain.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Article, len(s.articles))
	copy(out, s.articles)
	return out
}

// LastRefresh reports when the current collection was ingested.
func (s *ArticleStore) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// Visible applies the session's category filter and page window to the
// current collection.
func (s *ArticleStore) Visible(pageSize int) []domain.Article {
	if pageSize <= 0 {
		pageSize = 12
	}

	category := ""
	page := 1
	if s.session != nil {
		category = s.session.Category()
		page = s.session.Page()
	}

	filtered := make([]domain.Article, 0)
	for _, a := range s.Articles() {
		if category == "" || a.Category == category {
			filtered = append(filtered, a)
		}
	}

	start := (page - 1) * pageSize
	if start >= len(filtered) {
		return nil
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// CategoryCounts groups the current collection by category, descending by
// count.
func (s *ArticleStore) CategoryCounts() []domain.CountBucket {
	localized := map[string]string{}
	return s.countBy(func(a domain.Article) string {
		localized[a.Category] = a.LocalizedCategory
		return a.Category
	}, localized)
}

// SourceCounts groups the current collection by source, descending by count.
func (s *ArticleStore) SourceCounts() []domain.CountBucket {
	localized := map[string]string{}
	for _, src := range s.sources {
		localized[src.Name] = src.LocalizedName
	}
	return s.countBy(func(a domain.Article) string { return a.Source }, localized)
}

func (s *ArticleStore) countBy(key func(domain.Article) string, localized map[string]string) []domain.CountBucket {
	counts := map[string]int{}
	for _, a := range s.Articles() {
		counts[key(a)]++
	}

	buckets := make([]domain.CountBucket, 0, len(counts))
	for label, count := range counts {
		buckets = append(buckets, domain.CountBucket{
			Label:          label,
			LocalizedLabel: localized[label],
			Count:          count,
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Label < buckets[j].Label
	})
	return buckets
}

// ApplyLocalizations merges translated titles and excerpts back onto the
// held collection by article ID. Only the two localized fields are ever
// touched.
func (s *ArticleStore) ApplyLocalizations(localized []domain.Article) {
	byID := make(map[string]domain.Article, len(localized))
	for _, a := range localized {
		byID[a.ID] = a
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.articles {
		if l, ok := byID[s.articles[i].ID]; ok {
			s.articles[i].Localize(l.LocalizedTitle, l.LocalizedExcerpt)
		}
	}
}

// lastKnownGood returns the previously held articles for a source whose
// current fetch failed.
func (s *ArticleStore) lastKnownGood(sourceName string) []domain.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var kept []domain.Article
	for _, a := range s.articles {
		if a.Source == sourceName {
			kept = append(kept, a)
		}
	}
	return kept
}

func (s *ArticleStore) notify(ctx context.Context, succeeded, failed int) {
	if s.notifier == nil {
		return
	}

	var message string
	if s.session != nil && s.session.Language() == session.LanguageArabic {
		message = fmt.Sprintf("اكتمل تحديث الأخبار: %d مصدر ناجح و%d فشل", succeeded, failed)
	} else {
		message = fmt.Sprintf("News refresh finished: %d sources succeeded, %d failed", succeeded, failed)
	}

	if err := s.notifier.Publish(ctx, message); err != nil {
		s.warn("refresh notification failed", "error", err)
	}
}

func (s *ArticleStore) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
