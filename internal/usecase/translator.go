package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/AbdElbassetKh/PharmaCentral/internal/domain"
	"github.com/AbdElbassetKh/PharmaCentral/internal/ports"
)

// TranslationEngine is the consumer-side seam to the provider chain: it
// returns the final text plus whether any provider produced an accepted
// translation.
type TranslationEngine interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, bool)
}

// QueueOptions paces the queue; zero values fall back to defaults.
type QueueOptions struct {
	BatchSize  int
	BatchDelay time.Duration
	ItemDelay  time.Duration
}

func (o QueueOptions) withDefaults() QueueOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = 3
	}
	if o.BatchDelay <= 0 {
		o.BatchDelay = 2 * time.Second
	}
	if o.ItemDelay <= 0 {
		o.ItemDelay = 1500 * time.Millisecond
	}
	return o
}

// TranslationQueue batches pending translation requests. Batch mode drains
// fixed-size batches concurrently with an inter-batch delay; sequential mode
// translates one item at a time so the caller can update incrementally. Both
// consult the cache before touching any provider.
type TranslationQueue struct {
	engine TranslationEngine
	cache  *TranslationCache
	sink   ports.ProgressSink
	stats  *domain.PipelineStats
	logger *slog.Logger
	opts   QueueOptions

	mu        sync.Mutex
	pending   []*queueItem
	total     int
	processed int
	draining  bool
}

type queueItem struct {
	text       string
	sourceLang string
	targetLang string
	done       chan string
}

// NewTranslationQueue wires the queue to its engine, cache, and sink.
func NewTranslationQueue(engine TranslationEngine, cache *TranslationCache, sink ports.ProgressSink, stats *domain.PipelineStats, opts QueueOptions, logger *slog.Logger) *TranslationQueue {
	if stats == nil {
		stats = &domain.PipelineStats{}
	}
	return &TranslationQueue{
		engine: engine,
		cache:  cache,
		sink:   sink,
		stats:  stats,
		logger: logger,
		opts:   opts.withDefaults(),
	}
}

// Stats exposes the lifetime translation counters.
func (q *TranslationQueue) Stats() *domain.PipelineStats {
	return q.stats
}

// Request is one pending translation for batch mode.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
}

// Translate enqueues one text for batch-mode translation and returns a
// channel carrying the final text. A cache hit resolves immediately without
// any queue interaction.
func (q *TranslationQueue) Translate(ctx context.Context, text, sourceLang, targetLang string) <-chan string {
	return q.TranslateBatch(ctx, []Request{{Text: text, SourceLang: sourceLang, TargetLang: targetLang}})[0]
}

// TranslateBatch enqueues many requests at once, so a burst lands in the
// queue before the drain loop cuts its first batch. Cache hits resolve
// immediately; everything else is queued and a drain is started if none is
// running.
func (q *TranslationQueue) TranslateBatch(ctx context.Context, requests []Request) []<-chan string {
	results := make([]<-chan string, 0, len(requests))
	var items []*queueItem

	for _, req := range requests {
		done := make(chan string, 1)
		results = append(results, done)

		if strings.TrimSpace(req.Text) == "" {
			done <- req.Text
			continue
		}
		if cached, ok := q.cache.Get(ctx, req.Text); ok {
			done <- cached
			continue
		}
		items = append(items, &queueItem{
			text:       req.Text,
			sourceLang: req.SourceLang,
			targetLang: req.TargetLang,
			done:       done,
		})
	}

	if len(items) == 0 {
		return results
	}

	q.mu.Lock()
	q.pending = append(q.pending, items...)
	q.total += len(items)
	start := !q.draining
	if start {
		q.draining = true
	}
	q.mu.Unlock()

	if start {
		go q.drain(ctx)
	}
	return results
}

// drain is the single queue-drain loop: take a batch, dispatch it
// concurrently, settle, report aggregate progress, sleep, repeat until the
// queue is empty.
func (q *TranslationQueue) drain(ctx context.Context) {
	for {
		q.mu.Lock()
		n := len(q.pending)
		if n > q.opts.BatchSize {
			n = q.opts.BatchSize
		}
		batch := q.pending[:n:n]
		q.pending = q.pending[n:]
		q.mu.Unlock()

		if n == 0 {
			if q.finishDrain() {
				return
			}
			continue
		}

		var wg sync.WaitGroup
		for _, item := range batch {
			wg.Add(1)
			go func(it *queueItem) {
				defer wg.Done()
				it.done <- q.resolve(ctx, it.text, it.sourceLang, it.targetLang)
			}(item)
		}
		wg.Wait()

		q.mu.Lock()
		q.processed += n
		processed, total := q.processed, q.total
		more := len(q.pending) > 0
		q.mu.Unlock()

		if q.sink != nil {
			q.sink.TranslationProgress(processed, total)
		}

		if !more {
			if q.finishDrain() {
				return
			}
			// An enqueue slipped in after the emptiness check; this loop is
			// still the designated drainer, so keep going.
			continue
		}
		if err := wait(ctx, q.opts.BatchDelay); err != nil {
			q.abandonPending()
			return
		}
	}
}

// finishDrain resets the round counters and releases the drainer role, but
// only while the queue is really empty under the lock. It reports whether the
// round ended; false means an enqueue raced the emptiness check and the
// caller must keep draining, since that enqueue saw draining still true and
// did not start a loop of its own.
func (q *TranslationQueue) finishDrain() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) > 0 {
		return false
	}
	q.total, q.processed, q.draining = 0, 0, false
	return true
}

// abandonPending resolves every queued item with its original text after a
// cancellation so no caller blocks on a channel forever.
func (q *TranslationQueue) abandonPending() {
	q.mu.Lock()
	leftover := q.pending
	q.pending = nil
	q.total, q.processed, q.draining = 0, 0, false
	q.mu.Unlock()

	if q.logger != nil && len(leftover) > 0 {
		q.logger.Warn("translation queue cancelled with items pending", "count", len(leftover))
	}
	for _, item := range leftover {
		q.stats.RecordFailure()
		item.done <- item.text
	}
}

func (q *TranslationQueue) resolve(ctx context.Context, text, sourceLang, targetLang string) string {
	result, ok := q.engine.Translate(ctx, text, sourceLang, targetLang)
	if ok {
		q.stats.RecordSuccess()
	} else {
		q.stats.RecordFailure()
	}
	return result
}

// LocalizeSequential translates the visible article set strictly one at a
// time, attaching localized fields in place and reporting progress after
// every single item. The per-item delay exists to pace provider calls, so it
// is deliberately not applied after an item whose title and excerpt both came
// from the cache: no provider was touched and there is nothing to pace, and
// an all-cached page would otherwise stall for no reason.
func (q *TranslationQueue) LocalizeSequential(ctx context.Context, articles []*domain.Article, sourceLang, targetLang string) {
	total := len(articles)
	for i, article := range articles {
		title, titleFromCache := q.translateNow(ctx, article.Title, sourceLang, targetLang)
		excerpt, excerptFromCache := q.translateNow(ctx, article.Excerpt, sourceLang, targetLang)
		article.Localize(title, excerpt)

		if q.sink != nil {
			q.sink.TranslationProgress(i+1, total)
		}

		if i+1 < total && !(titleFromCache && excerptFromCache) {
			if err := wait(ctx, q.opts.ItemDelay); err != nil {
				return
			}
		}
	}
}

// LocalizeBatch pushes every article's title and excerpt through batch mode
// and merges the results onto the articles once all of them settle.
func (q *TranslationQueue) LocalizeBatch(ctx context.Context, articles []*domain.Article, sourceLang, targetLang string) {
	requests := make([]Request, 0, 2*len(articles))
	for _, article := range articles {
		requests = append(requests,
			Request{Text: article.Title, SourceLang: sourceLang, TargetLang: targetLang},
			Request{Text: article.Excerpt, SourceLang: sourceLang, TargetLang: targetLang},
		)
	}

	results := q.TranslateBatch(ctx, requests)
	for i, article := range articles {
		article.Localize(<-results[2*i], <-results[2*i+1])
	}
}

// translateNow is the sequential-mode path: cache first, then a direct pass
// through the chain. The second return value reports a cache hit.
func (q *TranslationQueue) translateNow(ctx context.Context, text, sourceLang, targetLang string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return text, true
	}
	if cached, ok := q.cache.Get(ctx, text); ok {
		return cached, true
	}
	return q.resolve(ctx, text, sourceLang, targetLang), false
}

// wait blocks for the pacing delay without outliving the context.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
