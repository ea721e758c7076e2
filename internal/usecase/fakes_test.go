package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AbdElbassetKh/PharmaCentral/internal/domain"
)

// memoryRepo is an in-memory stand-in for the SQLite repository.
type memoryRepo struct {
	mu           sync.Mutex
	translations map[string]domain.TranslationEntry
	articles     []domain.Article
	lastUpdate   time.Time
	failReads    bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{translations: map[string]domain.TranslationEntry{}}
}

func (m *memoryRepo) Get(_ context.Context, key string) (domain.TranslationEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads {
		return domain.TranslationEntry{}, false, errors.New("simulated read failure")
	}
	entry, ok := m.translations[key]
	return entry, ok, nil
}

func (m *memoryRepo) Put(_ context.Context, entry domain.TranslationEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.translations[entry.Key] = entry
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.translations, key)
	return nil
}

func (m *memoryRepo) SaveSnapshot(_ context.Context, articles []domain.Article, lastUpdate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.articles = append([]domain.Article(nil), articles...)
	m.lastUpdate = lastUpdate
	return nil
}

func (m *memoryRepo) LoadSnapshot(_ context.Context) ([]domain.Article, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Article(nil), m.articles...), m.lastUpdate, nil
}

// recordingSink captures progress events in order.
type recordingSink struct {
	mu          sync.Mutex
	refreshes   [][2]int
	translation [][2]int
}

func (r *recordingSink) RefreshProgress(succeeded, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshes = append(r.refreshes, [2]int{succeeded, failed})
}

func (r *recordingSink) TranslationProgress(processed, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.translation = append(r.translation, [2]int{processed, total})
}

func (r *recordingSink) translationEvents() [][2]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]int(nil), r.translation...)
}

// fakeEngine translates by prefixing, or refuses when accept is false.
type fakeEngine struct {
	mu      sync.Mutex
	accept  bool
	calls   int
	inBatch int
	maxSeen int
}

func (f *fakeEngine) Translate(_ context.Context, text, _, _ string) (string, bool) {
	f.mu.Lock()
	f.calls++
	f.inBatch++
	if f.inBatch > f.maxSeen {
		f.maxSeen = f.inBatch
	}
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.inBatch--
	f.mu.Unlock()

	if !f.accept {
		return text, false
	}
	return "ترجمة " + text, true
}
