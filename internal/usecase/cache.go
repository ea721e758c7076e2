package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/AbdElbassetKh/PharmaCentral/internal/domain"
	"github.com/AbdElbassetKh/PharmaCentral/internal/ports"
)

// keyPrefixLength is how many characters of the normalized source text feed
// the cache key.
const keyPrefixLength = 100

// CacheKey derives a storage-safe key from the first 100 characters of the
// whitespace-normalized text. Latin-1 prefixes are base64-encoded; anything
// wider falls back to a rolling-hash digest so the cache never hard-fails on
// exotic input.
func CacheKey(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	runes := []rune(normalized)
	if len(runes) > keyPrefixLength {
		runes = runes[:keyPrefixLength]
	}
	prefix := string(runes)

	if latin1, ok := encodeLatin1(runes); ok {
		return base64.RawURLEncoding.EncodeToString(latin1)
	}

	var hash int32
	for _, r := range prefix {
		hash = hash*31 + int32(r)
	}
	return fmt.Sprintf("h%08x", uint32(hash))
}

func encodeLatin1(runes []rune) ([]byte, bool) {
	out := make([]byte, len(runes))
	for i, r := range runes {
		if r > 0xFF {
			return nil, false
		}
		out[i] = byte(r)
	}
	return out, true
}

// TranslationCache layers an in-memory map over the persisted translation
// repository. Entries expire after 7 days and are purged lazily on read.
// Repository failures are logged and degrade to cache misses, never
// propagated.
type TranslationCache struct {
	repo   ports.TranslationRepository
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]domain.TranslationEntry
}

// NewTranslationCache builds the cache; a nil clock defaults to time.Now.
func NewTranslationCache(repo ports.TranslationRepository, logger *slog.Logger, now func() time.Time) *TranslationCache {
	if now == nil {
		now = time.Now
	}
	return &TranslationCache{
		repo:    repo,
		logger:  logger,
		now:     now,
		entries: map[string]domain.TranslationEntry{},
	}
}

// Get returns the cached translation for the text, treating expired entries
// as absent and purging them.
func (c *TranslationCache) Get(ctx context.Context, text string) (string, bool) {
	key := CacheKey(text)

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if !ok && c.repo != nil {
		var err error
		entry, ok, err = c.repo.Get(ctx, key)
		if err != nil {
			c.warn("translation cache read failed", "error", err)
			return "", false
		}
	}
	if !ok {
		return "", false
	}

	if entry.Expired(c.now()) {
		c.purge(ctx, key)
		return "", false
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return entry.Translation, true
}

// Put records an accepted translation in memory and writes it through to the
// repository.
func (c *TranslationCache) Put(ctx context.Context, text, translation string) {
	entry := domain.TranslationEntry{
		Key:         CacheKey(text),
		Original:    preview(text),
		Translation: translation,
		CreatedAt:   c.now(),
	}

	c.mu.Lock()
	c.entries[entry.Key] = entry
	c.mu.Unlock()

	if c.repo != nil {
		if err := c.repo.Put(ctx, entry); err != nil {
			c.warn("translation cache write failed", "error", err)
		}
	}
}

func (c *TranslationCache) purge(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	if c.repo != nil {
		if err := c.repo.Delete(ctx, key); err != nil {
			c.warn("translation cache purge failed", "error", err)
		}
	}
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) > keyPrefixLength {
		runes = runes[:keyPrefixLength]
	}
	return string(runes)
}

func (c *TranslationCache) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
