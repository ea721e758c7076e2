package domain

import "time"

// TranslationEntry is one persisted cache record, keyed by a digest of the
// source-text prefix. Original holds a preview of the text it was derived
// from, useful when inspecting the cache.
type TranslationEntry struct {
	Key         string
	Original    string
	Translation string
	CreatedAt   time.Time
}

// TranslationTTL is how long a cached translation stays valid.
const TranslationTTL = 7 * 24 * time.Hour

// Expired reports whether the entry is older than the cache TTL at now.
func (e TranslationEntry) Expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) > TranslationTTL
}
