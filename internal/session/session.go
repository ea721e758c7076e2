// Package session holds the mutable per-user view state: the current display
// language, the active category filter, and the current page.
package session

import "sync"

// Language codes understood by the pipeline.
const (
	LanguageEnglish = "en"
	LanguageArabic  = "ar"
)

// Session is the mutable state shared between the pipeline and its
// presentation collaborators. All accessors are safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	language string
	category string
	page     int
}

// New starts a session in English on page 1 with no filter.
func New() *Session {
	return &Session{language: LanguageEnglish, page: 1}
}

// Language returns the current display language code.
func (s *Session) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// SetLanguage switches the display language and resets paging.
func (s *Session) SetLanguage(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = code
	s.page = 1
}

// Category returns the active category filter, empty meaning all.
func (s *Session) Category() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.category
}

// SetCategory replaces the active category filter and resets paging.
func (s *Session) SetCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.category = category
	s.page = 1
}

// Page returns the current 1-based page number.
func (s *Session) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

// SetPage moves to the given page; values below 1 clamp to 1.
func (s *Session) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = page
}
