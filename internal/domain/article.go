package domain

import (
	"fmt"
	"time"
)

// ExcerptLimit bounds the plain-text excerpt length in runes.
const ExcerptLimit = 200

// Article is the core entity produced by the ingestion pipeline.
type Article struct {
	ID                string
	Title             string
	Excerpt           string
	URL               string
	Source            string
	Category          string
	LocalizedCategory string
	Tags              []string
	PublishedAt       time.Time
	FetchedAt         time.Time

	// Localized fields are the only mutation an Article ever receives
	// after creation.
	LocalizedTitle   string
	LocalizedExcerpt string
}

// NewArticleID derives an opaque, collision-tolerant identifier from the
// source name, the entry ordinal within its feed, and the ingestion time.
func NewArticleID(source string, ordinal int, fetchedAt time.Time) string {
	return fmt.Sprintf("%s-%d-%d", source, ordinal, fetchedAt.UnixNano())
}

// Localize attaches translated title and excerpt without touching any other
// field.
func (a *Article) Localize(title, excerpt string) {
	a.LocalizedTitle = title
	a.LocalizedExcerpt = excerpt
}

// Source describes one configured upstream feed. Immutable, config-supplied.
type Source struct {
	Name              string
	LocalizedName     string
	EndpointURL       string
	Category          string
	LocalizedCategory string
}

// PayloadShape tags how a relay response must be interpreted.
type PayloadShape string

const (
	// ShapeStructured marks a pre-parsed JSON item list.
	ShapeStructured PayloadShape = "structured"
	// ShapeRaw marks an RSS/Atom document requiring markup parsing.
	ShapeRaw PayloadShape = "raw"
)

// Relay is one intermediary endpoint in the cascade. Order in configuration
// defines trial precedence.
type Relay struct {
	EndpointTemplate string
	Shape            PayloadShape
	// Enveloped relays nest the raw body under a {"contents": ...} wrapper
	// that must be unwrapped before parsing.
	Enveloped   bool
	Description string
}

// Endpoint expands the relay template with the escaped source URL.
func (r Relay) Endpoint(escapedSourceURL string) string {
	return fmt.Sprintf(r.EndpointTemplate, escapedSourceURL)
}

// Payload is the tagged fetch result: shape resolved once at fetch time,
// body already unwrapped from any relay envelope.
type Payload struct {
	Shape PayloadShape
	Body  []byte
}

// CountBucket is one row of an aggregation view (per category or source).
type CountBucket struct {
	Label          string
	LocalizedLabel string
	Count          int
}
