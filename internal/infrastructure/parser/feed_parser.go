package parser

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/AbdElbassetKh/PharmaCentral/internal/domain"
	"github.com/AbdElbassetKh/PharmaCentral/internal/ports"
)

// dateLayouts are tried in order for structured payload date fields.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FeedParser normalizes relay payloads into articles. A malformed entry is
// logged and skipped; the batch itself never fails.
type FeedParser struct {
	feed   *gofeed.Parser
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.FeedParser = (*FeedParser)(nil)

// New builds a parser; a nil clock defaults to time.Now.
func New(logger *slog.Logger, now func() time.Time) *FeedParser {
	if now == nil {
		now = time.Now
	}
	return &FeedParser{feed: gofeed.NewParser(), logger: logger, now: now}
}

// Parse dispatches on the payload shape resolved at fetch time.
func (p *FeedParser) Parse(payload domain.Payload, source domain.Source) []domain.Article {
	switch payload.Shape {
	case domain.ShapeStructured:
		return p.parseStructured(payload.Body, source)
	default:
		return p.parseRaw(payload.Body, source)
	}
}

// parseRaw handles RSS and Atom documents. gofeed locates repeated item
// elements and falls back to Atom entry elements on its own.
func (p *FeedParser) parseRaw(body []byte, source domain.Source) []domain.Article {
	feed, err := p.feed.ParseString(string(body))
	if err != nil {
		p.debug("raw payload rejected", "source", source.Name, "error", err)
		return nil
	}

	fetchedAt := p.now()
	articles := make([]domain.Article, 0, len(feed.Items))
	for i, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			p.debug("entry without title skipped", "source", source.Name, "ordinal", i)
			continue
		}

		link := item.Link
		if link == "" && len(item.Links) > 0 {
			link = item.Links[0]
		}

		description := firstNonEmpty(item.Description, item.Content)

		published := fetchedAt
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		articles = append(articles, p.build(source, len(articles), fetchedAt, title, link, description, published, item.Categories))
	}
	return articles
}

// structuredFeed mirrors the envelope a structured relay emits.
type structuredFeed struct {
	Status string           `json:"status"`
	Items  []structuredItem `json:"items"`
}

// structuredItem carries every synonymous field name the relays are known to
// use; first non-empty wins.
type structuredItem struct {
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary"`
	PubDate     string   `json:"pubDate"`
	Published   string   `json:"published"`
	Date        string   `json:"date"`
	Categories  []string `json:"categories"`
	Tags        []string `json:"tags"`
}

func (p *FeedParser) parseStructured(body []byte, source domain.Source) []domain.Article {
	var feed structuredFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		p.debug("structured payload rejected", "source", source.Name, "error", err)
		return nil
	}

	fetchedAt := p.now()
	articles := make([]domain.Article, 0, len(feed.Items))
	for i, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			p.debug("entry without title skipped", "source", source.Name, "ordinal", i)
			continue
		}

		link := firstNonEmpty(item.Link, item.URL)
		description := firstNonEmpty(item.Description, item.Content, item.Summary)
		published := p.parseDate(firstNonEmpty(item.PubDate, item.Published, item.Date), fetchedAt)

		tags := item.Categories
		if len(tags) == 0 {
			tags = item.Tags
		}

		articles = append(articles, p.build(source, len(articles), fetchedAt, title, link, description, published, tags))
	}
	return articles
}

func (p *FeedParser) build(source domain.Source, ordinal int, fetchedAt time.Time, title, link, description string, published time.Time, tags []string) domain.Article {
	if len(tags) == 0 {
		tags = []string{source.Category}
	}

	return domain.Article{
		ID:                domain.NewArticleID(source.Name, ordinal, fetchedAt),
		Title:             stripMarkup(title),
		Excerpt:           truncate(stripMarkup(description), domain.ExcerptLimit),
		URL:               link,
		Source:            source.Name,
		Category:          source.Category,
		LocalizedCategory: source.LocalizedCategory,
		Tags:              tags,
		PublishedAt:       published,
		FetchedAt:         fetchedAt,
	}
}

// parseDate tries the known layouts; anything unparsable falls back to the
// ingestion time rather than failing the entry.
func (p *FeedParser) parseDate(value string, fallback time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return fallback
}

// stripMarkup reduces embedded HTML to plain text and collapses whitespace.
func stripMarkup(value string) string {
	if strings.ContainsAny(value, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(value)); err == nil {
			value = doc.Text()
		}
	}
	return strings.Join(strings.Fields(value), " ")
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (p *FeedParser) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
