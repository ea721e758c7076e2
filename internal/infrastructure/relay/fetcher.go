// Package relay implements the resilient fetch path: an ordered cascade of
// intermediary endpoints tried with per-relay retries, followed by one direct
// connection as last resort.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/AbdElbassetKh/PharmaCentral/internal/domain"
	"github.com/AbdElbassetKh/PharmaCentral/internal/ports"
)

const userAgent = "PharmaCentral/1.0"

// Options tunes the cascade; zero values fall back to production defaults.
type Options struct {
	RetryAttempts int
	RetryDelay    time.Duration
	Timeout       time.Duration
	MinBodyBytes  int
}

func (o Options) withDefaults() Options {
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MinBodyBytes <= 0 {
		o.MinBodyBytes = 100
	}
	return o
}

// Fetcher walks the relay cascade for one source at a time. Relay attempts
// and retries are strictly sequential; parallelism lives one level up, in
// the per-source fan-out.
type Fetcher struct {
	client *http.Client
	relays []domain.Relay
	parser ports.FeedParser
	opts   Options
	logger *slog.Logger
}

var _ ports.SourceFetcher = (*Fetcher)(nil)

// New wires an HTTP client; nil defaults to one without its own timeout,
// since every attempt carries a context deadline already.
func New(client *http.Client, relays []domain.Relay, parser ports.FeedParser, opts Options, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		client: client,
		relays: relays,
		parser: parser,
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// Fetch tries each relay in order with linear-backoff retries, then the
// source directly. Failure of everything yields FetchExhaustedError; the
// error is scoped to this source and never aborts sibling fetches.
func (f *Fetcher) Fetch(ctx context.Context, source domain.Source) ([]domain.Article, error) {
	escaped := url.QueryEscape(source.EndpointURL)

	var lastErr error
	for relayIndex, rly := range f.relays {
		endpoint := rly.Endpoint(escaped)

		for attempt := 1; attempt <= f.opts.RetryAttempts; attempt++ {
			articles, err := f.attempt(ctx, endpoint, rly.Shape, rly.Enveloped, source)
			if err == nil {
				return articles, nil
			}
			lastErr = err
			f.debug("relay attempt failed",
				"source", source.Name, "relay", relayIndex, "attempt", attempt, "error", err)

			if attempt < f.opts.RetryAttempts {
				if serr := sleep(ctx, f.opts.RetryDelay*time.Duration(attempt)); serr != nil {
					return nil, &domain.FetchExhaustedError{Source: source.Name, LastErr: serr}
				}
			}
		}
	}

	// Last resort: one direct connection, no relay.
	articles, err := f.attempt(ctx, source.EndpointURL, domain.ShapeRaw, false, source)
	if err == nil {
		return articles, nil
	}
	lastErr = err

	return nil, &domain.FetchExhaustedError{Source: source.Name, LastErr: lastErr}
}

// attempt performs one bounded request, unwraps any relay envelope, and
// parses the payload. An empty parse result counts as a failed attempt so
// the cascade keeps looking for a usable relay.
func (f *Fetcher) attempt(ctx context.Context, endpoint string, shape domain.PayloadShape, enveloped bool, source domain.Source) ([]domain.Article, error) {
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	if enveloped {
		body, err = unwrapEnvelope(body)
		if err != nil {
			return nil, err
		}
	}

	articles := f.parser.Parse(domain.Payload{Shape: shape, Body: body}, source)
	if len(articles) == 0 {
		return nil, fmt.Errorf("%w: no parsable entries", domain.ErrInvalidPayload)
	}
	return articles, nil
}

func (f *Fetcher) get(ctx context.Context, endpoint string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed endpoint returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	// Tiny bodies are proxy error pages, whatever the status said.
	if len(body) < f.opts.MinBodyBytes {
		return nil, fmt.Errorf("%w: body of %d bytes", domain.ErrInvalidPayload, len(body))
	}

	return body, nil
}

// unwrapEnvelope extracts the nested raw document some relays wrap inside a
// {"contents": "..."} JSON object.
func unwrapEnvelope(body []byte) ([]byte, error) {
	var envelope struct {
		Contents string `json:"contents"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: envelope decode: %v", domain.ErrInvalidPayload, err)
	}
	if envelope.Contents == "" {
		return nil, fmt.Errorf("%w: empty envelope", domain.ErrInvalidPayload)
	}
	return []byte(envelope.Contents), nil
}

// sleep waits for the backoff delay without outliving the caller's context.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
