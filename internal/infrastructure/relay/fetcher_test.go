package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdElbassetKh/PharmaCentral/internal/domain"
	"github.com/AbdElbassetKh/PharmaCentral/internal/infrastructure/parser"
	"github.com/AbdElbassetKh/PharmaCentral/internal/logging"
)

var testSource = domain.Source{
	Name:        "fiercepharma",
	EndpointURL: "https://feeds.invalid/rss.xml",
	Category:    "industry",
}

// structuredPayload is long enough to pass the minimum-body check and holds
// two items, one of which has no title.
const structuredPayload = `{
  "status": "ok",
  "items": [
    {"title": "New drug approved", "link": "https://example.org/a1",
     "description": "The agency approved a new treatment for the market."},
    {"link": "https://example.org/a2", "description": "this one has no title"}
  ]
}`

const rawPayload = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Feed</title>
<item><title>Raw relay headline</title><link>https://example.org/r1</link>
<description>A description long enough to make the body realistic.</description></item>
</channel></rss>`

func testOptions() Options {
	return Options{
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
		Timeout:       time.Second,
		MinBodyBytes:  100,
	}
}

func newFetcher(relays []domain.Relay) *Fetcher {
	p := parser.New(logging.Discard(), nil)
	return New(nil, relays, p, testOptions(), logging.Discard())
}

func TestRelayOrderIsDeterministic(t *testing.T) {
	t.Parallel()

	var firstHits, secondHits atomic.Int32

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstHits.Add(1)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer failing.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondHits.Add(1)
		_, _ = w.Write([]byte(structuredPayload))
	}))
	defer healthy.Close()

	f := newFetcher([]domain.Relay{
		{EndpointTemplate: failing.URL + "/?u=%s", Shape: domain.ShapeStructured},
		{EndpointTemplate: healthy.URL + "/?u=%s", Shape: domain.ShapeStructured},
	})

	articles, err := f.Fetch(context.Background(), testSource)
	require.NoError(t, err)

	assert.Equal(t, int32(3), firstHits.Load(), "exactly retryAttempts tries on relay 1 before relay 2")
	assert.Equal(t, int32(1), secondHits.Load())
	require.Len(t, articles, 1, "titleless entry is dropped")
	assert.Equal(t, "New drug approved", articles[0].Title)
}

func TestShortBodyIsInvalidDespiteSuccessStatus(t *testing.T) {
	t.Parallel()

	var tinyHits, goodHits atomic.Int32

	tiny := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tinyHits.Add(1)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer tiny.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		goodHits.Add(1)
		_, _ = w.Write([]byte(structuredPayload))
	}))
	defer good.Close()

	f := newFetcher([]domain.Relay{
		{EndpointTemplate: tiny.URL + "/?u=%s", Shape: domain.ShapeStructured},
		{EndpointTemplate: good.URL + "/?u=%s", Shape: domain.ShapeStructured},
	})

	_, err := f.Fetch(context.Background(), testSource)
	require.NoError(t, err)
	assert.Equal(t, int32(3), tinyHits.Load())
	assert.Equal(t, int32(1), goodHits.Load())
}

func TestEnvelopedRelayIsUnwrappedBeforeParsing(t *testing.T) {
	t.Parallel()

	enveloped := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]string{"contents": rawPayload})
		_, _ = w.Write(body)
	}))
	defer enveloped.Close()

	f := newFetcher([]domain.Relay{
		{EndpointTemplate: enveloped.URL + "/?u=%s", Shape: domain.ShapeRaw, Enveloped: true},
	})

	articles, err := f.Fetch(context.Background(), testSource)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Raw relay headline", articles[0].Title)
}

func TestDirectFallbackAfterAllRelaysExhausted(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer failing.Close()

	var directHits atomic.Int32
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		directHits.Add(1)
		_, _ = w.Write([]byte(rawPayload))
	}))
	defer direct.Close()

	f := newFetcher([]domain.Relay{
		{EndpointTemplate: failing.URL + "/?u=%s", Shape: domain.ShapeStructured},
	})

	source := testSource
	source.EndpointURL = direct.URL

	articles, err := f.Fetch(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, int32(1), directHits.Load())
	require.Len(t, articles, 1)
	assert.Equal(t, "Raw relay headline", articles[0].Title)
}

func TestFetchExhaustedCarriesLastError(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	f := newFetcher([]domain.Relay{
		{EndpointTemplate: failing.URL + "/?u=%s", Shape: domain.ShapeStructured},
	})

	source := testSource
	source.EndpointURL = failing.URL + "/direct"

	_, err := f.Fetch(context.Background(), source)
	require.Error(t, err)

	var exhausted *domain.FetchExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, "fiercepharma", exhausted.Source)
	assert.Contains(t, exhausted.Error(), "503")
}

func TestRelayEndpointEscapesSourceURL(t *testing.T) {
	t.Parallel()

	var seen string
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.RawQuery
		_, _ = w.Write([]byte(structuredPayload))
	}))
	defer relay.Close()

	f := newFetcher([]domain.Relay{
		{EndpointTemplate: relay.URL + "/?u=%s", Shape: domain.ShapeStructured},
	})

	_, err := f.Fetch(context.Background(), testSource)
	require.NoError(t, err)
	assert.True(t, strings.Contains(seen, "https%3A%2F%2Ffeeds.invalid%2Frss.xml"))
}
