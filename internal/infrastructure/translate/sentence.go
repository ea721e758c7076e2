package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AbdElbassetKh/PharmaCentral/internal/ports"
)

// SentenceProvider addresses a query-parameter sentence endpoint whose
// response is a nested array; the first segment carries the translated
// fragments, which are concatenated in order.
type SentenceProvider struct {
	endpoint   string
	httpClient *http.Client
}

var _ ports.Translator = (*SentenceProvider)(nil)

// NewSentenceProvider builds the second-priority provider.
func NewSentenceProvider(endpoint string, timeout time.Duration) *SentenceProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SentenceProvider{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Translate requests one sentence translation.
func (p *SentenceProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", sourceLang)
	query.Set("tl", targetLang)
	query.Set("dt", "t")
	query.Set("q", text)

	body, err := getJSON(ctx, p.httpClient, p.endpoint+"?"+query.Encode())
	if err != nil {
		return "", err
	}

	return joinFragments(body)
}

// joinFragments decodes the outer array, then walks the first segment
// concatenating each fragment's leading string.
func joinFragments(body []byte) (string, error) {
	var outer []json.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil {
		return "", fmt.Errorf("decode sentence response: %w", err)
	}
	if len(outer) == 0 {
		return "", fmt.Errorf("sentence response has no segments")
	}

	var fragments [][]any
	if err := json.Unmarshal(outer[0], &fragments); err != nil {
		return "", fmt.Errorf("decode sentence fragments: %w", err)
	}

	var joined strings.Builder
	for _, fragment := range fragments {
		if len(fragment) == 0 {
			continue
		}
		if part, ok := fragment[0].(string); ok {
			joined.WriteString(part)
		}
	}

	return joined.String(), nil
}
