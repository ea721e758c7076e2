// Package translate implements the competing translation backends and the
// ordered fallback chain that arbitrates between them.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/AbdElbassetKh/PharmaCentral/internal/ports"
)

// PhraseProvider addresses a path-style phrase-translation endpoint:
// {base}/{source}/{target}/{escaped text} returning {"translation": "..."}.
type PhraseProvider struct {
	endpoint   string
	httpClient *http.Client
}

var _ ports.Translator = (*PhraseProvider)(nil)

// NewPhraseProvider builds the first-priority provider.
func NewPhraseProvider(endpoint string, timeout time.Duration) *PhraseProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PhraseProvider{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Translate requests one phrase translation.
func (p *PhraseProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/%s", p.endpoint, sourceLang, targetLang, url.PathEscape(text))

	body, err := getJSON(ctx, p.httpClient, endpoint)
	if err != nil {
		return "", err
	}

	var resp struct {
		Translation string `json:"translation"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode phrase response: %w", err)
	}

	return resp.Translation, nil
}
