package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/AbdElbassetKh/PharmaCentral/internal/domain"
	"github.com/AbdElbassetKh/PharmaCentral/internal/ports"
)

// LookupProvider addresses a rate-limited lookup endpoint taking q and
// langpair parameters and answering {"responseData":{"translatedText":...}}.
// Quota exhaustion arrives as HTTP 429 and is reported as ErrRateLimited,
// which the chain treats like any other failure.
type LookupProvider struct {
	endpoint   string
	httpClient *http.Client
}

var _ ports.Translator = (*LookupProvider)(nil)

// NewLookupProvider builds the last-priority provider.
func NewLookupProvider(endpoint string, timeout time.Duration) *LookupProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LookupProvider{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Translate requests one lookup translation.
func (p *LookupProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	query := url.Values{}
	query.Set("q", text)
	query.Set("langpair", sourceLang+"|"+targetLang)

	body, err := getJSON(ctx, p.httpClient, p.endpoint+"?"+query.Encode())
	if err != nil {
		return "", err
	}

	var resp struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode lookup response: %w", err)
	}

	return resp.ResponseData.TranslatedText, nil
}

// getJSON performs one bounded GET shared by all providers.
func getJSON(ctx context.Context, client *http.Client, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}
