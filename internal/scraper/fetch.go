package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"upperlimit/internal/utils"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// Fetcher returns the decoded HTML document behind a source.
type Fetcher interface {
	Fetch(ctx context.Context, src utils.Source) (string, error)
}

// encodingAliases maps labels used by Korean providers to WHATWG names.
var encodingAliases = map[string]string{
	"cp949": "windows-949",
	"uhc":   "windows-949",
}

type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTPFetcher builds a fetcher with the configured timeout and pacing
// between consecutive requests.
func NewHTTPFetcher(config *utils.Config) *HTTPFetcher {
	limit := rate.Inf
	if config.Scraper.Delay > 0 {
		limit = rate.Every(time.Duration(config.Scraper.Delay) * time.Millisecond)
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: time.Duration(config.Scraper.Timeout) * time.Second},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: config.Scraper.UserAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src utils.Source) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, src.URL)
	}

	reader, err := decodeBody(resp.Body, src.Encoding, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(body), nil
}

// decodeBody converts r to UTF-8. An explicit label wins over the
// Content-Type charset.
func decodeBody(r io.Reader, label, contentType string) (io.Reader, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if alias, ok := encodingAliases[label]; ok {
		label = alias
	}
	if label == "" {
		return charset.NewReader(r, contentType)
	}
	reader, err := charset.NewReaderLabel(label, r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", label, err)
	}
	return reader, nil
}
