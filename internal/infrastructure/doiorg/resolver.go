package doiorg

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"traxiv/internal/ports"
)

const defaultBaseURL = "https://doi.org"

// Resolver follows doi.org redirects to find the page a DOI points at.
// That page URL is what annotations attach to.
type Resolver struct {
	baseURL string
	client  *http.Client
	retries int
	logger  *slog.Logger
}

var _ ports.Resolver = (*Resolver)(nil)

// NewResolver wires an HTTP client; retries defaults to 3.
func NewResolver(baseURL string, client *http.Client, retries int, logger *slog.Logger) *Resolver {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if retries <= 0 {
		retries = 3
	}
	return &Resolver{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		retries: retries,
		logger:  logger,
	}
}

// Resolve returns the final URL a DOI redirects to.
func (r *Resolver) Resolve(ctx context.Context, doi string) (string, error) {
	resp, err := r.get(ctx, r.baseURL+"/"+doi)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", doi, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolve %s: unexpected status %s", doi, resp.Status)
	}

	return resp.Request.URL.String(), nil
}

// PageTitle fetches a page and extracts its title element. Used as a
// fallback when the feed record carries no preprint title.
func (r *Resolver) PageTitle(ctx context.Context, pageURL string) (string, error) {
	resp, err := r.get(ctx, pageURL)
	if err != nil {
		return "", fmt.Errorf("fetch page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch page %s: unexpected status %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page %s: %w", pageURL, err)
	}

	return strings.TrimSpace(doc.Find("head title").First().Text()), nil
}

func (r *Resolver) get(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", "traxiv/1.0")

		resp, err := r.client.Do(req)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("server answered %s", resp.Status)
			resp.Body.Close()
		}
		r.debug("doi.org request failed, retrying", "url", rawURL, "attempt", attempt+1, "error", lastErr)
	}

	return nil, lastErr
}

func (r *Resolver) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
