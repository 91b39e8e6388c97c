package biorxiv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"traxiv/internal/domain"
	"traxiv/internal/ports"
)

const (
	defaultBaseURL = "https://api.biorxiv.org"
	dateLayout     = "2006-01-02"
)

// Client pages through the bioRxiv publisher feed. The feed reports a
// total match count in each page and the client keeps requesting until
// the yielded records cover it.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	retries int
	logger  *slog.Logger
}

var _ ports.PreprintSource = (*Client)(nil)

// ClientOptions configures a feed client; zero values fall back to
// safe defaults.
type ClientOptions struct {
	BaseURL           string
	HTTPClient        *http.Client
	Retries           int
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// NewClient wires an HTTP client with request throttling and retries.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	return &Client{
		baseURL: opts.BaseURL,
		client:  opts.HTTPClient,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		retries: opts.Retries,
		logger:  opts.Logger,
	}
}

// feedPage mirrors one response of the publisher endpoint: a summary
// message plus the page's slice of the collection.
type feedPage struct {
	Messages   []feedMessage `json:"messages"`
	Collection []feedItem    `json:"collection"`
}

type feedMessage struct {
	Status string  `json:"status"`
	Count  flexInt `json:"count"`
	Total  flexInt `json:"total"`
}

type feedItem struct {
	BiorxivDOI       string `json:"biorxiv_doi"`
	PublishedDOI     string `json:"published_doi"`
	PreprintTitle    string `json:"preprint_title"`
	PreprintCategory string `json:"preprint_category"`
	PreprintDate     string `json:"preprint_date"`
	PublishedDate    string `json:"published_date"`
	PublishedJournal string `json:"published_journal"`
}

func (i feedItem) record() domain.PreprintRecord {
	return domain.PreprintRecord{
		PreprintDOI:   i.BiorxivDOI,
		PublishedDOI:  i.PublishedDOI,
		Title:         i.PreprintTitle,
		Category:      i.PreprintCategory,
		Journal:       i.PublishedJournal,
		PreprintDate:  i.PreprintDate,
		PublishedDate: i.PublishedDate,
	}
}

// flexInt tolerates the feed reporting counts either as numbers or as
// quoted strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("count is neither number nor string: %s", data)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("parse count %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

// Stream walks the publisher feed for one doi prefix over a posting-date
// range, yielding each published, deduplicated record as its page is
// parsed. Unpublished preprints are dropped. A page failure after retries
// aborts the stream with FeedUnavailableError; records already yielded
// stand.
func (c *Client) Stream(ctx context.Context, prefix, start, end string, yield func(domain.PreprintRecord) error) error {
	startDay, err := time.Parse(dateLayout, start)
	if err != nil {
		return fmt.Errorf("start date %q: %w", start, err)
	}
	endDay, err := time.Parse(dateLayout, end)
	if err != nil {
		return fmt.Errorf("end date %q: %w", end, err)
	}
	if endDay.Before(startDay) {
		return nil
	}

	seen := map[string]struct{}{}
	cursor := 0

	for {
		pageURL := fmt.Sprintf("%s/publisher/%s/%s/%s/%d", c.baseURL, prefix, start, end, cursor)

		pg, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return err
		}

		if len(pg.Messages) == 0 {
			return &FeedUnavailableError{URL: pageURL, Err: fmt.Errorf("response carries no summary message")}
		}

		msg := pg.Messages[0]
		if msg.Status != "ok" {
			c.debug("feed reported terminal status", "status", msg.Status, "cursor", cursor)
			return nil
		}

		for _, item := range pg.Collection {
			rec := item.record()
			if !rec.Published() {
				continue
			}
			if _, ok := seen[rec.Key()]; ok {
				continue
			}
			seen[rec.Key()] = struct{}{}
			if err := yield(rec); err != nil {
				return err
			}
		}

		count := int(msg.Count)
		total := int(msg.Total)
		cursor += count
		c.debug("feed page consumed", "prefix", prefix, "cursor", cursor, "total", total)

		if count <= 0 || cursor >= total {
			return nil
		}
	}
}

// Fetch collects the whole stream into a slice; used by the listing
// command.
func (c *Client) Fetch(ctx context.Context, prefix, start, end string) ([]domain.PreprintRecord, error) {
	var records []domain.PreprintRecord
	err := c.Stream(ctx, prefix, start, end, func(rec domain.PreprintRecord) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*feedPage, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		pg, retryable, err := c.requestPage(ctx, pageURL)
		if err == nil {
			return pg, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.debug("feed request failed, retrying", "url", pageURL, "attempt", attempt+1, "error", err)
	}

	return nil, &FeedUnavailableError{URL: pageURL, Err: lastErr}
}

func (c *Client) requestPage(ctx context.Context, pageURL string) (*feedPage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "traxiv/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= http.StatusInternalServerError
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, retryable, fmt.Errorf("feed returned %s: %s", resp.Status, body)
	}

	var pg feedPage
	if err := json.NewDecoder(resp.Body).Decode(&pg); err != nil {
		return nil, false, fmt.Errorf("decode page: %w", err)
	}

	return &pg, false, nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
