package hypothesis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"traxiv/internal/domain"
	"traxiv/internal/ports"
)

const defaultAPIURL = "https://api.hypothes.is/api"

// Client binds the hypothes.is REST API: create, search and delete
// annotations plus group-name resolution.
type Client struct {
	apiURL  string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ ports.AnnotationStore = (*Client)(nil)

// ClientOptions configures a store client; zero values fall back to
// safe defaults.
type ClientOptions struct {
	APIURL            string
	APIKey            string
	HTTPClient        *http.Client
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// NewClient wires credentials and throttling for the annotation store.
func NewClient(opts ClientOptions) *Client {
	if opts.APIURL == "" {
		opts.APIURL = defaultAPIURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	return &Client{
		apiURL:  strings.TrimSuffix(opts.APIURL, "/"),
		apiKey:  opts.APIKey,
		client:  opts.HTTPClient,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		logger:  opts.Logger,
	}
}

type annotationRow struct {
	ID    string   `json:"id"`
	URI   string   `json:"uri"`
	Tags  []string `json:"tags"`
	Group string   `json:"group"`
	Document struct {
		Title []string `json:"title"`
	} `json:"document"`
}

func (r annotationRow) posted() domain.PostedAnnotation {
	title := ""
	if len(r.Document.Title) > 0 {
		title = r.Document.Title[0]
	}
	return domain.PostedAnnotation{
		ID:    r.ID,
		URI:   r.URI,
		Tags:  r.Tags,
		Group: r.Group,
		Target: domain.Target{
			URL:   r.URI,
			Title: title,
		},
	}
}

type searchResult struct {
	Total int             `json:"total"`
	Rows  []annotationRow `json:"rows"`
}

// Search returns existing annotations whose target URI matches exactly.
// The store performs the match; the client does not guess.
func (c *Client) Search(ctx context.Context, uri string) ([]domain.PostedAnnotation, error) {
	params := url.Values{}
	params.Set("uri", uri)
	return c.search(ctx, params)
}

// SearchTag returns up to limit annotations in a group carrying the given
// tag; purge uses it to find exactly the annotations this system created.
func (c *Client) SearchTag(ctx context.Context, groupID, tag string, limit int) ([]domain.PostedAnnotation, error) {
	params := url.Values{}
	params.Set("group", groupID)
	params.Set("tag", tag)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return c.search(ctx, params)
}

func (c *Client) search(ctx context.Context, params url.Values) ([]domain.PostedAnnotation, error) {
	var result searchResult
	if err := c.do(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &result); err != nil {
		return nil, fmt.Errorf("search annotations: %w", err)
	}

	annotations := make([]domain.PostedAnnotation, 0, len(result.Rows))
	for _, row := range result.Rows {
		annotations = append(annotations, row.posted())
	}
	return annotations, nil
}

// Post submits one annotation. A non-2xx answer surfaces as
// PostRejectedError with status and body; nothing is swallowed.
func (c *Client) Post(ctx context.Context, perms domain.Permissions, groupID string, target domain.Target, draft domain.Draft) (domain.PostedAnnotation, error) {
	payload := map[string]any{
		"uri":   target.URL,
		"text":  draft.Body,
		"tags":  draft.Tags,
		"group": groupID,
		"document": map[string]any{
			"title": []string{target.Title},
			"highwire": map[string]any{
				"doi": []string{target.DOI},
			},
		},
		"permissions": map[string][]string{
			"read":   perms.Read,
			"update": perms.Update,
			"delete": perms.Delete,
			"admin":  perms.Admin,
		},
	}

	var created annotationRow
	if err := c.do(ctx, http.MethodPost, "/annotations", payload, &created); err != nil {
		var api *apiError
		if errors.As(err, &api) {
			return domain.PostedAnnotation{}, &PostRejectedError{StatusCode: api.StatusCode, Body: api.Body}
		}
		return domain.PostedAnnotation{}, err
	}

	posted := created.posted()
	posted.Target = target
	c.debug("annotation created", "id", posted.ID, "uri", target.URL)
	return posted, nil
}

// Delete removes an annotation by id. Deleting an id the store no longer
// knows counts as success: purge may race a manual deletion.
func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	err := c.do(ctx, http.MethodDelete, "/annotations/"+id, nil, nil)
	if err == nil {
		return true, nil
	}

	var api *apiError
	if errors.As(err, &api) {
		if api.StatusCode == http.StatusNotFound {
			c.debug("annotation already gone", "id", id)
			return true, nil
		}
		return false, &DeleteFailedError{ID: id, StatusCode: api.StatusCode, Body: api.Body}
	}

	return false, &DeleteFailedError{ID: id, Body: err.Error()}
}

// GroupID resolves a group name to its identifier. The world group passes
// through unchanged. Public restricted groups are only listed when a
// document URI within their scope is supplied.
func (c *Client) GroupID(ctx context.Context, name, documentURI string) (string, error) {
	if name == "__world__" {
		return "__world__", nil
	}

	var groups []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodGet, "/groups", nil, &groups); err != nil {
		return "", fmt.Errorf("list groups: %w", err)
	}

	if documentURI != "" {
		var scoped []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		params := url.Values{}
		params.Set("document_uri", documentURI)
		if err := c.do(ctx, http.MethodGet, "/groups?"+params.Encode(), nil, &scoped); err != nil {
			return "", fmt.Errorf("list scoped groups: %w", err)
		}
		groups = append(groups, scoped...)
	}

	for _, g := range groups {
		if g.Name == name {
			return g.ID, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrGroupNotFound, name)
}

func (c *Client) do(ctx context.Context, method, path string, payload, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &apiError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if v == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
