package sheets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ehopa/pkg/platform/sentinel"
)

const maxFeedBytes = 32 << 20

// FeedError reports a feed that answered with a non-success status.
type FeedError struct {
	Sheet      string
	StatusCode int
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed %q returned HTTP %d", e.Sheet, e.StatusCode)
}

func (e *FeedError) Unwrap() error {
	return sentinel.ErrUnavailable
}

// Client reads named sheets of one spreadsheet as delimited text.
type Client struct {
	baseURL string
	sheetID string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// NewClient builds a feed client for the spreadsheet sheetID served under
// baseURL (for example https://docs.google.com).
func NewClient(baseURL, sheetID string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		sheetID: sheetID,
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FeedURL returns the CSV export URL for a named sheet.
func (c *Client) FeedURL(sheet string) string {
	return fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s",
		c.baseURL, url.PathEscape(c.sheetID), url.QueryEscape(sheet))
}

// Fetch downloads and parses a named sheet. A non-2xx answer is a *FeedError;
// transport failures are returned wrapped.
func (c *Client) Fetch(ctx context.Context, sheet string) (Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.FeedURL(sheet), nil)
	if err != nil {
		return Table{}, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.http.Do(req)
	if err != nil {
		return Table{}, fmt.Errorf("fetch sheet %q: %w", sheet, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.WarnContext(ctx, "feed returned non-success status",
			"sheet", sheet,
			"status", resp.StatusCode,
		)
		return Table{}, &FeedError{Sheet: sheet, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return ParseTable(string(body)), nil
}
