package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ehopa/pkg/platform/sentinel"
)

// SinkError reports a write endpoint that rejected a row.
type SinkError struct {
	StatusCode int
	Body       string
}

func (e *SinkError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("sheet write returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("sheet write returned HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *SinkError) Unwrap() error {
	return sentinel.ErrUnavailable
}

// SinkClient appends rows to the master sheet through a JSON write endpoint
// that accepts {"data":[{column: value}]}.
type SinkClient struct {
	endpoint string
	http     *http.Client
}

// NewSinkClient builds a sink client for endpoint.
func NewSinkClient(endpoint string, timeout time.Duration) *SinkClient {
	return &SinkClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type appendRequest struct {
	Data []map[string]string `json:"data"`
}

// Append writes one row. Keys must match the sheet's column headers verbatim.
// The call is never retried.
func (s *SinkClient) Append(ctx context.Context, row map[string]string) error {
	payload, err := json.Marshal(appendRequest{Data: []map[string]string{row}})
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build write request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &SinkError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
