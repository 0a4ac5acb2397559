// Package parallel implements the outbound client for the Parallel
// Search API (https://docs.parallel.ai). One Search call maps to exactly
// one HTTP POST with no retries.
package parallel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dallenpyrah/parallel-ai-mcp/internal/domain"
)

const (
	// DefaultBaseURL is the fixed endpoint of the Parallel Search API.
	DefaultBaseURL = "https://api.parallel.ai"

	// DefaultTimeout bounds the single request attempt.
	DefaultTimeout = 60 * time.Second

	searchPath = "/v1beta/search"

	maxResponseBodySize = 4 * 1024 * 1024 // 4MB
)

// searchRequestBody is the wire payload. Optional fields carry omitempty
// so that "unset" is encoded as omission, never as null.
type searchRequestBody struct {
	Processor         string         `json:"processor"`
	Objective         string         `json:"objective,omitempty"`
	SearchQueries     []string       `json:"search_queries,omitempty"`
	MaxResults        *int           `json:"max_results,omitempty"`
	MaxCharsPerResult *int           `json:"max_chars_per_result,omitempty"`
	SourcePolicy      map[string]any `json:"source_policy,omitempty"`
}

// searchResponseBody models the relevant portion of the API response.
type searchResponseBody struct {
	SearchID string `json:"search_id"`
	Results  []struct {
		Title    string   `json:"title"`
		URL      string   `json:"url"`
		Excerpts []string `json:"excerpts"`
	} `json:"results"`
}

// Client talks to the Parallel Search API.
type Client struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a Parallel Search API client. An empty baseURL selects
// the production endpoint; a non-positive timeout selects the default 60s.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Search issues exactly one POST to the search endpoint and parses the
// result. Failures are typed: domain.ErrTimeout when the attempt did not
// complete in time, *domain.RemoteError for a non-200 answer, and a
// wrapped transport error otherwise.
func (c *Client) Search(ctx context.Context, apiKey string, req domain.SearchRequest) (*domain.SearchResponse, error) {
	body := searchRequestBody{
		Processor:         req.Processor,
		Objective:         req.Objective,
		MaxResults:        req.MaxResults,
		MaxCharsPerResult: req.MaxCharsPerResult,
	}
	if len(req.SearchQueries) > 0 {
		body.SearchQueries = req.SearchQueries
	}
	if len(req.SourcePolicy) > 0 {
		body.SourcePolicy = req.SourcePolicy
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, domain.WrapOp("search", domain.ErrTimeout)
		}
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.RemoteError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed searchResponseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	out := &domain.SearchResponse{
		SearchID: parsed.SearchID,
		Results:  make([]domain.SearchResult, 0, len(parsed.Results)),
	}
	for _, r := range parsed.Results {
		out.Results = append(out.Results, domain.SearchResult{
			Title:    r.Title,
			URL:      r.URL,
			Excerpts: r.Excerpts,
		})
	}

	c.logger.Debug("parallel search completed",
		"search_id", out.SearchID,
		"results", len(out.Results),
	)
	return out, nil
}

// isTimeout reports whether the transport error was a timeout rather than
// some other network failure.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
