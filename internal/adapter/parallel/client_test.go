package parallel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/dallenpyrah/parallel-ai-mcp/internal/domain"
)

func newTestLogger() *slog.Logger { return slog.Default() }

// roundTripFunc lets tests fake the HTTP transport.
type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// timeoutError satisfies net.Error with Timeout() == true.
type timeoutError struct{}

func (timeoutError) Error() string   { return "request timed out" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// errReader fails on the first read.
type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, fmt.Errorf("read failure") }

func newClientWithTransport(rt roundTripFunc) *Client {
	c := NewClient("https://api.example.test", 0, newTestLogger())
	c.client = &http.Client{Transport: rt}
	return c
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestClientDefaults(t *testing.T) {
	c := NewClient("", 0, newTestLogger())
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
	if c.client.Timeout != DefaultTimeout {
		t.Errorf("timeout = %s, want %s", c.client.Timeout, DefaultTimeout)
	}
}

func TestClientTrailingSlashTrimmed(t *testing.T) {
	c := NewClient("https://api.example.test/", 0, newTestLogger())
	if c.baseURL != "https://api.example.test" {
		t.Errorf("baseURL = %q, want trailing slash trimmed", c.baseURL)
	}
}

func TestSearchRequestShape(t *testing.T) {
	var gotBody map[string]any
	c := newClientWithTransport(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", req.Method)
		}
		if req.URL.Path != "/v1beta/search" {
			t.Errorf("path = %q, want /v1beta/search", req.URL.Path)
		}
		if got := req.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
		if got := req.Header.Get("x-api-key"); got != "key-123" {
			t.Errorf("x-api-key = %q, want key-123", got)
		}
		if err := json.NewDecoder(req.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		return jsonResponse(200, `{"search_id":"s1","results":[]}`), nil
	})

	maxResults := 3
	_, err := c.Search(context.Background(), "key-123", domain.SearchRequest{
		Objective:  "find go docs",
		Processor:  "base",
		MaxResults: &maxResults,
	})
	if err != nil {
		t.Fatal(err)
	}

	if gotBody["processor"] != "base" {
		t.Errorf("processor = %v, want base", gotBody["processor"])
	}
	if gotBody["objective"] != "find go docs" {
		t.Errorf("objective = %v, want find go docs", gotBody["objective"])
	}
	if gotBody["max_results"] != float64(3) {
		t.Errorf("max_results = %v, want 3", gotBody["max_results"])
	}
}

func TestSearchOptionalFieldsOmitted(t *testing.T) {
	var gotBody map[string]any
	c := newClientWithTransport(func(req *http.Request) (*http.Response, error) {
		if err := json.NewDecoder(req.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		return jsonResponse(200, `{"search_id":"s1","results":[]}`), nil
	})

	_, err := c.Search(context.Background(), "k", domain.SearchRequest{
		Objective: "anything",
		Processor: "base",
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"search_queries", "max_results", "max_chars_per_result", "source_policy"} {
		if _, present := gotBody[key]; present {
			t.Errorf("unset field %q present in request body", key)
		}
	}
}

func TestSearchQueriesAndSourcePolicySent(t *testing.T) {
	var gotBody map[string]any
	c := newClientWithTransport(func(req *http.Request) (*http.Response, error) {
		if err := json.NewDecoder(req.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		return jsonResponse(200, `{"search_id":"s1","results":[]}`), nil
	})

	_, err := c.Search(context.Background(), "k", domain.SearchRequest{
		SearchQueries: []string{"go testing", "go modules"},
		Processor:     "pro",
		SourcePolicy:  map[string]any{"include_domains": []string{"go.dev"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	queries, ok := gotBody["search_queries"].([]any)
	if !ok || len(queries) != 2 {
		t.Errorf("search_queries = %v, want 2 entries", gotBody["search_queries"])
	}
	if _, ok := gotBody["source_policy"].(map[string]any); !ok {
		t.Errorf("source_policy = %v, want object", gotBody["source_policy"])
	}
	if _, present := gotBody["objective"]; present {
		t.Error("empty objective present in request body")
	}
}

func TestSearchParsesResults(t *testing.T) {
	c := newClientWithTransport(func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"search_id":"s1","results":[{"title":"T","url":"U","excerpts":["a","b"]}]}`), nil
	})

	resp, err := c.Search(context.Background(), "k", domain.SearchRequest{Objective: "x", Processor: "base"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.SearchID != "s1" {
		t.Errorf("SearchID = %q, want s1", resp.SearchID)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(resp.Results))
	}
	r := resp.Results[0]
	if r.Title != "T" || r.URL != "U" || len(r.Excerpts) != 2 {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestSearchNon200ReturnsRemoteError(t *testing.T) {
	c := newClientWithTransport(func(*http.Request) (*http.Response, error) {
		return jsonResponse(500, "boom"), nil
	})

	_, err := c.Search(context.Background(), "k", domain.SearchRequest{Objective: "x", Processor: "base"})
	var remote *domain.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.StatusCode != 500 || remote.Body != "boom" {
		t.Errorf("RemoteError = %+v, want 500/boom", remote)
	}
}

func TestSearchTimeout(t *testing.T) {
	c := newClientWithTransport(func(*http.Request) (*http.Response, error) {
		return nil, timeoutError{}
	})

	_, err := c.Search(context.Background(), "k", domain.SearchRequest{Objective: "x", Processor: "base"})
	if !errors.Is(err, domain.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestSearchContextDeadline(t *testing.T) {
	c := newClientWithTransport(func(*http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})

	_, err := c.Search(context.Background(), "k", domain.SearchRequest{Objective: "x", Processor: "base"})
	if !errors.Is(err, domain.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestSearchTransportError(t *testing.T) {
	c := newClientWithTransport(func(*http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("connection refused")
	})

	_, err := c.Search(context.Background(), "k", domain.SearchRequest{Objective: "x", Processor: "base"})
	if err == nil {
		t.Fatal("expected error for transport failure")
	}
	if errors.Is(err, domain.ErrTimeout) {
		t.Error("transport error misclassified as timeout")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error should carry the transport message, got: %v", err)
	}
}

func TestSearchBodyReadError(t *testing.T) {
	c := newClientWithTransport(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: 200,
			Body:       io.NopCloser(errReader{}),
			Header:     make(http.Header),
		}, nil
	})

	_, err := c.Search(context.Background(), "k", domain.SearchRequest{Objective: "x", Processor: "base"})
	if err == nil {
		t.Error("expected error for body read failure")
	}
}

func TestSearchInvalidResponseJSON(t *testing.T) {
	c := newClientWithTransport(func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, "not json"), nil
	})

	_, err := c.Search(context.Background(), "k", domain.SearchRequest{Objective: "x", Processor: "base"})
	if err == nil {
		t.Error("expected error for invalid response JSON")
	}
}
