package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/dallenpyrah/parallel-ai-mcp/internal/domain"
	"github.com/dallenpyrah/parallel-ai-mcp/internal/infra/tracer"
)

// resultSeparator joins rendered result blocks in the tool output.
const resultSeparator = "\n\n---\n\n"

// SearchClient abstracts the Parallel Search API client.
type SearchClient interface {
	Search(ctx context.Context, apiKey string, req domain.SearchRequest) (*domain.SearchResponse, error)
}

// ParallelSearchTool searches the web via the Parallel Search API and
// renders results as LLM-readable text. Every outcome (success, empty
// result set, any failure) is returned as a single string; failures
// carry an "Error:" prefix so existing callers can keep parsing the text.
type ParallelSearchTool struct {
	client           SearchClient
	defaultProcessor string
	logger           *slog.Logger
}

// NewParallelSearchTool creates the parallel_search tool. An empty
// defaultProcessor selects the "base" tier.
func NewParallelSearchTool(client SearchClient, defaultProcessor string, logger *slog.Logger) *ParallelSearchTool {
	if defaultProcessor == "" {
		defaultProcessor = domain.ProcessorBase
	}
	return &ParallelSearchTool{
		client:           client,
		defaultProcessor: defaultProcessor,
		logger:           logger,
	}
}

func (t *ParallelSearchTool) Name() string { return "parallel_search" }

func (t *ParallelSearchTool) Description() string {
	return "Search the web using Parallel Search API. Returns ranked, compressed excerpts " +
		"optimized for LLMs. Ideal for agentic systems and LLM-based workflows that " +
		"need web information."
}

func (t *ParallelSearchTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"objective": {"type": "string", "maxLength": 5000, "description": "Natural-language description of the web research goal. Include any source or freshness guidance. At least one of objective or search_queries is required."},
				"search_queries": {"type": "array", "items": {"type": "string", "maxLength": 200}, "maxItems": 5, "description": "Optional search queries to guide the search. At least one of objective or search_queries is required."},
				"processor": {"type": "string", "enum": ["base", "pro"], "description": "'base' for fast, general queries; 'pro' for complex research requiring higher quality and freshness."},
				"max_results": {"type": "integer", "description": "Maximum number of search results to return."},
				"max_chars_per_result": {"type": "integer", "minimum": 100, "maximum": 30000, "description": "Maximum characters per search result excerpt."},
				"source_policy": {"type": "object", "description": "Source policy to control retrieval sources, e.g. include_domains or exclude_domains."},
				"api_key": {"type": "string", "description": "Your Parallel API key. Get it from https://parallel.ai"}
			}
		}`),
	}
}

type searchParams struct {
	Objective         string         `json:"objective,omitempty"`
	SearchQueries     []string       `json:"search_queries,omitempty"`
	Processor         string         `json:"processor,omitempty"`
	MaxResults        *int           `json:"max_results,omitempty"`
	MaxCharsPerResult *int           `json:"max_chars_per_result,omitempty"`
	SourcePolicy      map[string]any `json:"source_policy,omitempty"`
	APIKey            string         `json:"api_key,omitempty"`
}

func (t *ParallelSearchTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.parallel_search", t.logger, params,
		func(ctx context.Context, span trace.Span, p searchParams) (any, error) {
			if p.Processor == "" {
				p.Processor = t.defaultProcessor
			}

			// Invalid invocations never reach the network.
			if err := validateSearchParams(p); err != nil {
				return "Error: " + err.Error(), nil
			}

			apiKey, ok := ResolveAPIKey(ctx, p.APIKey)
			if !ok {
				return missingAPIKeyMessage, nil
			}

			span.SetAttributes(
				tracer.StringAttr("tool.processor", p.Processor),
				tracer.IntAttr("tool.search_queries", len(p.SearchQueries)),
			)

			resp, err := t.client.Search(ctx, apiKey, domain.SearchRequest{
				Objective:         p.Objective,
				SearchQueries:     p.SearchQueries,
				Processor:         p.Processor,
				MaxResults:        p.MaxResults,
				MaxCharsPerResult: p.MaxCharsPerResult,
				SourcePolicy:      p.SourcePolicy,
			})
			if err != nil {
				tracer.RecordError(span, err)
				t.logger.Warn("parallel search failed", "error", err)
				return renderSearchError(err), nil
			}

			t.logger.Debug("parallel search succeeded",
				"search_id", resp.SearchID,
				"results", len(resp.Results),
			)
			return formatSearchResults(resp), nil
		},
	)
}

// validateSearchParams enforces the request limits locally so that bad
// invocations fail before any network I/O.
func validateSearchParams(p searchParams) error {
	if p.Objective == "" && len(p.SearchQueries) == 0 {
		// Message is part of the textual contract with existing callers.
		return errors.New("At least one of 'objective' or 'search_queries' is required.")
	}
	if err := ValidateMaxLength("objective", p.Objective, domain.MaxObjectiveChars); err != nil {
		return err
	}
	if len(p.SearchQueries) > domain.MaxSearchQueries {
		return fmt.Errorf("'search_queries' accepts at most %d queries", domain.MaxSearchQueries)
	}
	for i, q := range p.SearchQueries {
		if err := ValidateMaxLength(fmt.Sprintf("search query %d", i+1), q, domain.MaxQueryChars); err != nil {
			return err
		}
	}
	if err := ValidateEnum("processor", p.Processor, domain.ProcessorBase, domain.ProcessorPro); err != nil {
		return err
	}
	if p.MaxCharsPerResult != nil {
		if err := ValidateRange("max_chars_per_result", *p.MaxCharsPerResult, domain.MinCharsPerResult, domain.MaxCharsPerResult); err != nil {
			return err
		}
	}
	return nil
}

// renderSearchError maps a typed client failure onto the textual contract
// served to callers.
func renderSearchError(err error) string {
	var remote *domain.RemoteError
	switch {
	case errors.Is(err, domain.ErrTimeout):
		return "Error: Request to Parallel Search API timed out"
	case errors.As(err, &remote):
		return fmt.Sprintf("Error: Parallel Search API returned %d: %s", remote.StatusCode, remote.Body)
	default:
		return "Error calling Parallel Search API: " + err.Error()
	}
}

// formatSearchResults renders a completed search as text. It is a pure
// function of the response: the same response always yields the same
// string.
func formatSearchResults(resp *domain.SearchResponse) string {
	if len(resp.Results) == 0 {
		id := resp.SearchID
		if id == "" {
			id = "unknown"
		}
		return fmt.Sprintf("Search completed (ID: %s) but no results found.", id)
	}

	blocks := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		title := r.Title
		if title == "" {
			title = "No title"
		}
		url := r.URL
		if url == "" {
			url = "No URL"
		}
		blocks = append(blocks, fmt.Sprintf("**%s**\nURL: %s\n%s", title, url, strings.Join(r.Excerpts, " ")))
	}

	return fmt.Sprintf("Search ID: %s\n\n%s", resp.SearchID, strings.Join(blocks, resultSeparator))
}
