package domain

// Limits imposed on a search request before it is sent to the Parallel
// Search API. Requests violating them are rejected locally.
const (
	MaxObjectiveChars = 5000
	MaxSearchQueries  = 5
	MaxQueryChars     = 200
	MinCharsPerResult = 100
	MaxCharsPerResult = 30000
)

// Processor tiers offered by the Parallel Search API.
const (
	ProcessorBase = "base"
	ProcessorPro  = "pro"
)

// SearchRequest describes one web search to run against the Parallel
// Search API. Optional numeric fields are pointers so that "unset" is
// distinguishable from zero and omitted from the wire payload.
type SearchRequest struct {
	Objective         string
	SearchQueries     []string
	Processor         string
	MaxResults        *int
	MaxCharsPerResult *int
	SourcePolicy      map[string]any
}

// SearchResult is a single ranked result with its compressed excerpts.
type SearchResult struct {
	Title    string
	URL      string
	Excerpts []string
}

// SearchResponse is the parsed payload of one completed search.
type SearchResponse struct {
	SearchID string
	Results  []SearchResult
}
