package tool

import (
	"context"
	"os"

	"github.com/dallenpyrah/parallel-ai-mcp/internal/domain"
)

// apiKeyEnvVar is the process-environment fallback for the credential.
const apiKeyEnvVar = "PARALLEL_API_KEY"

// missingAPIKeyMessage is returned verbatim when no credential resolves.
const missingAPIKeyMessage = "Error: Parallel API key is required. Either pass it as 'api_key' " +
	"parameter, set PARALLEL_API_KEY environment variable, or configure " +
	"it in your MCP client headers as 'x-api-key'. " +
	"Get your API key from https://parallel.ai"

// apiKeyResolver yields a credential from one source, or "" if the source
// has none.
type apiKeyResolver func(ctx context.Context, explicit string) string

// apiKeyResolvers is the ordered fallback chain: explicit parameter, then
// process environment, then the x-api-key header the hosting shell
// forwarded into the context.
var apiKeyResolvers = []apiKeyResolver{
	func(_ context.Context, explicit string) string { return explicit },
	func(context.Context, string) string { return os.Getenv(apiKeyEnvVar) },
	func(ctx context.Context, _ string) string { return domain.APIKeyFromContext(ctx) },
}

// ResolveAPIKey evaluates the resolver chain until one source yields a
// credential. The second return value is false when none does.
func ResolveAPIKey(ctx context.Context, explicit string) (string, bool) {
	for _, resolve := range apiKeyResolvers {
		if key := resolve(ctx, explicit); key != "" {
			return key, true
		}
	}
	return "", false
}
