package tool

import (
	"context"
	"testing"

	"github.com/dallenpyrah/parallel-ai-mcp/internal/domain"
)

func TestResolveAPIKeyExplicitWins(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "env-key")
	ctx := domain.WithAPIKey(context.Background(), "header-key")

	key, ok := ResolveAPIKey(ctx, "explicit-key")
	if !ok || key != "explicit-key" {
		t.Errorf("ResolveAPIKey = %q/%v, want explicit-key", key, ok)
	}
}

func TestResolveAPIKeyEnvBeforeHeader(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "env-key")
	ctx := domain.WithAPIKey(context.Background(), "header-key")

	key, ok := ResolveAPIKey(ctx, "")
	if !ok || key != "env-key" {
		t.Errorf("ResolveAPIKey = %q/%v, want env-key", key, ok)
	}
}

func TestResolveAPIKeyHeaderFallback(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "")
	ctx := domain.WithAPIKey(context.Background(), "header-key")

	key, ok := ResolveAPIKey(ctx, "")
	if !ok || key != "header-key" {
		t.Errorf("ResolveAPIKey = %q/%v, want header-key", key, ok)
	}
}

func TestResolveAPIKeyNone(t *testing.T) {
	t.Setenv(apiKeyEnvVar, "")

	key, ok := ResolveAPIKey(context.Background(), "")
	if ok || key != "" {
		t.Errorf("ResolveAPIKey = %q/%v, want no credential", key, ok)
	}
}
