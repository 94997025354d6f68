// These tests make real OpenAI API calls and are skipped by default.
//
// To run them:
//
//	INTEGRATION_TEST=1 go test ./internal/llm/... -v -run Integration
//
// Required environment variables (in .env.test.local or the shell env):
//   - CHESSMATE_OPENAI_API_KEY: OpenAI API key
package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessmate/chessmate/internal/reliability"
	"github.com/chessmate/chessmate/internal/testutil"
)

func TestIntegration_EmbeddingsClient_Embed(t *testing.T) {
	testutil.LoadTestEnv(t)
	testutil.SkipIfNotIntegration(t)
	apiKey := testutil.RequireEnvVar(t, "CHESSMATE_OPENAI_API_KEY")

	client := NewEmbeddingsClient(apiKey, "text-embedding-3-small", reliability.RetryConfig{
		MaxAttempts:  2,
		InitialDelay: 200 * time.Millisecond,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	vectors, err := client.Embed(ctx, []string{"1. e4 e5 2. Nf3 Nc6 3. Bb5"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.NotEmpty(t, vectors[0])
}

func TestIntegration_ChatClient_CompleteJSON(t *testing.T) {
	testutil.LoadTestEnv(t)
	testutil.SkipIfNotIntegration(t)
	apiKey := testutil.RequireEnvVar(t, "CHESSMATE_OPENAI_API_KEY")

	client := NewChatClient(apiKey, "gpt-4o-mini", reliability.RetryConfig{
		MaxAttempts:  2,
		InitialDelay: 200 * time.Millisecond,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	out, err := client.CompleteJSON(ctx, "Respond with a single JSON object {\"ok\": true}.", "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
}
