// Package llm wraps the OpenAI SDK for the two external calls the
// pipeline needs: batch embeddings (ingestion) and chat-based agent
// evaluation (query-time re-ranking).
package llm

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/chessmate/chessmate/internal/reliability"
)

// EmbeddingsClient calls an OpenAI-compatible embeddings endpoint.
type EmbeddingsClient struct {
	client *openai.Client
	model  string
	retry  reliability.RetryConfig
}

// NewEmbeddingsClient builds an embeddings client. httpClient, when
// non-nil, replaces the SDK's default transport — callers pass a
// telemetry.WrapHTTPClient-wrapped client to trace outbound OpenAI calls;
// nil keeps the SDK's own default *http.Client.
func NewEmbeddingsClient(apiKey, model string, retry reliability.RetryConfig, httpClient *http.Client) *EmbeddingsClient {
	cfg := openai.DefaultConfig(apiKey)
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &EmbeddingsClient{client: openai.NewClientWithConfig(cfg), model: model, retry: retry}
}

// Embed returns one embedding vector per input string, in order,
// retrying retryable failures per the shared retry envelope (spec §4.D
// Embedding call).
func (c *EmbeddingsClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	cfg := c.retry
	cfg.Classify = ClassifyOpenAIError

	result, err := reliability.Retry(func(attempt int) (openai.EmbeddingResponse, error) {
		return c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: inputs,
			Model: openai.EmbeddingModel(c.model),
		})
	}, cfg)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(result.Data))
	for _, d := range result.Data {
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// ChatClient wraps a chat-completion call used by the agent evaluator to
// score candidate games (spec §4.C).
type ChatClient struct {
	client *openai.Client
	model  string
	retry  reliability.RetryConfig
}

// NewChatClient builds a chat client; see NewEmbeddingsClient for the
// httpClient parameter's purpose.
func NewChatClient(apiKey, model string, retry reliability.RetryConfig, httpClient *http.Client) *ChatClient {
	cfg := openai.DefaultConfig(apiKey)
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &ChatClient{client: openai.NewClientWithConfig(cfg), model: model, retry: retry}
}

// CompleteJSON sends a system+user prompt pair and returns the raw
// assistant content, expected by the caller to be a strict JSON object
// (spec §4.C prompt contract).
func (c *ChatClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	cfg := c.retry
	cfg.Classify = ClassifyOpenAIError

	resp, err := reliability.Retry(func(attempt int) (openai.ChatCompletionResponse, error) {
		return c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		})
	}, cfg)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// ClassifyOpenAIError implements reliability.Classify for OpenAI SDK
// errors: API errors with status 408, 429, 500, 502, 503 or 504 are
// retryable (spec §4.C step 4 / §4.D Embedding call step 2), as are
// transport errors and any error that is not an *openai.APIError; every
// other API error is resolved (terminal).
func ClassifyOpenAIError(err error) reliability.Outcome {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return reliability.Retryable
		}
		return reliability.Resolved
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reliability.Retryable
	}

	return reliability.Retryable
}
