package analyzer

import (
	"artcritic/internal/core/domain"
	"context"
	"errors"
	"testing"

	"github.com/revrost/go-openrouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for completionClient.
type mockClient struct {
	createChatCompletionFunc func(ctx context.Context,
		ccr openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error)
}

func (m *mockClient) CreateChatCompletion(ctx context.Context,
	ccr openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error) {
	return m.createChatCompletionFunc(ctx, ccr)
}

func choice(text string) []openrouter.ChatCompletionChoice {
	return []openrouter.ChatCompletionChoice{{
		Message: openrouter.ChatCompletionMessage{
			Content: openrouter.Content{Text: text},
		},
	}}
}

func TestOpenRouterAnalyze(t *testing.T) {
	testCases := []struct {
		name         string
		mockResp     openrouter.ChatCompletionResponse
		mockErr      error
		expectedResp domain.CritiqueResult
		expectedErr  error
	}{
		{
			name:         "success",
			mockResp:     openrouter.ChatCompletionResponse{Choices: choice("Bold palette.")},
			expectedResp: "Bold palette.",
		},
		{
			name:        "API error returned",
			mockErr:     errors.New("api failure"),
			expectedErr: domain.ErrNetwork,
		},
		{
			name:        "no choices",
			mockResp:    openrouter.ChatCompletionResponse{},
			expectedErr: domain.ErrMalformedResponse,
		},
		{
			name:        "empty text",
			mockResp:    openrouter.ChatCompletionResponse{Choices: choice("")},
			expectedErr: domain.ErrMalformedResponse,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var sent openrouter.ChatCompletionRequest
			mock := &mockClient{
				createChatCompletionFunc: func(_ context.Context,
					ccr openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error) {
					sent = ccr
					return tc.mockResp, tc.mockErr
				},
			}
			o := &OpenRouter{
				client:       mock,
				model:        "openai/gpt-4.1",
				systemPrompt: "system",
				configured:   true,
			}

			resp, err := o.Analyze(t.Context(), "aGVsbG8=")
			assert.Equal(t, "openai/gpt-4.1", sent.Model)

			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedResp, resp)
		})
	}
}

func TestOpenRouterBuildRequest(t *testing.T) {
	o := &OpenRouter{model: "google/gemini-2.5-flash", systemPrompt: "be kind"}

	req := o.buildRequest("aGVsbG8=")

	require.Len(t, req.Messages, 2)
	assert.Equal(t, openrouter.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "be kind", req.Messages[0].Content.Text)

	parts := req.Messages[1].Content.Multi
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].ImageURL)
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", parts[0].ImageURL.URL)
	assert.Equal(t, userPrompt, parts[1].Text)
}

func TestOpenRouterCheckHealth(t *testing.T) {
	assert.Equal(t, domain.Unhealthy, NewOpenRouter("", "m", "").CheckHealth(t.Context()).State)

	status := NewOpenRouter("key", "m", "").CheckHealth(t.Context())
	assert.Equal(t, domain.Healthy, status.State)
	assert.False(t, status.CheckedAt.IsZero())
}
