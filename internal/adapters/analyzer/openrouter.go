package analyzer

import (
	"artcritic/internal/core/domain"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/revrost/go-openrouter"
)

const (
	defaultSystemPrompt = "You are an art critic. Give honest, constructive feedback on the artwork: " +
		"composition, color, technique and what could be improved."
	userPrompt = "Please critique this artwork."
)

type completionClient interface {
	CreateChatCompletion(ctx context.Context,
		ccr openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error)
}

// OpenRouter asks a vision model directly instead of going through the
// analysis service.
type OpenRouter struct {
	client       completionClient
	model        string
	systemPrompt string
	configured   bool
}

func NewOpenRouter(apiKey, model, systemPrompt string) *OpenRouter {
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	return &OpenRouter{
		client: openrouter.NewClient(
			apiKey,
			openrouter.WithXTitle("artcritic"),
		),
		model:        model,
		systemPrompt: systemPrompt,
		configured:   apiKey != "",
	}
}

func (o *OpenRouter) Analyze(ctx context.Context, payload domain.TransportPayload) (domain.CritiqueResult, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.buildRequest(payload))
	if err != nil {
		return "", fmt.Errorf("%w: openrouter API error: %w", domain.ErrNetwork, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", domain.ErrMalformedResponse)
	}

	text := resp.Choices[0].Message.Content.Text
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrMalformedResponse)
	}

	return domain.CritiqueResult(text), nil
}

// CheckHealth only reports whether the backend is configured.
func (o *OpenRouter) CheckHealth(_ context.Context) domain.HealthStatus {
	if !o.configured {
		return domain.HealthStatus{
			State:     domain.Unhealthy,
			Message:   "no OpenRouter API key configured",
			CheckedAt: time.Now(),
		}
	}

	return domain.HealthStatus{State: domain.Healthy, Message: "model " + o.model, CheckedAt: time.Now()}
}

func (o *OpenRouter) buildRequest(payload domain.TransportPayload) openrouter.ChatCompletionRequest {
	return openrouter.ChatCompletionRequest{
		Model: o.model,
		Messages: []openrouter.ChatCompletionMessage{
			{
				Role:    openrouter.ChatMessageRoleSystem,
				Content: openrouter.Content{Text: o.systemPrompt},
			},
			{
				Role: openrouter.ChatMessageRoleUser,
				Content: openrouter.Content{Multi: []openrouter.ChatMessagePart{
					{
						Type:     openrouter.ChatMessagePartTypeImageURL,
						ImageURL: &openrouter.ChatMessageImageURL{URL: "data:image/jpeg;base64," + string(payload)},
					},
					{
						Type: openrouter.ChatMessagePartTypeText,
						Text: userPrompt,
					},
				},
				},
			},
		},
	}
}
