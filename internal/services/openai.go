package services

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jwebster45206/husky-snow/pkg/chat"
)

// OpenAIService implements LLMService using the OpenAI chat completions
// API. A custom base URL allows OpenAI-compatible providers.
type OpenAIService struct {
	client    *openai.Client
	modelName string
}

// NewOpenAIService creates an OpenAI-backed LLM service. baseURL may be
// empty to use the default endpoint.
func NewOpenAIService(apiKey, modelName, baseURL string) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIService{
		client:    openai.NewClientWithConfig(config),
		modelName: modelName,
	}
}

// Generate runs one storyteller turn.
func (o *OpenAIService) Generate(ctx context.Context, system string, turns []chat.Turn, opts GenerateOptions) (*GenerateResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, t := range turns {
		role := openai.ChatMessageRoleAssistant
		if t.Role == chat.RoleUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: t.Content,
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.modelName,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxOutputTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return &GenerateResult{FinishReason: FinishOther}, nil
	}

	choice := resp.Choices[0]
	return &GenerateResult{
		Text:         choice.Message.Content,
		FinishReason: normalizeOpenAIFinishReason(choice.FinishReason),
	}, nil
}

// Summarize runs a single-turn recap prompt.
func (o *OpenAIService) Summarize(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.5,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty summary returned from API")
	}
	return resp.Choices[0].Message.Content, nil
}

func normalizeOpenAIFinishReason(reason openai.FinishReason) FinishReason {
	switch reason {
	case openai.FinishReasonStop, "":
		return FinishStop
	case openai.FinishReasonLength:
		return FinishMaxTokens
	case openai.FinishReasonContentFilter:
		return FinishSafety
	default:
		return FinishOther
	}
}
