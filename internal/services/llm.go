package services

import (
	"context"

	"github.com/jwebster45206/husky-snow/pkg/chat"
)

// FinishReason is the normalized completion status across providers.
type FinishReason string

const (
	FinishStop      FinishReason = "STOP"
	FinishMaxTokens FinishReason = "MAX_TOKENS"
	FinishSafety    FinishReason = "SAFETY"
	FinishOther     FinishReason = "OTHER"
)

// GenerateOptions tune one storyteller call.
type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int
}

// GenerateResult is one completion. Callers must check FinishReason:
// a non-STOP reason or empty Text is a failed turn even when err is nil.
type GenerateResult struct {
	Text         string
	FinishReason FinishReason
}

// LLMService defines the interface for the narrative model providers.
type LLMService interface {
	// Generate runs one storyteller turn.
	Generate(ctx context.Context, system string, turns []chat.Turn, opts GenerateOptions) (*GenerateResult, error)

	// Summarize runs a single-turn recap prompt on the cheaper
	// summarizer model.
	Summarize(ctx context.Context, prompt string) (string, error)
}
