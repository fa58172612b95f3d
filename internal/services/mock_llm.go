package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/jwebster45206/husky-snow/pkg/chat"
)

// MockLLMService is a scripted LLMService for tests. Generate pops
// queued results in order; Summarize returns a fixed summary. All calls
// are recorded.
type MockLLMService struct {
	mu sync.Mutex

	// Results are returned by Generate in order. When exhausted,
	// Generate returns Err or a default STOP result.
	Results []*GenerateResult
	Err     error

	Summary      string
	SummarizeErr error

	GenerateCalls  []GenerateCall
	SummarizeCalls []string
}

// GenerateCall records the inputs of one Generate invocation.
type GenerateCall struct {
	System string
	Turns  []chat.Turn
	Opts   GenerateOptions
}

func (m *MockLLMService) Generate(_ context.Context, system string, turns []chat.Turn, opts GenerateOptions) (*GenerateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateCalls = append(m.GenerateCalls, GenerateCall{
		System: system,
		Turns:  append([]chat.Turn(nil), turns...),
		Opts:   opts,
	})

	if len(m.Results) > 0 {
		res := m.Results[0]
		m.Results = m.Results[1:]
		return res, nil
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &GenerateResult{
		Text:         fmt.Sprintf("Mock narrative %d.\n- Keep going", len(m.GenerateCalls)),
		FinishReason: FinishStop,
	}, nil
}

func (m *MockLLMService) Summarize(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SummarizeCalls = append(m.SummarizeCalls, prompt)
	if m.SummarizeErr != nil {
		return "", m.SummarizeErr
	}
	if m.Summary != "" {
		return m.Summary, nil
	}
	return "A mock recap of the story so far.", nil
}
