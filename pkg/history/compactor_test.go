package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/husky-snow/pkg/chat"
	"github.com/jwebster45206/husky-snow/pkg/prompts"
)

type stubSummarizer struct {
	summary string
	err     error
	prompt  string
	calls   int
}

func (s *stubSummarizer) Summarize(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.summary, s.err
}

func makeTranscript(n int) []chat.Message {
	msgs := make([]chat.Message, n)
	for i := range msgs {
		role := chat.RoleUser
		author := "Shiver"
		if i%2 == 1 {
			role = chat.RoleModel
			author = "Quinn"
		}
		msgs[i] = chat.Message{Role: role, Author: author, Text: fmt.Sprintf("turn %d", i)}
	}
	return msgs
}

func TestCompactLongTranscript(t *testing.T) {
	s := &stubSummarizer{summary: "The pups set out at dawn."}
	c := NewCompactor(s, nil)

	msgs := makeTranscript(25)
	recent, recap := c.Compact(context.Background(), msgs)

	require.Len(t, recent, RecentCount)
	assert.Equal(t, msgs[15:], recent, "recent window is the transcript suffix")
	assert.Equal(t, "The pups set out at dawn.", recap)

	assert.Equal(t, 1, s.calls)
	assert.Contains(t, s.prompt, "story summarizer")
	assert.Contains(t, s.prompt, "(Shiver): turn 0")
	assert.Contains(t, s.prompt, "(Quinn): turn 13")
	assert.NotContains(t, s.prompt, "turn 15", "recent messages are not summarized")
}

func TestCompactShortTranscriptPassesThrough(t *testing.T) {
	s := &stubSummarizer{summary: "unused"}
	c := NewCompactor(s, nil)

	msgs := makeTranscript(15)
	recent, recap := c.Compact(context.Background(), msgs)

	assert.Equal(t, msgs, recent)
	assert.Empty(t, recap)
	assert.Equal(t, 0, s.calls, "summarizer is not called under threshold")
}

func TestCompactExactThresholdPassesThrough(t *testing.T) {
	c := NewCompactor(&stubSummarizer{}, nil)
	msgs := makeTranscript(Threshold)
	recent, recap := c.Compact(context.Background(), msgs)
	assert.Len(t, recent, Threshold)
	assert.Empty(t, recap)
}

func TestCompactSummarizerFailureFallsBack(t *testing.T) {
	s := &stubSummarizer{err: fmt.Errorf("model unavailable")}
	c := NewCompactor(s, nil)

	recent, recap := c.Compact(context.Background(), makeTranscript(21))
	require.Len(t, recent, RecentCount)
	assert.Equal(t, prompts.FallbackRecap, recap)
}

func TestCompactEmptySummaryFallsBack(t *testing.T) {
	s := &stubSummarizer{summary: "   "}
	c := NewCompactor(s, nil)

	_, recap := c.Compact(context.Background(), makeTranscript(21))
	assert.Equal(t, prompts.FallbackRecap, recap)
}
