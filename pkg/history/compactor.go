// Package history keeps the storyteller's context window bounded by
// replacing old transcript with a model-written recap.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/husky-snow/pkg/chat"
	"github.com/jwebster45206/husky-snow/pkg/prompts"
)

const (
	// Threshold is the transcript length above which compaction kicks in.
	Threshold = 20
	// RecentCount is how many trailing messages survive compaction verbatim.
	RecentCount = 10
)

// Summarizer produces a recap of rendered transcript text. The LLM
// service satisfies this.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Compactor windows long transcripts down to a recent suffix plus a
// recap of everything older.
type Compactor struct {
	summarizer Summarizer
	logger     *slog.Logger
}

func NewCompactor(s Summarizer, logger *slog.Logger) *Compactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compactor{summarizer: s, logger: logger}
}

// Compact returns the transcript window to send to the storyteller and
// a recap of the compacted prefix. Transcripts at or under the threshold
// pass through unchanged with an empty recap. A summarizer failure never
// fails the turn; the recap degrades to a fixed fallback line.
func (c *Compactor) Compact(ctx context.Context, msgs []chat.Message) ([]chat.Message, string) {
	if len(msgs) <= Threshold {
		return msgs, ""
	}

	old := msgs[:len(msgs)-RecentCount]
	recent := msgs[len(msgs)-RecentCount:]

	prompt := fmt.Sprintf(prompts.SummarizationPrompt, Render(old))
	summary, err := c.summarizer.Summarize(ctx, prompt)
	if err != nil || strings.TrimSpace(summary) == "" {
		c.logger.Warn("History summarization failed, using fallback recap",
			"messages", len(old), "error", errString(err))
		summary = prompts.FallbackRecap
	}
	return recent, summary
}

// Render formats messages for the summarizer, one "(author): text" line
// per message.
func Render(msgs []chat.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("(%s): %s", m.Author, m.Text))
	}
	return strings.Join(lines, "\n")
}

func errString(err error) string {
	if err == nil {
		return "empty summary"
	}
	return err.Error()
}
