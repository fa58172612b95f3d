package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/husky-snow/pkg/chat"
	"github.com/jwebster45206/husky-snow/pkg/party"
)

// Builder constructs the system instruction and turn list for one
// storyteller call using a fluent interface. It holds no connection
// state; callers supply the compacted history and roster each time.
type Builder struct {
	players []party.Player
	history []chat.Message
	recap   string
	prompt  string
}

// New creates a new prompt builder.
func New() *Builder {
	return &Builder{}
}

// WithPlayers sets the session roster whose lore goes into the system
// instruction.
func (b *Builder) WithPlayers(players []party.Player) *Builder {
	b.players = players
	return b
}

// WithHistory sets the compacted transcript window.
func (b *Builder) WithHistory(history []chat.Message) *Builder {
	b.history = history
	return b
}

// WithRecap sets the compaction summary, injected as the oldest model
// turn wrapped in recap markers. Empty means no compaction happened.
func (b *Builder) WithRecap(summary string) *Builder {
	b.recap = summary
	return b
}

// WithPrompt sets the new prompt appended as the final user turn.
func (b *Builder) WithPrompt(prompt string) *Builder {
	b.prompt = prompt
	return b
}

// Build returns the system instruction and the ordered turn list.
// System-role and error-role messages never reach the model, nor do
// messages with empty text; everything else is rendered as
// "(author): text" so the model can track who acted.
func (b *Builder) Build() (string, []chat.Turn, error) {
	if b.prompt == "" {
		return "", nil, fmt.Errorf("prompt is required")
	}

	system := BuildSystemPrompt(b.players)

	turns := make([]chat.Turn, 0, len(b.history)+2)
	if b.recap != "" {
		turns = append(turns, chat.Turn{
			Role:    chat.RoleModel,
			Content: FormatRecap(b.recap),
		})
	}

	for _, m := range b.history {
		if m.Role == chat.RoleSystem || m.Role == chat.RoleError {
			continue
		}
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		role := chat.RoleModel
		if m.Role == chat.RoleUser {
			role = chat.RoleUser
		}
		turns = append(turns, chat.Turn{
			Role:    role,
			Content: fmt.Sprintf("(%s): %s", m.Author, m.Text),
		})
	}

	turns = append(turns, chat.Turn{
		Role:    chat.RoleUser,
		Content: b.prompt,
	})

	return system, turns, nil
}
