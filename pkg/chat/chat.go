package chat

import (
	"fmt"
	"strings"
	"time"
)

// Message roles form a closed set. The store rejects anything else.
const (
	RoleUser   = "user"   // a player action or dice roll
	RoleModel  = "model"  // narrative from the storyteller model
	RoleSystem = "system" // join notices, item and badge grants
	RoleError  = "error"  // persisted generation failure, retryable by the host
)

// Message is one entry in a session's shared transcript. Messages are
// append-only; the store assigns ID and CreatedAt, and CreatedAt is the
// sole ordering key (ID breaks ties).
type Message struct {
	ID          string    `json:"id,omitempty"`
	Role        string    `json:"role"`
	Text        string    `json:"text"`
	Author      string    `json:"author,omitempty"` // character display name
	IsRoll      bool      `json:"is_roll,omitempty"`
	RollOutcome string    `json:"roll_outcome,omitempty"` // e.g. "Success", "Critical Fail!"
	CreatedAt   time.Time `json:"created_at"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// Turn is the LLM-facing shape of a transcript entry. Only user and model
// roles appear in turns; system instructions travel separately.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ValidRole reports whether role belongs to the closed message role set.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleModel, RoleSystem, RoleError:
		return true
	}
	return false
}

// Validate checks a message before it is appended to the transcript.
func (m *Message) Validate() error {
	if !ValidRole(m.Role) {
		return fmt.Errorf("invalid message role: %q", m.Role)
	}
	if strings.TrimSpace(m.Text) == "" {
		return fmt.Errorf("message text cannot be empty")
	}
	return nil
}
