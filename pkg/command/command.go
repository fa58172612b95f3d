// Package command implements the inline command protocol the storyteller
// model uses to mutate game state. Commands are embedded in narrative
// output as [[ACTION: arg1 | arg2]] tokens on their own lines.
package command

import (
	"fmt"
	"strings"
)

// Command is a decoded state mutation. The set of variants is closed;
// anything the decoder does not recognize becomes Unknown so callers can
// log and skip it without failing the batch.
type Command interface {
	// Action returns the protocol verb, e.g. "ADD_ITEM".
	Action() string
}

// AddItem grants one unit of a registry item to a character's player.
type AddItem struct {
	CharacterName string
	ItemID        string
}

func (c AddItem) Action() string { return "ADD_ITEM" }

// AwardBadge grants a registry badge to a character's player.
type AwardBadge struct {
	CharacterName string
	BadgeID       string
}

func (c AwardBadge) Action() string { return "AWARD_BADGE" }

// Unknown preserves an unrecognized or malformed token for logging.
// Processors skip it.
type Unknown struct {
	Token  string
	Reason string
}

func (c Unknown) Action() string { return "UNKNOWN" }

// Decode parses a single [[...]] token into a Command. The token must
// include the surrounding brackets. Malformed or unrecognized tokens
// decode to Unknown rather than an error; a non-nil error means the
// input is not a command token at all.
func Decode(token string) (Command, error) {
	trimmed := strings.TrimSpace(token)
	if !strings.HasPrefix(trimmed, "[[") || !strings.HasSuffix(trimmed, "]]") {
		return nil, fmt.Errorf("not a command token: %q", token)
	}
	body := strings.TrimSpace(trimmed[2 : len(trimmed)-2])

	action, rest, found := strings.Cut(body, ":")
	if !found {
		return Unknown{Token: token, Reason: "missing action separator"}, nil
	}
	action = strings.TrimSpace(action)

	var args []string
	for _, a := range strings.Split(rest, "|") {
		args = append(args, strings.TrimSpace(a))
	}

	switch action {
	case "ADD_ITEM":
		if len(args) != 2 || args[0] == "" || args[1] == "" {
			return Unknown{Token: token, Reason: "ADD_ITEM expects 2 args"}, nil
		}
		return AddItem{CharacterName: args[0], ItemID: args[1]}, nil
	case "AWARD_BADGE":
		if len(args) != 2 || args[0] == "" || args[1] == "" {
			return Unknown{Token: token, Reason: "AWARD_BADGE expects 2 args"}, nil
		}
		return AwardBadge{CharacterName: args[0], BadgeID: args[1]}, nil
	default:
		return Unknown{Token: token, Reason: fmt.Sprintf("unrecognized action %q", action)}, nil
	}
}

// DecodeAll decodes a batch of tokens, preserving order. Tokens that are
// not command-shaped at all are dropped.
func DecodeAll(tokens []string) []Command {
	cmds := make([]Command, 0, len(tokens))
	for _, tok := range tokens {
		cmd, err := Decode(tok)
		if err != nil {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}
