package command

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/husky-snow/pkg/party"
	"github.com/jwebster45206/husky-snow/pkg/session"
)

// Result is the effect of applying one command batch: the updated roster
// (nil when nothing changed) and the system notices to append to the
// transcript, in command order.
type Result struct {
	Players []party.Player
	Notices []string
}

// Processor applies decoded commands to a session roster.
type Processor struct {
	logger *slog.Logger
}

func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger}
}

// Apply runs a command batch against a single copy of the session roster
// and returns the combined result. The whole batch produces at most one
// roster replacement; commands that fail are logged and skipped so one
// bad token never poisons the rest of the batch.
func (p *Processor) Apply(s *session.Session, cmds []Command) Result {
	var res Result
	if s == nil || len(cmds) == 0 {
		return res
	}

	players := make([]party.Player, len(s.Players))
	copy(players, s.Players)
	for i := range s.Players {
		players[i].Inventory = append([]party.InventoryItem(nil), s.Players[i].Inventory...)
		players[i].Badges = append([]party.Badge(nil), s.Players[i].Badges...)
	}

	changed := false
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case AddItem:
			pl := playerByCharacter(players, c.CharacterName)
			if pl == nil {
				p.logger.Warn("Command targets unknown character",
					"action", c.Action(), "character", c.CharacterName)
				continue
			}
			if err := pl.AddItem(c.ItemID); err != nil {
				p.logger.Warn("Failed to apply command", "action", c.Action(), "error", err.Error())
				continue
			}
			changed = true
			res.Notices = append(res.Notices,
				fmt.Sprintf("%s received %s.", c.CharacterName, party.Items[c.ItemID].Name))
		case AwardBadge:
			pl := playerByCharacter(players, c.CharacterName)
			if pl == nil {
				p.logger.Warn("Command targets unknown character",
					"action", c.Action(), "character", c.CharacterName)
				continue
			}
			if pl.HasBadge(c.BadgeID) {
				continue
			}
			if err := pl.AwardBadge(c.BadgeID); err != nil {
				p.logger.Warn("Failed to apply command", "action", c.Action(), "error", err.Error())
				continue
			}
			changed = true
			res.Notices = append(res.Notices,
				fmt.Sprintf("%s earned the %s badge!", c.CharacterName, party.Badges[c.BadgeID].Name))
		case Unknown:
			p.logger.Warn("Skipping unrecognized command", "token", c.Token, "reason", c.Reason)
		default:
			p.logger.Warn("Skipping unhandled command variant", "action", cmd.Action())
		}
	}

	if changed {
		res.Players = players
	}
	return res
}

func playerByCharacter(players []party.Player, name string) *party.Player {
	for i := range players {
		if players[i].CharacterName == name {
			return &players[i]
		}
	}
	return nil
}
