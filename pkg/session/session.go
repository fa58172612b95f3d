package session

import (
	"fmt"
	"time"

	"github.com/jwebster45206/husky-snow/pkg/party"
)

// Role distinguishes the one host from joined guests. The host's client
// is the only one allowed to run turn generation; guests read the same
// transcript and submit actions.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Session is the shared state of one adventure. The transcript lives
// separately in the message log; Session carries identity and roster.
type Session struct {
	ID        string         `json:"id"`
	HostID    string         `json:"host_id"`
	Players   []party.Player `json:"players"`
	CreatedAt time.Time      `json:"created_at"`
}

// Membership is the derived view of one user's place in a session.
type Membership struct {
	Role      Role
	Player    *party.Player
	Character *party.Character
}

// Reduce derives a user's membership from the session snapshot. The
// result is recomputed from stored state on every change, never cached:
// the roster is the single source of truth for who is host and which
// character each user plays.
func Reduce(userID string, s *Session) Membership {
	m := Membership{Role: RoleGuest}
	if s == nil {
		return m
	}
	if s.HostID == userID {
		m.Role = RoleHost
	}
	for i := range s.Players {
		if s.Players[i].UserID == userID {
			m.Player = &s.Players[i]
			m.Character = s.Players[i].Character()
			break
		}
	}
	return m
}

// Player returns the roster entry for userID, or nil.
func (s *Session) Player(userID string) *party.Player {
	for i := range s.Players {
		if s.Players[i].UserID == userID {
			return &s.Players[i]
		}
	}
	return nil
}

// CharacterTaken reports whether another user already plays the named
// character. A user re-selecting their own character is not a conflict.
func (s *Session) CharacterTaken(name, userID string) bool {
	for i := range s.Players {
		if s.Players[i].CharacterName == name && s.Players[i].UserID != userID {
			return true
		}
	}
	return false
}

// Validate checks session integrity before a write.
func (s *Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if s.HostID == "" {
		return fmt.Errorf("session host cannot be empty")
	}
	seen := make(map[string]bool, len(s.Players))
	for _, p := range s.Players {
		if p.UserID == "" {
			return fmt.Errorf("player user id cannot be empty")
		}
		if seen[p.UserID] {
			return fmt.Errorf("duplicate player: %s", p.UserID)
		}
		seen[p.UserID] = true
	}
	return nil
}
