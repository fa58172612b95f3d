// Package store persists sessions and their transcripts in a shared
// backend so every client in a session observes the same state.
package store

import (
	"context"

	"github.com/jwebster45206/husky-snow/pkg/chat"
	"github.com/jwebster45206/husky-snow/pkg/party"
	"github.com/jwebster45206/husky-snow/pkg/session"
)

// EventType tags a session change notification.
type EventType string

const (
	EventSessionUpdated  EventType = "session_updated"
	EventMessageAppended EventType = "message_appended"
	EventSessionDeleted  EventType = "session_deleted"
)

// Event is one change notification delivered to watchers. Message is
// set for message events; Session for roster or session updates.
type Event struct {
	Type    EventType        `json:"type"`
	Message *chat.Message    `json:"message,omitempty"`
	Session *session.Session `json:"session,omitempty"`
}

// Store is the shared session backend. Get operations return nil with
// no error when the key does not exist.
type Store interface {
	// CreateSession creates a fresh session with a short join code as
	// its id and the given user as immutable host.
	CreateSession(ctx context.Context, hostID string) (*session.Session, error)
	GetSession(ctx context.Context, id string) (*session.Session, error)
	DeleteSession(ctx context.Context, id string) error

	// AddOrUpdatePlayer unions the player into the roster by UserID.
	// An existing entry is replaced; host identity is never changed.
	AddOrUpdatePlayer(ctx context.Context, id string, p party.Player) error
	// ReplacePlayers swaps the whole roster in one write.
	ReplacePlayers(ctx context.Context, id string, players []party.Player) error

	// AppendMessage validates the message, assigns its id and creation
	// time, appends it and returns the stored form.
	AppendMessage(ctx context.Context, id string, m chat.Message) (*chat.Message, error)
	// Messages returns the full transcript in append order.
	Messages(ctx context.Context, id string) ([]chat.Message, error)

	// Watch subscribes to session events. The channel closes when ctx
	// is done or after a session_deleted event is delivered.
	Watch(ctx context.Context, id string) (<-chan Event, error)

	Ping(ctx context.Context) error
	Close() error
}
