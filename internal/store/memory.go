package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/husky-snow/pkg/chat"
	"github.com/jwebster45206/husky-snow/pkg/party"
	"github.com/jwebster45206/husky-snow/pkg/session"
)

// MemoryStore implements Store in process memory. It backs tests and
// single-machine play where no Redis is available.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	messages map[string][]chat.Message
	watchers map[string][]chan Event
	closed   bool
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*session.Session),
		messages: make(map[string][]chat.Message),
		watchers: make(map[string][]chan Event),
	}
}

func (m *MemoryStore) CreateSession(_ context.Context, hostID string) (*session.Session, error) {
	if hostID == "" {
		return nil, fmt.Errorf("host id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := &session.Session{
		ID:        strings.ToUpper(uuid.NewString()[:8]),
		HostID:    hostID,
		CreatedAt: time.Now().UTC(),
	}
	m.sessions[s.ID] = s
	return cloneSession(s), nil
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(s), nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	delete(m.messages, id)
	watchers := m.watchers[id]
	delete(m.watchers, id)
	m.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- Event{Type: EventSessionDeleted}:
		default:
		}
		close(ch)
	}
	return nil
}

func (m *MemoryStore) AddOrUpdatePlayer(_ context.Context, id string, p party.Player) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("session not found: %s", id)
	}

	found := false
	for i := range s.Players {
		if s.Players[i].UserID == p.UserID {
			p.JoinedAt = s.Players[i].JoinedAt
			s.Players[i] = p
			found = true
			break
		}
	}
	if !found {
		if p.JoinedAt.IsZero() {
			p.JoinedAt = time.Now().UTC()
		}
		s.Players = append(s.Players, p)
	}
	snapshot := cloneSession(s)
	m.mu.Unlock()

	m.notify(id, Event{Type: EventSessionUpdated, Session: snapshot})
	return nil
}

func (m *MemoryStore) ReplacePlayers(_ context.Context, id string, players []party.Player) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("session not found: %s", id)
	}
	s.Players = append([]party.Player(nil), players...)
	snapshot := cloneSession(s)
	m.mu.Unlock()

	m.notify(id, Event{Type: EventSessionUpdated, Session: snapshot})
	return nil
}

func (m *MemoryStore) AppendMessage(_ context.Context, id string, msg chat.Message) (*chat.Message, error) {
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().UTC()

	m.mu.Lock()
	m.messages[id] = append(m.messages[id], msg)
	m.mu.Unlock()

	m.notify(id, Event{Type: EventMessageAppended, Message: &msg})
	return &msg, nil
}

func (m *MemoryStore) Messages(_ context.Context, id string) ([]chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]chat.Message(nil), m.messages[id]...), nil
}

func (m *MemoryStore) Watch(ctx context.Context, id string) (<-chan Event, error) {
	ch := make(chan Event, 64)

	m.mu.Lock()
	m.watchers[id] = append(m.watchers[id], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		watchers := m.watchers[id]
		for i, w := range watchers {
			if w == ch {
				m.watchers[id] = append(watchers[:i], watchers[i+1:]...)
				close(ch)
				break
			}
		}
		m.mu.Unlock()
	}()
	return ch, nil
}

func (m *MemoryStore) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryStore) notify(id string, event Event) {
	m.mu.Lock()
	watchers := append([]chan Event(nil), m.watchers[id]...)
	m.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- event:
		default:
			// slow watcher, drop rather than block the writer
		}
	}
}

func cloneSession(s *session.Session) *session.Session {
	out := *s
	out.Players = make([]party.Player, len(s.Players))
	copy(out.Players, s.Players)
	for i := range s.Players {
		out.Players[i].Inventory = append([]party.InventoryItem(nil), s.Players[i].Inventory...)
		out.Players[i].Badges = append([]party.Badge(nil), s.Players[i].Badges...)
	}
	return &out
}
