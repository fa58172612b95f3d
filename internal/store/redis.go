package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/husky-snow/pkg/chat"
	"github.com/jwebster45206/husky-snow/pkg/party"
	"github.com/jwebster45206/husky-snow/pkg/session"
)

const (
	sessionKeyPrefix = "session:"
	messagesPrefix   = "messages:"
	eventsPrefix     = "session-events:"

	// sessionTTL bounds abandoned sessions. Refreshed on every write.
	sessionTTL = 24 * time.Hour
)

// RedisStore implements Store on Redis. Sessions are JSON values,
// transcripts are lists, and change notifications fan out over Pub/Sub
// so every subscribed client sees the same ordering.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis store instance.
func NewRedisStore(addr, password string, logger *slog.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available during startup.
func (r *RedisStore) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// CreateSession creates a fresh session. The id doubles as the join
// code players type in, so it stays short.
func (r *RedisStore) CreateSession(ctx context.Context, hostID string) (*session.Session, error) {
	if hostID == "" {
		return nil, fmt.Errorf("host id cannot be empty")
	}

	s := &session.Session{
		ID:        strings.ToUpper(uuid.NewString()[:8]),
		HostID:    hostID,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.saveSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *RedisStore) GetSession(ctx context.Context, id string) (*session.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // not found
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s session.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) DeleteSession(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+id, messagesPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	r.publish(ctx, id, Event{Type: EventSessionDeleted})
	return nil
}

// AddOrUpdatePlayer unions the player into the roster inside a WATCH
// transaction so two clients joining at once cannot drop each other.
func (r *RedisStore) AddOrUpdatePlayer(ctx context.Context, id string, p party.Player) error {
	return r.updateSession(ctx, id, func(s *session.Session) error {
		for i := range s.Players {
			if s.Players[i].UserID == p.UserID {
				p.JoinedAt = s.Players[i].JoinedAt
				s.Players[i] = p
				return nil
			}
		}
		if p.JoinedAt.IsZero() {
			p.JoinedAt = time.Now().UTC()
		}
		s.Players = append(s.Players, p)
		return nil
	})
}

// ReplacePlayers swaps the whole roster in one write. Used by the
// command processor to commit a batch result.
func (r *RedisStore) ReplacePlayers(ctx context.Context, id string, players []party.Player) error {
	return r.updateSession(ctx, id, func(s *session.Session) error {
		s.Players = players
		return nil
	})
}

// AppendMessage validates and stores a message, assigning id and
// creation time, then notifies watchers.
func (r *RedisStore) AppendMessage(ctx context.Context, id string, m chat.Message) (*chat.Message, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	key := messagesPrefix + id
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	r.publish(ctx, id, Event{Type: EventMessageAppended, Message: &m})
	return &m, nil
}

// Messages returns the full transcript in append order.
func (r *RedisStore) Messages(ctx context.Context, id string) ([]chat.Message, error) {
	data, err := r.client.LRange(ctx, messagesPrefix+id, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	msgs := make([]chat.Message, 0, len(data))
	for _, item := range data {
		var m chat.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Watch subscribes to the session's event channel. The returned channel
// closes when ctx is done or a session_deleted event arrives.
func (r *RedisStore) Watch(ctx context.Context, id string) (<-chan Event, error) {
	sub := r.client.Subscribe(ctx, eventsPrefix+id)

	// Confirm the subscription before returning so callers never miss
	// events published after Watch returns.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to session events: %w", err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer func() { _ = sub.Close() }()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					r.logger.Warn("Dropping malformed session event", "error", err)
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
				if event.Type == EventSessionDeleted {
					return
				}
			}
		}
	}()
	return events, nil
}

func (r *RedisStore) saveSession(ctx context.Context, s *session.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid session: %w", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+s.ID, data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// updateSession applies mutate inside a WATCH transaction, retrying on
// contention.
func (r *RedisStore) updateSession(ctx context.Context, id string, mutate func(*session.Session) error) error {
	key := sessionKeyPrefix + id
	const maxRetries = 5

	var updated *session.Session
	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err != nil {
			if err == redis.Nil {
				return fmt.Errorf("session not found: %s", id)
			}
			return fmt.Errorf("failed to load session: %w", err)
		}

		var s session.Session
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
		if err := mutate(&s); err != nil {
			return err
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("invalid session after update: %w", err)
		}

		out, err := json.Marshal(&s)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		updated = &s
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, sessionTTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := r.client.Watch(ctx, txn, key)
		if err == nil {
			r.publish(ctx, id, Event{Type: EventSessionUpdated, Session: updated})
			return nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return err
	}
	return fmt.Errorf("session update failed after %d retries", maxRetries)
}

func (r *RedisStore) publish(ctx context.Context, id string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("Failed to marshal event", "error", err, "type", event.Type)
		return
	}
	if err := r.client.Publish(ctx, eventsPrefix+id, data).Err(); err != nil {
		r.logger.Error("Failed to publish event", "error", err, "type", event.Type)
	}
}
