package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/husky-snow/pkg/chat"
	"github.com/jwebster45206/husky-snow/pkg/party"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewRedisStore(mr.Addr(), "", logger)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestRedisStore(t)

	created, err := s.CreateSession(ctx, "host-user")
	require.NoError(t, err)
	assert.Len(t, created.ID, 8)
	assert.Equal(t, "host-user", created.HostID)
	assert.False(t, created.CreatedAt.IsZero())

	loaded, err := s.GetSession(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, "host-user", loaded.HostID)

	require.NoError(t, s.DeleteSession(ctx, created.ID))
	gone, err := s.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRedisGetSessionNotFound(t *testing.T) {
	s := newTestRedisStore(t)
	loaded, err := s.GetSession(context.Background(), "missing1")
	require.NoError(t, err)
	assert.Nil(t, loaded, "missing session returns nil without error")
}

func TestRedisAddOrUpdatePlayer(t *testing.T) {
	ctx := context.Background()
	s := newTestRedisStore(t)

	created, err := s.CreateSession(ctx, "host-user")
	require.NoError(t, err)

	require.NoError(t, s.AddOrUpdatePlayer(ctx, created.ID, party.Player{
		UserID: "host-user", CharacterName: "Shiver", IsHost: true,
	}))
	require.NoError(t, s.AddOrUpdatePlayer(ctx, created.ID, party.Player{
		UserID: "guest-user", CharacterName: "Oak",
	}))

	// same identity again updates in place
	require.NoError(t, s.AddOrUpdatePlayer(ctx, created.ID, party.Player{
		UserID: "guest-user", CharacterName: "Flurry",
	}))

	loaded, err := s.GetSession(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Players, 2)
	assert.Equal(t, "Shiver", loaded.Players[0].CharacterName)
	assert.Equal(t, "Flurry", loaded.Players[1].CharacterName)
	assert.False(t, loaded.Players[1].JoinedAt.IsZero())
}

func TestRedisAddPlayerMissingSession(t *testing.T) {
	s := newTestRedisStore(t)
	err := s.AddOrUpdatePlayer(context.Background(), "missing1", party.Player{UserID: "u1"})
	assert.Error(t, err)
}

func TestRedisReplacePlayers(t *testing.T) {
	ctx := context.Background()
	s := newTestRedisStore(t)

	created, err := s.CreateSession(ctx, "host-user")
	require.NoError(t, err)
	require.NoError(t, s.AddOrUpdatePlayer(ctx, created.ID, party.Player{
		UserID: "host-user", CharacterName: "Shiver", IsHost: true,
	}))

	roster := []party.Player{
		{UserID: "host-user", CharacterName: "Shiver", IsHost: true,
			Inventory: []party.InventoryItem{{ID: "aloe", ItemSpec: party.Items["aloe"], Quantity: 2}}},
	}
	require.NoError(t, s.ReplacePlayers(ctx, created.ID, roster))

	loaded, err := s.GetSession(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Players, 1)
	require.Len(t, loaded.Players[0].Inventory, 1)
	assert.Equal(t, 2, loaded.Players[0].Inventory[0].Quantity)
}

func TestRedisAppendMessage(t *testing.T) {
	ctx := context.Background()
	s := newTestRedisStore(t)

	created, err := s.CreateSession(ctx, "host-user")
	require.NoError(t, err)

	first, err := s.AppendMessage(ctx, created.ID, chat.Message{
		Role: chat.RoleUser, Author: "Shiver", Text: "I sniff the air.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	_, err = s.AppendMessage(ctx, created.ID, chat.Message{
		Role: chat.RoleModel, Author: "Quinn", Text: "You smell smoke.",
	})
	require.NoError(t, err)

	msgs, err := s.Messages(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "I sniff the air.", msgs[0].Text)
	assert.Equal(t, "You smell smoke.", msgs[1].Text)
}

func TestRedisAppendMessageRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := newTestRedisStore(t)

	created, err := s.CreateSession(ctx, "host-user")
	require.NoError(t, err)

	_, err = s.AppendMessage(ctx, created.ID, chat.Message{Role: "narrator", Text: "hi"})
	assert.Error(t, err)

	_, err = s.AppendMessage(ctx, created.ID, chat.Message{Role: chat.RoleUser, Text: "   "})
	assert.Error(t, err)
}

func TestRedisWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newTestRedisStore(t)

	created, err := s.CreateSession(ctx, "host-user")
	require.NoError(t, err)

	events, err := s.Watch(ctx, created.ID)
	require.NoError(t, err)

	_, err = s.AppendMessage(ctx, created.ID, chat.Message{
		Role: chat.RoleUser, Author: "Shiver", Text: "Hello?",
	})
	require.NoError(t, err)

	select {
	case event := <-events:
		assert.Equal(t, EventMessageAppended, event.Type)
		require.NotNil(t, event.Message)
		assert.Equal(t, "Hello?", event.Message.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message event")
	}

	require.NoError(t, s.DeleteSession(ctx, created.ID))

	var sawDeleted bool
	deadline := time.After(2 * time.Second)
	for !sawDeleted {
		select {
		case event, ok := <-events:
			if !ok {
				t.Fatal("channel closed before delete event")
			}
			if event.Type == EventSessionDeleted {
				sawDeleted = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for delete event")
		}
	}

	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel closes after delete event")
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after delete event")
	}
}
