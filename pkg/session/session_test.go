package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/husky-snow/pkg/party"
)

func testSession() *Session {
	return &Session{
		ID:     "abc12345",
		HostID: "host-user",
		Players: []party.Player{
			{UserID: "host-user", CharacterName: "Shiver", IsHost: true},
			{UserID: "guest-user", CharacterName: "Oak"},
		},
	}
}

func TestReduce(t *testing.T) {
	s := testSession()

	t.Run("host with character", func(t *testing.T) {
		m := Reduce("host-user", s)
		assert.Equal(t, RoleHost, m.Role)
		require.NotNil(t, m.Player)
		require.NotNil(t, m.Character)
		assert.Equal(t, "Shiver", m.Character.Name)
	})

	t.Run("guest with character", func(t *testing.T) {
		m := Reduce("guest-user", s)
		assert.Equal(t, RoleGuest, m.Role)
		require.NotNil(t, m.Character)
		assert.Equal(t, "Oak", m.Character.Name)
	})

	t.Run("user not in roster is a guest without character", func(t *testing.T) {
		m := Reduce("stranger", s)
		assert.Equal(t, RoleGuest, m.Role)
		assert.Nil(t, m.Player)
		assert.Nil(t, m.Character)
	})

	t.Run("host before character selection", func(t *testing.T) {
		s2 := &Session{ID: "x", HostID: "host-user"}
		m := Reduce("host-user", s2)
		assert.Equal(t, RoleHost, m.Role)
		assert.Nil(t, m.Player)
	})

	t.Run("nil session", func(t *testing.T) {
		m := Reduce("anyone", nil)
		assert.Equal(t, RoleGuest, m.Role)
		assert.Nil(t, m.Player)
	})
}

func TestCharacterTaken(t *testing.T) {
	s := testSession()
	assert.True(t, s.CharacterTaken("Shiver", "guest-user"))
	assert.False(t, s.CharacterTaken("Shiver", "host-user"), "re-selecting own character is not a conflict")
	assert.False(t, s.CharacterTaken("Flurry", "guest-user"))
}

func TestSessionValidate(t *testing.T) {
	s := testSession()
	require.NoError(t, s.Validate())

	s2 := testSession()
	s2.ID = ""
	assert.Error(t, s2.Validate())

	s3 := testSession()
	s3.HostID = ""
	assert.Error(t, s3.Validate())

	s4 := testSession()
	s4.Players = append(s4.Players, party.Player{UserID: "guest-user", CharacterName: "Flurry"})
	assert.Error(t, s4.Validate())
}
