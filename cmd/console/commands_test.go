package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/husky-snow/internal/store"
	"github.com/jwebster45206/husky-snow/pkg/chat"
	"github.com/jwebster45206/husky-snow/pkg/party"
)

func TestSelectCharacterAnnouncesJoin(t *testing.T) {
	st := store.NewMemoryStore()
	sess, err := st.CreateSession(context.Background(), "host-user")
	require.NoError(t, err)

	ui := ConsoleUI{store: st, userID: "host-user", sess: sess}

	msg := ui.selectCharacter(party.CharacterByName("Shiver"))()
	sel, ok := msg.(characterSelectedMsg)
	require.True(t, ok)
	require.NoError(t, sel.err)
	assert.False(t, sel.taken)

	msgs, err := st.Messages(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, chat.RoleSystem, msgs[0].Role)
	assert.Equal(t, "Shiver has joined the adventure!", msgs[0].Text)

	// switching characters is not a second join
	msg = ui.selectCharacter(party.CharacterByName("Oak"))()
	sel, ok = msg.(characterSelectedMsg)
	require.True(t, ok)
	require.NoError(t, sel.err)

	msgs, err = st.Messages(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestSelectCharacterTaken(t *testing.T) {
	st := store.NewMemoryStore()
	sess, err := st.CreateSession(context.Background(), "host-user")
	require.NoError(t, err)

	host := ConsoleUI{store: st, userID: "host-user", sess: sess}
	hostSel := host.selectCharacter(party.CharacterByName("Shiver"))().(characterSelectedMsg)
	require.NoError(t, hostSel.err)

	guest := ConsoleUI{store: st, userID: "guest-user", sess: sess}
	guestSel := guest.selectCharacter(party.CharacterByName("Shiver"))().(characterSelectedMsg)
	assert.True(t, guestSel.taken)

	// the rejected selection leaves no join notice behind
	msgs, err := st.Messages(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}
