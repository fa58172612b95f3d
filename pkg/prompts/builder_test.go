package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/husky-snow/pkg/chat"
	"github.com/jwebster45206/husky-snow/pkg/party"
)

func testPlayers() []party.Player {
	return []party.Player{
		{UserID: "u1", CharacterName: "Shiver", IsHost: true},
		{UserID: "u2", CharacterName: "Oak"},
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	system := BuildSystemPrompt(testPlayers())

	assert.Contains(t, system, "You are Quinn")
	assert.Contains(t, system, "SHIVER (Player)")
	assert.Contains(t, system, "OAK (Player)")
	assert.NotContains(t, system, "GLACIER (Player)", "unbound characters stay out of the lore block")

	// command protocol lists registry ids
	assert.Contains(t, system, "[[ADD_ITEM: CharacterName | item_id]]")
	assert.Contains(t, system, "aloe")
	assert.Contains(t, system, "catch_fish")
}

func TestBuildSystemPromptUnknownCharacter(t *testing.T) {
	system := BuildSystemPrompt([]party.Player{{UserID: "u1", CharacterName: "Storm"}})
	assert.Contains(t, system, "Storm (Unknown Lore)")
}

func TestBuilderBuild(t *testing.T) {
	history := []chat.Message{
		{Role: chat.RoleUser, Author: "Shiver", Text: "I sniff the air."},
		{Role: chat.RoleModel, Author: "Quinn", Text: "You smell smoke."},
		{Role: chat.RoleSystem, Author: "System", Text: "Oak joined the session."},
		{Role: chat.RoleError, Author: "System", Text: "⚠️ The spirits are silent."},
		{Role: chat.RoleUser, Author: "Oak", Text: "   "},
	}

	system, turns, err := New().
		WithPlayers(testPlayers()).
		WithHistory(history).
		WithPrompt("(Oak): I check the riverbank.").
		Build()
	require.NoError(t, err)
	assert.NotEmpty(t, system)

	// system, error and empty messages are excluded
	require.Len(t, turns, 3)
	assert.Equal(t, chat.Turn{Role: chat.RoleUser, Content: "(Shiver): I sniff the air."}, turns[0])
	assert.Equal(t, chat.Turn{Role: chat.RoleModel, Content: "(Quinn): You smell smoke."}, turns[1])
	assert.Equal(t, chat.Turn{Role: chat.RoleUser, Content: "(Oak): I check the riverbank."}, turns[2])
}

func TestBuilderRecapTurn(t *testing.T) {
	_, turns, err := New().
		WithPlayers(testPlayers()).
		WithRecap("The pups left the den.").
		WithPrompt("(Shiver): I press on.").
		Build()
	require.NoError(t, err)

	require.Len(t, turns, 2)
	assert.Equal(t, chat.RoleModel, turns[0].Role)
	assert.True(t, strings.HasPrefix(turns[0].Content, "--- STORY RECAP ---\n"))
	assert.True(t, strings.HasSuffix(turns[0].Content, "\n--- END RECAP ---"))
	assert.Contains(t, turns[0].Content, "The pups left the den.")
}

func TestBuilderRequiresPrompt(t *testing.T) {
	_, _, err := New().WithPlayers(testPlayers()).Build()
	assert.Error(t, err)
}

func TestInitiateSessionPrompt(t *testing.T) {
	c := party.CharacterByName("Flurry")
	require.NotNil(t, c)

	p := InitiateSessionPrompt(c)
	assert.Contains(t, p, "INITIATE SESSION")
	assert.Contains(t, p, "Flurry")
	assert.Contains(t, p, c.StartingScene)
}
