package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/husky-snow/internal/services"
	"github.com/jwebster45206/husky-snow/internal/store"
	"github.com/jwebster45206/husky-snow/pkg/chat"
	"github.com/jwebster45206/husky-snow/pkg/history"
	"github.com/jwebster45206/husky-snow/pkg/party"
	"github.com/jwebster45206/husky-snow/pkg/prompts"
)

type recordingListener struct {
	mu          sync.Mutex
	thinking    []bool
	suggestions [][]string
}

func (l *recordingListener) OnThinking(t bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.thinking = append(l.thinking, t)
}

func (l *recordingListener) OnSuggestions(s []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.suggestions = append(l.suggestions, s)
}

func (l *recordingListener) lastSuggestions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.suggestions) == 0 {
		return nil
	}
	return l.suggestions[len(l.suggestions)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store    *store.MemoryStore
	llm      *services.MockLLMService
	listener *recordingListener
	orch     *Orchestrator
	session  string
}

func newFixture(t *testing.T, llm *services.MockLLMService) *fixture {
	t.Helper()
	ctx := context.Background()

	st := store.NewMemoryStore()
	sess, err := st.CreateSession(ctx, "host-user")
	require.NoError(t, err)
	require.NoError(t, st.AddOrUpdatePlayer(ctx, sess.ID, party.Player{
		UserID: "host-user", CharacterName: "Shiver", IsHost: true,
	}))
	require.NoError(t, st.AddOrUpdatePlayer(ctx, sess.ID, party.Player{
		UserID: "guest-user", CharacterName: "Flurry",
	}))

	listener := &recordingListener{}
	orch := New(st, llm, testLogger(), WithListener(listener))
	orch.sessionID = sess.ID

	return &fixture{store: st, llm: llm, listener: listener, orch: orch, session: sess.ID}
}

func (f *fixture) appendUser(t *testing.T, author, text string) {
	t.Helper()
	_, err := f.store.AppendMessage(context.Background(), f.session, chat.Message{
		Role: chat.RoleUser, Author: author, Text: text,
	})
	require.NoError(t, err)
}

func (f *fixture) messages(t *testing.T) []chat.Message {
	t.Helper()
	msgs, err := f.store.Messages(context.Background(), f.session)
	require.NoError(t, err)
	return msgs
}

func TestShouldTrigger(t *testing.T) {
	user := chat.Message{Role: chat.RoleUser, Text: "go"}
	model := chat.Message{Role: chat.RoleModel, Text: "ok"}
	system := chat.Message{Role: chat.RoleSystem, Text: "joined"}
	errMsg := chat.Message{Role: chat.RoleError, Text: "boom"}

	tests := []struct {
		name string
		msgs []chat.Message
		want bool
	}{
		{"empty transcript", nil, false},
		{"single user message", []chat.Message{user}, true},
		{"answered", []chat.Message{user, model}, false},
		{"failed", []chat.Message{user, errMsg}, false},
		{"system after user defers the turn", []chat.Message{user, system}, false},
		{"system only", []chat.Message{system}, false},
		{"new user after answer", []chat.Message{user, model, user}, true},
		{"model then system", []chat.Message{user, model, system}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldTrigger(tc.msgs))
		})
	}
}

func TestTurnAppendsNarrativeAndSuggestions(t *testing.T) {
	llm := &services.MockLLMService{Results: []*services.GenerateResult{{
		Text: "The guard dozes by the gate. Roll the D20 to sneak.\n" +
			"- Creep along the wall\n- Wait for a snore\n- Distract him with a stick",
		FinishReason: services.FinishStop,
	}}}
	f := newFixture(t, llm)
	f.appendUser(t, "Shiver", "I sneak past the guard")

	f.orch.handle(context.Background(), job{kind: jobCheck})

	msgs := f.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.RoleModel, msgs[1].Role)
	assert.Equal(t, NarratorName, msgs[1].Author)
	assert.Contains(t, msgs[1].Text, "Roll the D20 to sneak.")
	assert.Len(t, msgs[1].Suggestions, 3)

	assert.Len(t, f.listener.lastSuggestions(), 3)
	assert.False(t, f.orch.Generating())

	// prompt carried the rendered user message as the final turn
	require.Len(t, llm.GenerateCalls, 1)
	call := llm.GenerateCalls[0]
	require.NotEmpty(t, call.Turns)
	assert.Equal(t, "(Shiver): I sneak past the guard", call.Turns[len(call.Turns)-1].Content)
	assert.Contains(t, call.System, "SHIVER (Player)")
	assert.Equal(t, float32(1.0), call.Opts.Temperature)
	assert.Equal(t, 800, call.Opts.MaxOutputTokens)
}

func TestTurnNotTriggeredAfterModelReply(t *testing.T) {
	llm := &services.MockLLMService{}
	f := newFixture(t, llm)
	f.appendUser(t, "Shiver", "hello")
	f.orch.handle(context.Background(), job{kind: jobCheck})
	require.Len(t, llm.GenerateCalls, 1)

	// transcript now ends with a model message, a re-check is a no-op
	f.orch.handle(context.Background(), job{kind: jobCheck})
	assert.Len(t, llm.GenerateCalls, 1)
}

func TestTurnProcessesCommands(t *testing.T) {
	llm := &services.MockLLMService{Results: []*services.GenerateResult{{
		Text: "Flurry scoops up a fat aloe leaf.\n" +
			"[[ADD_ITEM: Flurry | aloe]]\n" +
			"- Pack it away",
		FinishReason: services.FinishStop,
	}}}
	f := newFixture(t, llm)
	f.appendUser(t, "Flurry", "I gather herbs")

	f.orch.handle(context.Background(), job{kind: jobCheck})

	sess, err := f.store.GetSession(context.Background(), f.session)
	require.NoError(t, err)
	flurry := sess.Player("guest-user")
	require.NotNil(t, flurry)
	require.Len(t, flurry.Inventory, 1)
	assert.Equal(t, "aloe", flurry.Inventory[0].ID)
	assert.Equal(t, 1, flurry.Inventory[0].Quantity)

	msgs := f.messages(t)
	require.Len(t, msgs, 3)
	assert.Equal(t, chat.RoleSystem, msgs[2].Role)
	assert.Equal(t, "Flurry received Aloe Leaf.", msgs[2].Text)

	// command tokens never reach the transcript
	assert.NotContains(t, msgs[1].Text, "[[")
}

func TestTurnFailureAppendsErrorAndRetryWorks(t *testing.T) {
	llm := &services.MockLLMService{Results: []*services.GenerateResult{
		{Text: "", FinishReason: services.FinishMaxTokens},
		{Text: "The path clears ahead.\n- Press on", FinishReason: services.FinishStop},
	}}
	f := newFixture(t, llm)
	f.appendUser(t, "Shiver", "I recite the entire pack history")

	f.orch.handle(context.Background(), job{kind: jobCheck})

	msgs := f.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.RoleError, msgs[1].Role)
	assert.Contains(t, msgs[1].Text, "too grand and got cut off")
	assert.Contains(t, msgs[1].Text, prompts.ErrorPrefix)

	// error blocks the automatic trigger
	f.orch.handle(context.Background(), job{kind: jobCheck})
	require.Len(t, llm.GenerateCalls, 1)

	// retry strips the error and reruns the same prompt
	f.orch.handle(context.Background(), job{kind: jobRetry})
	require.Len(t, llm.GenerateCalls, 2)

	retryCall := llm.GenerateCalls[1]
	assert.Equal(t, "(Shiver): I recite the entire pack history",
		retryCall.Turns[len(retryCall.Turns)-1].Content)
	for _, turn := range retryCall.Turns {
		assert.NotContains(t, turn.Content, "cut off", "error text must not reach the model")
	}

	msgs = f.messages(t)
	require.Len(t, msgs, 3)
	assert.Equal(t, chat.RoleModel, msgs[2].Role)
}

func TestTurnBlockedFinishReason(t *testing.T) {
	llm := &services.MockLLMService{Results: []*services.GenerateResult{{
		FinishReason: services.FinishSafety,
	}}}
	f := newFixture(t, llm)
	f.appendUser(t, "Shiver", "something wild")

	f.orch.handle(context.Background(), job{kind: jobCheck})

	msgs := f.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.RoleError, msgs[1].Role)
	assert.Contains(t, msgs[1].Text, "The spirits blocked this action (SAFETY)")
}

func TestTurnEmptyResponse(t *testing.T) {
	llm := &services.MockLLMService{Results: []*services.GenerateResult{{
		FinishReason: services.FinishStop,
	}}}
	f := newFixture(t, llm)
	f.appendUser(t, "Shiver", "hello?")

	f.orch.handle(context.Background(), job{kind: jobCheck})

	msgs := f.messages(t)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Text, "The spirits are silent")
}

func TestKickoff(t *testing.T) {
	llm := &services.MockLLMService{Results: []*services.GenerateResult{{
		Text:         "Snow swirls around the trainee den. What do you do?\n- Step outside\n- Listen for Mist\n- Inspect the harness",
		FinishReason: services.FinishStop,
	}}}
	f := newFixture(t, llm)

	c := party.CharacterByName("Shiver")
	require.NotNil(t, c)
	f.orch.handle(context.Background(), job{kind: jobKickoff, character: c})

	require.Len(t, llm.GenerateCalls, 1)
	call := llm.GenerateCalls[0]
	final := call.Turns[len(call.Turns)-1]
	assert.Contains(t, final.Content, "INITIATE SESSION")
	assert.Contains(t, final.Content, c.StartingScene)

	msgs := f.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, chat.RoleModel, msgs[0].Role)
}

func TestKickoffSkippedWhenTranscriptNotEmpty(t *testing.T) {
	llm := &services.MockLLMService{}
	f := newFixture(t, llm)
	f.appendUser(t, "Shiver", "already playing")

	f.orch.handle(context.Background(), job{kind: jobKickoff, character: party.CharacterByName("Shiver")})
	for _, call := range llm.GenerateCalls {
		assert.NotContains(t, call.Turns[len(call.Turns)-1].Content, "INITIATE SESSION")
	}
}

func TestKickoffFailureRetriesSyntheticPrompt(t *testing.T) {
	llm := &services.MockLLMService{Results: []*services.GenerateResult{
		{FinishReason: services.FinishMaxTokens},
		{Text: "The den is warm.\n- Step outside", FinishReason: services.FinishStop},
	}}
	f := newFixture(t, llm)
	c := party.CharacterByName("Oak")

	f.orch.handle(context.Background(), job{kind: jobKickoff, character: c})
	require.Len(t, f.messages(t), 1) // the error

	f.orch.handle(context.Background(), job{kind: jobRetry})
	require.Len(t, llm.GenerateCalls, 2)
	final := llm.GenerateCalls[1].Turns[len(llm.GenerateCalls[1].Turns)-1]
	assert.Contains(t, final.Content, "INITIATE SESSION")
}

func TestLongTranscriptIsCompacted(t *testing.T) {
	llm := &services.MockLLMService{
		Summary: "The pups found the frozen waterfall.",
		Results: []*services.GenerateResult{{
			Text: "Onward.\n- Keep climbing", FinishReason: services.FinishStop,
		}},
	}
	f := newFixture(t, llm)

	ctx := context.Background()
	for i := 0; i < 24; i++ {
		role, author := chat.RoleUser, "Shiver"
		if i%2 == 1 {
			role, author = chat.RoleModel, NarratorName
		}
		_, err := f.store.AppendMessage(ctx, f.session, chat.Message{
			Role: role, Author: author, Text: fmt.Sprintf("turn %d", i),
		})
		require.NoError(t, err)
	}
	f.appendUser(t, "Shiver", "I climb the ridge")

	f.orch.handle(ctx, job{kind: jobCheck})

	require.Len(t, llm.SummarizeCalls, 1, "threshold exceeded, summarizer runs")
	require.Len(t, llm.GenerateCalls, 1)

	call := llm.GenerateCalls[0]
	assert.Contains(t, call.Turns[0].Content, "--- STORY RECAP ---")
	assert.Contains(t, call.Turns[0].Content, "The pups found the frozen waterfall.")
	// recap + recent window + prompt
	assert.Len(t, call.Turns, 1+history.RecentCount+1)
}

func TestNarrativeIsFiltered(t *testing.T) {
	llm := &services.MockLLMService{Results: []*services.GenerateResult{{
		Text:         "The damn wolf wants to kill you.\n- Run",
		FinishReason: services.FinishStop,
	}}}
	f := newFixture(t, llm)
	f.appendUser(t, "Glacier", "I face the wolf")

	f.orch.handle(context.Background(), job{kind: jobCheck})

	msgs := f.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, "The dang wolf wants to defeat you.", msgs[1].Text)
}

func TestRunReactsToUserMessages(t *testing.T) {
	llm := &services.MockLLMService{}
	f := newFixture(t, llm)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.orch.Run(ctx, f.session) }()

	// give the watch a moment to start
	time.Sleep(50 * time.Millisecond)
	f.appendUser(t, "Shiver", "I step into the snow")

	require.Eventually(t, func() bool {
		msgs := f.messages(t)
		return len(msgs) == 2 && msgs[1].Role == chat.RoleModel
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, f.store.DeleteSession(context.Background(), f.session))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("orchestrator did not stop after session delete")
	}
}
