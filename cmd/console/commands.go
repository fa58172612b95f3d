package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/husky-snow/internal/orchestrator"
	"github.com/jwebster45206/husky-snow/internal/store"
	"github.com/jwebster45206/husky-snow/pkg/chat"
	"github.com/jwebster45206/husky-snow/pkg/party"
	"github.com/jwebster45206/husky-snow/pkg/session"
)

const storeTimeout = 10 * time.Second

type sessionEnteredMsg struct {
	sess *session.Session
	msgs []chat.Message
	err  error
}

type sessionNotFoundMsg struct {
	code string
}

type storeEventMsg struct {
	event store.Event
	ok    bool
}

type characterSelectedMsg struct {
	taken bool
	name  string
	err   error
}

type messageSentMsg struct {
	err error
}

type sessionEndedMsg struct {
	err error
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

// createSession makes a new session hosted by the local user.
func (m ConsoleUI) createSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		sess, err := m.store.CreateSession(ctx, m.userID)
		if err != nil {
			return sessionEnteredMsg{err: err}
		}
		return sessionEnteredMsg{sess: sess}
	}
}

// joinSession looks up a session by join code.
func (m ConsoleUI) joinSession(code string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		sess, err := m.store.GetSession(ctx, code)
		if err != nil {
			return sessionEnteredMsg{err: err}
		}
		if sess == nil {
			return sessionNotFoundMsg{code: code}
		}

		msgs, err := m.store.Messages(ctx, sess.ID)
		if err != nil {
			return sessionEnteredMsg{err: err}
		}
		return sessionEnteredMsg{sess: sess, msgs: msgs}
	}
}

// selectCharacter binds the local user to a roster character, unless
// another player already claimed it. A first-time join announces the
// character to the whole table with a system message.
func (m ConsoleUI) selectCharacter(c *party.Character) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		sess, err := m.store.GetSession(ctx, m.sess.ID)
		if err != nil || sess == nil {
			return characterSelectedMsg{err: err}
		}
		if sess.CharacterTaken(c.Name, m.userID) {
			return characterSelectedMsg{taken: true, name: c.Name}
		}
		joining := sess.Player(m.userID) == nil

		err = m.store.AddOrUpdatePlayer(ctx, sess.ID, party.Player{
			UserID:        m.userID,
			CharacterName: c.Name,
			IsHost:        sess.HostID == m.userID,
		})
		if err == nil && joining {
			if _, nerr := m.store.AppendMessage(ctx, sess.ID, chat.Message{
				Role:   chat.RoleSystem,
				Author: orchestrator.SystemAuthor,
				Text:   fmt.Sprintf("%s has joined the adventure!", c.Name),
			}); nerr != nil {
				slog.Error("Failed to append join notice", "error", nerr)
			}
		}
		return characterSelectedMsg{name: c.Name, err: err}
	}
}

// sendMessage appends one user message to the transcript.
func (m ConsoleUI) sendMessage(msg chat.Message) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		_, err := m.store.AppendMessage(ctx, m.sess.ID, msg)
		return messageSentMsg{err: err}
	}
}

// endSession deletes the session. Host only.
func (m ConsoleUI) endSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		return sessionEndedMsg{err: m.store.DeleteSession(ctx, m.sess.ID)}
	}
}

// waitForEvent pumps the next store event into the update loop.
func waitForEvent(events <-chan store.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		return storeEventMsg{event: event, ok: ok}
	}
}
