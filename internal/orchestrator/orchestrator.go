// Package orchestrator drives storyteller turns for a session. Exactly
// one orchestrator runs per session, on the host, consuming store
// events from a single goroutine so turns can never overlap.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jwebster45206/husky-snow/internal/logger"
	"github.com/jwebster45206/husky-snow/internal/services"
	"github.com/jwebster45206/husky-snow/internal/store"
	"github.com/jwebster45206/husky-snow/pkg/chat"
	"github.com/jwebster45206/husky-snow/pkg/command"
	"github.com/jwebster45206/husky-snow/pkg/history"
	"github.com/jwebster45206/husky-snow/pkg/narrative"
	"github.com/jwebster45206/husky-snow/pkg/party"
	"github.com/jwebster45206/husky-snow/pkg/prompts"
	"github.com/jwebster45206/husky-snow/pkg/session"
	"github.com/jwebster45206/husky-snow/pkg/textfilter"
)

const (
	// NarratorName is the display author of model messages.
	NarratorName = "Quinn"
	// SystemAuthor is the display author of system and error messages.
	SystemAuthor = "System"

	turnTemperature = 1.0
	turnMaxTokens   = 800
)

// Listener receives presentation-state changes from the orchestrator.
// Callbacks fire from the orchestrator goroutine and must not block.
type Listener interface {
	// OnThinking reports generation starting or finishing.
	OnThinking(thinking bool)
	// OnSuggestions replaces the current quick-action suggestions.
	OnSuggestions(suggestions []string)
}

type jobKind int

const (
	jobCheck jobKind = iota
	jobRetry
	jobKickoff
)

type job struct {
	kind      jobKind
	character *party.Character
}

// Orchestrator watches a session transcript and runs one storyteller
// turn whenever the trigger condition holds.
type Orchestrator struct {
	store     store.Store
	llm       services.LLMService
	compactor *history.Compactor
	processor *command.Processor
	filter    *textfilter.Filter
	logger    *slog.Logger
	listener  Listener

	sessionID  string
	jobs       chan job
	generating atomic.Bool

	// lastPrompt is retained across a failed turn so Retry can rerun
	// it, including the synthetic session kickoff that has no backing
	// user message.
	lastPrompt string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithListener wires presentation callbacks.
func WithListener(l Listener) Option {
	return func(o *Orchestrator) { o.listener = l }
}

// New creates an orchestrator for one session.
func New(st store.Store, llm services.LLMService, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		store:     st,
		llm:       llm,
		compactor: history.NewCompactor(llm, logger),
		processor: command.NewProcessor(logger),
		filter:    textfilter.New(),
		logger:    logger,
		jobs:      make(chan job, 8),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run consumes store events and queued jobs until the context ends or
// the session is deleted. It blocks; callers run it in a goroutine.
func (o *Orchestrator) Run(ctx context.Context, sessionID string) error {
	o.sessionID = sessionID
	o.logger = logger.WithSessionID(o.logger, sessionID)

	events, err := o.store.Watch(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to watch session: %w", err)
	}

	o.logger.Info("Orchestrator started")

	// Catch up on anything appended before the watch began.
	o.handle(ctx, job{kind: jobCheck})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-o.jobs:
			o.handle(ctx, j)
		case event, ok := <-events:
			if !ok {
				o.logger.Info("Session watch closed")
				return nil
			}
			switch event.Type {
			case store.EventSessionDeleted:
				o.logger.Info("Session deleted")
				return nil
			case store.EventMessageAppended:
				if event.Message != nil && event.Message.Role == chat.RoleUser {
					o.handle(ctx, job{kind: jobCheck})
				}
			}
		}
	}
}

// Kickoff queues the synthetic opening turn for a fresh session. Safe
// to call from any goroutine.
func (o *Orchestrator) Kickoff(c *party.Character) {
	o.enqueue(job{kind: jobKickoff, character: c})
}

// Retry queues a rerun of the last failed prompt. Safe to call from
// any goroutine.
func (o *Orchestrator) Retry() {
	o.enqueue(job{kind: jobRetry})
}

// Generating reports whether a turn is currently in flight.
func (o *Orchestrator) Generating() bool {
	return o.generating.Load()
}

func (o *Orchestrator) enqueue(j job) {
	select {
	case o.jobs <- j:
	default:
		// queue full means a turn is already pending, drop
	}
}

func (o *Orchestrator) handle(ctx context.Context, j job) {
	// Always re-fetch the transcript so decisions are made against the
	// latest store ordering, never a stale local snapshot.
	msgs, err := o.store.Messages(ctx, o.sessionID)
	if err != nil {
		o.logger.Error("Failed to load transcript", "error", err)
		return
	}

	switch j.kind {
	case jobCheck:
		o.maybeRunTurn(ctx, msgs)
	case jobRetry:
		// Drop trailing error messages from the working copy. The
		// store stays append-only; the error simply never reaches the
		// model.
		for len(msgs) > 0 && msgs[len(msgs)-1].Role == chat.RoleError {
			msgs = msgs[:len(msgs)-1]
		}
		if !o.maybeRunTurn(ctx, msgs) && o.lastPrompt != "" {
			o.runTurn(ctx, msgs, o.lastPrompt)
		}
	case jobKickoff:
		if j.character == nil {
			return
		}
		if len(msgs) > 0 {
			o.logger.Debug("Skipping kickoff, transcript not empty")
			return
		}
		o.runTurn(ctx, nil, prompts.InitiateSessionPrompt(j.character))
	}
}

// ShouldTrigger reports whether the transcript awaits a storyteller
// turn: true exactly when the last message's role is user. A trailing
// system notice defers the turn until the next user message.
func ShouldTrigger(msgs []chat.Message) bool {
	if len(msgs) == 0 {
		return false
	}
	return msgs[len(msgs)-1].Role == chat.RoleUser
}

// maybeRunTurn runs a turn when the trigger condition holds, reporting
// whether it ran. The prompt is the rendered most recent user message;
// the history is everything before it.
func (o *Orchestrator) maybeRunTurn(ctx context.Context, msgs []chat.Message) bool {
	if !ShouldTrigger(msgs) {
		return false
	}
	if o.generating.Load() {
		return false
	}

	last := len(msgs) - 1
	prompt := fmt.Sprintf("(%s): %s", msgs[last].Author, msgs[last].Text)
	o.runTurn(ctx, msgs[:last], prompt)
	return true
}

func (o *Orchestrator) runTurn(ctx context.Context, msgs []chat.Message, prompt string) {
	o.generating.Store(true)
	o.setThinking(true)
	o.setSuggestions(nil)
	defer func() {
		o.generating.Store(false)
		o.setThinking(false)
	}()

	o.lastPrompt = prompt

	sess, err := o.store.GetSession(ctx, o.sessionID)
	if err != nil || sess == nil {
		o.logger.Error("Failed to load session for turn", "error", err)
		return
	}

	recent, recap := o.compactor.Compact(ctx, msgs)

	system, turns, err := prompts.New().
		WithPlayers(sess.Players).
		WithHistory(recent).
		WithRecap(recap).
		WithPrompt(prompt).
		Build()
	if err != nil {
		o.logger.Error("Failed to build prompt", "error", err)
		return
	}

	result, err := o.llm.Generate(ctx, system, turns, services.GenerateOptions{
		Temperature:     turnTemperature,
		MaxOutputTokens: turnMaxTokens,
	})
	if err != nil {
		o.logger.Error("Generation failed", "error", err)
		o.appendError(ctx, prompts.ErrEmptyResponse)
		return
	}

	if result.Text == "" {
		o.appendError(ctx, failureText(result.FinishReason))
		return
	}

	resp := narrative.Classify(result.Text)
	cleaned := o.filter.Clean(resp.Narrative)
	if cleaned == "" {
		o.appendError(ctx, prompts.ErrEmptyResponse)
		return
	}

	if _, err := o.store.AppendMessage(ctx, o.sessionID, chat.Message{
		Role:        chat.RoleModel,
		Author:      NarratorName,
		Text:        cleaned,
		Suggestions: resp.Suggestions,
	}); err != nil {
		o.logger.Error("Failed to append model message", "error", err)
		return
	}

	if len(resp.Commands) > 0 {
		o.applyCommands(ctx, sess, resp.Commands)
	}

	o.setSuggestions(resp.Suggestions)
}

// applyCommands decodes and applies one response's command batch: one
// roster write, then one system message per applied command.
func (o *Orchestrator) applyCommands(ctx context.Context, sess *session.Session, tokens []string) {
	cmds := command.DecodeAll(tokens)
	result := o.processor.Apply(sess, cmds)

	if result.Players != nil {
		if err := o.store.ReplacePlayers(ctx, o.sessionID, result.Players); err != nil {
			o.logger.Error("Failed to write roster update", "error", err)
			return
		}
	}
	for _, notice := range result.Notices {
		if _, err := o.store.AppendMessage(ctx, o.sessionID, chat.Message{
			Role:   chat.RoleSystem,
			Author: SystemAuthor,
			Text:   notice,
		}); err != nil {
			o.logger.Error("Failed to append system message", "error", err)
		}
	}
}

func (o *Orchestrator) appendError(ctx context.Context, text string) {
	if _, err := o.store.AppendMessage(ctx, o.sessionID, chat.Message{
		Role:   chat.RoleError,
		Author: SystemAuthor,
		Text:   prompts.ErrorPrefix + text,
	}); err != nil {
		o.logger.Error("Failed to append error message", "error", err)
	}
}

func failureText(reason services.FinishReason) string {
	switch reason {
	case services.FinishMaxTokens:
		return prompts.ErrMaxTokens
	case services.FinishStop:
		return prompts.ErrEmptyResponse
	default:
		return fmt.Sprintf(prompts.ErrBlockedTemplate, reason)
	}
}

func (o *Orchestrator) setThinking(thinking bool) {
	if o.listener != nil {
		o.listener.OnThinking(thinking)
	}
}

func (o *Orchestrator) setSuggestions(s []string) {
	if o.listener != nil {
		o.listener.OnSuggestions(s)
	}
}
