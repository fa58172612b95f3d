package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/husky-snow/internal/orchestrator"
	"github.com/jwebster45206/husky-snow/internal/services"
	"github.com/jwebster45206/husky-snow/internal/store"
	"github.com/jwebster45206/husky-snow/pkg/chat"
	"github.com/jwebster45206/husky-snow/pkg/dice"
	"github.com/jwebster45206/husky-snow/pkg/party"
	"github.com/jwebster45206/husky-snow/pkg/session"
)

const placeholderText = "What do you do?"

type screen int

const (
	screenMenu screen = iota
	screenJoin
	screenCharacter
	screenPlay
)

// ConsoleUI is the BubbleTea model that runs the client.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	store  store.Store
	llm    services.LLMService
	userID string

	screen     screen
	menuChoice int
	joinCode   string
	charChoice int
	inline     string // inline validation or status line, never persisted
	banner     string // menu-screen banner after an exited session

	sess       *session.Session
	membership session.Membership
	messages   []chat.Message

	events      <-chan store.Event
	watchCancel context.CancelFunc
	orch        *orchestrator.Orchestrator
	orchCancel  context.CancelFunc

	chatViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")). // icy blue
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	rollStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Italic(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")) // gray

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	thinkingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Italic(true)

	suggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117")) // light blue

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("81")).
			Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func NewConsoleUI(st store.Store, llm services.LLMService, userID string) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = placeholderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	vp := viewport.New(50, 20)
	vp.MouseWheelEnabled = true

	return ConsoleUI{
		store:        st,
		llm:          llm,
		userID:       userID,
		screen:       screenMenu,
		textarea:     ta,
		chatViewport: vp,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chatViewport.Width = m.width - 4
		m.chatViewport.Height = m.height - 8
		m.textarea.SetWidth(m.width - 6)
		m.ready = true
		m.writeChatContent()
		return m, nil

	case sessionEnteredMsg:
		if msg.err != nil {
			m.inline = "Error: " + msg.err.Error()
			return m, nil
		}
		return m.enterSession(msg.sess, msg.msgs)

	case sessionNotFoundMsg:
		m.inline = fmt.Sprintf("No session found with code %q.", msg.code)
		return m, nil

	case characterSelectedMsg:
		if msg.err != nil {
			m.inline = "Error: " + msg.err.Error()
			return m, nil
		}
		if msg.taken {
			m.inline = fmt.Sprintf("%s is already taken. Pick another pup.", msg.name)
			return m, nil
		}
		m.inline = ""
		m.screen = screenPlay
		// roster refresh arrives via the session event; the kickoff
		// only fires from the hosting client on an empty transcript
		if m.orch != nil && len(m.messages) == 0 {
			if c := party.CharacterByName(msg.name); c != nil {
				m.orch.Kickoff(c)
			}
		}
		m.writeChatContent()
		return m, nil

	case messageSentMsg:
		if msg.err != nil {
			m.inline = "Error: " + msg.err.Error()
			m.writeChatContent()
		}
		return m, nil

	case sessionEndedMsg:
		return m.exitSession("The session has ended.")

	case storeEventMsg:
		return m.handleStoreEvent(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var taCmd, vpCmd tea.Cmd
	m.textarea, taCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

// enterSession wires up the event watch, saves the resume pointer and,
// when this client is the host with a configured model, starts the
// orchestrator.
func (m ConsoleUI) enterSession(sess *session.Session, msgs []chat.Message) (tea.Model, tea.Cmd) {
	m.sess = sess
	m.messages = msgs
	m.membership = session.Reduce(m.userID, sess)
	m.inline = ""
	m.banner = ""
	saveSessionPointer(sess.ID)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	events, err := m.store.Watch(watchCtx, sess.ID)
	if err != nil {
		watchCancel()
		m.inline = "Error: " + err.Error()
		return m, nil
	}
	m.events = events
	m.watchCancel = watchCancel

	if m.membership.Role == session.RoleHost && m.llm != nil {
		orchCtx, orchCancel := context.WithCancel(context.Background())
		m.orch = orchestrator.New(m.store, m.llm, nil)
		m.orchCancel = orchCancel
		go func() { _ = m.orch.Run(orchCtx, sess.ID) }()
	}

	if m.membership.Player == nil {
		m.screen = screenCharacter
	} else {
		m.screen = screenPlay
	}
	m.writeChatContent()
	return m, waitForEvent(m.events)
}

// exitSession tears down watches and returns to the menu.
func (m ConsoleUI) exitSession(banner string) (tea.Model, tea.Cmd) {
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	if m.orchCancel != nil {
		m.orchCancel()
		m.orchCancel = nil
		m.orch = nil
	}
	clearSessionPointer()

	m.sess = nil
	m.messages = nil
	m.membership = session.Membership{}
	m.events = nil
	m.screen = screenMenu
	m.banner = banner
	m.inline = ""
	return m, nil
}

func (m ConsoleUI) handleStoreEvent(msg storeEventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		return m.exitSession("Lost connection to the session.")
	}

	switch msg.event.Type {
	case store.EventSessionDeleted:
		return m.exitSession("The session has ended.")
	case store.EventSessionUpdated:
		if msg.event.Session != nil {
			m.sess = msg.event.Session
			m.membership = session.Reduce(m.userID, m.sess)
		}
	case store.EventMessageAppended:
		if msg.event.Message != nil {
			m.messages = append(m.messages, *msg.event.Message)
		}
	}

	m.writeChatContent()
	return m, waitForEvent(m.events)
}

func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenMenu:
		return m.handleMenuKey(msg)
	case screenJoin:
		return m.handleJoinKey(msg)
	case screenCharacter:
		return m.handleCharacterKey(msg)
	case screenPlay:
		return m.handlePlayKey(msg)
	}
	return m, nil
}

func (m ConsoleUI) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	resume := loadSessionPointer()
	options := m.menuOptions(resume)

	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyUp:
		if m.menuChoice > 0 {
			m.menuChoice--
		}
	case tea.KeyDown:
		if m.menuChoice < len(options)-1 {
			m.menuChoice++
		}
	case tea.KeyEnter:
		m.inline = ""
		switch options[m.menuChoice] {
		case "New Adventure":
			if m.llm == nil {
				m.inline = "Hosting requires a configured model API key. You can still join a friend's session."
				return m, nil
			}
			return m, m.createSession()
		case "Join with a Code":
			m.screen = screenJoin
			m.joinCode = ""
			return m, nil
		case "Resume Last Session":
			return m, m.joinSession(resume)
		case "Quit":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *ConsoleUI) menuOptions(resume string) []string {
	options := []string{"New Adventure", "Join with a Code"}
	if resume != "" {
		options = append(options, "Resume Last Session")
	}
	options = append(options, "Quit")
	if m.menuChoice >= len(options) {
		m.menuChoice = len(options) - 1
	}
	return options
}

func (m ConsoleUI) handleJoinKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.screen = screenMenu
		m.inline = ""
		return m, nil
	case tea.KeyEnter:
		code := strings.ToUpper(strings.TrimSpace(m.joinCode))
		if code == "" {
			m.inline = "Enter a join code first."
			return m, nil
		}
		return m, m.joinSession(code)
	case tea.KeyBackspace:
		if len(m.joinCode) > 0 {
			m.joinCode = m.joinCode[:len(m.joinCode)-1]
		}
	case tea.KeyRunes:
		if len(m.joinCode) < 16 {
			m.joinCode += string(msg.Runes)
		}
	}
	return m, nil
}

func (m ConsoleUI) handleCharacterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m.exitSession("")
	case tea.KeyUp:
		if m.charChoice > 0 {
			m.charChoice--
		}
	case tea.KeyDown:
		if m.charChoice < len(party.Characters)-1 {
			m.charChoice++
		}
	case tea.KeyEnter:
		c := &party.Characters[m.charChoice]
		if m.sess.CharacterTaken(c.Name, m.userID) {
			m.inline = fmt.Sprintf("%s is already taken. Pick another pup.", c.Name)
			return m, nil
		}
		return m, m.selectCharacter(c)
	}
	return m, nil
}

func (m ConsoleUI) handlePlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyCtrlR:
		return m.sendRoll()
	case tea.KeyCtrlG:
		if m.sess != nil {
			if err := clipboard.WriteAll(m.sess.ID); err != nil {
				m.inline = "Could not copy join code: " + err.Error()
			} else {
				m.inline = "Join code copied to clipboard."
			}
			m.writeChatContent()
		}
		return m, nil
	case tea.KeyEnter:
		input := strings.TrimSpace(m.textarea.Value())
		if input == "" {
			m.inline = "Type something first."
			m.writeChatContent()
			return m, nil
		}
		if strings.HasPrefix(input, "/") {
			return m.handleCommand(input)
		}
		m.textarea.Reset()
		m.inline = ""
		return m, m.sendMessage(chat.Message{
			Role:   chat.RoleUser,
			Author: m.authorName(),
			Text:   input,
		})
	}

	var taCmd, vpCmd tea.Cmd
	m.textarea, taCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

// sendRoll appends a D20 roll as a user message so the storyteller can
// interpret the outcome.
func (m ConsoleUI) sendRoll() (tea.Model, tea.Cmd) {
	result := dice.Roll()
	outcome := dice.Outcome(result)
	return m, m.sendMessage(chat.Message{
		Role:        chat.RoleUser,
		Author:      m.authorName(),
		Text:        dice.RollText(result, outcome),
		IsRoll:      true,
		RollOutcome: outcome,
	})
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))
	m.textarea.Reset()

	switch cmd {
	case "/help":
		m.inline = "Enter: send · Ctrl+R: roll D20 · Ctrl+G: copy join code · /retry · /sheet · /leave · /end (host)"
	case "/retry":
		if m.orch == nil {
			m.inline = "Only the host can retry."
		} else if len(m.messages) == 0 || m.messages[len(m.messages)-1].Role != chat.RoleError {
			m.inline = "Nothing to retry."
		} else {
			m.inline = ""
			m.orch.Retry()
		}
	case "/sheet":
		m.inline = m.characterSheet()
	case "/leave":
		return m.exitSession("")
	case "/end":
		if m.membership.Role != session.RoleHost {
			m.inline = "Only the host can end the session."
		} else {
			return m, m.endSession()
		}
	default:
		m.inline = "Unknown command. Try /help."
	}
	m.writeChatContent()
	return m, nil
}

// characterSheet summarizes the bound character using its stat block.
func (m ConsoleUI) characterSheet() string {
	c := m.membership.Character
	if c == nil {
		return "No character selected."
	}
	sheet := fmt.Sprintf("%s, %s · STR %d AGI %d SMT %d SPR %d",
		c.Name, c.Role, c.Stats.Strength, c.Stats.Agility, c.Stats.Smart, c.Stats.Spirit)
	if actor, err := c.Actor(); err == nil {
		sheet += fmt.Sprintf(" · HP %d AC %d", actor.MaxHP(), actor.AC())
	}
	if p := m.membership.Player; p != nil {
		for _, item := range p.Inventory {
			sheet += fmt.Sprintf(" · %s x%d", item.Name, item.Quantity)
		}
		for _, b := range p.Badges {
			sheet += fmt.Sprintf(" · [%s]", b.Name)
		}
	}
	return sheet
}

func (m ConsoleUI) authorName() string {
	if m.membership.Character != nil {
		return m.membership.Character.Name
	}
	return "Player"
}

// currentSuggestions walks back past system notices to the latest model
// message and returns its quick actions. A newer user or error message
// clears them.
func (m ConsoleUI) currentSuggestions() []string {
	for i := len(m.messages) - 1; i >= 0; i-- {
		switch m.messages[i].Role {
		case chat.RoleSystem:
			continue
		case chat.RoleModel:
			return m.messages[i].Suggestions
		default:
			return nil
		}
	}
	return nil
}

func (m *ConsoleUI) writeChatContent() {
	if !m.ready || m.screen != screenPlay {
		return
	}
	chatWidth := m.chatViewport.Width - 2
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("HUSKY'S SNOW") + "\n")
	if m.sess != nil {
		content.WriteString(systemStyle.Render("Join code: "+m.sess.ID) + "\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth)) + "\n\n")

	for _, msg := range m.messages {
		content.WriteString(renderMessage(msg, chatWidth) + "\n\n")
	}

	if orchestrator.ShouldTrigger(m.messages) {
		content.WriteString(thinkingStyle.Render("Quinn is thinking...") + "\n\n")
	} else if suggestions := m.currentSuggestions(); len(suggestions) > 0 {
		for _, s := range suggestions {
			content.WriteString(suggestionStyle.Render("  › "+s) + "\n")
		}
		content.WriteString("\n")
	}

	if m.inline != "" {
		content.WriteString(errorStyle.Render(m.inline) + "\n")
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func renderMessage(msg chat.Message, width int) string {
	switch msg.Role {
	case chat.RoleModel:
		prefix := speakerStyle.Render(msg.Author+": ")
		return prefix + narratorStyle.Render(wordwrap.String(msg.Text, width-len(msg.Author)-2))
	case chat.RoleUser:
		if msg.IsRoll {
			return rollStyle.Render(fmt.Sprintf("%s %s", msg.Author, msg.Text))
		}
		return userStyle.Render(fmt.Sprintf("(%s): ", msg.Author)) + wordwrap.String(msg.Text, width)
	case chat.RoleSystem:
		return systemStyle.Render(wordwrap.String(msg.Text, width))
	case chat.RoleError:
		return errorStyle.Render(wordwrap.String(msg.Text, width))
	}
	return msg.Text
}

func (m ConsoleUI) View() string {
	switch m.screen {
	case screenMenu:
		return m.viewMenu()
	case screenJoin:
		return m.viewJoin()
	case screenCharacter:
		return m.viewCharacter()
	case screenPlay:
		return m.viewPlay()
	}
	return ""
}

func (m ConsoleUI) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render("HUSKY'S SNOW") + "\n")
	b.WriteString("  " + systemStyle.Render("A cooperative text adventure on the frozen river") + "\n\n")

	if m.banner != "" {
		b.WriteString("  " + errorStyle.Render(m.banner) + "\n\n")
	}

	for i, opt := range m.menuOptions(loadSessionPointer()) {
		if i == m.menuChoice {
			b.WriteString("  " + selectedStyle.Render(" "+opt+" ") + "\n")
		} else {
			b.WriteString("   " + opt + "\n")
		}
	}

	if m.inline != "" {
		b.WriteString("\n  " + errorStyle.Render(m.inline) + "\n")
	}
	b.WriteString("\n  " + promptStyle.Render("↑/↓ select · Enter confirm · Ctrl+C quit") + "\n")
	return b.String()
}

func (m ConsoleUI) viewJoin() string {
	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render("JOIN A SESSION") + "\n\n")
	b.WriteString("  Enter the join code your host shared:\n\n")
	b.WriteString("  " + userStyle.Render("> "+m.joinCode+"▌") + "\n")
	if m.inline != "" {
		b.WriteString("\n  " + errorStyle.Render(m.inline) + "\n")
	}
	b.WriteString("\n  " + promptStyle.Render("Enter join · Esc back") + "\n")
	return b.String()
}

func (m ConsoleUI) viewCharacter() string {
	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render("CHOOSE YOUR PUP") + "\n\n")

	for i := range party.Characters {
		c := &party.Characters[i]
		line := fmt.Sprintf("%s · %s", c.Name, c.Role)
		taken := m.sess != nil && m.sess.CharacterTaken(c.Name, m.userID)
		switch {
		case taken:
			b.WriteString("   " + systemStyle.Render(line+" (taken)") + "\n")
		case i == m.charChoice:
			b.WriteString("  " + selectedStyle.Render(" "+line+" ") + "\n")
		default:
			b.WriteString("   " + line + "\n")
		}
		if i == m.charChoice {
			b.WriteString("     " + systemStyle.Render(c.Description) + "\n")
			b.WriteString("     " + systemStyle.Render(fmt.Sprintf(
				"STR %d · AGI %d · SMT %d · SPR %d · %s",
				c.Stats.Strength, c.Stats.Agility, c.Stats.Smart, c.Stats.Spirit, c.Ability)) + "\n")
		}
	}

	if m.inline != "" {
		b.WriteString("\n  " + errorStyle.Render(m.inline) + "\n")
	}
	b.WriteString("\n  " + promptStyle.Render("↑/↓ select · Enter confirm · Esc leave") + "\n")
	return b.String()
}

func (m ConsoleUI) viewPlay() string {
	if !m.ready {
		return "\n  Loading..."
	}
	return fmt.Sprintf("%s\n%s\n%s",
		m.chatViewport.View(),
		separatorStyle.Render(strings.Repeat("─", max(m.width-4, 20))),
		m.textarea.View())
}
