// Package tui renders one open conversation in the terminal. It is the
// presentation boundary: it owns the scroll position, feeds the
// scrolled-away flag and the visibility signal, and hosts the composer.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/retrend/chat/internal/api"
	"github.com/retrend/chat/internal/chat"
	"github.com/retrend/chat/internal/visibility"
)

// Controller is the scheduler surface the view drives.
type Controller interface {
	View() chat.View
	SetScrolledAway(away bool)
	PollNow()
}

// Sender submits the outbound leg.
type Sender interface {
	SendMessage(ctx context.Context, body, conversationID, counterpart string) error
}

// syncMsg carries the outcome of one fetch cycle into the program.
type syncMsg struct {
	view   chat.View
	intent chat.ScrollIntent
}

// sentMsg carries the outcome of a send attempt.
type sentMsg struct {
	err error
}

// clearNoticeMsg expires a transient notice.
type clearNoticeMsg struct{}

const noticeDuration = 3 * time.Second

var (
	sentStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	receivedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	readTickStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// Model is the bubbletea model for one conversation.
type Model struct {
	controller     Controller
	sender         Sender
	vis            *visibility.Signal
	self           string
	conversationID string
	counterpart    string
	nearBottom     int

	width  int
	height int
	offset int

	view    chat.View
	lines   []string
	draft   string
	notice  string
	sending bool
	quit    bool
}

// NewModel builds the conversation view.
func NewModel(controller Controller, sender Sender, vis *visibility.Signal, self, conversationID, counterpart string, nearBottom int) Model {
	return Model{
		controller:     controller,
		sender:         sender,
		vis:            vis,
		self:           self,
		conversationID: conversationID,
		counterpart:    counterpart,
		nearBottom:     nearBottom,
		width:          80,
		height:         24,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.lines = m.renderLines()
		m.offset = clampOffset(m.offset, len(m.lines), m.listHeight())
		return m, nil

	case tea.FocusMsg:
		m.vis.Set(true)
		return m, nil

	case tea.BlurMsg:
		m.vis.Set(false)
		return m, nil

	case syncMsg:
		m.view = msg.view
		m.lines = m.renderLines()
		if msg.intent == chat.ScrollToBottom {
			m.offset = bottomOffset(len(m.lines), m.listHeight())
		} else {
			m.offset = clampOffset(m.offset, len(m.lines), m.listHeight())
		}
		return m, nil

	case sentMsg:
		m.sending = false
		switch {
		case msg.err == nil:
			// Only success clears the draft.
			m.draft = ""
			m.controller.PollNow()
			return m, nil
		case errors.Is(msg.err, api.ErrSendRejected):
			m.notice = "You cannot send a message to this user"
		default:
			m.notice = "Failed to send message, please try again"
		}
		return m, tea.Tick(noticeDuration, func(time.Time) tea.Msg { return clearNoticeMsg{} })

	case clearNoticeMsg:
		m.notice = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quit = true
		return m, tea.Quit

	case "up":
		m.scrollBy(-1)
		return m, nil
	case "down":
		m.scrollBy(1)
		return m, nil
	case "pgup":
		m.scrollBy(-m.listHeight())
		return m, nil
	case "pgdown":
		m.scrollBy(m.listHeight())
		return m, nil

	case "enter":
		return m.submitDraft()

	case "backspace":
		if len(m.draft) > 0 {
			runes := []rune(m.draft)
			m.draft = string(runes[:len(runes)-1])
		}
		return m, nil

	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.draft += string(msg.Runes)
		case tea.KeySpace:
			m.draft += " "
		}
		return m, nil
	}
}

// scrollBy moves the viewport and reports the resulting scrolled-away
// state to the scheduler.
func (m *Model) scrollBy(delta int) {
	m.offset = clampOffset(m.offset+delta, len(m.lines), m.listHeight())
	atBottom := AtBottom(m.offset, len(m.lines), m.listHeight(), m.nearBottom)
	m.controller.SetScrolledAway(!atBottom)
}

func (m Model) submitDraft() (tea.Model, tea.Cmd) {
	body := strings.TrimSpace(m.draft)
	if body == "" || m.sending {
		return m, nil
	}
	m.sending = true
	sender := m.sender
	conversationID, counterpart := m.conversationID, m.counterpart
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return sentMsg{err: sender.SendMessage(ctx, body, conversationID, counterpart)}
	}
}

// listHeight is the message area height: everything minus the composer
// and the status line.
func (m Model) listHeight() int {
	h := m.height - 2
	if h < 1 {
		return 1
	}
	return h
}

// renderLines formats the message list into display lines.
func (m Model) renderLines() []string {
	var lines []string
	for _, msg := range m.view.Messages {
		lines = append(lines, m.renderMessage(msg)...)
	}
	return lines
}

func (m Model) renderMessage(msg chat.Message) []string {
	stamp := metaStyle.Render(msg.CreatedAt.Local().Format("Jan 2 15:04"))

	var header string
	if msg.From == m.self {
		ticks := metaStyle.Render("✓✓")
		if msg.IsRead {
			ticks = readTickStyle.Render("✓✓")
		}
		header = sentStyle.Render("you") + " " + stamp + " " + ticks
	} else {
		header = receivedStyle.Render(msg.From) + " " + stamp
	}

	lines := []string{header}
	width := m.width
	if width < 10 {
		width = 10
	}
	for _, line := range wrap(msg.Body, width) {
		lines = append(lines, "  "+line)
	}
	return lines
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quit {
		return ""
	}
	if !m.view.Loaded {
		return "loading conversation…\n"
	}

	var b strings.Builder

	if len(m.lines) == 0 {
		b.WriteString(metaStyle.Render("No messages yet. Start a conversation!"))
		b.WriteString("\n")
	} else {
		end := m.offset + m.listHeight()
		if end > len(m.lines) {
			end = len(m.lines)
		}
		for _, line := range m.lines[m.offset:end] {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	} else {
		b.WriteString(metaStyle.Render(fmt.Sprintf("%s · %s", m.counterpart, m.conversationID)))
		b.WriteString("\n")
	}

	prompt := "> "
	if m.sending {
		prompt = "… "
	}
	b.WriteString(promptStyle.Render(prompt + m.draft))
	return b.String()
}

// wrap breaks text into lines no wider than width, on rune boundaries.
func wrap(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	var lines []string
	runes := []rune(text)
	for len(runes) > width {
		lines = append(lines, string(runes[:width]))
		runes = runes[width:]
	}
	return append(lines, string(runes))
}
