package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrend/chat/internal/api"
	"github.com/retrend/chat/internal/chat"
	"github.com/retrend/chat/internal/visibility"
)

type fakeController struct {
	view         chat.View
	scrolledAway []bool
	pollNowCalls int
}

func (f *fakeController) View() chat.View { return f.view }

func (f *fakeController) SetScrolledAway(away bool) {
	f.scrolledAway = append(f.scrolledAway, away)
}

func (f *fakeController) PollNow() { f.pollNowCalls++ }

type fakeSender struct {
	err  error
	sent []string
}

func (f *fakeSender) SendMessage(ctx context.Context, body, conversationID, counterpart string) error {
	f.sent = append(f.sent, body)
	return f.err
}

func newTestModel(controller *fakeController, sender *fakeSender) Model {
	m := NewModel(controller, sender, visibility.NewSignal(), "alice@example.com", "ad-1042", "bob@example.com", 2)
	m.width = 80
	m.height = 12
	return m
}

func messagesOf(n int) []chat.Message {
	var out []chat.Message
	for i := 0; i < n; i++ {
		out = append(out, chat.Message{
			ID:        "m" + strings.Repeat("x", i+1),
			From:      "bob@example.com",
			To:        "alice@example.com",
			Body:      "line",
			CreatedAt: time.Date(2025, 3, 1, 12, 0, i, 0, time.UTC),
		})
	}
	return out
}

func TestSyncScrollToBottomMovesViewport(t *testing.T) {
	m := newTestModel(&fakeController{}, &fakeSender{})

	next, _ := m.Update(syncMsg{
		view:   chat.View{Messages: messagesOf(20), Loaded: true},
		intent: chat.ScrollToBottom,
	})
	m = next.(Model)

	assert.Equal(t, bottomOffset(len(m.lines), m.listHeight()), m.offset)
}

func TestSyncPreservePositionKeepsViewport(t *testing.T) {
	m := newTestModel(&fakeController{}, &fakeSender{})

	next, _ := m.Update(syncMsg{view: chat.View{Messages: messagesOf(20), Loaded: true}, intent: chat.ScrollToBottom})
	m = next.(Model)
	m.offset = 0

	next, _ = m.Update(syncMsg{view: chat.View{Messages: messagesOf(21), Loaded: true}, intent: chat.PreservePosition})
	m = next.(Model)
	assert.Equal(t, 0, m.offset)
}

func TestScrollUpReportsScrolledAway(t *testing.T) {
	controller := &fakeController{}
	m := newTestModel(controller, &fakeSender{})

	next, _ := m.Update(syncMsg{view: chat.View{Messages: messagesOf(30), Loaded: true}, intent: chat.ScrollToBottom})
	m = next.(Model)

	// Scrolling one line up is still within the 2-line threshold.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	require.NotEmpty(t, controller.scrolledAway)
	assert.False(t, controller.scrolledAway[len(controller.scrolledAway)-1])

	// A page up leaves the threshold.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	m = next.(Model)
	assert.True(t, controller.scrolledAway[len(controller.scrolledAway)-1])

	// Paging back down returns to the bottom.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	_ = next
	assert.False(t, controller.scrolledAway[len(controller.scrolledAway)-1])
}

func TestFocusAndBlurDriveVisibility(t *testing.T) {
	vis := visibility.NewSignal()
	m := NewModel(&fakeController{}, &fakeSender{}, vis, "alice@example.com", "ad-1042", "bob@example.com", 2)

	next, _ := m.Update(tea.BlurMsg{})
	m = next.(Model)
	assert.False(t, vis.Visible())

	next, _ = m.Update(tea.FocusMsg{})
	_ = next
	assert.True(t, vis.Visible())
}

func TestSendSuccessClearsDraftAndPollsNow(t *testing.T) {
	controller := &fakeController{}
	m := newTestModel(controller, &fakeSender{})
	m.draft = "hello"
	m.sending = true

	next, _ := m.Update(sentMsg{err: nil})
	m = next.(Model)
	assert.Empty(t, m.draft)
	assert.False(t, m.sending)
	assert.Equal(t, 1, controller.pollNowCalls)
}

func TestSendRejectionKeepsDraftWithNotice(t *testing.T) {
	m := newTestModel(&fakeController{}, &fakeSender{})
	m.draft = "hello"
	m.sending = true

	next, _ := m.Update(sentMsg{err: api.ErrSendRejected})
	m = next.(Model)
	assert.Equal(t, "hello", m.draft)
	assert.Equal(t, "You cannot send a message to this user", m.notice)
}

func TestSendTransportFailureKeepsDraftWithDistinctNotice(t *testing.T) {
	m := newTestModel(&fakeController{}, &fakeSender{})
	m.draft = "hello"
	m.sending = true

	next, _ := m.Update(sentMsg{err: errors.New("connection refused")})
	m = next.(Model)
	assert.Equal(t, "hello", m.draft)
	assert.Equal(t, "Failed to send message, please try again", m.notice)
}

func TestEnterOnEmptyDraftDoesNothing(t *testing.T) {
	sender := &fakeSender{}
	m := newTestModel(&fakeController{}, sender)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_ = next
	assert.Nil(t, cmd)
	assert.Empty(t, sender.sent)
}

func TestTypingBuildsDraft(t *testing.T) {
	m := newTestModel(&fakeController{}, &fakeSender{})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("bob")})
	m = next.(Model)
	assert.Equal(t, "hi bob", m.draft)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = next.(Model)
	assert.Equal(t, "hi bo", m.draft)
}

func TestViewShowsLoadingUntilFirstFetch(t *testing.T) {
	m := newTestModel(&fakeController{}, &fakeSender{})
	assert.Contains(t, m.View(), "loading")

	next, _ := m.Update(syncMsg{view: chat.View{Loaded: true}, intent: chat.PreservePosition})
	m = next.(Model)
	assert.Contains(t, m.View(), "No messages yet")
}
