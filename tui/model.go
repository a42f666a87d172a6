// Package tui is the terminal chat app: a conversation sidebar, the
// transcript, keyword tags and an input line.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/sonnes/parley/chat"
	"github.com/sonnes/parley/core"
	"github.com/sonnes/parley/keywords"
	"github.com/sonnes/parley/render/terminal"
	"github.com/sonnes/parley/reply"
	"github.com/sonnes/parley/session"
)

const (
	sidebarWidth = 30
	minMainWidth = 20
	// input box, keyword row, status row
	chromeHeight = 6
)

// replyMsg carries a finished request back into the update loop.
type replyMsg struct {
	ticket  session.Ticket
	outcome chat.Outcome
}

// Model is the bubbletea model for the chat app.
type Model struct {
	chat       *chat.Controller
	transcript *terminal.Transcript
	keywords   *keywords.Set
	logger     *log.Logger

	keyMap KeyMap
	style  *Style

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	// stick is set by the transcript whenever its content changes.
	stick *atomic.Bool

	cursor        int
	keywordCursor int
	confirmDelete string
	pending       bool
	status        string
	warning       bool

	width  int
	height int
	ready  bool
}

// Option configures a Model.
type Option func(*Model)

// WithKeyMap replaces DefaultKeyMap.
func WithKeyMap(k KeyMap) Option {
	return func(m *Model) { m.keyMap = k }
}

// WithStyle replaces DefaultStyles.
func WithStyle(s *Style) Option {
	return func(m *Model) { m.style = s }
}

// WithLogger sets the logger used for UI diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// New builds the model. transcript must be the view attached to c.
func New(c *chat.Controller, transcript *terminal.Transcript, kw *keywords.Set, opts ...Option) Model {
	input := textinput.New()
	input.Placeholder = "Ask about public art and design…"
	input.CharLimit = reply.MaxMessageLength
	input.Prompt = "› "
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	stick := &atomic.Bool{}
	stick.Store(true)
	transcript.OnScroll(func() { stick.Store(true) })

	m := Model{
		chat:       c,
		transcript: transcript,
		keywords:   kw,
		logger:     log.Default(),
		keyMap:     DefaultKeyMap,
		style:      DefaultStyles(),
		input:      input,
		viewport:   viewport.New(minMainWidth, 10),
		spinner:    sp,
		stick:      stick,
	}
	for _, o := range opts {
		o(&m)
	}
	m.refresh()
	return m
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.ready = true
		m.refresh()
		return m, nil

	case replyMsg:
		m.pending = false
		switch {
		case !msg.outcome.Delivered:
			m.setStatus("Reply discarded: its conversation was deleted.", true)
		case !msg.outcome.OK:
			m.setStatus("The backend did not answer. You can try again.", true)
		default:
			m.setStatus("", false)
		}
		m.logger.Debug("reply received", "conversation", msg.ticket.ConversationID, "ok", msg.outcome.OK)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if !key.Matches(msg, m.keyMap.Delete) {
			m.confirmDelete = ""
		}

		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.Send):
			return m, m.send()

		case key.Matches(msg, m.keyMap.NewSession):
			m.chat.NewSession()
			m.cursor = 0
			m.setStatus("", false)
			m.refresh()
			return m, nil

		case key.Matches(msg, m.keyMap.SelectPrev):
			m.moveCursor(-1)
			return m, nil

		case key.Matches(msg, m.keyMap.SelectNext):
			m.moveCursor(1)
			return m, nil

		case key.Matches(msg, m.keyMap.Open):
			if s, ok := m.selected(); ok {
				m.chat.Select(s.ID)
				m.setStatus("", false)
				m.refresh()
			}
			return m, nil

		case key.Matches(msg, m.keyMap.Delete):
			m.deleteSelected()
			return m, nil

		case key.Matches(msg, m.keyMap.ToggleKeyword):
			m.toggleKeyword()
			return m, nil

		case key.Matches(msg, m.keyMap.PrevKeyword):
			m.moveKeyword(-1)
			return m, nil

		case key.Matches(msg, m.keyMap.NextKeyword):
			m.moveKeyword(1)
			return m, nil

		case key.Matches(msg, m.keyMap.ScrollUp), key.Matches(msg, m.keyMap.ScrollDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send starts a request for the current input. Input is ignored while a
// reply is pending.
func (m *Model) send() tea.Cmd {
	req, err := m.chat.Begin(m.input.Value())
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return nil
	case errors.Is(err, reply.ErrBusy):
		m.setStatus("Waiting for the previous reply…", true)
		return nil
	case err != nil:
		m.setStatus(err.Error(), true)
		return nil
	}

	m.input.Reset()
	m.pending = true
	m.cursor = 0
	m.setStatus("", false)
	m.refresh()

	c := m.chat
	finish := func() tea.Msg {
		out := c.Finish(context.Background(), req)
		return replyMsg{ticket: req.Ticket, outcome: out}
	}
	return tea.Batch(m.spinner.Tick, finish)
}

func (m *Model) deleteSelected() {
	s, ok := m.selected()
	if !ok {
		return
	}
	if m.confirmDelete != s.ID {
		m.confirmDelete = s.ID
		m.setStatus(fmt.Sprintf("Press %s again to delete %q.", m.keyMap.Delete.Help().Key, s.Title), true)
		return
	}
	m.confirmDelete = ""
	m.chat.Delete(s.ID)
	m.setStatus("Conversation deleted.", false)
	m.moveCursor(0)
	m.refresh()
}

func (m *Model) toggleKeyword() {
	list := m.keywords.List()
	if len(list) == 0 {
		return
	}
	kw := list[m.keywordCursor]
	m.keywords.Toggle(kw.Key)
}

func (m *Model) moveKeyword(delta int) {
	n := m.keywords.Len()
	if n == 0 {
		return
	}
	m.keywordCursor = (m.keywordCursor + delta + n) % n
}

func (m *Model) moveCursor(delta int) {
	n := len(m.chat.Summaries())
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
}

func (m Model) selected() (core.Summary, bool) {
	list := m.chat.Summaries()
	if m.cursor < 0 || m.cursor >= len(list) {
		return core.Summary{}, false
	}
	return list[m.cursor], true
}

func (m *Model) setStatus(s string, warning bool) {
	m.status = s
	m.warning = warning
}

func (m *Model) layout() {
	mainWidth := max(m.width-sidebarWidth-2, minMainWidth)
	m.viewport.Width = mainWidth
	m.viewport.Height = max(m.height-chromeHeight, 3)
	m.input.Width = max(mainWidth-6, 10)
}

// refresh re-renders the transcript into the viewport, following the
// bottom when the transcript has changed.
func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript.View(m.viewport.Width - 1))
	if m.stick.Swap(false) {
		m.viewport.GotoBottom()
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.style.Transcript.Render(m.viewport.View()),
		m.keywordRow(),
		m.statusRow(),
		m.style.Input.Width(m.viewport.Width-2).Render(m.input.View()),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar(), main)
}

func (m Model) sidebar() string {
	activeID, _ := m.chat.Active()
	list := m.chat.Summaries()

	var b strings.Builder
	b.WriteString(m.style.Help.Render("conversations"))
	b.WriteString("\n\n")
	if len(list) == 0 {
		b.WriteString(m.style.Status.Render("No conversations yet."))
	}
	for i, s := range list {
		title := s.Title
		if r := []rune(title); len(r) > sidebarWidth-4 {
			title = string(r[:sidebarWidth-5]) + "…"
		}
		line := m.style.SidebarItem.Render(title)
		if s.ID == activeID {
			line = m.style.SidebarActive.Render(title)
		}
		if i == m.cursor {
			line = m.style.SidebarCursor.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString(m.style.Help.Render("  " + core.RelativeTime(s.UpdatedAt)))
		b.WriteString("\n")
	}

	return m.style.Sidebar.
		Width(sidebarWidth).
		Height(max(m.height, 1)).
		Render(b.String())
}

func (m Model) keywordRow() string {
	parts := make([]string, 0, m.keywords.Len())
	for i, kw := range m.keywords.List() {
		st := m.style.Keyword
		if kw.Active {
			st = m.style.KeywordActive
		}
		if i == m.keywordCursor {
			st = st.Inherit(m.style.KeywordFocused)
		}
		parts = append(parts, st.Render(kw.Label))
	}
	return lipgloss.NewStyle().Width(m.viewport.Width).Render(strings.Join(parts, " "))
}

func (m Model) statusRow() string {
	if m.pending {
		return m.spinner.View() + " " + m.style.Status.Render(terminal.PendingText)
	}
	if m.status != "" {
		if m.warning {
			return m.style.Warning.Render(m.status)
		}
		return m.style.Status.Render(m.status)
	}
	var help []string
	for _, b := range m.keyMap.ShortHelp() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	return m.style.Help.Render(strings.Join(help, " · "))
}
