package terminal

import (
	"strings"
	"sync"
	"time"

	"github.com/sonnes/parley/core"
)

// PendingText is the transient line shown while a reply is in flight.
const PendingText = "thinking…"

// Transcript is the live chat view: role-tagged lines, an optional pending
// indicator and a welcome placeholder when empty. It never touches the
// network or storage. Safe for concurrent use.
type Transcript struct {
	mu       sync.Mutex
	lines    []core.Line
	pending  bool
	onScroll func()
	now      func() time.Time
}

// NewTranscript returns an empty transcript showing the welcome placeholder.
func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

// OnScroll registers fn to run whenever content is appended or replaced,
// so the hosting view can stick to the bottom.
func (t *Transcript) OnScroll(fn func()) {
	t.mu.Lock()
	t.onScroll = fn
	t.mu.Unlock()
}

// AppendLine adds a line and scrolls to the bottom.
func (t *Transcript) AppendLine(role core.Role, text string) {
	t.mu.Lock()
	at := t.now()
	t.lines = append(t.lines, core.Line{Role: role, Text: text, Timestamp: &at})
	fn := t.onScroll
	t.mu.Unlock()
	scroll(fn)
}

// Reset clears the transcript back to the welcome placeholder.
func (t *Transcript) Reset() {
	t.mu.Lock()
	t.lines = nil
	t.pending = false
	fn := t.onScroll
	t.mu.Unlock()
	scroll(fn)
}

// LoadTranscript replaces every line.
func (t *Transcript) LoadTranscript(lines []core.Line) {
	t.mu.Lock()
	t.lines = core.CloneLines(lines)
	fn := t.onScroll
	t.mu.Unlock()
	scroll(fn)
}

// ShowPending displays the thinking indicator.
func (t *Transcript) ShowPending() {
	t.mu.Lock()
	t.pending = true
	fn := t.onScroll
	t.mu.Unlock()
	scroll(fn)
}

// HidePending removes the thinking indicator.
func (t *Transcript) HidePending() {
	t.mu.Lock()
	t.pending = false
	t.mu.Unlock()
}

// Pending reports whether the indicator is shown.
func (t *Transcript) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Lines returns a copy of the displayed lines.
func (t *Transcript) Lines() []core.Line {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.CloneLines(t.lines)
}

// View renders the transcript for a pane of the given width.
func (t *Transcript) View(width int) string {
	t.mu.Lock()
	lines := core.CloneLines(t.lines)
	pending := t.pending
	t.mu.Unlock()

	width = max(width, 20)
	if len(lines) == 0 && !pending {
		return styleWelcome.Render(wrap(core.WelcomeText, width))
	}

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(roleBadge(l.Role))
		b.WriteString("\n")
		b.WriteString(wrap(l.Text, width))
	}
	if pending {
		if len(lines) > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(roleBadge(core.RoleAssistant))
		b.WriteString("\n")
		b.WriteString(stylePending.Render(PendingText))
	}
	return b.String()
}

func scroll(fn func()) {
	if fn != nil {
		fn()
	}
}
