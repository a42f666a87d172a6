// Package terminal renders conversations as ANSI-colored message cards and
// provides the live transcript view used by the terminal chat.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/sonnes/parley/core"
)

const defaultWidth = 100

// Renderer pretty-prints a conversation as message cards to the terminal.
type Renderer struct {
	// Width overrides terminal width detection. Zero means auto-detect.
	Width int
	// Compact reduces every line to its first row.
	Compact bool
}

// New creates a terminal Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render writes the conversation as ANSI-colored message cards to w.
func (r *Renderer) Render(w io.Writer, c *core.Conversation) error {
	width := r.termWidth()

	writeHeader(w, c)

	var prevTimestamp *time.Time
	for _, l := range c.Lines {
		var duration string
		if l.Timestamp != nil && prevTimestamp != nil {
			duration = formatDuration(l.Timestamp.Sub(*prevTimestamp))
		}
		if l.Timestamp != nil {
			prevTimestamp = l.Timestamp
		}

		writeLine(w, l, duration, width, r.Compact)
	}

	fmt.Fprintln(w)
	return nil
}

func (r *Renderer) termWidth() int {
	if r.Width > 0 {
		return r.Width
	}
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// writeHeader renders the conversation metadata block.
func writeHeader(w io.Writer, c *core.Conversation) {
	title := c.Title
	if title == "" {
		title = core.PlaceholderTitle
	}
	fmt.Fprintln(w, styleTitle.Render(title))

	var parts []string
	if !c.CreatedAt.IsZero() {
		parts = append(parts, core.RelativeTime(c.CreatedAt))
	}
	if ts := c.Timestamp(); ts != "" {
		parts = append(parts, "updated "+ts)
	}
	if c.ID != "" {
		parts = append(parts, c.ID)
	}
	if len(parts) > 0 {
		fmt.Fprintln(w, styleMeta.Render(strings.Join(parts, "  ")))
	}

	if len(c.Lines) > 0 {
		fmt.Fprintln(w)
		writeStats(w, len(c.Lines), len(core.GroupExchanges(c.Lines)))
	}
}

// writeStats renders counters in two rows: values then labels.
func writeStats(w io.Writer, lines, exchanges int) {
	type stat struct {
		value int
		label string
	}
	stats := []stat{
		{exchanges, "EXCHANGES"},
		{lines, "LINES"},
	}

	var values, labels []string
	for _, s := range stats {
		formatted := formatNumber(s.value)
		colWidth := max(len(formatted), len(s.label))
		values = append(values, fmt.Sprintf("%*s", colWidth, formatted))
		labels = append(labels, fmt.Sprintf("%-*s", colWidth, s.label))
	}

	fmt.Fprintln(w, "  "+styleStat.Render(strings.Join(values, "    ")))
	fmt.Fprintln(w, "  "+styleStatLabel.Render(strings.Join(labels, "    ")))
}

// writeSeparator renders a horizontal rule.
func writeSeparator(w io.Writer, width int) {
	n := min(width, 72)
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleSeparator.Render(strings.Repeat("─", n)))
}

// writeLine renders a single card: role badge, metadata, text.
func writeLine(w io.Writer, l core.Line, duration string, width int, compact bool) bool {
	text := strings.TrimSpace(l.Text)
	if text == "" {
		return false
	}

	contentWidth := max(width-4, 40)

	writeSeparator(w, width)

	header := roleBadge(l.Role)
	var metaParts []string
	if l.Timestamp != nil {
		metaParts = append(metaParts, core.FormatTime(*l.Timestamp))
	}
	if duration != "" {
		metaParts = append(metaParts, styleDuration.Render(duration))
	}
	if len(metaParts) > 0 {
		header += "    " + styleMeta.Render(strings.Join(metaParts, "    "))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, " "+header)

	if compact {
		fmt.Fprintln(w, "  "+truncate(text, contentWidth))
		return true
	}
	for _, row := range strings.Split(wrap(text, contentWidth), "\n") {
		fmt.Fprintln(w, "  "+row)
	}
	return true
}

func roleBadge(role core.Role) string {
	label := strings.ToUpper(string(role))
	switch role {
	case core.RoleUser:
		return styleUserBadge.Render(label)
	case core.RoleAssistant:
		return styleAssistantBadge.Render(label)
	case core.RoleSystem:
		return styleSystemBadge.Render(label)
	default:
		return styleMeta.Render(label)
	}
}

// wrap soft-wraps text to width cells.
func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

// truncate shortens text to maxWidth, appending "..." if needed.
// Multi-line text is reduced to the first line.
func truncate(s string, maxWidth int) string {
	if maxWidth < 4 {
		maxWidth = 4
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if lipgloss.Width(s) <= maxWidth {
		return s
	}

	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > maxWidth {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return formatNumber(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}
