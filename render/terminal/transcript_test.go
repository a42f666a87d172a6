package terminal

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/sonnes/parley/core"
	"github.com/stretchr/testify/assert"
)

func TestTranscriptWelcome(t *testing.T) {
	tr := NewTranscript()
	assert.Contains(t, ansi.Strip(tr.View(200)), "Welcome!")
	assert.Empty(t, tr.Lines())
}

func TestTranscriptAppendScrolls(t *testing.T) {
	tr := NewTranscript()
	scrolls := 0
	tr.OnScroll(func() { scrolls++ })

	tr.AppendLine(core.RoleUser, "hi")
	tr.AppendLine(core.RoleAssistant, "hello")

	assert.Equal(t, 2, scrolls)
	lines := tr.Lines()
	assert.Len(t, lines, 2)
	assert.Equal(t, core.RoleUser, lines[0].Role)
	assert.NotNil(t, lines[0].Timestamp)

	out := ansi.Strip(tr.View(80))
	assert.Contains(t, out, "USER")
	assert.Contains(t, out, "hello")
	assert.NotContains(t, out, "Welcome!")
}

func TestTranscriptPending(t *testing.T) {
	tr := NewTranscript()
	tr.ShowPending()
	assert.True(t, tr.Pending())
	assert.Contains(t, ansi.Strip(tr.View(80)), PendingText)

	tr.HidePending()
	tr.HidePending()
	assert.False(t, tr.Pending())
	assert.NotContains(t, ansi.Strip(tr.View(80)), PendingText)
}

func TestTranscriptLoadAndReset(t *testing.T) {
	tr := NewTranscript()
	scrolls := 0
	tr.OnScroll(func() { scrolls++ })

	src := []core.Line{
		{Role: core.RoleUser, Text: "a"},
		{Role: core.RoleAssistant, Text: "b"},
	}
	tr.LoadTranscript(src)
	src[0].Text = "mutated"

	assert.Equal(t, "a", tr.Lines()[0].Text)
	assert.Equal(t, 1, scrolls)

	tr.ShowPending()
	tr.Reset()
	assert.Empty(t, tr.Lines())
	assert.False(t, tr.Pending())
	assert.Contains(t, ansi.Strip(tr.View(200)), "Welcome!")
}
