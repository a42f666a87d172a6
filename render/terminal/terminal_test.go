package terminal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/sonnes/parley/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHeader(t *testing.T) {
	now := time.Now()
	c := &core.Conversation{
		ID:        "conv-123",
		Title:     "Mural ideas",
		CreatedAt: now,
		UpdatedAt: now,
		Lines: []core.Line{
			{Role: core.RoleUser, Text: "q"},
			{Role: core.RoleAssistant, Text: "a"},
			{Role: core.RoleUser, Text: "q2"},
		},
	}

	r := &Renderer{Width: 100}
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, c))

	out := ansi.Strip(buf.String())

	assert.Contains(t, out, "Mural ideas")
	assert.Contains(t, out, "just now")
	assert.Contains(t, out, "conv-123")
	assert.Contains(t, out, "EXCHANGES")
	assert.Contains(t, out, "LINES")
}

func TestRenderBasicConversation(t *testing.T) {
	c := &core.Conversation{
		ID:        "basic",
		Title:     "Fix the lighting",
		CreatedAt: time.Now(),
		Lines: []core.Line{
			{Role: core.RoleUser, Text: "Fix the lighting"},
			{Role: core.RoleAssistant, Text: "Try warmer spotlights on the facade."},
			{Role: core.RoleSystem, Text: "backend unreachable"},
		},
	}

	r := &Renderer{Width: 80}
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, c))

	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "USER")
	assert.Contains(t, out, "ASSISTANT")
	assert.Contains(t, out, "SYSTEM")
	assert.Contains(t, out, "Try warmer spotlights on the facade.")
}

func TestRenderSkipsBlankLines(t *testing.T) {
	c := &core.Conversation{
		Title: "x",
		Lines: []core.Line{
			{Role: core.RoleUser, Text: "Hello"},
			{Role: core.RoleUser, Text: "   "},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, (&Renderer{Width: 80}).Render(&buf, c))
	assert.Equal(t, 1, strings.Count(ansi.Strip(buf.String()), "USER"))
}

func TestRenderCompactTruncates(t *testing.T) {
	c := &core.Conversation{
		Title: "long",
		Lines: []core.Line{{Role: core.RoleUser, Text: strings.Repeat("a", 300)}},
	}

	var buf bytes.Buffer
	require.NoError(t, (&Renderer{Width: 60, Compact: true}).Render(&buf, c))
	assert.Contains(t, ansi.Strip(buf.String()), "...")
}

func TestRenderWrapsFullText(t *testing.T) {
	c := &core.Conversation{
		Title: "long",
		Lines: []core.Line{{Role: core.RoleUser, Text: strings.Repeat("word ", 60) + "END"}},
	}

	var buf bytes.Buffer
	require.NoError(t, (&Renderer{Width: 60}).Render(&buf, c))
	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "END")
	assert.NotContains(t, out, "...")
}

func TestRenderMultiTurn(t *testing.T) {
	c := &core.Conversation{
		Title: "First question",
		Lines: []core.Line{
			{Role: core.RoleUser, Text: "First question"},
			{Role: core.RoleAssistant, Text: "First answer"},
			{Role: core.RoleUser, Text: "Second question"},
			{Role: core.RoleAssistant, Text: "Second answer"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, (&Renderer{Width: 80}).Render(&buf, c))

	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "Second answer")
	assert.Equal(t, 2, strings.Count(out, "USER"))
	assert.Equal(t, 2, strings.Count(out, "ASSISTANT"))
}

func TestRenderEmptyConversation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Renderer{Width: 80}).Render(&buf, &core.Conversation{}))

	out := ansi.Strip(buf.String())
	assert.Contains(t, out, core.PlaceholderTitle)
	assert.NotContains(t, out, "USER")
}

func TestRenderLineTimestamps(t *testing.T) {
	t1 := time.Date(2026, 2, 3, 3, 26, 0, 0, time.UTC)
	t2 := t1.Add(5 * time.Second)

	c := &core.Conversation{
		Title: "Hello",
		Lines: []core.Line{
			{Role: core.RoleUser, Timestamp: &t1, Text: "Hello"},
			{Role: core.RoleAssistant, Timestamp: &t2, Text: "Hi there"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, (&Renderer{Width: 80}).Render(&buf, c))

	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "Feb 3, 2026")
	assert.Contains(t, out, "5s")
}

func TestRenderList(t *testing.T) {
	now := time.Now()
	summaries := []core.Summary{
		{ID: "b", Title: "Neon signs", UpdatedAt: now, ExchangeCount: 1, Preview: "Try argon blue."},
		{ID: "a", Title: "Bronze statues", UpdatedAt: now.Add(-2 * time.Hour), ExchangeCount: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, (&Renderer{Width: 80}).RenderList(&buf, summaries, "a"))

	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "Neon signs")
	assert.Contains(t, out, "1 exchange")
	assert.Contains(t, out, "3 exchanges")
	assert.Contains(t, out, "Try argon blue.")
	assert.Contains(t, out, "2h ago")
	assert.Contains(t, out, "▸ Bronze statues")
}

func TestRenderListEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Renderer{Width: 80}).RenderList(&buf, nil, ""))
	assert.Contains(t, ansi.Strip(buf.String()), "No conversations yet.")
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1273, "1,273"},
		{1228873, "1,228,873"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.in), "formatNumber(%d)", tt.in)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Millisecond, "<1s"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m 30s"},
		{5 * time.Minute, "5m"},
		{72*time.Hour + 44*time.Minute, "72h 44m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in), "formatDuration(%s)", tt.in)
	}
}
