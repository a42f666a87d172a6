package compact

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sonnes/parley/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(n int, text string) []core.Line {
	out := make([]core.Line, n)
	for i := range out {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		out[i] = core.Line{Role: role, Text: fmt.Sprintf("%s-%d", text, i)}
	}
	return out
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "under limit", in: "short", max: 200, want: "short"},
		{name: "at limit", in: strings.Repeat("a", 200), max: 200, want: strings.Repeat("a", 200)},
		{name: "over limit", in: strings.Repeat("a", 201), max: 200, want: strings.Repeat("a", 100) + TruncatedSuffix},
		{name: "runes not bytes", in: strings.Repeat("画", 150), max: 200, want: strings.Repeat("画", 150)},
		{name: "tiny limit", in: "abcdef", max: 3, want: TruncatedSuffix},
		{name: "disabled", in: "abcdef", max: 0, want: "abcdef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateText(tt.in, tt.max))
		})
	}
}

func TestTransformMaxLines(t *testing.T) {
	conv := &core.Conversation{Title: "keep me", Lines: lines(70, "x")}
	require.NoError(t, New(DefaultConfig()).Transform(conv))

	require.Len(t, conv.Lines, DefaultMaxLines)
	assert.Equal(t, "x-10", conv.Lines[0].Text, "oldest lines dropped")
	assert.Equal(t, "x-69", conv.Lines[len(conv.Lines)-1].Text)
	assert.Equal(t, "keep me", conv.Title)
}

func TestTransformMaxTotalLength(t *testing.T) {
	big := strings.Repeat("b", 400)
	conv := &core.Conversation{}
	for range 10 {
		conv.Lines = append(conv.Lines, core.Line{Role: core.RoleUser, Text: big})
	}

	c := New(Config{MaxTotalLength: 1000, MinLines: 4})
	require.NoError(t, c.Transform(conv))
	assert.Len(t, conv.Lines, 4, "min lines kept even above the total")

	conv = &core.Conversation{}
	for range 10 {
		conv.Lines = append(conv.Lines, core.Line{Role: core.RoleUser, Text: big})
	}
	c = New(Config{MaxTotalLength: 2000, MinLines: 2})
	require.NoError(t, c.Transform(conv))
	assert.Len(t, conv.Lines, 5)
}

func TestTransformTruncatesLongLines(t *testing.T) {
	conv := &core.Conversation{Lines: []core.Line{
		{Role: core.RoleAssistant, Text: strings.Repeat("z", DefaultMaxLineLength+1)},
		{Role: core.RoleUser, Text: "short"},
	}}
	require.NoError(t, New(DefaultConfig()).Transform(conv))

	assert.True(t, strings.HasSuffix(conv.Lines[0].Text, TruncatedSuffix))
	assert.Equal(t, "short", conv.Lines[1].Text)
}

func TestTransformZeroConfigIsNoop(t *testing.T) {
	conv := &core.Conversation{Lines: lines(100, "y")}
	require.NoError(t, New(Config{}).Transform(conv))
	assert.Len(t, conv.Lines, 100)
}

func TestChainWithCompactor(t *testing.T) {
	conv := &core.Conversation{Lines: lines(3, "z")}
	require.NoError(t, core.Chain(conv, New(Config{MaxLines: 2})))
	assert.Len(t, conv.Lines, 2)
}
