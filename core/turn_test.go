package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupExchanges(t *testing.T) {
	tests := []struct {
		name   string
		lines  []Line
		want   int // number of exchanges
		checks func(t *testing.T, ex []Exchange)
	}{
		{
			name:  "empty",
			lines: nil,
			want:  0,
		},
		{
			name:  "single user line",
			lines: []Line{{Role: RoleUser, Text: "hello"}},
			want:  1,
			checks: func(t *testing.T, ex []Exchange) {
				require.NotNil(t, ex[0].Prompt)
				assert.Equal(t, "hello", ex[0].Prompt.Text)
				assert.Empty(t, ex[0].Replies)
				assert.False(t, ex[0].Answered())
			},
		},
		{
			name:  "single assistant line",
			lines: []Line{{Role: RoleAssistant, Text: "hi"}},
			want:  1,
			checks: func(t *testing.T, ex []Exchange) {
				assert.Nil(t, ex[0].Prompt)
				require.Len(t, ex[0].Replies, 1)
			},
		},
		{
			name: "multi exchange",
			lines: []Line{
				{Role: RoleUser, Text: "first"},
				{Role: RoleAssistant, Text: "reply1"},
				{Role: RoleUser, Text: "second"},
				{Role: RoleAssistant, Text: "reply2"},
			},
			want: 2,
			checks: func(t *testing.T, ex []Exchange) {
				assert.Equal(t, "first", ex[0].Prompt.Text)
				assert.Equal(t, "second", ex[1].Prompt.Text)
				assert.True(t, ex[1].Answered())
			},
		},
		{
			name: "system notice is not an answer",
			lines: []Line{
				{Role: RoleUser, Text: "hello"},
				{Role: RoleSystem, Text: "backend unreachable"},
			},
			want: 1,
			checks: func(t *testing.T, ex []Exchange) {
				require.Len(t, ex[0].Replies, 1)
				assert.False(t, ex[0].Answered())
			},
		},
		{
			name: "assistant before first user",
			lines: []Line{
				{Role: RoleAssistant, Text: "welcome"},
				{Role: RoleUser, Text: "hello"},
				{Role: RoleAssistant, Text: "reply"},
			},
			want: 2,
			checks: func(t *testing.T, ex []Exchange) {
				assert.Nil(t, ex[0].Prompt)
				assert.NotNil(t, ex[1].Prompt)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := GroupExchanges(tt.lines)
			assert.Len(t, ex, tt.want)
			if tt.checks != nil {
				tt.checks(t, ex)
			}
		})
	}
}
