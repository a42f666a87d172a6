// Package core defines the conversation model shared by the session store,
// the reply client and every renderer: role-tagged transcript lines grouped
// into conversation records.
package core

import "time"

// PlaceholderTitle labels a conversation that has no user line yet.
const PlaceholderTitle = "New conversation"

// WelcomeText is shown in place of an empty transcript.
const WelcomeText = "Welcome! Ask anything about public art and design to get started."

// Role enumerates who produced a line.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Line is a single rendered entry in a transcript.
type Line struct {
	Role      Role       `json:"role"`
	Text      string     `json:"text"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Conversation is one saved chat: a transcript plus display metadata.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Lines     []Line    `json:"lines"`
}

// Clone returns a deep copy so callers can't mutate store-owned slices.
func (c Conversation) Clone() Conversation {
	out := c
	out.Lines = CloneLines(c.Lines)
	return out
}

// Timestamp renders the last-modified time for history listings.
func (c Conversation) Timestamp() string {
	return FormatTime(c.UpdatedAt)
}

// HasContent reports whether the transcript holds at least one line.
func (c Conversation) HasContent() bool {
	return len(c.Lines) > 0
}

// CloneLines copies a line slice, including timestamps.
func CloneLines(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l
		if l.Timestamp != nil {
			ts := *l.Timestamp
			out[i].Timestamp = &ts
		}
	}
	return out
}
