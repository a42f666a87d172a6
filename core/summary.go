package core

import (
	"strings"
	"time"
)

const previewWidth = 80

// Summary holds lightweight metadata for one conversation, used by history
// listings. It mirrors the fields of Conversation that a list needs, without
// carrying the full transcript.
type Summary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Timestamp     string    `json:"timestamp"`
	LineCount     int       `json:"line_count"`
	ExchangeCount int       `json:"exchange_count"`
	Preview       string    `json:"preview,omitempty"`
}

// NewSummary extracts listing metadata from a conversation.
func NewSummary(c Conversation) Summary {
	s := Summary{
		ID:            c.ID,
		Title:         c.Title,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		Timestamp:     c.Timestamp(),
		LineCount:     len(c.Lines),
		ExchangeCount: len(GroupExchanges(c.Lines)),
	}
	if s.Title == "" {
		s.Title = PlaceholderTitle
	}
	if n := len(c.Lines); n > 0 {
		s.Preview = Preview(c.Lines[n-1].Text, previewWidth)
	}
	return s
}

// Preview reduces text to its first line, cut to at most width runes with a
// trailing "...".
func Preview(text string, width int) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if width < 4 || len(runes) <= width {
		return text
	}
	return string(runes[:width-3]) + "..."
}
