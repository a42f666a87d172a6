// Package compact provides a Transformer that keeps conversations within the
// size limits the chat backend enforces on its own history.
package compact

import (
	"github.com/sonnes/parley/core"
)

// Backend limits, in runes and lines.
const (
	DefaultMaxLineLength  = 10000
	DefaultMaxLines       = 60
	DefaultMaxTotalLength = 50000
	DefaultMinLines       = 4
)

// TruncatedSuffix marks text that was cut.
const TruncatedSuffix = "...[truncated]"

// truncateMargin is how far below the limit a cut lands, leaving room for
// the suffix.
const truncateMargin = 100

// Config controls the compact transformer. Zero fields disable that limit.
type Config struct {
	MaxLineLength  int
	MaxLines       int
	MaxTotalLength int
	MinLines       int // lines always kept when trimming by total length
}

// DefaultConfig mirrors the backend's history configuration.
func DefaultConfig() Config {
	return Config{
		MaxLineLength:  DefaultMaxLineLength,
		MaxLines:       DefaultMaxLines,
		MaxTotalLength: DefaultMaxTotalLength,
		MinLines:       DefaultMinLines,
	}
}

// Compactor trims long lines and drops the oldest lines of oversized
// transcripts.
type Compactor struct {
	cfg Config
}

// New creates a Compactor from the given config.
func New(cfg Config) *Compactor {
	return &Compactor{cfg: cfg}
}

// Transform implements core.Transformer. The title is left untouched.
func (c *Compactor) Transform(conv *core.Conversation) error {
	if c.cfg.MaxLineLength > 0 {
		for i := range conv.Lines {
			conv.Lines[i].Text = TruncateText(conv.Lines[i].Text, c.cfg.MaxLineLength)
		}
	}
	if c.cfg.MaxTotalLength > 0 {
		conv.Lines = c.trimTotal(conv.Lines)
	}
	if c.cfg.MaxLines > 0 && len(conv.Lines) > c.cfg.MaxLines {
		conv.Lines = conv.Lines[len(conv.Lines)-c.cfg.MaxLines:]
	}
	return nil
}

func (c *Compactor) trimTotal(lines []core.Line) []core.Line {
	total := 0
	for _, l := range lines {
		total += runeLen(l.Text)
	}
	start := 0
	for total > c.cfg.MaxTotalLength && len(lines)-start > c.cfg.MinLines {
		total -= runeLen(lines[start].Text)
		start++
	}
	return lines[start:]
}

// TruncateText cuts s when it is longer than max runes, keeping the first
// max-100 runes followed by TruncatedSuffix.
func TruncateText(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	keep := max - truncateMargin
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + TruncatedSuffix
}

func runeLen(s string) int {
	return len([]rune(s))
}
