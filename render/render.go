// Package render defines the interface for rendering conversations into
// various output formats.
package render

import (
	"io"

	"github.com/sonnes/parley/core"
)

// Renderer writes a conversation to the given writer in a specific format.
type Renderer interface {
	Render(w io.Writer, c *core.Conversation) error
}
