// Package json renders conversations as JSON (serializes the model as-is).
package json

import (
	"encoding/json"
	"io"

	"github.com/sonnes/parley/core"
)

// Renderer renders a conversation to JSON.
type Renderer struct {
	// Indent controls pretty-printing. When true, output is indented.
	Indent bool
}

// Render implements render.Renderer.
func (r *Renderer) Render(w io.Writer, c *core.Conversation) error {
	enc := json.NewEncoder(w)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(c)
}

// RenderList writes a listing of summaries.
func (r *Renderer) RenderList(w io.Writer, summaries []core.Summary) error {
	enc := json.NewEncoder(w)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	if summaries == nil {
		summaries = []core.Summary{}
	}
	return enc.Encode(summaries)
}
