package html

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sonnes/parley/core"
)

// renderLine turns one transcript line into HTML. Assistant text is
// markdown; user and system text is escaped verbatim.
func (r *Renderer) renderLine(l core.Line) (template.HTML, error) {
	switch l.Role {
	case core.RoleAssistant:
		return r.renderMarkdown(l.Text)
	case core.RoleSystem:
		return renderNotice(l.Text), nil
	default:
		return renderPlain(l.Text), nil
	}
}

func (r *Renderer) renderMarkdown(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("goldmark convert: %w", err)
	}
	return template.HTML(`<div class="prose dark:prose-invert max-w-none">` + buf.String() + `</div>`), nil
}

func renderPlain(text string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	return template.HTML(`<p class="whitespace-pre-wrap text-sm">` + escaped + `</p>`)
}

func renderNotice(text string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	return template.HTML(`<p class="whitespace-pre-wrap text-xs italic text-slate-500 dark:text-slate-400">` + escaped + `</p>`)
}
