// Package html renders the web chat pages and standalone conversation
// exports, styled with Tailwind CSS v4 (CDN). Assistant replies are treated
// as markdown and highlighted via goldmark + chroma.
package html

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sonnes/parley/core"
	"github.com/sonnes/parley/keywords"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

//go:embed templates/*.html
var content embed.FS

// Renderer renders chat pages and conversation exports.
type Renderer struct {
	md   goldmark.Markdown
	tmpl *template.Template
}

// New creates an HTML Renderer with goldmark configured for GFM and syntax
// highlighting. Raw HTML in replies is dropped.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("dracula"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false), // inline styles for standalone pages
				),
			),
		),
	)

	tmpl := template.Must(
		template.New("parley").
			Funcs(funcMap()).
			ParseFS(content, "templates/*.html"),
	)

	return &Renderer{md: md, tmpl: tmpl}
}

// ChatPage is the data behind the chat view.
type ChatPage struct {
	ActiveID  string
	Lines     []core.Line
	Sidebar   []core.Summary
	Keywords  []keywords.Keyword
	Templates []string
	Pending   bool
	Notice    string
}

// HistoryPage is the data behind the history view.
type HistoryPage struct {
	ActiveID      string
	Conversations []core.Summary
}

// lineData is the per-line template data passed to the "line" partial.
type lineData struct {
	ID          string
	Role        core.Role
	RoleLabel   string
	BorderClass string
	BadgeClass  string
	Timestamp   *time.Time
	Duration    string
	Body        template.HTML
}

type chatData struct {
	ChatPage
	Title   string
	Welcome string
	Rows    []lineData
}

type historyData struct {
	HistoryPage
	Title string
}

type exportData struct {
	Conversation    *core.Conversation
	Rows            []lineData
	ExchangeCount   int
	OverallDuration string
}

// RenderChat writes the chat view.
func (r *Renderer) RenderChat(w io.Writer, p ChatPage) error {
	rows, err := r.rows(p.Lines)
	if err != nil {
		return err
	}
	title := "Chat"
	for _, s := range p.Sidebar {
		if s.ID == p.ActiveID {
			title = s.Title
		}
	}
	data := chatData{ChatPage: p, Title: title, Welcome: core.WelcomeText, Rows: rows}
	return r.tmpl.ExecuteTemplate(w, "chat.html", data)
}

// RenderHistory writes the history view. Conversations are shown in the
// order given.
func (r *Renderer) RenderHistory(w io.Writer, p HistoryPage) error {
	return r.tmpl.ExecuteTemplate(w, "history.html", historyData{HistoryPage: p, Title: "History"})
}

// Render writes the conversation as a complete standalone HTML page to w.
func (r *Renderer) Render(w io.Writer, c *core.Conversation) error {
	rows, err := r.rows(c.Lines)
	if err != nil {
		return err
	}

	var overallDuration string
	if !c.CreatedAt.IsZero() && c.UpdatedAt.After(c.CreatedAt) {
		overallDuration = formatDuration(c.UpdatedAt.Sub(c.CreatedAt))
	}

	data := exportData{
		Conversation:    c,
		Rows:            rows,
		ExchangeCount:   len(core.GroupExchanges(c.Lines)),
		OverallDuration: overallDuration,
	}
	return r.tmpl.ExecuteTemplate(w, "transcript.html", data)
}

func (r *Renderer) rows(lines []core.Line) ([]lineData, error) {
	var prevTimestamp *time.Time
	rows := make([]lineData, 0, len(lines))
	for i, l := range lines {
		ld := lineData{
			ID:          fmt.Sprintf("line-%d", i),
			Role:        l.Role,
			RoleLabel:   roleLabel(l.Role),
			BorderClass: borderClass(l.Role),
			BadgeClass:  badgeClass(l.Role),
			Timestamp:   l.Timestamp,
		}
		if l.Timestamp != nil && prevTimestamp != nil {
			ld.Duration = formatDuration(l.Timestamp.Sub(*prevTimestamp))
		}
		if l.Timestamp != nil {
			prevTimestamp = l.Timestamp
		}

		body, err := r.renderLine(l)
		if err != nil {
			return nil, fmt.Errorf("render line %d: %w", i, err)
		}
		ld.Body = body
		rows = append(rows, ld)
	}
	return rows, nil
}

func roleLabel(role core.Role) string {
	switch role {
	case core.RoleUser:
		return "You"
	case core.RoleAssistant:
		return "Assistant"
	case core.RoleSystem:
		return "System"
	default:
		return string(role)
	}
}

func borderClass(role core.Role) string {
	switch role {
	case core.RoleUser:
		return "border-l-4 border-l-blue-500"
	case core.RoleAssistant:
		return "border-l-4 border-l-emerald-500"
	case core.RoleSystem:
		return "border-l-4 border-l-slate-400"
	default:
		return ""
	}
}

func badgeClass(role core.Role) string {
	switch role {
	case core.RoleUser:
		return "text-blue-700 dark:text-blue-400 bg-blue-50 dark:bg-blue-950"
	case core.RoleAssistant:
		return "text-emerald-700 dark:text-emerald-400 bg-emerald-50 dark:bg-emerald-950"
	case core.RoleSystem:
		return "text-slate-600 dark:text-slate-400 bg-slate-100 dark:bg-slate-800"
	default:
		return ""
	}
}
