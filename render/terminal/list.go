package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/sonnes/parley/core"
)

// RenderList writes one row per conversation: title, relative update time,
// exchange count and a preview of the last line. activeID is marked.
func (r *Renderer) RenderList(w io.Writer, summaries []core.Summary, activeID string) error {
	if len(summaries) == 0 {
		fmt.Fprintln(w, styleMeta.Render("No conversations yet."))
		return nil
	}

	width := r.termWidth()
	for _, s := range summaries {
		marker := "  "
		if s.ID == activeID {
			marker = styleUserBadge.Render("▸ ")
		}

		meta := []string{core.RelativeTime(s.UpdatedAt)}
		meta = append(meta, pluralize(s.ExchangeCount, "exchange"))

		fmt.Fprintln(w, marker+styleTitle.Render(truncate(s.Title, width-4))+"  "+styleMeta.Render(strings.Join(meta, " · ")))
		if s.Preview != "" {
			fmt.Fprintln(w, "    "+styleMeta.Render(truncate(s.Preview, width-6)))
		}
	}
	return nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%s %ss", formatNumber(n), noun)
}
