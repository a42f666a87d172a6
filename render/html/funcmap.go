package html

import (
	"fmt"
	"html/template"
	"time"

	"github.com/sonnes/parley/core"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatTime":   formatTime,
		"relativeTime": relativeTime,
		"formatNumber": formatNumber,
		"plural":       plural,
	}
}

// formatTime accepts time.Time or *time.Time so templates can pass either.
func formatTime(v any) string {
	switch t := v.(type) {
	case time.Time:
		return core.FormatTime(t)
	case *time.Time:
		if t == nil {
			return ""
		}
		return core.FormatTime(*t)
	default:
		return ""
	}
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return core.RelativeTime(t)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return formatNumber(n) + " " + noun + "s"
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return formatNumber(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}
