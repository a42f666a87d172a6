package core

import (
	"strings"
)

// rolePrefixes are display labels that older transcripts baked into the line
// text ("User: hello"). Matched case-insensitively.
var rolePrefixes = []string{
	"user:", "user：",
	"you:", "you：",
	"用户:", "用户：",
	"assistant:", "assistant：",
	"system:", "system：",
	"系统:", "系统：",
}

// StripRolePrefix removes a leading role label from s and trims whitespace.
// Only the first label is removed.
func StripRolePrefix(s string) string {
	s = strings.TrimSpace(s)
	for _, p := range rolePrefixes {
		if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
			return strings.TrimSpace(s[len(p):])
		}
	}
	return s
}

// DeriveTitle returns the text of the first user line, with any role label
// stripped. Lines that are empty after stripping are skipped. Returns
// PlaceholderTitle when no user line has text.
func DeriveTitle(lines []Line) string {
	for _, l := range lines {
		if l.Role != RoleUser {
			continue
		}
		if text := StripRolePrefix(l.Text); text != "" {
			return text
		}
	}
	return PlaceholderTitle
}
