package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Send          key.Binding
	NewSession    key.Binding
	SelectPrev    key.Binding
	SelectNext    key.Binding
	Open          key.Binding
	Delete        key.Binding
	ToggleKeyword key.Binding
	PrevKeyword   key.Binding
	NextKeyword   key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding
	Quit          key.Binding
}

var DefaultKeyMap = KeyMap{
	Send:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	NewSession:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new")),
	SelectPrev:    key.NewBinding(key.WithKeys("ctrl+up"), key.WithHelp("ctrl+↑", "prev")),
	SelectNext:    key.NewBinding(key.WithKeys("ctrl+down"), key.WithHelp("ctrl+↓", "next")),
	Open:          key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "open")),
	Delete:        key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "delete")),
	ToggleKeyword: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "tag")),
	PrevKeyword:   key.NewBinding(key.WithKeys("ctrl+left")),
	NextKeyword:   key.NewBinding(key.WithKeys("ctrl+right")),
	ScrollUp:      key.NewBinding(key.WithKeys("pgup", "shift+pgup")),
	ScrollDown:    key.NewBinding(key.WithKeys("pgdown", "shift+pgdown")),
	Quit:          key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

// ShortHelp lists the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.NewSession, k.SelectPrev, k.SelectNext, k.Open, k.Delete, k.ToggleKeyword, k.Quit}
}
