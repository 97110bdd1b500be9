package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Enter      key.Binding
	Add        key.Binding
	Suggest    key.Binding
	Regenerate key.Binding
	Done       key.Binding
	Delete     key.Binding
	Help       key.Binding
	Quit       key.Binding
	Escape     key.Binding
	Refresh    key.Binding
}

var keys = keyMap{
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Top:        key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	Bottom:     key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	MoveUp:     key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
	MoveDown:   key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
	Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
	ShiftTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
	Enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "expand/submit")),
	Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
	Suggest:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "ai suggest")),
	Regenerate: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "regenerate")),
	Done:       key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x", "toggle done")),
	Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Refresh:    key.NewBinding(key.WithKeys("R", "r"), key.WithHelp("r", "sync now")),
}
