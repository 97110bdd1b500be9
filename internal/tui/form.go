package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// form is a stack of labelled text inputs with a single focused field
type form struct {
	labels []string
	inputs []textinput.Model
	focus  int
	err    string
}

type field struct {
	label       string
	placeholder string
	value       string
}

func newForm(fields ...field) form {
	f := form{}
	for _, fd := range fields {
		ti := textinput.New()
		ti.Placeholder = fd.placeholder
		ti.CharLimit = 256
		ti.Width = 40
		ti.Prompt = ""
		ti.SetValue(fd.value)
		f.labels = append(f.labels, fd.label)
		f.inputs = append(f.inputs, ti)
	}
	if len(f.inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

func (f form) value(i int) string {
	if i < 0 || i >= len(f.inputs) {
		return ""
	}
	return f.inputs[i].Value()
}

func (f *form) setFocus(i int) {
	if len(f.inputs) == 0 {
		return
	}
	i = (i + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Blur()
	f.focus = i
	f.inputs[f.focus].Focus()
}

func (f *form) next() { f.setFocus(f.focus + 1) }
func (f *form) prev() { f.setFocus(f.focus - 1) }

func (f *form) update(msg tea.Msg) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f form) view() string {
	var s string
	for i, in := range f.inputs {
		label := HelpStyle.Render(f.labels[i])
		if i == f.focus {
			label = lipgloss.NewStyle().Foreground(Primary).Render(f.labels[i])
		}
		s += label + "\n" + in.View() + "\n\n"
	}
	if f.err != "" {
		s += ErrorStyle.Render(f.err) + "\n\n"
	}
	return s
}
