package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.mode == ModeLoading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			HelpStyle.Render("Loading tasks..."))
	}

	mainContent := m.renderTaskList()
	statusBar := m.renderStatusBar()

	var modal string
	switch m.mode {
	case ModeAddTask:
		modal = m.renderAddModal()
	case ModeSuggest:
		modal = m.renderSuggestModal()
	case ModeConfirmDelete:
		modal = m.renderConfirmModal()
	case ModeHelp:
		mainContent = m.renderHelp()
	}
	if modal != "" {
		mainContent = lipgloss.Place(
			m.width, m.height-2,
			lipgloss.Center, lipgloss.Center,
			modal,
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	// Combine with status bar
	return lipgloss.JoinVertical(lipgloss.Left, mainContent, statusBar)
}

func (m Model) renderTaskList() string {
	width := m.width - 4
	var s string

	// Header with time
	pending, done := m.counts()
	header := fmt.Sprintf("TaskDeck (%d pending, %d done)", pending, done)
	clock := HelpStyle.Render(m.now.Format("Mon 2006-01-02 15:04:05"))
	gap := width - lipgloss.Width(header) - lipgloss.Width(clock) - 2
	if gap < 1 {
		gap = 1
	}
	s += HeaderStyle.Render(header) + strings.Repeat(" ", gap) + clock + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", max(width-4, 0))) + "\n\n"

	if len(m.rows) == 0 {
		s += HelpStyle.Render("  No tasks. Press 'a' to add one or 'i' for AI suggestions.")
		return TaskListStyle.Width(m.width).Height(m.height - 2).Render(s)
	}

	var current section = -1
	for i, r := range m.rows {
		if r.section != current {
			current = r.section
			title := "Tasks"
			if current == sectionCompleted {
				title = "Completed"
			}
			if i > 0 {
				s += "\n"
			}
			s += SectionStyle.Render(title) + "\n"
		}

		selected := i == m.cursor
		if r.subtask != nil {
			s += m.renderSubtaskRow(r, selected, width) + "\n"
		} else {
			s += m.renderTaskRow(r, selected, width) + "\n"
		}
	}

	return TaskListStyle.Width(m.width).Height(m.height - 2).Render(s)
}

func (m Model) renderTaskRow(r row, selected bool, width int) string {
	t := r.task
	cursor := "  "
	style := TaskItemStyle
	if selected {
		cursor = "❯ "
		style = TaskItemSelectedStyle
	}

	icon := "[ ]"
	if t.IsComplete() {
		icon = "[x]"
		if !selected {
			style = TaskDoneStyle
		}
	}

	fold := "  "
	progress := ""
	if len(t.Subtasks) > 0 {
		fold = "▸ "
		if m.expanded[t.ID] {
			fold = "▾ "
		}
		progress = fmt.Sprintf(" %d/%d", t.CompletedSubtasks(), len(t.Subtasks))
	}

	when := fmt.Sprintf("%s %s", t.Day, t.Time)
	titleWidth := width - 40
	if titleWidth < 10 {
		titleWidth = 10
	}

	check := style.Render(cursor + icon)
	desc := style.Render(fmt.Sprintf(" %s%-*s%s ", fold, titleWidth, truncate(t.Title, titleWidth), progress))
	return check + desc + HelpStyle.Render(when) + " " + FormatStatus(t.Status(m.now))
}

func (m Model) renderSubtaskRow(r row, selected bool, width int) string {
	st := r.subtask
	cursor := "      "
	style := TaskItemStyle
	if selected {
		cursor = "    ❯ "
		style = TaskItemSelectedStyle
	}
	icon := "[ ]"
	if st.Completed {
		icon = "[x]"
		if !selected {
			style = TaskDoneStyle
		}
	}
	return style.Render(cursor + icon + " " + truncate(st.Title, width-16))
}

func (m Model) renderStatusBar() string {
	help := "a:add  i:ai  x:done  enter:expand  J/K:move  d:del  r:sync  ?:help  q:quit"
	if m.message != "" {
		help = m.message
	}

	// Append sync status (right aligned)
	syncMsg := ""
	if m.store.HasRemote() {
		switch {
		case !m.online():
			syncMsg = lipgloss.NewStyle().Foreground(Offline).Render("Offline")
		case m.store.Pending():
			syncMsg = lipgloss.NewStyle().Foreground(SyncPending).Render("Syncing...")
		case m.store.LastSyncError() != nil:
			syncMsg = lipgloss.NewStyle().Foreground(SyncError).Render("Sync Error!")
		default:
			syncMsg = lipgloss.NewStyle().Foreground(SyncOK).Render("Synced")
		}
	} else {
		syncMsg = HelpStyle.Render("Local only")
	}

	avail := m.width - lipgloss.Width(help) - lipgloss.Width(syncMsg) - 2
	if avail > 0 {
		help += strings.Repeat(" ", avail) + syncMsg
	} else {
		help += " " + syncMsg
	}

	return StatusBarStyle.Width(m.width).Render(help)
}

func (m Model) renderAddModal() string {
	content := lipgloss.NewStyle().Bold(true).Render("Add Task") + "\n\n"
	content += m.form.view()
	content += HelpStyle.Render("Tab:next field  Enter:save  Esc:cancel")
	return ModalStyle.Width(56).Render(content)
}

func (m Model) renderSuggestModal() string {
	content := lipgloss.NewStyle().Bold(true).Render("AI Suggestions") + "\n\n"
	content += m.form.view()

	switch {
	case m.suggesting:
		content += HelpStyle.Render("Generating suggestions...") + "\n\n"
	case len(m.suggestions) > 0:
		content += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Suggested subtasks") + "\n"
		for i, sg := range m.suggestions {
			content += fmt.Sprintf("  %d. %s\n", i+1, truncate(sg, 48))
		}
		content += "\n"
	}

	hint := "Enter:generate  Esc:cancel"
	if len(m.suggestions) > 0 {
		hint = "Enter:create task  Ctrl+R:regenerate  Esc:cancel"
	}
	content += HelpStyle.Render(hint)
	return ModalStyle.Width(60).Render(content)
}

func (m Model) renderConfirmModal() string {
	title := m.pendingDelete
	if t, ok := m.store.Get(m.pendingDelete); ok {
		title = t.Title
	}
	content := lipgloss.NewStyle().Bold(true).Foreground(SyncError).Render("Delete task?") + "\n\n"
	content += truncate(title, 40) + "\n\n"
	content += HelpStyle.Render("y:delete  any other key:cancel")
	return ModalStyle.Render(content)
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ───╮
│                          │
│  Navigation              │
│  ──────────              │
│  j/↓    Move down        │
│  k/↑    Move up          │
│  g/G    Top / bottom     │
│  enter  Show subtasks    │
│                          │
│  Actions                 │
│  ───────                 │
│  a       Add task        │
│  i       AI suggestions  │
│  x/space Toggle done     │
│  J/K     Reorder task    │
│  d       Delete          │
│  r       Sync now        │
│                          │
│  Other                   │
│  ─────                   │
│  ?       Toggle help     │
│  q       Quit            │
│                          │
╰──────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, help)
}
