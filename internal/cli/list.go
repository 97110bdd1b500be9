package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/store"
	"github.com/spf13/cobra"
)

type listOptions struct {
	pending  bool
	subtasks bool
	json     bool
}

func newListCmd(a *app) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Long: `List tasks in display order, incomplete ones first.

Tasks can be referenced in other commands by their number in this list
or by their id.

Examples:
  taskdeck list
  taskdeck list --pending
  taskdeck list --subtasks`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.pending, "pending", false, "Hide completed tasks")
	cmd.Flags().BoolVarP(&opts.subtasks, "subtasks", "s", false, "Show subtasks")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print tasks as JSON")
	return cmd
}

func (a *app) runList(cmd *cobra.Command, opts listOptions) error {
	sess, _, err := openInitialized(cmd.Context(), a.cfg)
	if err != nil {
		return err
	}
	defer sess.close()

	tasks := sess.store.Tasks()
	out := cmd.OutOrStdout()

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	}

	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found. Add one with: taskdeck add \"Your task\"")
		return nil
	}

	now := time.Now()
	incomplete, completed := model.Partition(tasks)

	printSection(out, "Tasks", tasks, incomplete, now, opts)
	if !opts.pending {
		printSection(out, "Completed", tasks, completed, now, opts)
	}
	return nil
}

func printSection(out io.Writer, title string, all, tasks []model.Task, now time.Time, opts listOptions) {
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s (%d)\n", title, len(tasks))
	fmt.Fprintln(out, strings.Repeat("─", 72))

	for _, t := range tasks {
		printTask(out, model.IndexOf(all, t.ID)+1, t, now)
		if opts.subtasks {
			for i, st := range t.Subtasks {
				icon := "[ ]"
				if st.Completed {
					icon = "[x]"
				}
				fmt.Fprintf(out, "        %d. %s %s\n", i+1, icon, st.Title)
			}
		}
	}
	fmt.Fprintln(out)
}

func printTask(out io.Writer, num int, t model.Task, now time.Time) {
	// Status icon
	icon := "[ ]"
	if t.IsComplete() {
		icon = "[x]"
	}

	// Truncate title if too long
	title := t.Title
	if r := []rune(title); len(r) > 36 {
		title = string(r[:33]) + "..."
	}

	progress := ""
	if len(t.Subtasks) > 0 {
		progress = fmt.Sprintf("%d/%d", t.CompletedSubtasks(), len(t.Subtasks))
	}

	fmt.Fprintf(out, "  %2d. %s  %-36s  %s %s  %-5s  %s\n",
		num, icon, title, t.Day, t.Time, progress, t.Status(now))
}

// resolveTask finds a task by id or by its 1-based list position
func resolveTask(tasks []model.Task, ref string) (model.Task, int, error) {
	if i := model.IndexOf(tasks, ref); i >= 0 {
		return tasks[i], i, nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(tasks) {
		return tasks[n-1], n - 1, nil
	}
	return model.Task{}, -1, fmt.Errorf("%s: %w", ref, store.ErrNotFound)
}

// describeErr turns store errors into user-facing hints
func describeErr(t model.Task, err error) error {
	if errors.Is(err, model.ErrDerivedCompletion) {
		return fmt.Errorf("\"%s\" completes through its subtasks; use 'taskdeck subtask done'", t.Title)
	}
	return err
}
