package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newDoneCmd(a *app) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done [task]",
		Short: "Mark a task as done",
		Long: `Mark a task as completed. Tasks with subtasks are completed through
their subtasks instead.

Examples:
  taskdeck done 2
  taskdeck done 1740819600000 --undo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := openInitialized(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer sess.close()

			task, _, err := resolveTask(sess.store.Tasks(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(task.Subtasks) == 0 && task.Completed != undo {
				fmt.Fprintf(out, "Already %s: \"%s\"\n", doneWord(!undo), task.Title)
				return nil
			}
			if err := sess.store.ToggleTask(cmd.Context(), task.ID); err != nil {
				return describeErr(task, err)
			}

			if undo {
				fmt.Fprintf(out, "○ Reopened: \"%s\"\n", task.Title)
			} else {
				fmt.Fprintf(out, "✓ Completed: \"%s\"\n", task.Title)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "Mark task as not done")
	return cmd
}

func newSubtaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtask",
		Short: "Work with subtasks",
	}

	var undo bool
	doneCmd := &cobra.Command{
		Use:   "done [task] [subtask-number]",
		Short: "Mark a subtask as done",
		Long: `Mark a subtask as done. A task is complete once all of its subtasks are.

Examples:
  taskdeck subtask done 1 2
  taskdeck subtask done 1 2 --undo`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := openInitialized(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer sess.close()

			task, _, err := resolveTask(sess.store.Tasks(), args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 || n > len(task.Subtasks) {
				return fmt.Errorf("\"%s\" has no subtask %s", task.Title, args[1])
			}
			st := task.Subtasks[n-1]

			out := cmd.OutOrStdout()
			if st.Completed != undo {
				fmt.Fprintf(out, "Already %s: \"%s\"\n", doneWord(!undo), st.Title)
				return nil
			}
			if err := sess.store.ToggleSubtask(cmd.Context(), task.ID, st.ID); err != nil {
				return err
			}

			fmt.Fprintf(out, "✓ %s: \"%s\"\n", capitalize(doneWord(!undo)), st.Title)
			if updated, ok := sess.store.Get(task.ID); ok && updated.IsComplete() && !undo {
				fmt.Fprintf(out, "✓ Completed: \"%s\"\n", updated.Title)
			}
			return nil
		},
	}
	doneCmd.Flags().BoolVar(&undo, "undo", false, "Mark subtask as not done")

	cmd.AddCommand(doneCmd)
	return cmd
}

func doneWord(done bool) string {
	if done {
		return "done"
	}
	return "open"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
