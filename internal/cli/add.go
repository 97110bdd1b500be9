package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/existflow/taskdeck/internal/model"
	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		day      string
		clock    string
		subtasks []string
	)

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a new task",
		Long: `Add a new scheduled task. Day and time default to the next full hour.

Examples:
  taskdeck add "Buy milk"
  taskdeck add "Dentist" --day 2025-03-04 --time 14:30
  taskdeck add "Cook dinner" -s wash -s chop`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := openInitialized(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer sess.close()

			defDay, defClock := model.NextSlot(time.Now())
			if day == "" {
				day = defDay
			}
			if clock == "" {
				clock = defClock
			}

			t, err := sess.store.CreateTask(cmd.Context(), strings.Join(args, " "), day, clock, subtasks)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Added: \"%s\" (%s %s)\n", t.Title, t.Day, t.Time)
			for _, st := range t.Subtasks {
				fmt.Fprintf(out, "    [ ] %s\n", st.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&day, "day", "d", "", "Day (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&clock, "time", "t", "", "Time (HH:MM)")
	cmd.Flags().StringArrayVarP(&subtasks, "subtask", "s", nil, "Subtask title (repeatable)")
	return cmd
}
