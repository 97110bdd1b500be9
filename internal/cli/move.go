package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move [task] [position]",
		Short: "Move a task to another position",
		Long: `Move a task to a new 1-based position in the list. The other tasks keep
their relative order.

Examples:
  taskdeck move 4 1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := openInitialized(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer sess.close()

			task, from, err := resolveTask(sess.store.Tasks(), args[0])
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[1])
			}

			if err := sess.store.Reorder(cmd.Context(), from, pos-1); err != nil {
				return fmt.Errorf("failed to move task: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "↕ Moved \"%s\" to position %d\n", task.Title, pos)
			return nil
		},
	}
}
