package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDeleteCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "delete [task]",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Long: `Delete a task by its list number or id.

Examples:
  taskdeck delete 3
  taskdeck rm 1740819600000 --force`,
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
			if a.cfg.ConfirmDelete && !force {
				fmt.Fprintf(out, "About to delete: \"%s\" (ID: %s)\n", task.Title, task.ID)
				fmt.Fprint(out, "Are you sure? [y/N]: ")
				if !confirmed(cmd) {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			if err := sess.store.Remove(cmd.Context(), task.ID); err != nil {
				return fmt.Errorf("failed to delete task: %w", err)
			}

			fmt.Fprintf(out, "🗑️  Deleted: \"%s\"\n", task.Title)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Do not ask for confirmation")
	return cmd
}

// confirmed reads a y/N answer from the command input
func confirmed(cmd *cobra.Command) bool {
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
