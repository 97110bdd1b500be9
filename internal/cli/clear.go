package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all tasks",
		Long: `Delete every task. The empty list is saved locally and, when a sync
server is reachable, uploaded so other devices see it too.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !force {
				fmt.Fprint(out, "Are you sure you want to delete all tasks? (y/N): ")
				if !confirmed(cmd) {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			sess, _, err := openInitialized(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer sess.close()

			n := len(sess.store.Tasks())
			fmt.Fprintln(out, "🧹 Clearing tasks...")
			if err := sess.store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear tasks: %w", err)
			}
			fmt.Fprintf(out, "%d tasks deleted.\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Do not ask for confirmation")
	return cmd
}
