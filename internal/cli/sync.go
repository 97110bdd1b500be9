package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/existflow/taskdeck/internal/store"
	"github.com/spf13/cobra"
)

func newSyncCmd(a *app) *cobra.Command {
	var pull bool

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync tasks with server",
		Long: `Upload the full task list to the sync server.

Commands:
  taskdeck sync                          # Push local tasks now
  taskdeck sync --pull                   # Replace local tasks with the server's
  taskdeck sync status                   # Show sync status
  taskdeck sync config --url URL         # Set the server URL`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Sync.ServerURL == "" {
				return store.ErrNoRemote
			}

			sess, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer sess.close()

			out := cmd.OutOrStdout()
			if pull {
				fmt.Fprintln(out, "⚠️  Forcing sync from remote (replacing local data)...")
				if _, err := sess.store.Initialize(cmd.Context()); err != nil {
					return err
				}
				n, err := sess.store.PullRemote(cmd.Context())
				if err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
				fmt.Fprintf(out, "✓ Pulled %d tasks\n", n)
				return nil
			}

			fmt.Fprintln(out, "🔄 Synchronizing...")
			res, err := sess.store.Initialize(cmd.Context())
			if err != nil {
				return err
			}
			if res.FetchErr != nil {
				return fmt.Errorf("sync failed: %w", res.FetchErr)
			}
			if !sess.online() {
				return errors.New("sync failed: server unreachable")
			}
			if err := sess.store.Sync(cmd.Context()); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			fmt.Fprintf(out, "✓ Sync complete! %s (%d tasks)\n", res.Message, len(sess.store.Tasks()))
			return nil
		},
	}
	syncCmd.Flags().BoolVar(&pull, "pull", false, "Force sync from remote (replaces local)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if a.cfg.Sync.ServerURL == "" {
				fmt.Fprintln(out, "Server:    (none, local only)")
				return nil
			}

			sess, err := openSession(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer sess.close()

			fmt.Fprintf(out, "Server:    %s\n", a.cfg.Sync.ServerURL)
			fmt.Fprintf(out, "Storage:   %s (%s)\n", a.cfg.Storage.Path, a.cfg.Storage.Driver)
			if sess.online() {
				fmt.Fprintln(out, "Status:    ✓ Online")
			} else {
				fmt.Fprintln(out, "Status:    Offline")
			}
			return nil
		},
	}

	var server string
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configure sync settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !cmd.Flags().Changed("url") {
				// Just show config
				fmt.Fprintf(out, "Server: %s\n", a.cfg.Sync.ServerURL)
				return nil
			}

			if server != "" {
				if u, err := url.Parse(server); err != nil || u.Host == "" {
					return fmt.Errorf("invalid server url %q", server)
				}
			}
			a.cfg.Sync.ServerURL = server
			if err := a.saveConfig(); err != nil {
				return err
			}
			if server == "" {
				fmt.Fprintln(out, "✓ Sync disabled, running local only")
			} else {
				fmt.Fprintf(out, "✓ Server set to: %s\n", server)
			}
			return nil
		},
	}
	configCmd.Flags().StringVar(&server, "url", "", "Set server URL (empty disables sync)")

	syncCmd.AddCommand(statusCmd, configCmd)
	return syncCmd
}
