package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/taskdeck/internal/config"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app carries state shared by all commands of one invocation
type app struct {
	cfg        *config.Config
	configPath string

	logLevel   string
	logFile    string
	logConsole bool
	server     string
}

// NewRootCmd builds the taskdeck command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "taskdeck",
		Short: "TaskDeck - scheduled tasks with subtasks, offline first",
		Long: `TaskDeck keeps a list of scheduled tasks with subtasks on this device and
mirrors it to a sync server when one is configured and reachable.

Run 'taskdeck' without arguments to launch the interactive TUI.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				// Not a terminal: print the list instead of taking over the screen
				return a.runList(cmd, listOptions{})
			}
			return a.runTUI(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Info("TaskDeck exiting", logger.F("command", cmd.Name()))
			_ = logger.Close()
		},
	}

	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (default ~/.taskdeck/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&a.logConsole, "log-console", false, "Enable console logging")
	rootCmd.PersistentFlags().StringVar(&a.server, "server", "", "Sync server URL for this run (empty config value means local only)")

	// Add subcommands
	rootCmd.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newDoneCmd(a),
		newSubtaskCmd(a),
		newDeleteCmd(a),
		newMoveCmd(a),
		newSuggestCmd(a),
		newSyncCmd(a),
		newClearCmd(a),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	// Load config from file (or defaults if not exists)
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override with CLI flags if provided
	configChanged := false
	if cmd.Flags().Changed("log-level") {
		a.cfg.LogLevel = a.logLevel
		configChanged = true
	}
	if cmd.Flags().Changed("log-file") {
		a.cfg.LogFile = a.logFile
		configChanged = true
	}
	if cmd.Flags().Changed("log-console") {
		a.cfg.LogConsole = a.logConsole
		configChanged = true
	}

	// Save config if changed via CLI flags
	if configChanged {
		if err := a.saveConfig(); err != nil {
			logger.Warn("Failed to save config", logger.F("error", err))
		}
	}

	// --server only applies to this run
	if cmd.Flags().Changed("server") {
		a.cfg.Sync.ServerURL = a.server
	}

	logConfig := logger.Config{
		Level:      logger.ParseLevel(a.cfg.LogLevel),
		FilePath:   a.cfg.LogFile,
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     7,
		MaxBackups: 5,
		Console:    a.cfg.LogConsole,
	}

	if err := logger.Init(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("TaskDeck started", logger.F("command", cmd.Name()))
	return nil
}

func (a *app) saveConfig() error {
	if a.configPath != "" {
		return a.cfg.SaveFile(a.configPath)
	}
	return a.cfg.Save()
}

func (a *app) runTUI(cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sess, err := openSession(ctx, a.cfg)
	if err != nil {
		logger.Error("Failed to open session", logger.F("error", err))
		return err
	}
	defer sess.close()

	opts := tui.Options{
		Connectivity:  sess.conn,
		ConfirmDelete: a.cfg.ConfirmDelete,
	}
	if sess.suggester != nil {
		opts.Suggester = sess.suggester
	}

	logger.Info("Launching TUI")
	m := tui.NewModel(sess.store, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", logger.F("error", err))
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	logger.Info("TUI exited normally")
	return nil
}
