package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/suggest"
	"github.com/spf13/cobra"
)

func newSuggestCmd(a *app) *cobra.Command {
	var (
		day   string
		clock string
		add   bool
	)

	cmd := &cobra.Command{
		Use:   "suggest [prompt]",
		Short: "Ask the server for subtask suggestions",
		Long: `Generate subtask suggestions for a prompt. With --add the prompt becomes a
new task and every suggestion one of its subtasks.

Examples:
  taskdeck suggest "Bake oatmeal cookies"
  taskdeck suggest "Plan a weekend trip" --add --day 2025-03-08`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.TrimSpace(strings.Join(args, " "))
			if prompt == "" {
				return suggest.ErrEmptyPrompt
			}

			var (
				sess *session
				err  error
			)
			if add {
				sess, _, err = openInitialized(cmd.Context(), a.cfg)
			} else {
				sess, err = openSession(cmd.Context(), a.cfg)
			}
			if err != nil {
				return err
			}
			defer sess.close()

			if sess.suggester == nil {
				return errors.New("suggestions need a sync server; set sync.server_url or pass --server")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "✨ Generating suggestions...")
			suggestions, err := sess.suggester.Suggest(cmd.Context(), prompt)
			if err != nil {
				return fmt.Errorf("failed to generate suggestions, please try again: %w", err)
			}
			if len(suggestions) == 0 {
				fmt.Fprintln(out, "No suggestions returned.")
				return nil
			}

			for i, s := range suggestions {
				fmt.Fprintf(out, "  %d. %s\n", i+1, s)
			}
			if !add {
				return nil
			}

			defDay, defClock := model.NextSlot(time.Now())
			if day == "" {
				day = defDay
			}
			if clock == "" {
				clock = defClock
			}
			if err := model.ValidateSchedule(prompt, day, clock); err != nil {
				return err
			}

			t, err := sess.store.AddFromSuggestions(cmd.Context(), prompt, day, clock, suggestions)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Added: \"%s\" with %d subtasks (%s %s)\n", t.Title, len(t.Subtasks), t.Day, t.Time)
			return nil
		},
	}

	cmd.Flags().BoolVar(&add, "add", false, "Create a task from the suggestions")
	cmd.Flags().StringVarP(&day, "day", "d", "", "Day for the new task (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&clock, "time", "t", "", "Time for the new task (HH:MM)")
	return cmd
}
