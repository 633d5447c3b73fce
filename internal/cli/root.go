package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chazuruo/pdeck/internal/tui"
	"github.com/chazuruo/pdeck/internal/workflow"
)

// NewRootCommand builds the pdeck command tree. Without a subcommand it
// opens the terminal UI.
func NewRootCommand(version, commit, date string) *cobra.Command {
	buildVersion = version

	rootCmd := &cobra.Command{
		Use:   "pdeck",
		Short: "Browse and curate a remote prompt collection",
		Long: `pdeck is a terminal client for a prompt collection service.

Run it without arguments to browse prompts grouped by category, search,
create, edit, duplicate and delete prompts, and curate categories and tags.
Every subcommand also works non-interactively for scripting.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if IsNoTUI() {
				return runList(cmd, &ListOptions{Format: string(FormatTable)})
			}
			return runTUI(cmd)
		},
	}

	AddGlobalFlags(rootCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewShowCommand())
	rootCmd.AddCommand(NewCreateCommand())
	rootCmd.AddCommand(NewEditCommand())
	rootCmd.AddCommand(NewDeleteCommand())
	rootCmd.AddCommand(NewDuplicateCommand())
	rootCmd.AddCommand(NewCategoryCommand())
	rootCmd.AddCommand(NewTagCommand())
	rootCmd.AddCommand(NewExportCommand())
	rootCmd.AddCommand(NewVersionCommand(version, commit, date))

	return rootCmd
}

func runTUI(cmd *cobra.Command) error {
	ctx := cmd.Context()

	// The TUI owns the terminal, so logs only go to a configured file.
	sess, err := openSession(ctx, io.Discard, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	if !sess.cfg.TUI.Enabled {
		if err := sess.store.Load(ctx); err != nil {
			return fmt.Errorf("failed to load catalog from %s: %w", sess.client.BaseURL(), err)
		}
		return listPrompts(ctx, cmd.OutOrStdout(), sess.store, &ListOptions{}, FormatTable)
	}

	ctrl := workflow.New(sess.store, sess.logger)
	return tui.Run(ctx, sess.store, ctrl, tui.OptionsFrom(sess.cfg))
}
