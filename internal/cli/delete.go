package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/chazuruo/pdeck/internal/catalog"
	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
)

// confirmAction asks a yes/no question. Tests replace it.
var confirmAction = func(title string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Delete").
				Negative("Keep").
				Value(&ok),
		),
	).Run()
	return ok, err
}

// DeleteOptions contains the options for the delete command.
type DeleteOptions struct {
	Yes bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	opts := &DeleteOptions{}

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a prompt",
		Long: `Delete a prompt after confirmation.

With --no-tui there is no one to ask, so --yes is required.`,
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "delete without asking")
	return cmd
}

func runDelete(cmd *cobra.Command, arg string, opts *DeleteOptions) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer sess.Close()

	p, ok := sess.store.Prompt(id)
	if !ok {
		return &pdeckerrors.NotFoundError{Kind: "prompt", ID: int64(id)}
	}

	confirmed := opts.Yes
	if !confirmed {
		if IsNoTUI() {
			return &pdeckerrors.ValidationError{Field: "confirmation", Reason: "refusing to delete without --yes in --no-tui mode"}
		}
		confirmed, err = confirmAction(fmt.Sprintf("Delete %q?", p.Title))
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return fmt.Errorf("form error: %w", err)
		}
		if !confirmed {
			return fmt.Errorf("delete prompt #%d: %w", id, pdeckerrors.ErrCanceled)
		}
	}

	if err := sess.store.DeletePrompt(ctx, id, catalog.Confirmation(confirmed)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted prompt #%d %q\n", id, p.Title)
	return nil
}
