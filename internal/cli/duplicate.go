package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazuruo/pdeck/internal/catalog"
	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
)

// NewDuplicateCommand creates the duplicate command.
func NewDuplicateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "duplicate <id>",
		Short:   "Copy a prompt",
		Long:    `Ask the service to copy a prompt. The copy gets the same content, category and tags.`,
		Aliases: []string{"dup", "cp"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDuplicate(cmd, args[0])
		},
	}
}

func runDuplicate(cmd *cobra.Command, arg string) error {
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

	err = sess.store.DuplicatePrompt(ctx, id)
	if err != nil && !catalog.IsRefreshError(err) {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Duplicated prompt #%d %q\n", id, p.Title)
	warnRefresh(cmd, err)
	return nil
}
