package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/chazuruo/pdeck/internal/config"
	pdeckerrors "github.com/chazuruo/pdeck/internal/errors"
)

// InitOptions contains the options for the init command.
type InitOptions struct {
	Force bool

	// Scriptable/flag options for --no-tui mode
	Server  string
	Timeout string
	Theme   string
}

// initForm asks for the settings interactively. Tests replace it.
var initForm = runInitForm

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a pdeck configuration file",
		Long: `Write a pdeck configuration file.

The init command asks for:
- The prompt service base URL
- The TUI theme

Use --no-tui with flags for scripted setup. The file goes to --config,
or ~/.config/pdeck/config.toml by default. An existing file is only
replaced with --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}

	defaults := config.DefaultConfig()
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing config file")
	cmd.Flags().StringVar(&opts.Server, "url", defaults.Remote.BaseURL, "prompt service base URL")
	cmd.Flags().StringVar(&opts.Timeout, "timeout", defaults.Remote.Timeout, "request timeout")
	cmd.Flags().StringVar(&opts.Theme, "theme", defaults.TUI.Theme, "TUI theme: dark, light or auto")

	return cmd
}

func runInit(cmd *cobra.Command, opts *InitOptions) error {
	path := globalConfigPath()
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if path == "" {
		return &pdeckerrors.ValidationError{Field: "config", Reason: "cannot determine a config path; pass --config"}
	}

	if _, err := os.Stat(path); err == nil && !opts.Force {
		return &pdeckerrors.ValidationError{Field: "config", Reason: fmt.Sprintf("%s already exists; use --force to overwrite", path)}
	}

	cfg := config.DefaultConfig()
	if !IsNoTUI() {
		if err := initForm(opts); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return fmt.Errorf("init: %w", pdeckerrors.ErrCanceled)
			}
			return fmt.Errorf("form error: %w", err)
		}
	}
	cfg.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(opts.Server), "/")
	cfg.Remote.Timeout = opts.Timeout
	cfg.TUI.Theme = opts.Theme

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if err := config.Write(path, cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSummary(cmd.OutOrStdout(), path, cfg)
	return nil
}

// runInitForm fills opts with a huh form, starting from the flag values.
func runInitForm(opts *InitOptions) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Prompt service URL").
				Description("Base URL of the prompt collection service").
				Value(&opts.Server).
				Validate(func(s string) error {
					c := config.DefaultConfig()
					c.Remote.BaseURL = strings.TrimSpace(s)
					return c.Validate()
				}),
			huh.NewSelect[string]().
				Title("Theme").
				Options(
					huh.NewOption("Dark", "dark"),
					huh.NewOption("Light", "light"),
					huh.NewOption("Auto-detect", "auto"),
				).
				Value(&opts.Theme),
		),
	).Run()
}

func printInitSummary(w io.Writer, path string, cfg *config.Config) {
	fmt.Fprintln(w, "✓ Configuration written successfully!")
	fmt.Fprintf(w, "  Config: %s\n", path)
	fmt.Fprintf(w, "  Server: %s\n", cfg.Remote.BaseURL)
	fmt.Fprintf(w, "  Theme:  %s\n", cfg.TUI.Theme)
	fmt.Fprintln(w, "\nYou're ready to go! Try 'pdeck list' to verify.")
}
