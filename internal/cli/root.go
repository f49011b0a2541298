// Package cli defines the cobra commands.
package cli

import (
	"context"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/codex-meter/codex-meter/internal/app"
	"github.com/codex-meter/codex-meter/internal/config"
	"github.com/codex-meter/codex-meter/internal/watch"
)

var Version = "dev"

type rootFlags struct {
	plain   bool
	json    bool
	refresh bool
	noColor bool
	timeout time.Duration
}

func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "codex-meter",
		Short:         "Show Codex usage limits from the terminal",
		Long:          "codex-meter reads your existing Codex login, asks the usage-limits endpoint how much of the 5-hour and 7-day windows you have used, and prints the result.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if flags.timeout > 0 {
				cfg.Timeout = flags.timeout
			}

			opts := app.Options{
				Mode:    pickMode(flags, cmd.OutOrStdout() == os.Stdout),
				Refresh: flags.refresh,
				NoColor: flags.noColor || os.Getenv("NO_COLOR") != "",
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout+5*time.Second)
			defer cancel()

			return app.Run(ctx, cfg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&flags.plain, "plain", "p", false, "Flat key/value output for scripting")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Output the snapshot as JSON")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "Bypass the snapshot cache")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "Disable ANSI styling")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Request timeout (overrides config)")

	cmd.AddCommand(newWatchCmd())
	return cmd
}

// pickMode drops to plain output when stdout is not a terminal so piped
// invocations get parseable text without asking for it.
func pickMode(flags *rootFlags, stdoutIsOS bool) app.Mode {
	switch {
	case flags.json:
		return app.ModeJSON
	case flags.plain:
		return app.ModePlain
	case stdoutIsOS && !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()):
		return app.ModePlain
	default:
		return app.ModeFancy
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard that refetches usage on an interval",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return watch.Run(cfg)
		},
	}
}

func Execute() error {
	return NewRootCmd().Execute()
}
