package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	return newRootCmdWith(defaultDeps())
}

func newRootCmdWith(d deps) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "phpsniff",
		Short: "WordPress coding standards, checked and fixed",
		Long:  "phpsniff runs PHP_CodeSniffer with the WordPress standards over your PHP files, reports every violation and optionally applies the automatic fixes.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log process spawns, exits and kills to stderr")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newScanCmd(d))
	cmd.AddCommand(newFixCmd(d))
	cmd.AddCommand(newWatchCmd(d))
	cmd.AddCommand(newRulesetsCmd())
	cmd.AddCommand(newHistoryCmd(d))
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newMCPCmd(d))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}
