// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the mathnb notebook client.
// It implements the interactive notebook, one-shot evaluation, share links,
// worksheet persistence and authentication using the Cobra CLI framework.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mathnb/cli/internal/config"
	"mathnb/cli/internal/logging"
	"mathnb/cli/internal/xdg"
)

var (
	showVersion bool
	serverFlag  string
	verboseFlag bool
	noColorFlag bool
	settings    config.Config
	logger      = zap.NewNop()
	closeLogger = func() {}
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mathnb",
	Short: "Terminal client for the mathnb computer-algebra notebook",
	Long: `mathnb drives a computer-algebra notebook from the terminal. Queries are sent to the
notebook evaluator one at a time and the session is kept as numbered input and output
cells. Sessions can be saved as worksheets, reopened, and shared as links.

Run 'mathnb repl' for the interactive notebook.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { closeLogger() },
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			return printVersion(cmd.Context())
		}
		return cmd.Help()
	},
}

// setup loads configuration and opens the diagnostics log.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serverFlag != "" {
		cfg.Server = serverFlag
	}
	if noColorFlag {
		pterm.DisableColor()
	}
	settings = cfg

	logCfg := logging.Config{Level: cfg.LogLevel, Verbose: verboseFlag}
	if verboseFlag {
		logCfg.Level = "debug"
	}
	if p, err := xdg.LogFile(); err == nil {
		logCfg.File = p
	}
	l, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	logger = l
	closeLogger = func() { _ = l.Sync() }
	logger.Debug("starting", zap.String("command", cmd.CommandPath()), zap.String("server", cfg.Server))
	return nil
}

// Execute runs the CLI application. Ctrl-C cancels the command context, which
// stops a running replay after the query in flight.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		presentError(os.Stderr, "", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI and server version information")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Notebook server base URL (overrides config and MATHNB_SERVER)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print diagnostics to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
}
