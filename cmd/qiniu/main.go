package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tendant/qiniu-upload/pkg/qiniu/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "qiniu",
		Short: "Upload files to a Qiniu-style object storage bucket",
		Long: `Command line client for form uploads to object storage.

Credentials and defaults are read from QINIU_* environment variables
(optionally from a .env file). Run "qiniu env" to list them.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("env-file", "", "load environment variables from this file (default .env if present)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(NewUploadCommand())
	rootCmd.AddCommand(NewTokenCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewEnvCommand())

	return rootCmd
}

// loadConfig reads .env and the environment, then applies command flag overrides
func loadConfig(cmd *cobra.Command, overrides ...config.Option) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")

	opts := append([]config.Option{
		config.WithDotEnv(envFile),
		config.WithEnv(),
	}, overrides...)

	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger writes text logs to stderr, at debug level with --verbose
func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func printLine(w io.Writer, a ...any) {
	fmt.Fprintln(w, a...)
}
