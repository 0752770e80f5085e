// Package cli implements the rats command line: a long-running RPC
// server plus one-shot subcommands that run against a private
// in-memory session.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/Beekeepers-Inc/rats/internal/config"
	"github.com/Beekeepers-Inc/rats/internal/engine"
	"github.com/Beekeepers-Inc/rats/internal/logging"
	"github.com/Beekeepers-Inc/rats/internal/session"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// cfg is populated by bootstrap before any command runs.
var cfg *config.Config

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd := &cobra.Command{
		Use:   "rats",
		Short: "Tabular-data workbench back-end",
		Long: `rats ingests CSV and spreadsheet files into an embedded analytical
engine and serves browse, profile and export commands over a local
HTTP RPC surface. One-shot subcommands run the same pipeline against
a private in-memory session and print the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap()
		},
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// bootstrap loads .env, parses configuration and configures logging.
func bootstrap() error {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	c, err := config.Load()
	if err != nil {
		return err
	}
	cfg = c

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return nil
}

// openSession opens an in-memory engine with the configured limits and
// wraps it in a fresh session.
func openSession() (*session.Session, error) {
	handle, err := engine.Open(engine.Config{
		MemoryLimit: cfg.Engine.MemoryLimit,
		Threads:     cfg.Engine.Threads,
	})
	if err != nil {
		return nil, err
	}
	return session.New(handle, slog.Default()), nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// streamProgress prints import progress lines to stderr. The returned
// stop function cancels the subscription and waits for the printer to
// drain so progress output cannot interleave with the final result.
func streamProgress(sess *session.Session) (stop func()) {
	id, events := sess.SubscribeProgress()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for p := range events {
			fmt.Fprintln(os.Stderr, p.Status)
		}
	}()

	return func() {
		sess.UnsubscribeProgress(id)
		<-done
	}
}
