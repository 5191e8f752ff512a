// Package cli provides the command-line interface for collineage: a thin
// host that reads a SQL file, discovers its input tables' columns from a
// live schema source, and prints the column lineage the engine (pkg/lineage)
// computes for it.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/leapstack-labs/collineage/internal/cliconfig"
	"github.com/spf13/cobra"
)

var cfgFile string

type configKey struct{}

// configFromContext returns the Config loaded by the root command's
// PersistentPreRunE.
func configFromContext(ctx context.Context) *cliconfig.Config {
	cfg, _ := ctx.Value(configKey{}).(*cliconfig.Config)
	return cfg
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "collineage",
		Short: "Column-level SQL lineage",
		Long: `collineage computes column-level data lineage for a single SQL SELECT
statement: given the statement and the column lists of the tables it reads
from, it reports which input columns each output column depends on and the
formula that combines them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := cliconfig.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				requestID := uuid.NewString()
				logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})).With("request_id", requestID)
				ctx = context.WithValue(ctx, loggerKey{}, logger)
				cmd.SetContext(ctx)
				logger.Debug("loaded configuration", "source_type", cfg.SourceType, "schema", cfg.Schema)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().String("source-type", cliconfig.DefaultSourceType, "schema source: postgres|duckdb|sqlite")
	rootCmd.PersistentFlags().String("dsn", "", "connection string (postgres) or file path (duckdb/sqlite); \"\" = in-memory")
	rootCmd.PersistentFlags().String("schema", cliconfig.DefaultSchema, "schema/namespace to introspect")
	rootCmd.PersistentFlags().StringP("output", "o", cliconfig.DefaultOutput, "output format: json|text")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log configuration and timing to stderr")

	rootCmd.AddCommand(newLineageCmd())
	return rootCmd
}

type loggerKey struct{}

func loggerFromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// Execute runs the root command against os.Args.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		return fmt.Errorf("collineage: %w", err)
	}
	return nil
}
