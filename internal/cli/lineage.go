package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/collineage/internal/cliconfig"
	"github.com/leapstack-labs/collineage/internal/schemasource"
	"github.com/leapstack-labs/collineage/pkg/lineage"
	"github.com/spf13/cobra"
)

func newLineageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lineage <sql-file>",
		Short: "Resolve column-level lineage for a SQL file",
		Long: `Resolve column-level lineage for the single SELECT statement in sql-file.

Input tables are discovered by connecting to a live schema source (see
--source-type, --dsn, --schema) and listing its columns; the lineage engine
never touches the database itself.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineage(cmd, args[0])
		},
	}
	return cmd
}

func runLineage(cmd *cobra.Command, sqlPath string) error {
	cfg := configFromContext(cmd.Context())
	logger := loggerFromContext(cmd.Context())

	sqlBytes, err := os.ReadFile(sqlPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", sqlPath, err)
	}

	relations, closeSource, err := openRelations(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSource(); err != nil {
			logger.Warn("closing schema source", "error", err)
		}
	}()

	started := time.Now()
	result, err := lineage.ResolveColumnsLineage(string(sqlBytes), relations)
	if err != nil {
		return fmt.Errorf("resolve lineage: %w", err)
	}
	logger.Debug("resolved lineage", "fields", len(result), "elapsed", time.Since(started))

	name := strings.TrimSuffix(filepath.Base(sqlPath), filepath.Ext(sqlPath))
	manifest := buildManifest(name, result)

	if cfg.Output == "text" {
		return renderText(cmd.OutOrStdout(), manifest)
	}
	return renderJSON(cmd.OutOrStdout(), manifest)
}

// openRelations connects to the schema source named by cfg.SourceType and
// lists every Relation under cfg.Schema.
func openRelations(ctx context.Context, cfg *cliconfig.Config) ([]lineage.Relation, func() error, error) {
	src, err := openSource(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	relations, err := src.Relations(ctx, cfg.Schema)
	if err != nil {
		_ = src.Close()
		return nil, nil, fmt.Errorf("list relations: %w", err)
	}
	return relations, src.Close, nil
}

func openSource(ctx context.Context, cfg *cliconfig.Config) (schemasource.Source, error) {
	switch cfg.SourceType {
	case "postgres":
		return schemasource.OpenPostgres(ctx, cfg.DSN)
	case "duckdb":
		return schemasource.OpenDuckDB(cfg.DSN)
	case "sqlite":
		return schemasource.OpenSQLite(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown source type %q (want postgres, duckdb, or sqlite)", cfg.SourceType)
	}
}
