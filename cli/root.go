// Package cli implements the anytables command line.
package cli

import (
	"context"
	"fmt"

	"anyTables/config"
	"anyTables/logger"
	"anyTables/source"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Env holds the filesystem and database connector the commands use.
type Env struct {
	Fs      afero.Fs
	Connect func(ctx context.Context, dsn string) (source.DB, func(), error)
}

func DefaultEnv() Env {
	return Env{Fs: afero.NewOsFs(), Connect: connectPool}
}

func connectPool(ctx context.Context, dsn string) (source.DB, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return pool, pool.Close, nil
}

func RootCmd(env Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "anytables",
		Short:         "Filter, sort, export and bulk-edit tabular data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error, disabled)")
	root.PersistentFlags().Bool("log-json", false, "Log as JSON")

	root.AddCommand(
		ExportCmd(env),
		ExplainCmd(env),
	)
	return root
}

// setup resolves configuration, letting changed flags override the
// environment, and attaches a logger to the command context.
func setup(cmd *cobra.Command, flagKeys map[string]string) (*config.Config, context.Context, error) {
	overrides := map[string]any{}
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		overrides[key] = f.Value.String()
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, nil, err
	}
	lc := cfg.LoggerConfig()
	lc.Output = cmd.ErrOrStderr()
	log := logger.NewLogger(lc)
	return cfg, logger.ContextWithLogger(cmd.Context(), log), nil
}

var commonFlagKeys = map[string]string{
	"log-level": "log_level",
	"log-json":  "log_json",
	"dsn":       "dsn",
}
