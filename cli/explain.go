package cli

import (
	"errors"
	"fmt"

	"anyTables/source"

	"github.com/spf13/cobra"
)

func ExplainCmd(env Env) *cobra.Command {
	q := &query{}
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show the matching row count and EXPLAIN ANALYZE plan of a table query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, ctx, err := setup(cmd, commonFlagKeys)
			if err != nil {
				return err
			}
			if q.table == "" {
				return errors.New("--table is required")
			}
			if cfg.DSN == "" {
				return errors.New("--dsn or ANYTABLES_DSN is required")
			}
			db, closeDB, err := env.Connect(ctx, cfg.DSN)
			if err != nil {
				return err
			}
			defer closeDB()
			pg, err := source.OpenPostgres(ctx, db, q.table)
			if err != nil {
				return err
			}
			spec, err := q.querySpec()
			if err != nil {
				return err
			}
			n, err := pg.Count(ctx, spec)
			if err != nil {
				return err
			}
			plan, ms, err := pg.Explain(ctx, spec)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "rows: %d\nexecution: %.3f ms\n\n%s", n, ms, plan)
			return nil
		},
	}
	q.bind(cmd)
	return cmd
}
