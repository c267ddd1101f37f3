package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"anyTables/bulk"
	"anyTables/logger"

	"github.com/spf13/cobra"
)

func ExportCmd(env Env) *cobra.Command {
	q := &query{}
	var (
		out    string
		del    bool
		assume bool
		sets   []string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the matching rows as CSV or JSON, or delete or update them",
		Example: `  anytables export -i staff.json -f unit=ICU --sort hired:desc --out icu.csv
  anytables export -t staff --dsn postgres://localhost/app -s chen --format json
  anytables export -i staff.yaml -f status=inactive --delete
  anytables export -t staff --dsn postgres://localhost/app -f unit=ER --set unit=ED`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys := map[string]string{"format": "export_format"}
			for k, v := range commonFlagKeys {
				keys[k] = v
			}
			cfg, ctx, err := setup(cmd, keys)
			if err != nil {
				return err
			}
			fo := cfg.FormatOptions()
			ds, err := load(ctx, env, q, cfg.DSN, fo)
			if err != nil {
				return err
			}
			defer ds.close()
			g, err := ds.view(q)
			if err != nil {
				return err
			}
			rows := g.FilteredRows()
			log := logger.FromContext(ctx)
			log.Debug("rows selected", "total", len(ds.rows), "matched", len(rows))

			if del && len(sets) > 0 {
				return errors.New("--delete and --set are mutually exclusive")
			}
			if del {
				return runDelete(ctx, cmd, ds, rows, assume)
			}
			if len(sets) > 0 {
				updates, err := parseSets(sets)
				if err != nil {
					return err
				}
				return runUpdate(ctx, cmd, ds, rows, updates)
			}

			cols, err := selectColumns(bulk.ExportColumnsFrom(ds.defs), q.columns)
			if err != nil {
				return err
			}
			format := bulk.Format(cfg.ExportFormat)
			dir, filename := cfg.ExportDir, ""
			if out != "" {
				dir, filename = filepath.Dir(out), filepath.Base(out)
			} else {
				filename = bulk.DefaultFilename(time.Now(), format)
			}
			if format == bulk.FormatJSON && len(q.columns) > 0 {
				rows = project(rows, cols)
			}
			export := bulk.ExportHandler[Row](cols, bulk.ExportOptions{
				Format:        format,
				Filename:      filename,
				Saver:         &bulk.FsSaver{Fs: env.Fs, Dir: dir},
				FormatOptions: &fo,
			})
			if err := export(ctx, rows); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, filename))
			return nil
		},
	}
	q.bind(cmd)
	cmd.Flags().String("format", "", "Export format: csv or json (env ANYTABLES_EXPORT_FORMAT)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: export-<timestamp> in ANYTABLES_EXPORT_DIR)")
	cmd.Flags().BoolVar(&del, "delete", false, "Delete the matching rows instead of exporting them")
	cmd.Flags().BoolVarP(&assume, "yes", "y", false, "Skip the delete confirmation")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Update the matching rows with key=value instead of exporting them")
	return cmd
}

// selectColumns keeps the named columns in the given order.
func selectColumns(all []bulk.ExportColumn, names []string) ([]bulk.ExportColumn, error) {
	if len(names) == 0 {
		return all, nil
	}
	out := make([]bulk.ExportColumn, 0, len(names))
	for _, n := range names {
		i := slices.IndexFunc(all, func(c bulk.ExportColumn) bool { return c.Key == n })
		if i < 0 {
			return nil, fmt.Errorf("unknown column %q", n)
		}
		out = append(out, all[i])
	}
	return out, nil
}

func project(rows []Row, cols []bulk.ExportColumn) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		p := make(Row, len(cols))
		for _, c := range cols {
			p[c.Key] = r[c.Key]
		}
		out[i] = p
	}
	return out
}
