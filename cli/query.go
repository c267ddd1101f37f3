package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"anyTables/columns"
	"anyTables/filters"
	"anyTables/formatters"
	"anyTables/grid"
	"anyTables/schemas"
	"anyTables/source"
	"anyTables/types"

	"github.com/spf13/cobra"
)

// Row is one record as loaded from a file or a database.
type Row = map[string]any

var errNoSource = errors.New("either --input or --table is required")

// query collects the row selection flags shared by commands.
type query struct {
	input        string
	table        string
	idField      string
	search       string
	searchFields []string
	filters      []string
	sort         string
	columns      []string
}

func (q *query) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&q.input, "input", "i", "", "JSON or YAML file holding an array of rows")
	f.String("dsn", "", "Postgres connection string (env ANYTABLES_DSN)")
	f.StringVarP(&q.table, "table", "t", "", "Postgres table to read")
	f.StringVar(&q.idField, "id-field", "", "Row identifier field (default: primary key or \"id\")")
	f.StringVarP(&q.search, "search", "s", "", "Case-insensitive text searched across columns")
	f.StringSliceVar(&q.searchFields, "search-fields", nil, "Columns the search applies to")
	f.StringArrayVarP(&q.filters, "filter", "f", nil, "Column filter key=value; separate alternatives with |")
	f.StringVar(&q.sort, "sort", "", "Sort column, optionally suffixed with :desc")
	f.StringSliceVarP(&q.columns, "columns", "c", nil, "Columns to output, in order")
}

func (q *query) parseFilters() (map[string][]string, error) {
	out := make(map[string][]string, len(q.filters))
	for _, f := range q.filters {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: want key=value", f)
		}
		out[key] = append(out[key], strings.Split(value, "|")...)
	}
	return out, nil
}

func (q *query) parseSort() (string, types.SortState, error) {
	if q.sort == "" {
		return "", types.Unsorted, nil
	}
	key, dir, _ := strings.Cut(q.sort, ":")
	switch strings.ToLower(dir) {
	case "", "asc":
		return key, types.SortedAsc, nil
	case "desc":
		return key, types.SortedDesc, nil
	default:
		return "", types.Unsorted, fmt.Errorf("invalid sort direction %q", dir)
	}
}

// querySpec translates the flags for the SQL builder.
func (q *query) querySpec() (types.QuerySpec, error) {
	spec := types.QuerySpec{Table: q.table}
	if q.search != "" {
		spec.Search = &types.Search{Text: q.search, Fields: q.searchFields}
	}
	flt, err := q.parseFilters()
	if err != nil {
		return spec, err
	}
	for _, key := range slices.Sorted(maps.Keys(flt)) {
		values := flt[key]
		if len(values) == 1 {
			spec.Where = append(spec.Where, types.Condition{Field: key, Op: types.OpEq, Value: values[0]})
			continue
		}
		spec.Where = append(spec.Where, types.Condition{Field: key, Op: types.OpIn, Value: values})
	}
	key, state, err := q.parseSort()
	if err != nil {
		return spec, err
	}
	if key != "" {
		dir := types.Asc
		if state == types.SortedDesc {
			dir = types.Desc
		}
		spec.Sort = []types.Sort{{Field: key, Dir: dir}}
	}
	return spec, nil
}

// dataset is a loaded set of rows with column descriptors and ways to
// delete or update rows where they came from. Both mutations match rows
// on idField and report the number of rows affected.
type dataset struct {
	rows    []Row
	defs    []columns.ColumnDef[Row]
	idField string
	// pushed is set when search, filters and sort already ran in SQL.
	pushed bool
	remove func(ctx context.Context, ids []any) (int64, error)
	update func(ctx context.Context, ids []any, updates map[string]any) (int64, error)
	close  func()
}

func load(ctx context.Context, env Env, q *query, dsn string, fo formatters.Options) (*dataset, error) {
	switch {
	case q.input != "":
		return loadFile(ctx, env, q, fo)
	case q.table != "":
		return loadTable(ctx, env, q, dsn, fo)
	default:
		return nil, errNoSource
	}
}

func loadFile(ctx context.Context, env Env, q *query, fo formatters.Options) (*dataset, error) {
	store := source.NewFile(env.Fs, q.input, q.idField)
	rows, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	keys := map[string]struct{}{}
	for _, r := range rows {
		for k := range r {
			keys[k] = struct{}{}
		}
	}
	defs := []columns.ColumnDef[Row]{}
	for _, k := range slices.Sorted(maps.Keys(keys)) {
		defs = append(defs, columns.SortableColumn[Row](k, k, columns.WithFormatOptions(fo)))
	}
	idField := q.idField
	if idField == "" {
		idField = "id"
	}
	return &dataset{
		rows:    rows,
		defs:    defs,
		idField: idField,
		remove:  store.Delete,
		update:  store.Update,
		close:   func() {},
	}, nil
}

func loadTable(ctx context.Context, env Env, q *query, dsn string, fo formatters.Options) (*dataset, error) {
	if dsn == "" {
		return nil, errors.New("--dsn or ANYTABLES_DSN is required with --table")
	}
	db, closeDB, err := env.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	pg, err := source.OpenPostgres(ctx, db, q.table)
	if err != nil {
		closeDB()
		return nil, err
	}
	spec, err := q.querySpec()
	if err != nil {
		closeDB()
		return nil, err
	}
	rows, err := pg.Load(ctx, spec)
	if err != nil {
		closeDB()
		return nil, err
	}
	tab := pg.Schema().Tables[q.table]
	idField := q.idField
	if idField == "" {
		idField = tab.PrimaryKey
	}
	if _, ok := tab.Columns[idField]; !ok && idField != "" {
		closeDB()
		return nil, fmt.Errorf("unknown id column %q for table %q", idField, q.table)
	}
	return &dataset{
		rows:    rows,
		defs:    tableDefs(tab, fo),
		idField: idField,
		pushed:  true,
		remove: func(ctx context.Context, ids []any) (int64, error) {
			return pg.Delete(ctx, q.table, idField, ids)
		},
		update: func(ctx context.Context, ids []any, updates map[string]any) (int64, error) {
			return pg.Update(ctx, q.table, idField, ids, updates)
		},
		close: closeDB,
	}, nil
}

func tableDefs(tab schemas.Table, fo formatters.Options) []columns.ColumnDef[Row] {
	defs := make([]columns.ColumnDef[Row], 0, len(tab.Columns))
	for _, name := range tab.ColumnNames() {
		kind, _ := schemas.ColumnKind(tab.Columns[name].Type)
		if kind == types.FormatDate {
			defs = append(defs, columns.DateColumn[Row](name, name, columns.WithFormatOptions(fo)))
			continue
		}
		defs = append(defs, columns.SortableColumn[Row](name, name, columns.WithFormatKind(kind), columns.WithFormatOptions(fo)))
	}
	return defs
}

func memberFilter(key string) columns.FilterFn[Row] {
	match := filters.MultiSelect[Row](key)
	return func(r columns.Row[Row], _ string, value any) bool {
		values, _ := value.([]string)
		return match(r.Original(), values)
	}
}

// view applies the query to file rows in memory. Rows already selected
// in SQL are returned as loaded.
func (d *dataset) view(q *query) (*grid.Grid[Row], error) {
	if d.pushed {
		return grid.New(d.rows, d.defs), nil
	}
	flt, err := q.parseFilters()
	if err != nil {
		return nil, err
	}
	for key := range flt {
		i := slices.IndexFunc(d.defs, func(def columns.ColumnDef[Row]) bool { return def.Key() == key })
		if i < 0 {
			return nil, fmt.Errorf("unknown filter column %q", key)
		}
		d.defs[i].FilterFn = memberFilter(key)
	}
	var opts []grid.Option[Row]
	if len(q.searchFields) > 0 {
		opts = append(opts, grid.WithSearchKeys[Row](q.searchFields...))
	}
	g := grid.New(d.rows, d.defs, opts...)
	g.SetGlobalFilter(q.search)
	for key, values := range flt {
		g.SetColumnFilter(key, values)
	}
	key, state, err := q.parseSort()
	if err != nil {
		return nil, err
	}
	if key != "" && !slices.ContainsFunc(d.defs, func(def columns.ColumnDef[Row]) bool { return def.Key() == key }) {
		return nil, fmt.Errorf("unknown sort column %q", key)
	}
	g.SetSort(key, state)
	return g, nil
}
