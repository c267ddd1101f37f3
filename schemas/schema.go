package schemas

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"anyTables/types"

	"github.com/jackc/pgx/v5"
)

var ErrNoTables = errors.New("no tables")

// DBTX is the part of a pgx pool or connection the schema loader needs.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Column struct {
	Name string
	Type types.ColType
}
type Table struct {
	Name       string
	Columns    map[string]Column
	PrimaryKey string
}
type Schema struct{ Tables map[string]Table }

// TextColumns lists the text column names of a table, sorted.
func (t Table) TextColumns() []string {
	out := make([]string, 0, len(t.Columns))
	for name, c := range t.Columns {
		if c.Type == types.ColText {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// ColumnNames lists every column name of a table, sorted.
func (t Table) ColumnNames() []string {
	out := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

const columnsQuery = `
SELECT c.table_name, c.column_name, c.data_type,
       COALESCE(tc.constraint_type='PRIMARY KEY',false) AS is_pk
FROM information_schema.columns c
LEFT JOIN information_schema.key_column_usage k
  ON k.table_name=c.table_name AND k.column_name=c.column_name
LEFT JOIN information_schema.table_constraints tc
  ON tc.table_name=k.table_name AND tc.constraint_name=k.constraint_name
WHERE c.table_schema='public' AND c.table_name = ANY($1)
ORDER BY c.table_name,c.ordinal_position`

func LoadSchema(ctx context.Context, db DBTX, tables []string) (Schema, error) {
	if len(tables) == 0 {
		return Schema{}, ErrNoTables
	}
	rows, err := db.Query(ctx, columnsQuery, tables)
	if err != nil {
		return Schema{}, fmt.Errorf("load schema: %w", err)
	}
	defer rows.Close()

	s := Schema{Tables: map[string]Table{}}
	for rows.Next() {
		var tname, cname, dtype string
		var isPK bool
		if err := rows.Scan(&tname, &cname, &dtype, &isPK); err != nil {
			return Schema{}, fmt.Errorf("scan schema row: %w", err)
		}
		tab := s.Tables[tname]
		if tab.Name == "" {
			tab = Table{Name: tname, Columns: map[string]Column{}}
		}
		tab.Columns[cname] = Column{Name: cname, Type: mapDataType(dtype)}
		if isPK && tab.PrimaryKey == "" {
			tab.PrimaryKey = cname
		}
		s.Tables[tname] = tab
	}
	return s, rows.Err()
}

func mapDataType(d string) types.ColType {
	d = strings.ToLower(d)
	switch {
	case strings.Contains(d, "char"), strings.Contains(d, "text"), strings.Contains(d, "citext"):
		return types.ColText
	case strings.Contains(d, "int"), strings.Contains(d, "numeric"), strings.Contains(d, "decimal"), strings.Contains(d, "real"), strings.Contains(d, "double"):
		return types.ColNumeric
	case strings.Contains(d, "bool"):
		return types.ColBool
	case strings.Contains(d, "time"), strings.Contains(d, "date"):
		return types.ColTime
	case strings.Contains(d, "uuid"):
		return types.ColUUID
	case strings.Contains(d, "json"):
		return types.ColJSON
	default:
		return types.ColUnknown
	}
}

// ColumnKind suggests how a column of type t is displayed and filtered.
func ColumnKind(t types.ColType) (types.FormatKind, types.FilterType) {
	switch t {
	case types.ColText:
		return types.FormatNone, types.FilterText
	case types.ColTime:
		return types.FormatDate, types.FilterDateRange
	case types.ColBool:
		return types.FormatNone, types.FilterSelect
	default:
		return types.FormatNone, types.FilterNone
	}
}
