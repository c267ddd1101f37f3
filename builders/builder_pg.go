package builders

import (
	"fmt"
	"strings"

	"anyTables/schemas"
	"anyTables/types"
	"anyTables/utils"

	sq "github.com/Masterminds/squirrel"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

func BuildSelect(spec types.QuerySpec, sch schemas.Schema) (string, []any, error) {
	b, err := selectBuilder(spec, sch, true)
	if err != nil {
		return "", nil, err
	}
	return b.PlaceholderFormat(sq.Dollar).ToSql()
}

// BuildCount counts the rows matched by spec, ignoring sort and paging.
func BuildCount(spec types.QuerySpec, sch schemas.Schema) (string, []any, error) {
	spec2 := spec
	spec2.Select = nil
	spec2.Sort = nil
	spec2.Page = nil
	inner, err := selectBuilder(spec2, sch, false)
	if err != nil {
		return "", nil, err
	}
	return sq.Select("count(*)").FromSelect(inner, "t").PlaceholderFormat(sq.Dollar).ToSql()
}

func selectBuilder(spec types.QuerySpec, sch schemas.Schema, paged bool) (sq.SelectBuilder, error) {
	tab, ok := sch.Tables[spec.Table]
	if !ok {
		return sq.SelectBuilder{}, fmt.Errorf("table %q not allowed", spec.Table)
	}

	cols := make([]string, 0, len(tab.Columns))
	if len(spec.Select) == 0 {
		for _, name := range tab.ColumnNames() {
			cols = append(cols, utils.QuoteIdentPG(name))
		}
	} else {
		for _, c := range spec.Select {
			if _, ok := tab.Columns[c]; !ok {
				return sq.SelectBuilder{}, fmt.Errorf("unknown column %q", c)
			}
			cols = append(cols, utils.QuoteIdentPG(c))
		}
	}
	b := sq.Select(cols...).From(utils.QuoteIdentPG(tab.Name))

	if s := spec.Search; s != nil && s.Text != "" {
		fields := s.Fields
		if len(fields) == 0 {
			fields = tab.TextColumns()
		}
		or := sq.Or{}
		for _, f := range fields {
			col, ok := tab.Columns[f]
			if !ok {
				return sq.SelectBuilder{}, fmt.Errorf("unknown search column %q", f)
			}
			or = append(or, sq.Expr(utils.QuoteIdentPG(col.Name)+`::text ILIKE ? ESCAPE '\'`, "%"+escapeLike(s.Text)+"%"))
		}
		if len(or) > 0 {
			b = b.Where(or)
		}
	}

	for _, w := range spec.Where {
		col, ok := tab.Columns[w.Field]
		if !ok {
			return sq.SelectBuilder{}, fmt.Errorf("unknown where column %q", w.Field)
		}
		q := utils.QuoteIdentPG(col.Name)
		switch w.Op {
		case types.OpEq:
			b = b.Where(sq.Eq{q: w.Value})
		case types.OpGte:
			b = b.Where(sq.GtOrEq{q: w.Value})
		case types.OpLte:
			b = b.Where(sq.LtOrEq{q: w.Value})
		case types.OpIn:
			slice, ok := toSlice(w.Value)
			if !ok || len(slice) == 0 {
				b = b.Where("1=0")
				continue
			}
			b = b.Where(sq.Eq{q: slice})
		case types.OpLikePrefix, types.OpILikePrefix, types.OpContains:
			if col.Type != types.ColText {
				return sq.SelectBuilder{}, fmt.Errorf("LIKE on non-text %q", col.Name)
			}
			switch w.Op {
			case types.OpLikePrefix:
				b = b.Where(sq.Like{q: escapeLike(utils.Stringify(w.Value)) + "%"})
			case types.OpILikePrefix:
				b = b.Where(sq.ILike{q: escapeLike(utils.Stringify(w.Value)) + "%"})
			default:
				b = b.Where(sq.ILike{q: "%" + escapeLike(utils.Stringify(w.Value)) + "%"})
			}
		default:
			return sq.SelectBuilder{}, fmt.Errorf("unsupported op %v", w.Op)
		}
	}

	if !paged {
		return b, nil
	}

	if len(spec.Sort) > 0 {
		for _, s := range spec.Sort {
			if _, ok := tab.Columns[s.Field]; !ok {
				return sq.SelectBuilder{}, fmt.Errorf("unknown sort %q", s.Field)
			}
			dir := " ASC"
			if s.Dir == types.Desc {
				dir = " DESC"
			}
			b = b.OrderBy(utils.QuoteIdentPG(s.Field) + dir)
		}
		// tie-break on the primary key
		if tab.PrimaryKey != "" && spec.Sort[len(spec.Sort)-1].Field != tab.PrimaryKey {
			b = b.OrderBy(utils.QuoteIdentPG(tab.PrimaryKey) + " ASC")
		}
	}

	if spec.Page != nil {
		lim := spec.Page.Limit
		if lim <= 0 || lim > maxLimit {
			lim = defaultLimit
		}
		off := max(spec.Page.Offset, 0)
		b = b.Limit(uint64(lim)).Offset(uint64(off))
	}
	return b, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern. Postgres
// uses backslash as the default escape character.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []int:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []int64:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	default:
		return nil, false
	}
}

// keyColumn resolves the column rows are matched on; "" means the primary key.
func keyColumn(tab schemas.Table, key string) (string, error) {
	if key == "" {
		if tab.PrimaryKey == "" {
			return "", fmt.Errorf("table %q has no primary key", tab.Name)
		}
		return tab.PrimaryKey, nil
	}
	if _, ok := tab.Columns[key]; !ok {
		return "", fmt.Errorf("unknown key column %q", key)
	}
	return key, nil
}

// BuildDelete deletes the rows of table whose key column is in ids.
func BuildDelete(table, key string, ids []any, sch schemas.Schema) (string, []any, error) {
	tab, ok := sch.Tables[table]
	if !ok {
		return "", nil, fmt.Errorf("table %q not allowed", table)
	}
	col, err := keyColumn(tab, key)
	if err != nil {
		return "", nil, err
	}
	if len(ids) == 0 {
		return "", nil, fmt.Errorf("no ids to delete")
	}
	return sq.Delete(utils.QuoteIdentPG(tab.Name)).
		Where(sq.Eq{utils.QuoteIdentPG(col): ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

// BuildUpdate applies updates to the rows of table whose key column is in
// ids. Neither the key column nor the primary key may be updated.
func BuildUpdate(table, key string, ids []any, updates map[string]any, sch schemas.Schema) (string, []any, error) {
	tab, ok := sch.Tables[table]
	if !ok {
		return "", nil, fmt.Errorf("table %q not allowed", table)
	}
	col, err := keyColumn(tab, key)
	if err != nil {
		return "", nil, err
	}
	if len(ids) == 0 || len(updates) == 0 {
		return "", nil, fmt.Errorf("nothing to update")
	}
	set := make(map[string]any, len(updates))
	for k, v := range updates {
		if _, ok := tab.Columns[k]; !ok {
			return "", nil, fmt.Errorf("unknown column %q", k)
		}
		if k == col || k == tab.PrimaryKey {
			return "", nil, fmt.Errorf("key column %q is immutable", k)
		}
		set[utils.QuoteIdentPG(k)] = v
	}
	return sq.Update(utils.QuoteIdentPG(tab.Name)).
		SetMap(set).
		Where(sq.Eq{utils.QuoteIdentPG(col): ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}
