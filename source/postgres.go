// Package source loads table rows from Postgres or from JSON/YAML files
// and applies bulk mutations back to them.
package source

import (
	"context"
	"errors"
	"fmt"

	"anyTables/anylize"
	"anyTables/builders"
	"anyTables/logger"
	"anyTables/schemas"
	"anyTables/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

var ErrUnknownTable = errors.New("unknown table")

// DB is satisfied by *pgxpool.Pool, pgx.Conn and pgxmock.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Postgres struct {
	db     DB
	schema schemas.Schema
}

func NewPostgres(db DB, sch schemas.Schema) *Postgres {
	return &Postgres{db: db, schema: sch}
}

// OpenPostgres introspects tables and returns a source limited to them.
func OpenPostgres(ctx context.Context, db DB, tables ...string) (*Postgres, error) {
	sch, err := schemas.LoadSchema(ctx, db, tables)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		if _, ok := sch.Tables[t]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTable, t)
		}
	}
	return NewPostgres(db, sch), nil
}

func (p *Postgres) Schema() schemas.Schema { return p.schema }

// Load returns the rows matched by spec as column-name maps.
func (p *Postgres) Load(ctx context.Context, spec types.QuerySpec) ([]map[string]any, error) {
	sql, args, err := builders.BuildSelect(spec, p.schema)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug("load rows", "table", spec.Table, "sql", sql)
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", spec.Table, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", spec.Table, err)
	}
	for _, row := range out {
		for k, v := range row {
			row[k] = normalize(v)
		}
	}
	return out, nil
}

func (p *Postgres) Count(ctx context.Context, spec types.QuerySpec) (int64, error) {
	sql, args, err := builders.BuildCount(spec, p.schema)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := p.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", spec.Table, err)
	}
	return n, nil
}

// Explain returns the EXPLAIN ANALYZE plan of the select for spec.
func (p *Postgres) Explain(ctx context.Context, spec types.QuerySpec) (string, float64, error) {
	sql, args, err := builders.BuildSelect(spec, p.schema)
	if err != nil {
		return "", 0, err
	}
	return anylize.ExplainAnalyze(ctx, p.db, sql, args...)
}

// Delete removes the rows whose key column is in ids; "" keys on the
// primary key. It returns the number of rows deleted.
func (p *Postgres) Delete(ctx context.Context, table, key string, ids []any) (int64, error) {
	sql, args, err := builders.BuildDelete(table, key, ids, p.schema)
	if err != nil {
		return 0, err
	}
	tag, err := p.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	logger.FromContext(ctx).Debug("rows deleted", "table", table, "affected", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

// Update sets columns on the rows whose key column is in ids.
func (p *Postgres) Update(ctx context.Context, table, key string, ids []any, updates map[string]any) (int64, error) {
	sql, args, err := builders.BuildUpdate(table, key, ids, updates, p.schema)
	if err != nil {
		return 0, err
	}
	tag, err := p.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	logger.FromContext(ctx).Debug("rows updated", "table", table, "affected", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

// normalize converts driver values without a useful text or numeric form:
// numeric becomes decimal.Decimal and uuid becomes its canonical string.
func normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		if x.NaN || x.InfinityModifier != pgtype.Finite {
			f, _ := x.Float64Value()
			return f.Float64
		}
		return decimal.NewFromBigInt(x.Int, x.Exp)
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", x[0:4], x[4:6], x[6:8], x[8:10], x[10:16])
	case pgtype.UUID:
		if !x.Valid {
			return nil
		}
		return normalize(x.Bytes)
	default:
		return v
	}
}
