package source

import (
	"errors"
	"math/big"
	"regexp"
	"testing"

	"anyTables/bulk"
	"anyTables/formatters"
	"anyTables/logger"
	"anyTables/types"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"table_name", "column_name", "data_type", "is_pk"}).
		AddRow("staff", "id", "integer", true).
		AddRow("staff", "name", "text", false).
		AddRow("staff", "unit", "text", false)
}

func openStaff(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	mock.ExpectQuery("information_schema.columns").WithArgs([]string{"staff"}).WillReturnRows(schemaRows())
	p, err := OpenPostgres(t.Context(), mock, "staff")
	require.NoError(t, err)
	return p, mock
}

func TestOpenPostgres(t *testing.T) {
	t.Run("Should fail for tables missing from the schema", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectQuery("information_schema.columns").WillReturnRows(schemaRows())
		_, err = OpenPostgres(t.Context(), mock, "staff", "payroll")
		assert.ErrorIs(t, err, ErrUnknownTable)
	})
}

func TestPostgres_Load(t *testing.T) {
	t.Run("Should collect rows as maps", func(t *testing.T) {
		p, mock := openStaff(t)
		ctx := logger.ContextWithLogger(t.Context(), logger.NewForTests())
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "name" FROM "staff" WHERE "unit" = $1 ORDER BY "name" ASC, "id" ASC`)).
			WithArgs("ICU").
			WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
				AddRow(int32(1), "Okafor").
				AddRow(int32(3), "Chen"))

		rows, err := p.Load(ctx, types.QuerySpec{
			Table:  "staff",
			Select: []string{"id", "name"},
			Where:  []types.Condition{{Field: "unit", Op: types.OpEq, Value: "ICU"}},
			Sort:   []types.Sort{{Field: "name"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []map[string]any{
			{"id": int32(1), "name": "Okafor"},
			{"id": int32(3), "name": "Chen"},
		}, rows)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should wrap query errors", func(t *testing.T) {
		p, mock := openStaff(t)
		boom := errors.New("timeout")
		mock.ExpectQuery("SELECT").WillReturnError(boom)
		_, err := p.Load(t.Context(), types.QuerySpec{Table: "staff"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Should reject specs the schema does not allow", func(t *testing.T) {
		p, _ := openStaff(t)
		_, err := p.Load(t.Context(), types.QuerySpec{Table: "staff", Select: []string{"salary"}})
		assert.Error(t, err)
	})
}

func TestPostgres_LoadNormalizesDriverValues(t *testing.T) {
	p, mock := openStaff(t)
	uid := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	mock.ExpectQuery("SELECT").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "unit"}).
			AddRow(pgtype.Numeric{Int: big.NewInt(125050), Exp: -2, Valid: true}, uid, pgtype.Numeric{}))

	rows, err := p.Load(t.Context(), types.QuerySpec{Table: "staff"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	amount, ok := rows[0]["id"].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, amount.Equal(decimal.RequireFromString("1250.5")))
	assert.Equal(t, "12345678-9abc-def0-0123-456789abcdef", rows[0]["name"])
	assert.Nil(t, rows[0]["unit"])

	csv := bulk.ToCSV(rows, []bulk.ExportColumn{
		{Key: "id", Label: "amount", Kind: types.FormatCurrency},
		{Key: "name", Label: "uid"},
	}, formatters.DefaultOptions())
	assert.Equal(t, "amount,uid\n\"$1,250.50\",12345678-9abc-def0-0123-456789abcdef\n", csv)
}

func TestPostgres_Count(t *testing.T) {
	p, mock := openStaff(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM (`)).
		WithArgs("%chen%", "%chen%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	n, err := p.Count(t.Context(), types.QuerySpec{Table: "staff", Search: &types.Search{Text: "chen"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Mutations(t *testing.T) {
	t.Run("Should delete by primary key", func(t *testing.T) {
		p, mock := openStaff(t)
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "staff" WHERE "id" IN ($1,$2)`)).
			WithArgs(1, 2).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))
		n, err := p.Delete(t.Context(), "staff", "", []any{1, 2})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should update by primary key", func(t *testing.T) {
		p, mock := openStaff(t)
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "staff" SET "unit" = $1 WHERE "id" IN ($2)`)).
			WithArgs("ER", 3).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		n, err := p.Update(t.Context(), "staff", "", []any{3}, map[string]any{"unit": "ER"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should wrap exec errors", func(t *testing.T) {
		p, mock := openStaff(t)
		boom := errors.New("fk violation")
		mock.ExpectExec("DELETE").WillReturnError(boom)
		_, err := p.Delete(t.Context(), "staff", "", []any{1})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Should delete on an explicit key column", func(t *testing.T) {
		p, mock := openStaff(t)
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "staff" WHERE "name" IN ($1)`)).
			WithArgs("Chen").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		n, err := p.Delete(t.Context(), "staff", "name", []any{"Chen"})
		require.NoError(t, err)
		assert.Zero(t, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgres_Explain(t *testing.T) {
	p, mock := openStaff(t)
	mock.ExpectQuery(regexp.QuoteMeta(`EXPLAIN (ANALYZE, BUFFERS, FORMAT TEXT) SELECT "id", "name", "unit" FROM "staff"`)).
		WillReturnRows(pgxmock.NewRows([]string{"QUERY PLAN"}).
			AddRow("Seq Scan on staff").
			AddRow("Execution Time: 0.5 ms"))
	plan, ms, err := p.Explain(t.Context(), types.QuerySpec{Table: "staff"})
	require.NoError(t, err)
	assert.Contains(t, plan, "Seq Scan on staff")
	assert.InDelta(t, 0.5, ms, 1e-9)
}
