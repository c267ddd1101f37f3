package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"anyTables/columns"
	"anyTables/types"
	"anyTables/utils"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 10_000_000, time.UTC) }

type failingSaver struct{}

func (failingSaver) Save(context.Context, []byte, string, string) error { return errors.New("disk full") }

// splitCSVLine splits on commas outside quotes and unescapes quoted fields.
func splitCSVLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(line) && line[i+1] == '"':
			cur.WriteByte('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, cur.String())
}

func TestEscapeCSV(t *testing.T) {
	t.Run("Should quote commas and double embedded quotes", func(t *testing.T) {
		in := `He said, "hi"`
		out := EscapeCSV(in)
		assert.Equal(t, `"He said, ""hi"""`, out)
		assert.Equal(t, []string{in}, splitCSVLine(out))
	})

	t.Run("Should leave plain fields alone", func(t *testing.T) {
		assert.Equal(t, "plain text", EscapeCSV("plain text"))
		assert.Equal(t, "", EscapeCSV(""))
	})
}

func TestExportHandler_CSV(t *testing.T) {
	rows := []map[string]any{
		{"id": 1, "title": `He said, "hi"`, "size": 1536, "owner": nil},
		{"id": 2, "title": "Plain", "size": 0},
	}
	cols := []ExportColumn{
		{Key: "id", Label: "ID"},
		{Key: "title", Label: "Title"},
		{Key: "size", Label: "Size", Kind: types.FormatFileSize},
		{Key: "owner", Label: "Owner, primary"},
	}

	t.Run("Should write labels, escaped values and a default filename", func(t *testing.T) {
		saver := &BufferSaver{}
		err := ExportHandler[map[string]any](cols, ExportOptions{Saver: saver, Now: fixedNow})(testContext(t), rows)
		require.NoError(t, err)
		saved, ok := saver.Last()
		require.True(t, ok)
		assert.Equal(t, "export-2024-05-06T07:08:09.010Z.csv", saved.Filename)
		assert.Equal(t, "text/csv", saved.MimeType)
		assert.Equal(t,
			"ID,Title,Size,\"Owner, primary\"\n"+
				"1,\"He said, \"\"hi\"\"\",1.5 KB,\n"+
				"2,Plain,0 Bytes,\n",
			string(saved.Content))
		lines := strings.Split(strings.TrimSuffix(string(saved.Content), "\n"), "\n")
		assert.Equal(t, []string{"1", `He said, "hi"`, "1.5 KB", ""}, splitCSVLine(lines[1]))
	})

	t.Run("Should honor an explicit filename and custom formatter", func(t *testing.T) {
		saver := &BufferSaver{}
		custom := []ExportColumn{{Key: "title", Label: "Title", Format: func(v any) string { return strings.ToUpper(utils.Stringify(v)) }}}
		err := ExportHandler[map[string]any](custom, ExportOptions{Saver: saver, Filename: "docs.csv"})(testContext(t), rows[1:])
		require.NoError(t, err)
		saved, _ := saver.Last()
		assert.Equal(t, "docs.csv", saved.Filename)
		assert.Equal(t, "Title\nPLAIN\n", string(saved.Content))
	})

	t.Run("Should return saver errors", func(t *testing.T) {
		err := ExportHandler[map[string]any](cols, ExportOptions{Saver: failingSaver{}})(testContext(t), rows)
		assert.ErrorContains(t, err, "disk full")
		err = ExportHandler[map[string]any](cols, ExportOptions{})(testContext(t), rows)
		assert.Error(t, err)
		err = ExportHandler[map[string]any](cols, ExportOptions{Saver: &BufferSaver{}, Format: "xml"})(testContext(t), rows)
		assert.ErrorContains(t, err, "unsupported format")
	})
}

func TestExportHandler_JSON(t *testing.T) {
	t.Run("Should round-trip the selected rows", func(t *testing.T) {
		rows := []map[string]any{
			{"id": "d-1", "title": "Consent form", "pages": 3.0, "tags": []any{"legal", "forms"}},
			{"id": "d-2", "title": `Quoted "name", with comma`, "pages": nil},
		}
		saver := &BufferSaver{}
		err := ExportHandler[map[string]any](nil, ExportOptions{Format: FormatJSON, Saver: saver, Now: fixedNow})(testContext(t), rows)
		require.NoError(t, err)
		saved, _ := saver.Last()
		assert.Equal(t, "export-2024-05-06T07:08:09.010Z.json", saved.Filename)
		assert.Equal(t, "application/json", saved.MimeType)
		assert.Contains(t, string(saved.Content), "\n  {\n    \"id\": \"d-1\"")

		var back []map[string]any
		require.NoError(t, json.Unmarshal(saved.Content, &back))
		assert.Equal(t, rows, back)
	})

	t.Run("Should write an empty array for no rows", func(t *testing.T) {
		b, err := ToJSON[record](nil)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(b))
	})
}

func TestFsSaver(t *testing.T) {
	t.Run("Should write into the export directory", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		saver := &FsSaver{Fs: fs, Dir: "exports"}
		err := ExportHandler[record]([]ExportColumn{{Key: "title", Label: "Title"}}, ExportOptions{Saver: saver, Filename: "t.csv"})(testContext(t), selection)
		require.NoError(t, err)
		b, err := afero.ReadFile(fs, "exports/t.csv")
		require.NoError(t, err)
		assert.Equal(t, "Title\nTriage\nRounds\nDischarge\n", string(b))
	})

	t.Run("Should not escape the export directory", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, (&FsSaver{Fs: fs, Dir: "out"}).Save(t.Context(), []byte("x"), "../../etc/passwd", "text/csv"))
		ok, err := afero.Exists(fs, "out/passwd")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestExportColumnsFrom(t *testing.T) {
	defs := []columns.ColumnDef[record]{
		columns.SelectColumn[record](),
		columns.SortableColumn[record]("title", "Title"),
		columns.DateColumn[record]("updated", "Updated"),
		columns.TextColumn[record]("size", "", columns.WithFormatKind(types.FormatFileSize)),
		columns.ActionColumn(columns.StaticActions[record]()),
	}
	assert.Equal(t, []ExportColumn{
		{Key: "title", Label: "Title"},
		{Key: "updated", Label: "Updated", Kind: types.FormatDate},
		{Key: "size", Label: "size", Kind: types.FormatFileSize},
	}, ExportColumnsFrom(defs))
}
