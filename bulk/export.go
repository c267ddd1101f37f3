package bulk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"anyTables/columns"
	"anyTables/formatters"
	"anyTables/logger"
	"anyTables/types"
	"anyTables/utils"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var mimeTypes = map[Format]string{
	FormatCSV:  "text/csv",
	FormatJSON: "application/json",
}

// ExportColumn is one CSV column.
type ExportColumn struct {
	Key   string
	Label string
	Kind  types.FormatKind
	// Format overrides Kind.
	Format func(any) string
}

type ExportOptions struct {
	Format   Format
	Filename string
	Saver    FileSaver
	// FormatOptions applies when a column sets Kind.
	FormatOptions *formatters.Options
	Now           func() time.Time
}

// ExportHandler serializes the selected rows to CSV (default) or JSON and
// hands the result to the saver.
func ExportHandler[T any](cols []ExportColumn, opts ExportOptions) func(ctx context.Context, rows []T) error {
	format := opts.Format
	if format == "" {
		format = FormatCSV
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	fo := formatters.DefaultOptions()
	if opts.FormatOptions != nil {
		fo = *opts.FormatOptions
	}
	return func(ctx context.Context, rows []T) error {
		log := logger.FromContext(ctx)
		if opts.Saver == nil {
			return fmt.Errorf("export: no file saver configured")
		}
		var content []byte
		switch format {
		case FormatCSV:
			content = []byte(ToCSV(rows, cols, fo))
		case FormatJSON:
			b, err := ToJSON(rows)
			if err != nil {
				return fmt.Errorf("export json: %w", err)
			}
			content = b
		default:
			return fmt.Errorf("export: unsupported format %q", format)
		}
		filename := opts.Filename
		if filename == "" {
			filename = DefaultFilename(now(), format)
		}
		if err := opts.Saver.Save(ctx, content, filename, mimeTypes[format]); err != nil {
			log.Error("export failed", "file", filename, "error", err)
			return fmt.Errorf("export save %q: %w", filename, err)
		}
		log.Debug("export saved", "file", filename, "rows", len(rows), "format", format)
		return nil
	}
}

// DefaultFilename is export-<ISO-8601 UTC timestamp>.<ext>.
func DefaultFilename(t time.Time, f Format) string {
	return "export-" + t.UTC().Format("2006-01-02T15:04:05.000Z") + "." + string(f)
}

// ToCSV writes a header line of labels and one line per row. Lines end in "\n".
func ToCSV[T any](rows []T, cols []ExportColumn, fo formatters.Options) string {
	var sb strings.Builder
	for i, c := range cols {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(EscapeCSV(c.Label))
	}
	sb.WriteByte('\n')
	for _, r := range rows {
		for i, c := range cols {
			if i > 0 {
				sb.WriteByte(',')
			}
			v, _ := utils.Lookup(r, c.Key)
			sb.WriteString(EscapeCSV(c.render(v, fo)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (c ExportColumn) render(v any, fo formatters.Options) string {
	if v == nil {
		return ""
	}
	if c.Format != nil {
		return c.Format(v)
	}
	return fo.Format(c.Kind, v)
}

// EscapeCSV quotes fields containing a comma or double quote and doubles
// embedded quotes.
func EscapeCSV(s string) string {
	if !strings.ContainsAny(s, `,"`) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ToJSON writes rows as a two-space indented array.
func ToJSON[T any](rows []T) ([]byte, error) {
	if rows == nil {
		rows = []T{}
	}
	return json.MarshalIndent(rows, "", "  ")
}

// ExportColumnsFrom derives export columns from column descriptors,
// skipping the select and action columns.
func ExportColumnsFrom[T any](defs []columns.ColumnDef[T]) []ExportColumn {
	out := make([]ExportColumn, 0, len(defs))
	for _, d := range defs {
		if d.AccessorKey == "" || d.ID == columns.SelectColumnID || d.ID == columns.ActionColumnID {
			continue
		}
		label := d.AccessorKey
		if d.Header != nil {
			if h := d.Header(columns.HeaderContext{}); h.Label != "" {
				label = h.Label
			}
		}
		out = append(out, ExportColumn{Key: d.AccessorKey, Label: label, Kind: d.Meta.FormatKind})
	}
	return out
}
