package columns

import (
	"slices"
	"strings"

	"anyTables/filters"
	"anyTables/formatters"
	"anyTables/types"
	"anyTables/utils"
)

const (
	SelectColumnID = "select"
	ActionColumnID = "actions"
	DefaultVariant = "default"
)

type options struct {
	formatKind  types.FormatKind
	format      func(any) string
	formatOpts  formatters.Options
	datePattern string
	filterable  bool
	sortable    *bool
	hideable    bool
	size        int
}

type Option func(*options)

// WithFormatKind selects the default formatter for cells.
func WithFormatKind(k types.FormatKind) Option {
	return func(o *options) { o.formatKind = k }
}

// WithFormat replaces the formatter dispatch for cells.
func WithFormat(fn func(any) string) Option {
	return func(o *options) { o.format = fn }
}

// WithFormatOptions sets the locale, currency and date defaults for dispatch.
func WithFormatOptions(fo formatters.Options) Option {
	return func(o *options) { o.formatOpts = fo }
}

func WithDatePattern(p string) Option {
	return func(o *options) { o.datePattern = p }
}

// WithFilterable adds a substring filter to the column.
func WithFilterable() Option {
	return func(o *options) { o.filterable = true }
}

func WithSortable(v bool) Option {
	return func(o *options) { o.sortable = &v }
}

func WithHideable(v bool) Option {
	return func(o *options) { o.hideable = v }
}

func WithSize(n int) Option {
	return func(o *options) { o.size = n }
}

func buildOptions(opts []Option) options {
	o := options{hideable: true, formatOpts: formatters.DefaultOptions()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o options) render(v any) string {
	if o.format != nil {
		return o.format(v)
	}
	return o.formatOpts.Format(o.formatKind, v)
}

func staticHeader(label string) func(HeaderContext) Header {
	return func(HeaderContext) Header { return Header{Label: label} }
}

// sortHeader cycles unsorted, ascending, descending on each click.
func sortHeader(label string) func(HeaderContext) Header {
	return func(hc HeaderContext) Header {
		col := hc.Column
		state := types.Unsorted
		if col != nil {
			state = col.SortState()
		}
		return Header{
			Label: label,
			Sort: &SortToggle{
				State: state,
				OnClick: func(*Event) {
					if col == nil {
						return
					}
					switch col.SortState().Next() {
					case types.SortedAsc:
						col.ToggleSorting(false)
					case types.SortedDesc:
						col.ToggleSorting(true)
					default:
						col.ClearSorting()
					}
				},
			},
		}
	}
}

func rowValue[T any](cc CellContext[T], key string) any {
	if cc.Row == nil {
		return nil
	}
	return cc.Row.Value(key)
}

func substringFilter[T any](key string) FilterFn[T] {
	match := filters.Contains[T](key)
	return func(row Row[T], _ string, value any) bool {
		q, _ := value.(string)
		return match(row.Original(), q)
	}
}

// SelectColumn renders a select-all header checkbox and a per-row checkbox.
func SelectColumn[T any]() ColumnDef[T] {
	return ColumnDef[T]{
		ID:   SelectColumnID,
		Size: 40,
		Header: func(hc HeaderContext) Header {
			tbl := hc.Table
			if tbl == nil {
				return Header{Checkbox: &Checkbox{AriaLabel: "Select all"}}
			}
			all := tbl.IsAllPageRowsSelected()
			return Header{Checkbox: &Checkbox{
				Checked:       all,
				Indeterminate: !all && tbl.IsSomePageRowsSelected(),
				AriaLabel:     "Select all",
				OnChange: func(_ *Event, checked bool) {
					tbl.ToggleAllPageRowsSelected(checked)
				},
			}}
		},
		Cell: func(cc CellContext[T]) Cell {
			row := cc.Row
			selected := row != nil && row.IsSelected()
			return Cell{Checkbox: &Checkbox{
				Checked:   selected,
				AriaLabel: "Select row",
				OnChange: func(ev *Event, checked bool) {
					ev.StopPropagation()
					if row != nil {
						row.ToggleSelected(checked)
					}
				},
			}}
		},
	}
}

// SortableColumn renders a sort toggle header and formats cells by kind.
func SortableColumn[T any](key, header string, opts ...Option) ColumnDef[T] {
	o := buildOptions(opts)
	def := ColumnDef[T]{
		AccessorKey:   key,
		Header:        sortHeader(header),
		EnableSorting: true,
		EnableHiding:  o.hideable,
		Size:          o.size,
		Cell: func(cc CellContext[T]) Cell {
			return Cell{Text: o.render(rowValue(cc, key))}
		},
		Meta: Meta{FormatKind: o.formatKind},
	}
	if o.sortable != nil {
		def.EnableSorting = *o.sortable
	}
	if o.filterable {
		def.FilterFn = substringFilter[T](key)
		def.Meta.FilterType = types.FilterText
	}
	return def
}

// TextColumn is a plain column without a sort toggle.
func TextColumn[T any](key, header string, opts ...Option) ColumnDef[T] {
	o := buildOptions(opts)
	def := ColumnDef[T]{
		AccessorKey:  key,
		Header:       staticHeader(header),
		EnableHiding: o.hideable,
		Size:         o.size,
		Cell: func(cc CellContext[T]) Cell {
			return Cell{Text: o.render(rowValue(cc, key))}
		},
		Meta: Meta{FormatKind: o.formatKind},
	}
	if o.sortable != nil {
		def.EnableSorting = *o.sortable
	}
	if o.filterable {
		def.FilterFn = substringFilter[T](key)
		def.Meta.FilterType = types.FilterText
	}
	return def
}

// DateColumn sorts chronologically and renders with FormatDate.
func DateColumn[T any](key, header string, opts ...Option) ColumnDef[T] {
	o := buildOptions(opts)
	pattern := o.datePattern
	if pattern == "" {
		pattern = o.formatOpts.DatePattern
	}
	match := filters.DateRange[T](key)
	def := ColumnDef[T]{
		AccessorKey:   key,
		Header:        sortHeader(header),
		EnableSorting: true,
		EnableHiding:  o.hideable,
		Size:          o.size,
		Cell: func(cc CellContext[T]) Cell {
			return Cell{Text: formatters.FormatDate(rowValue(cc, key), pattern)}
		},
		SortingFn: func(a, b Row[T], id string) int {
			return CompareTimes(a.Value(id), b.Value(id))
		},
		FilterFn: func(row Row[T], _ string, value any) bool {
			r, _ := value.(types.DateRange)
			return match(row.Original(), r)
		},
		Meta: Meta{FormatKind: types.FormatDate, FilterType: types.FilterDateRange},
	}
	if o.sortable != nil {
		def.EnableSorting = *o.sortable
	}
	return def
}

// CompareTimes orders values chronologically; unparseable values sort first.
func CompareTimes(a, b any) int {
	ta, oka := utils.ParseTime(a)
	tb, okb := utils.ParseTime(b)
	switch {
	case !oka && !okb:
		return 0
	case !oka:
		return -1
	case !okb:
		return 1
	}
	return ta.Compare(tb)
}

// StatusColumn renders a badge per status. Unknown statuses get a default
// badge labelled with the raw value.
func StatusColumn[T any](key, header string, cfg StatusConfig) ColumnDef[T] {
	match := filters.MultiSelect[T](key)
	return ColumnDef[T]{
		AccessorKey:   key,
		Header:        staticHeader(header),
		EnableSorting: true,
		EnableHiding:  true,
		Cell: func(cc CellContext[T]) Cell {
			raw := utils.Stringify(rowValue(cc, key))
			style, ok := cfg[raw]
			if !ok {
				style = StatusStyle{Label: raw, Variant: DefaultVariant}
			}
			return Cell{Badge: &Badge{Label: style.Label, Variant: style.Variant, Icon: style.Icon}}
		},
		FilterFn: func(row Row[T], _ string, value any) bool {
			values, _ := value.([]string)
			return match(row.Original(), values)
		},
		Meta: Meta{
			FilterType:    types.FilterMultiSelect,
			FilterOptions: StatusOptions(cfg),
		},
	}
}

// StatusOptions lists the filter options of a status config ordered by value.
func StatusOptions(cfg StatusConfig) []FilterOption {
	out := make([]FilterOption, 0, len(cfg))
	for value, style := range cfg {
		out = append(out, FilterOption{Label: style.Label, Value: value, Icon: style.Icon})
	}
	slices.SortFunc(out, func(a, b FilterOption) int { return strings.Compare(a.Value, b.Value) })
	return out
}

// ActionColumn renders a menu trigger with the row's actions.
func ActionColumn[T any](src ActionSource[T]) ColumnDef[T] {
	return ColumnDef[T]{
		ID:   ActionColumnID,
		Size: 50,
		Header: func(HeaderContext) Header {
			return Header{}
		},
		Cell: func(cc CellContext[T]) Cell {
			if cc.Row == nil || src == nil {
				return Cell{}
			}
			row := cc.Row.Original()
			actions := src(row)
			items := make([]MenuItem, 0, len(actions))
			for _, a := range actions {
				disabled := a.Disabled != nil && a.Disabled(row)
				onClick := a.OnClick
				items = append(items, MenuItem{
					Label:       a.Label,
					Icon:        a.Icon,
					Destructive: a.Destructive,
					Disabled:    disabled,
					OnSelect: func(ev *Event) {
						ev.StopPropagation()
						if disabled || onClick == nil {
							return
						}
						onClick(row)
					},
				})
			}
			return Cell{Menu: &Menu{
				AriaLabel: "Open menu",
				Items:     items,
				OnOpen:    func(ev *Event) { ev.StopPropagation() },
			}}
		},
	}
}
