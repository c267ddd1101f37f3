// Package columns builds declarative column descriptors for a table
// renderer. Descriptors hold no state: sorting, selection and filter
// values live in the renderer, reached through the Column, Row and Table
// interfaces.
package columns

import (
	"anyTables/types"
)

// Column is the renderer's view of one column.
type Column interface {
	ID() string
	SortState() types.SortState
	ToggleSorting(desc bool)
	ClearSorting()
}

// Row is the renderer's view of one row.
type Row[T any] interface {
	Original() T
	Value(columnID string) any
	IsSelected() bool
	ToggleSelected(selected bool)
}

// Table exposes page-level selection.
type Table interface {
	IsAllPageRowsSelected() bool
	IsSomePageRowsSelected() bool
	ToggleAllPageRowsSelected(selected bool)
}

// Event is passed to control handlers. A stopped event does not reach the
// row click handler.
type Event struct {
	stopped bool
}

func (e *Event) StopPropagation() { e.stopped = true }

func (e *Event) Stopped() bool { return e.stopped }

type Checkbox struct {
	Checked       bool
	Indeterminate bool
	AriaLabel     string
	OnChange      func(ev *Event, checked bool)
}

type SortToggle struct {
	State   types.SortState
	OnClick func(ev *Event)
}

type Header struct {
	Label    string
	Sort     *SortToggle
	Checkbox *Checkbox
}

type Badge struct {
	Label   string
	Variant string
	Icon    string
}

type MenuItem struct {
	Label       string
	Icon        string
	Destructive bool
	Disabled    bool
	OnSelect    func(ev *Event)
}

type Menu struct {
	AriaLabel string
	Items     []MenuItem
	OnOpen    func(ev *Event)
}

// Cell is a rendered cell. At most one of Badge, Checkbox or Menu is set.
type Cell struct {
	Text     string
	Badge    *Badge
	Checkbox *Checkbox
	Menu     *Menu
}

// String returns the visible text of the cell.
func (c Cell) String() string {
	if c.Badge != nil {
		return c.Badge.Label
	}
	return c.Text
}

type HeaderContext struct {
	Column Column
	Table  Table
}

type CellContext[T any] struct {
	Row    Row[T]
	Column Column
	Table  Table
}

type FilterOption struct {
	Label string
	Value string
	Icon  string
}

// Meta tells external filter UIs and the default cell renderer how to treat a column.
type Meta struct {
	FilterType    types.FilterType
	FilterOptions []FilterOption
	FormatKind    types.FormatKind
}

// FilterFn decides row visibility for a column filter value.
type FilterFn[T any] func(row Row[T], columnID string, value any) bool

// SortingFn compares two rows; negative means a sorts before b.
type SortingFn[T any] func(a, b Row[T], columnID string) int

type ColumnDef[T any] struct {
	ID            string
	AccessorKey   string
	Header        func(HeaderContext) Header
	Cell          func(CellContext[T]) Cell
	EnableSorting bool
	EnableHiding  bool
	Size          int
	FilterFn      FilterFn[T]
	SortingFn     SortingFn[T]
	Meta          Meta
}

// Key returns the column id, falling back to the accessor key.
func (d ColumnDef[T]) Key() string {
	if d.ID != "" {
		return d.ID
	}
	return d.AccessorKey
}

// StatusStyle is the badge shown for one raw status value.
type StatusStyle struct {
	Label   string
	Variant string
	Icon    string
}

// StatusConfig maps raw status values to badges.
type StatusConfig map[string]StatusStyle

// ActionItem is one entry in a row action menu.
type ActionItem[T any] struct {
	Label       string
	Icon        string
	Destructive bool
	OnClick     func(row T)
	Disabled    func(row T) bool
}

// Never is the always-enabled Disabled predicate.
func Never[T any](T) bool { return false }

// ActionSource produces the action list for a row.
type ActionSource[T any] func(row T) []ActionItem[T]

// StaticActions uses the same items for every row.
func StaticActions[T any](items ...ActionItem[T]) ActionSource[T] {
	return func(T) []ActionItem[T] { return items }
}

// RowActions computes the items per row.
func RowActions[T any](fn func(row T) []ActionItem[T]) ActionSource[T] {
	return fn
}
