// Package grid is an in-memory table model driving column descriptors:
// it owns sort, selection, filter and pagination state.
package grid

import (
	"cmp"
	"slices"
	"strings"

	"anyTables/columns"
	"anyTables/filters"
	"anyTables/types"
	"anyTables/utils"
)

const (
	DefaultPageSize = 10
	maxPageSize     = 1000
)

type Grid[T any] struct {
	rows       []T
	defs       []columns.ColumnDef[T]
	sortID     string
	sortDir    types.SortState
	selected   map[int]bool
	colFilters map[string]any
	global     string
	search     filters.Predicate[T, string]
	page       *types.Pagination
	onClick    func(T)
}

type Option[T any] func(*Grid[T])

// WithSearchKeys sets the fields matched by the global filter.
// By default every accessor column is searched.
func WithSearchKeys[T any](keys ...string) Option[T] {
	return func(g *Grid[T]) { g.search = filters.Search[T](keys...) }
}

// WithPagination pages the rows; see SetPage.
func WithPagination[T any](size int) Option[T] {
	return func(g *Grid[T]) { g.SetPage(0, size) }
}

// WithRowClick sets the handler for row-level clicks.
func WithRowClick[T any](fn func(T)) Option[T] {
	return func(g *Grid[T]) { g.onClick = fn }
}

func New[T any](rows []T, defs []columns.ColumnDef[T], opts ...Option[T]) *Grid[T] {
	g := &Grid[T]{
		rows:       rows,
		defs:       defs,
		selected:   map[int]bool{},
		colFilters: map[string]any{},
	}
	for _, fn := range opts {
		fn(g)
	}
	if g.search == nil {
		keys := make([]string, 0, len(defs))
		for _, d := range defs {
			if d.AccessorKey != "" {
				keys = append(keys, d.AccessorKey)
			}
		}
		g.search = filters.Search[T](keys...)
	}
	return g
}

func (g *Grid[T]) def(id string) (columns.ColumnDef[T], bool) {
	for _, d := range g.defs {
		if d.Key() == id {
			return d, true
		}
	}
	return columns.ColumnDef[T]{}, false
}

// SetGlobalFilter sets the free-text search applied across search keys.
func (g *Grid[T]) SetGlobalFilter(q string) {
	g.global = q
	g.resetPage()
}

// SetColumnFilter sets a column filter value; nil removes it.
func (g *Grid[T]) SetColumnFilter(id string, value any) {
	if value == nil {
		delete(g.colFilters, id)
	} else {
		g.colFilters[id] = value
	}
	g.resetPage()
}

// SetSort sets single-column sorting. An empty id clears it.
func (g *Grid[T]) SetSort(id string, state types.SortState) {
	if id == "" || state == types.Unsorted {
		g.sortID, g.sortDir = "", types.Unsorted
		return
	}
	g.sortID, g.sortDir = id, state
}

// SetPage selects a page. Sizes outside (0, 1000] fall back to 100.
func (g *Grid[T]) SetPage(index, size int) {
	if size <= 0 || size > maxPageSize {
		size = 100
	}
	if index < 0 {
		index = 0
	}
	g.page = &types.Pagination{Limit: size, Offset: index * size}
}

func (g *Grid[T]) resetPage() {
	if g.page != nil {
		g.page.Offset = 0
	}
}

// Column returns the renderer handle for a column id.
func (g *Grid[T]) Column(id string) columns.Column {
	return &column[T]{g: g, id: id}
}

// visible returns source indexes after filtering and sorting.
func (g *Grid[T]) visible() []int {
	idx := make([]int, 0, len(g.rows))
	for i := range g.rows {
		if g.matches(i) {
			idx = append(idx, i)
		}
	}
	if g.sortID == "" {
		return idx
	}
	d, _ := g.def(g.sortID)
	cmpFn := func(a, b int) int {
		ra, rb := g.row(a), g.row(b)
		if d.SortingFn != nil {
			return d.SortingFn(ra, rb, g.sortID)
		}
		return compareValues(ra.Value(g.sortID), rb.Value(g.sortID))
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		if g.sortDir == types.SortedDesc {
			return cmpFn(b, a)
		}
		return cmpFn(a, b)
	})
	return idx
}

func (g *Grid[T]) matches(i int) bool {
	if !g.search(g.rows[i], g.global) {
		return false
	}
	r := g.row(i)
	for id, value := range g.colFilters {
		d, ok := g.def(id)
		if !ok {
			continue
		}
		fn := d.FilterFn
		if fn == nil {
			q := utils.Stringify(value)
			if !strings.Contains(strings.ToLower(utils.Stringify(r.Value(id))), strings.ToLower(q)) {
				return false
			}
			continue
		}
		if !fn(r, id, value) {
			return false
		}
	}
	return true
}

func compareValues(a, b any) int {
	fa, oka := utils.ToFloat(a)
	fb, okb := utils.ToFloat(b)
	if oka && okb {
		return cmp.Compare(fa, fb)
	}
	return strings.Compare(utils.Stringify(a), utils.Stringify(b))
}

func (g *Grid[T]) pageIndexes() []int {
	idx := g.visible()
	if g.page == nil {
		return idx
	}
	start := min(g.page.Offset, len(idx))
	end := min(start+g.page.Limit, len(idx))
	return idx[start:end]
}

func (g *Grid[T]) row(i int) *row[T] {
	return &row[T]{g: g, index: i}
}

// FilteredRows returns every row passing the filters, in sort order.
func (g *Grid[T]) FilteredRows() []T {
	idx := g.visible()
	out := make([]T, len(idx))
	for k, i := range idx {
		out[k] = g.rows[i]
	}
	return out
}

// PageRows returns the rows of the current page.
func (g *Grid[T]) PageRows() []columns.Row[T] {
	idx := g.pageIndexes()
	out := make([]columns.Row[T], len(idx))
	for k, i := range idx {
		out[k] = g.row(i)
	}
	return out
}

// SelectedRows returns selected rows in source order, across pages.
func (g *Grid[T]) SelectedRows() []T {
	out := make([]T, 0, len(g.selected))
	for i, v := range g.rows {
		if g.selected[i] {
			out = append(out, v)
		}
	}
	return out
}

func (g *Grid[T]) ClearSelection() {
	clear(g.selected)
}

// PageCount is the number of pages for the filtered rows.
func (g *Grid[T]) PageCount() int {
	n := len(g.visible())
	if g.page == nil {
		return 1
	}
	return max(1, (n+g.page.Limit-1)/g.page.Limit)
}

func (g *Grid[T]) IsAllPageRowsSelected() bool {
	idx := g.pageIndexes()
	if len(idx) == 0 {
		return false
	}
	for _, i := range idx {
		if !g.selected[i] {
			return false
		}
	}
	return true
}

func (g *Grid[T]) IsSomePageRowsSelected() bool {
	n := 0
	idx := g.pageIndexes()
	for _, i := range idx {
		if g.selected[i] {
			n++
		}
	}
	return n > 0 && n < len(idx)
}

func (g *Grid[T]) ToggleAllPageRowsSelected(selected bool) {
	for _, i := range g.pageIndexes() {
		if selected {
			g.selected[i] = true
		} else {
			delete(g.selected, i)
		}
	}
}

// RenderHeaders renders every column header.
func (g *Grid[T]) RenderHeaders() []columns.Header {
	out := make([]columns.Header, len(g.defs))
	for k, d := range g.defs {
		if d.Header == nil {
			out[k] = columns.Header{Label: d.Key()}
			continue
		}
		out[k] = d.Header(columns.HeaderContext{Column: g.Column(d.Key()), Table: g})
	}
	return out
}

// RenderRow renders every cell of a page row.
func (g *Grid[T]) RenderRow(r columns.Row[T]) []columns.Cell {
	out := make([]columns.Cell, len(g.defs))
	for k, d := range g.defs {
		if d.Cell == nil {
			out[k] = columns.Cell{Text: utils.Stringify(r.Value(d.Key()))}
			continue
		}
		out[k] = d.Cell(columns.CellContext[T]{Row: r, Column: g.Column(d.Key()), Table: g})
	}
	return out
}

// ClickCell activates the control of a cell on the current page and then
// bubbles the click to the row handler unless propagation was stopped.
func (g *Grid[T]) ClickCell(pageRow, col int) {
	rows := g.PageRows()
	if pageRow < 0 || pageRow >= len(rows) || col < 0 || col >= len(g.defs) {
		return
	}
	r := rows[pageRow]
	c := g.RenderRow(r)[col]
	ev := &columns.Event{}
	switch {
	case c.Checkbox != nil && c.Checkbox.OnChange != nil:
		c.Checkbox.OnChange(ev, !c.Checkbox.Checked)
	case c.Menu != nil && c.Menu.OnOpen != nil:
		c.Menu.OnOpen(ev)
	}
	if !ev.Stopped() && g.onClick != nil {
		g.onClick(r.Original())
	}
}

type row[T any] struct {
	g     *Grid[T]
	index int
}

func (r *row[T]) Original() T { return r.g.rows[r.index] }

func (r *row[T]) Value(id string) any {
	key := id
	if d, ok := r.g.def(id); ok && d.AccessorKey != "" {
		key = d.AccessorKey
	}
	v, _ := utils.Lookup(r.g.rows[r.index], key)
	return v
}

func (r *row[T]) IsSelected() bool { return r.g.selected[r.index] }

func (r *row[T]) ToggleSelected(selected bool) {
	if selected {
		r.g.selected[r.index] = true
		return
	}
	delete(r.g.selected, r.index)
}

type column[T any] struct {
	g  *Grid[T]
	id string
}

func (c *column[T]) ID() string { return c.id }

func (c *column[T]) SortState() types.SortState {
	if c.g.sortID != c.id {
		return types.Unsorted
	}
	return c.g.sortDir
}

func (c *column[T]) ToggleSorting(desc bool) {
	if d, ok := c.g.def(c.id); ok && !d.EnableSorting {
		return
	}
	state := types.SortedAsc
	if desc {
		state = types.SortedDesc
	}
	c.g.SetSort(c.id, state)
}

func (c *column[T]) ClearSorting() {
	if c.g.sortID == c.id {
		c.g.SetSort("", types.Unsorted)
	}
}
