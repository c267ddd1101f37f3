package types

import "time"

type ColType int

const (
	ColUnknown ColType = iota
	ColText
	ColNumeric
	ColBool
	ColTime
	ColUUID
	ColJSON
)

// FormatKind selects the formatter used to display a cell value.
type FormatKind int

const (
	FormatNone FormatKind = iota
	FormatDate
	FormatCurrency
	FormatPercentage
	FormatFileSize
	FormatPhone
)

func (k FormatKind) String() string {
	switch k {
	case FormatDate:
		return "date"
	case FormatCurrency:
		return "currency"
	case FormatPercentage:
		return "percentage"
	case FormatFileSize:
		return "filesize"
	case FormatPhone:
		return "phone"
	default:
		return "none"
	}
}

// FilterType tells a filter UI which control to render for a column.
type FilterType int

const (
	FilterNone FilterType = iota
	FilterText
	FilterSelect
	FilterMultiSelect
	FilterDateRange
)

type Op int

const (
	OpEq Op = iota
	OpIn
	OpGte
	OpLte
	OpLikePrefix
	OpILikePrefix
	OpContains
)

type SortDir int

const (
	Asc SortDir = iota
	Desc
)

// SortState is the per-column sort state owned by a table renderer.
type SortState int

const (
	Unsorted SortState = iota
	SortedAsc
	SortedDesc
)

// Next walks the header toggle cycle: unsorted, asc, desc, unsorted.
func (s SortState) Next() SortState {
	switch s {
	case Unsorted:
		return SortedAsc
	case SortedAsc:
		return SortedDesc
	default:
		return Unsorted
	}
}

type Condition struct {
	Field string
	Op    Op
	Value any // OpIn expects a slice
}

type Sort struct {
	Field string
	Dir   SortDir
}

type Pagination struct {
	Limit  int
	Offset int
}

// Search is a case-insensitive substring match over Fields.
// Empty Fields means every text column.
type Search struct {
	Text   string
	Fields []string
}

type QuerySpec struct {
	Table  string
	Select []string
	Search *Search
	Where  []Condition
	Sort   []Sort
	Page   *Pagination
}

// DateRange is an inclusive range; a nil bound is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}
