// Package filters builds row predicates for client-side table filtering.
//
// Every predicate is pure and treats an empty filter value as "match
// everything". Callers combine predicates themselves.
package filters

import (
	"slices"
	"strings"

	"anyTables/types"
	"anyTables/utils"
)

// AllValue is the select-filter sentinel meaning "no filter".
const AllValue = "all"

// Predicate reports whether row passes a filter set to value.
type Predicate[T any, V any] func(row T, value V) bool

// Search matches rows where any of keys contains query, ignoring case.
func Search[T any](keys ...string) Predicate[T, string] {
	return func(row T, query string) bool {
		if query == "" {
			return true
		}
		q := strings.ToLower(query)
		for _, k := range keys {
			v, ok := utils.Lookup(row, k)
			if !ok {
				continue
			}
			if strings.Contains(strings.ToLower(utils.Stringify(v)), q) {
				return true
			}
		}
		return false
	}
}

// Contains is the single-column substring filter.
func Contains[T any](key string) Predicate[T, string] {
	return Search[T](key)
}

// DateRange matches rows whose key falls within the inclusive range.
// Rows with a missing or unparseable date never match a bounded range.
func DateRange[T any](key string) Predicate[T, types.DateRange] {
	return func(row T, r types.DateRange) bool {
		if r.IsZero() {
			return true
		}
		v, _ := utils.Lookup(row, key)
		t, ok := utils.ParseTime(v)
		if !ok {
			return false
		}
		if r.From != nil && t.Before(*r.From) {
			return false
		}
		if r.To != nil && t.After(*r.To) {
			return false
		}
		return true
	}
}

// Select matches exact values; "" and AllValue match every row.
func Select[T any](key string) Predicate[T, string] {
	return func(row T, value string) bool {
		if value == "" || value == AllValue {
			return true
		}
		v, _ := utils.Lookup(row, key)
		return utils.Stringify(v) == value
	}
}

// MultiSelect matches rows whose value is one of values.
func MultiSelect[T any](key string) Predicate[T, []string] {
	return func(row T, values []string) bool {
		if len(values) == 0 {
			return true
		}
		v, _ := utils.Lookup(row, key)
		return slices.Contains(values, utils.Stringify(v))
	}
}
