package utils

import "strings"

// QuoteIdentPG quotes a PostgreSQL identifier: "na""me"
func QuoteIdentPG(s string) string {
	if s == "" {
		return `""`
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
