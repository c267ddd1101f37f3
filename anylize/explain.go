package anylize

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ExplainAnalyze runs sqlStr under EXPLAIN ANALYZE and returns the text
// plan with the reported execution time in milliseconds.
func ExplainAnalyze(ctx context.Context, db DBTX, sqlStr string, args ...any) (plan string, ms float64, err error) {
	q := "EXPLAIN (ANALYZE, BUFFERS, FORMAT TEXT) " + sqlStr
	rows, err := db.Query(ctx, q, args...)
	if err != nil {
		return "", 0, fmt.Errorf("explain: %w", err)
	}
	defer rows.Close()
	var b strings.Builder
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return "", 0, fmt.Errorf("scan plan line: %w", err)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	plan = b.String()
	return plan, parseExec(plan), rows.Err()
}

var execRe = regexp.MustCompile(`Execution Time:\s+([0-9.]+)\s+ms`)

func parseExec(plan string) float64 {
	m := execRe.FindStringSubmatch(plan)
	if len(m) != 2 {
		return 0
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return f
}
