package cli

import (
	"context"
	"fmt"
	"strings"

	"anyTables/bulk"

	"github.com/spf13/cobra"
)

func parseSets(sets []string) (map[string]any, error) {
	updates := make(map[string]any, len(sets))
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", s)
		}
		updates[key] = value
	}
	return updates, nil
}

// runDelete confirms and deletes rows, then reports how many rows the
// source actually removed.
func runDelete(ctx context.Context, cmd *cobra.Command, ds *dataset, rows []Row, assume bool) error {
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to delete")
		return nil
	}
	var confirm bulk.Confirmer = bulk.PromptConfirmer{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
	if assume {
		confirm = bulk.AlwaysConfirm
	}
	var (
		affected int64
		failed   error
	)
	remove := bulk.DeleteHandler(func(ctx context.Context, ids []any) error {
		n, err := ds.remove(ctx, ids)
		affected = n
		return err
	}, bulk.Options[Row]{
		Confirm: confirm,
		ID:      func(r Row) any { return r[ds.idField] },
		OnSuccess: func() {
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d row(s)\n", affected)
		},
		OnError: func(err error) { failed = err },
	})
	remove(ctx, rows)
	return failed
}

func runUpdate(ctx context.Context, cmd *cobra.Command, ds *dataset, rows []Row, updates map[string]any) error {
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to update")
		return nil
	}
	var (
		affected int64
		failed   error
	)
	update := bulk.UpdateHandler(func(ctx context.Context, ids []any, updates map[string]any) error {
		n, err := ds.update(ctx, ids, updates)
		affected = n
		return err
	}, bulk.Options[Row]{
		ID: func(r Row) any { return r[ds.idField] },
		OnSuccess: func() {
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d row(s)\n", affected)
		},
		OnError: func(err error) { failed = err },
	})
	update(ctx, rows, updates)
	return failed
}
