// Package bulk wraps caller mutations and exports into handlers taking
// the currently selected rows.
//
// Delete and update handlers never return errors: every failure goes to
// the OnError callback. There is no retry, no partial-failure handling
// and no guard against concurrent invocations.
package bulk

import (
	"context"
	"fmt"

	"anyTables/logger"
	"anyTables/utils"
)

const DefaultIDField = "id"

// Options configures delete and update handlers.
type Options[T any] struct {
	// Confirm approves deletes. Without one, deletes are declined.
	Confirm Confirmer
	// ConfirmMessage overrides the default prompt text.
	ConfirmMessage func(count int) string
	OnSuccess      func()
	OnError        func(err error)
	// ID extracts the row identifier; defaults to the "id" field.
	ID func(row T) any
}

func (o Options[T]) ids(rows []T) []any {
	ids := make([]any, 0, len(rows))
	for _, r := range rows {
		if o.ID != nil {
			ids = append(ids, o.ID(r))
			continue
		}
		id, _ := utils.Lookup(r, DefaultIDField)
		ids = append(ids, id)
	}
	return ids
}

func (o Options[T]) fail(ctx context.Context, op string, err error) {
	logger.FromContext(ctx).Debug("bulk action failed", "op", op, "error", err)
	if o.OnError != nil {
		o.OnError(err)
	}
}

func (o Options[T]) succeed(ctx context.Context, op string, n int) {
	logger.FromContext(ctx).Debug("bulk action done", "op", op, "rows", n)
	if o.OnSuccess != nil {
		o.OnSuccess()
	}
}

func defaultDeleteMessage(n int) string {
	return fmt.Sprintf("Are you sure you want to delete %d item(s)?", n)
}

// guard turns a panic inside a caller callback into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bulk callback panicked: %v", r)
		}
	}()
	return fn()
}

// DeleteHandler confirms, then passes the ids of the selected rows to onDelete.
// Declining the prompt is a silent no-op.
func DeleteHandler[T any](onDelete func(ctx context.Context, ids []any) error, opts Options[T]) func(ctx context.Context, rows []T) {
	confirm := opts.Confirm
	message := opts.ConfirmMessage
	if message == nil {
		message = defaultDeleteMessage
	}
	return func(ctx context.Context, rows []T) {
		if confirm == nil {
			logger.FromContext(ctx).Warn("bulk delete declined: no confirmer configured", "rows", len(rows))
			return
		}
		var ok bool
		err := guard(func() error {
			var err error
			ok, err = confirm.Confirm(ctx, message(len(rows)))
			return err
		})
		if err != nil {
			opts.fail(ctx, "delete", fmt.Errorf("confirm delete: %w", err))
			return
		}
		if !ok {
			logger.FromContext(ctx).Debug("bulk delete declined", "rows", len(rows))
			return
		}
		ids := opts.ids(rows)
		if err := guard(func() error { return onDelete(ctx, ids) }); err != nil {
			opts.fail(ctx, "delete", err)
			return
		}
		opts.succeed(ctx, "delete", len(ids))
	}
}

// UpdateHandler passes the ids of the selected rows and the updates to onUpdate.
func UpdateHandler[T any](onUpdate func(ctx context.Context, ids []any, updates map[string]any) error, opts Options[T]) func(ctx context.Context, rows []T, updates map[string]any) {
	return func(ctx context.Context, rows []T, updates map[string]any) {
		ids := opts.ids(rows)
		if err := guard(func() error { return onUpdate(ctx, ids, updates) }); err != nil {
			opts.fail(ctx, "update", err)
			return
		}
		opts.succeed(ctx, "update", len(ids))
	}
}
