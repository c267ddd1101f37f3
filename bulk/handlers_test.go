package bulk

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"anyTables/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

var selection = []record{{ID: "a1", Title: "Triage"}, {ID: "b2", Title: "Rounds"}, {ID: "c3", Title: "Discharge"}}

type callbacks struct {
	success int
	errs    []error
}

func (c *callbacks) options(confirm Confirmer) Options[record] {
	return Options[record]{
		Confirm:   confirm,
		OnSuccess: func() { c.success++ },
		OnError:   func(err error) { c.errs = append(c.errs, err) },
	}
}

func testContext(t *testing.T) context.Context {
	return logger.ContextWithLogger(t.Context(), logger.NewForTests())
}

func TestDeleteHandler(t *testing.T) {
	t.Run("Should call onDelete with ids and report success once", func(t *testing.T) {
		var cb callbacks
		var got []any
		var prompt string
		confirm := ConfirmFunc(func(_ context.Context, msg string) (bool, error) {
			prompt = msg
			return true, nil
		})
		h := DeleteHandler(func(_ context.Context, ids []any) error {
			got = ids
			return nil
		}, cb.options(confirm))
		h(testContext(t), selection)
		assert.Equal(t, []any{"a1", "b2", "c3"}, got)
		assert.Equal(t, 1, cb.success)
		assert.Empty(t, cb.errs)
		assert.Equal(t, "Are you sure you want to delete 3 item(s)?", prompt)
	})

	t.Run("Should route rejection to onError only", func(t *testing.T) {
		var cb callbacks
		boom := errors.New("db unavailable")
		h := DeleteHandler(func(context.Context, []any) error { return boom }, cb.options(AlwaysConfirm))
		h(testContext(t), selection)
		assert.Equal(t, 0, cb.success)
		require.Len(t, cb.errs, 1)
		assert.ErrorIs(t, cb.errs[0], boom)
	})

	t.Run("Should not call onDelete when the prompt is declined", func(t *testing.T) {
		var cb callbacks
		called := false
		decline := ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
		h := DeleteHandler(func(context.Context, []any) error {
			called = true
			return nil
		}, cb.options(decline))
		h(testContext(t), selection)
		assert.False(t, called)
		assert.Equal(t, 0, cb.success)
		assert.Empty(t, cb.errs)
	})

	t.Run("Should decline when no confirmer is configured", func(t *testing.T) {
		var cb callbacks
		called := false
		h := DeleteHandler(func(context.Context, []any) error {
			called = true
			return nil
		}, cb.options(nil))
		h(testContext(t), selection)
		assert.False(t, called)
		assert.Equal(t, 0, cb.success)
		assert.Empty(t, cb.errs)
	})

	t.Run("Should route confirm errors and panics to onError", func(t *testing.T) {
		var cb callbacks
		broken := ConfirmFunc(func(context.Context, string) (bool, error) { return false, errors.New("tty closed") })
		DeleteHandler(func(context.Context, []any) error { return nil }, cb.options(broken))(testContext(t), selection)
		DeleteHandler(func(context.Context, []any) error { panic("bad") }, cb.options(AlwaysConfirm))(testContext(t), selection)
		require.Len(t, cb.errs, 2)
		assert.Contains(t, cb.errs[0].Error(), "tty closed")
		assert.Contains(t, cb.errs[1].Error(), "panicked")
		assert.Equal(t, 0, cb.success)
	})

	t.Run("Should use custom id extraction and message", func(t *testing.T) {
		var got []any
		var prompt string
		opts := Options[record]{
			Confirm: ConfirmFunc(func(_ context.Context, msg string) (bool, error) {
				prompt = msg
				return true, nil
			}),
			ConfirmMessage: func(n int) string { return "Remove documents?" },
			ID:             func(r record) any { return strings.ToUpper(r.ID) },
		}
		DeleteHandler(func(_ context.Context, ids []any) error {
			got = ids
			return nil
		}, opts)(testContext(t), selection[:1])
		assert.Equal(t, []any{"A1"}, got)
		assert.Equal(t, "Remove documents?", prompt)
	})
}

func TestUpdateHandler(t *testing.T) {
	t.Run("Should pass ids and updates and report success", func(t *testing.T) {
		var cb callbacks
		var gotIDs []any
		var gotUpdates map[string]any
		h := UpdateHandler(func(_ context.Context, ids []any, updates map[string]any) error {
			gotIDs, gotUpdates = ids, updates
			return nil
		}, cb.options(nil))
		h(testContext(t), selection[1:], map[string]any{"status": "archived"})
		assert.Equal(t, []any{"b2", "c3"}, gotIDs)
		assert.Equal(t, map[string]any{"status": "archived"}, gotUpdates)
		assert.Equal(t, 1, cb.success)
		assert.Empty(t, cb.errs)
	})

	t.Run("Should route failures to onError", func(t *testing.T) {
		var cb callbacks
		boom := errors.New("conflict")
		h := UpdateHandler(func(context.Context, []any, map[string]any) error { return boom }, cb.options(nil))
		h(testContext(t), selection, nil)
		assert.Equal(t, 0, cb.success)
		require.Len(t, cb.errs, 1)
		assert.ErrorIs(t, cb.errs[0], boom)
	})

	t.Run("Should tolerate missing callbacks", func(t *testing.T) {
		h := UpdateHandler(func(context.Context, []any, map[string]any) error { return errors.New("x") }, Options[record]{})
		assert.NotPanics(t, func() { h(testContext(t), selection, nil) })
	})
}

func TestPromptConfirmer(t *testing.T) {
	t.Run("Should accept y and yes", func(t *testing.T) {
		for _, in := range []string{"y\n", "YES\n", " yes "} {
			var out bytes.Buffer
			ok, err := PromptConfirmer{In: strings.NewReader(in), Out: &out}.Confirm(t.Context(), "Delete?")
			require.NoError(t, err)
			assert.True(t, ok, in)
			assert.Equal(t, "Delete? [y/N]: ", out.String())
		}
	})

	t.Run("Should decline anything else", func(t *testing.T) {
		for _, in := range []string{"\n", "n\n", "", "maybe\n"} {
			ok, err := PromptConfirmer{In: strings.NewReader(in), Out: &bytes.Buffer{}}.Confirm(t.Context(), "Delete?")
			require.NoError(t, err)
			assert.False(t, ok, in)
		}
	})
}
