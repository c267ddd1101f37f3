package bulk

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, message string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, message string) (bool, error) {
	return f(ctx, message)
}

// AlwaysConfirm approves every prompt.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

// PromptConfirmer asks on a terminal and accepts "y" or "yes".
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (p PromptConfirmer) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprintf(p.Out, "%s [y/N]: ", message); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// FileSaver delivers exported content to the user.
type FileSaver interface {
	Save(ctx context.Context, content []byte, filename, mimeType string) error
}

// FsSaver writes exports into Dir on an afero filesystem.
type FsSaver struct {
	Fs  afero.Fs
	Dir string
}

func NewOsSaver(dir string) *FsSaver {
	return &FsSaver{Fs: afero.NewOsFs(), Dir: dir}
}

func (s *FsSaver) Save(_ context.Context, content []byte, filename, _ string) error {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := s.Fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir %q: %w", dir, err)
	}
	path := filepath.Join(dir, filepath.Base(filename))
	if err := afero.WriteFile(s.Fs, path, content, 0o644); err != nil {
		return fmt.Errorf("write export %q: %w", path, err)
	}
	return nil
}

// Saved is one captured save.
type Saved struct {
	Content  []byte
	Filename string
	MimeType string
}

// BufferSaver keeps saves in memory.
type BufferSaver struct {
	mu    sync.Mutex
	saves []Saved
}

func (b *BufferSaver) Save(_ context.Context, content []byte, filename, mimeType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saves = append(b.saves, Saved{Content: append([]byte(nil), content...), Filename: filename, MimeType: mimeType})
	return nil
}

// Last returns the most recent save.
func (b *BufferSaver) Last() (Saved, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.saves) == 0 {
		return Saved{}, false
	}
	return b.saves[len(b.saves)-1], true
}

func (b *BufferSaver) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.saves)
}
