package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"anyTables/logger"
	"anyTables/utils"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
)

var ErrUnsupportedFile = errors.New("unsupported file type")

type codec int

const (
	codecJSON codec = iota
	codecYAML
)

func codecFor(path string) (codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return codecJSON, nil
	case ".yaml", ".yml":
		return codecYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFile, path)
	}
}

// LoadFile reads a JSON or YAML array of objects.
func LoadFile(fs afero.Fs, path string) ([]map[string]any, error) {
	c, err := codecFor(path)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	var rows []map[string]any
	switch c {
	case codecJSON:
		err = json.Unmarshal(data, &rows)
	case codecYAML:
		err = yaml.Unmarshal(data, &rows)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	return rows, nil
}

// SaveFile writes rows back in the format implied by the extension.
func SaveFile(fs afero.Fs, path string, rows []map[string]any) error {
	c, err := codecFor(path)
	if err != nil {
		return err
	}
	var data []byte
	switch c {
	case codecJSON:
		data, err = json.MarshalIndent(rows, "", "  ")
	case codecYAML:
		data, err = yaml.Marshal(rows)
	}
	if err != nil {
		return fmt.Errorf("encode %q: %w", path, err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}

// File is a row store backed by one data file. Ids are compared by their
// string form so JSON numbers match integer ids.
type File struct {
	mu      sync.Mutex
	fs      afero.Fs
	path    string
	idField string
}

func NewFile(fs afero.Fs, path, idField string) *File {
	if idField == "" {
		idField = "id"
	}
	return &File{fs: fs, path: path, idField: idField}
}

func (f *File) Load(context.Context) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return LoadFile(f.fs, f.path)
}

func (f *File) matcher(ids []any) func(map[string]any) bool {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = utils.Stringify(id)
	}
	return func(row map[string]any) bool {
		v, ok := row[f.idField]
		return ok && slices.Contains(keys, utils.Stringify(v))
	}
}

// Delete removes the rows with the given ids, rewrites the file and
// returns the number of rows removed.
func (f *File) Delete(ctx context.Context, ids []any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, err := LoadFile(f.fs, f.path)
	if err != nil {
		return 0, err
	}
	before := len(rows)
	rows = slices.DeleteFunc(rows, f.matcher(ids))
	n := int64(before - len(rows))
	logger.FromContext(ctx).Debug("file rows deleted", "file", f.path, "affected", n)
	if err := SaveFile(f.fs, f.path, rows); err != nil {
		return 0, err
	}
	return n, nil
}

// Update merges updates into the rows with the given ids.
func (f *File) Update(ctx context.Context, ids []any, updates map[string]any) (int64, error) {
	if _, ok := updates[f.idField]; ok {
		return 0, fmt.Errorf("field %q is immutable", f.idField)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, err := LoadFile(f.fs, f.path)
	if err != nil {
		return 0, err
	}
	match := f.matcher(ids)
	var n int64
	for _, row := range rows {
		if !match(row) {
			continue
		}
		for k, v := range updates {
			row[k] = v
		}
		n++
	}
	logger.FromContext(ctx).Debug("file rows updated", "file", f.path, "affected", n)
	if err := SaveFile(f.fs, f.path, rows); err != nil {
		return 0, err
	}
	return n, nil
}
