// Package docstore maps document identifiers returned by the vector index to
// their full text content.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when the identifier does not resolve to a document.
var ErrNotFound = errors.New("document not found")

type Store interface {
	Read(ctx context.Context, identifier string) (string, error)
}

// FileStore serves documents from a flat directory of extracted pages, one
// file per document.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) Read(ctx context.Context, identifier string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// Identifiers come from index metadata; strip any path components so a
	// poisoned payload cannot escape the documents directory.
	name := filepath.Base(identifier)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid document identifier %q: %w", identifier, ErrNotFound)
	}

	content, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("document %q: %w", identifier, ErrNotFound)
		}
		return "", fmt.Errorf("failed to read document %q: %w", identifier, err)
	}
	return string(content), nil
}
