// Package blob keeps uploaded files in a directory and hands out references
// to them.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// RefPrefix starts every reference issued by a Store. It doubles as the URL
// path the files are served under.
const RefPrefix = "uploads/"

// ErrForeignRef is returned for references the store did not issue.
var ErrForeignRef = errors.New("reference not issued by this store")

// Store writes blobs as files under Dir.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Key derives a unique, filesystem-safe key from an uploaded file name.
// The extension is replaced by ext when ext is not empty.
func Key(filename, ext string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(base))
	}
	name := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		name = "file"
	}
	return uuid.NewString() + "_" + name + ext
}

// Put stores the contents of r under a key derived from filename and returns
// its reference.
func (s *Store) Put(ctx context.Context, filename, ext string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := Key(filename, ext)
	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, key)); err != nil {
		return "", fmt.Errorf("storing blob: %w", err)
	}
	return RefPrefix + key, nil
}

// Open returns the blob behind ref.
func (s *Store) Open(ref string) (*os.File, error) {
	p, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Remove deletes the blob behind ref. Removing a missing blob is not an error.
func (s *Store) Remove(ref string) error {
	p, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing blob: %w", err)
	}
	return nil
}

// Owns reports whether ref was issued by a Store.
func Owns(ref string) bool {
	key, ok := strings.CutPrefix(ref, RefPrefix)
	return ok && key != "" && path.Base(key) == key && !strings.HasPrefix(key, ".")
}

func (s *Store) path(ref string) (string, error) {
	if !Owns(ref) {
		return "", fmt.Errorf("%q: %w", ref, ErrForeignRef)
	}
	return filepath.Join(s.Dir, strings.TrimPrefix(ref, RefPrefix)), nil
}
