// Package blob is a path-addressed store for text artifacts (scene
// documents, baked keyframes, export output) on top of a hackpadfs
// filesystem. Callers address blobs with absolute-style paths like
// "/animations/ball.json"; the store maps them onto its root.
package blob

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
)

// Store reads and writes text blobs under a prefix of a filesystem.
type Store struct {
	fsys   hackpadfs.FS
	prefix string // "" or a clean relative path, never leading/trailing '/'
}

// NewStore wraps an existing filesystem.
func NewStore(fsys hackpadfs.FS) *Store {
	return &Store{fsys: fsys}
}

// NewMemStore returns a store over a fresh in-memory filesystem. Used for
// ephemeral (session) scenes and in tests.
func NewMemStore() (*Store, error) {
	fsys, err := mem.NewFS()
	if err != nil {
		return nil, fmt.Errorf("create memory fs: %w", err)
	}
	return NewStore(fsys), nil
}

// Sub returns a store scoped to a namespace below this one. The
// namespace directory is not created until something is written to it.
func (s *Store) Sub(dir string) *Store {
	return &Store{fsys: s.fsys, prefix: s.join(dir)}
}

// join resolves a caller path against the store prefix, tolerating the
// absolute-style paths the scene workspace convention uses.
func (s *Store) join(p string) string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if s.prefix == "" {
		return p
	}
	if p == "" {
		return s.prefix
	}
	return s.prefix + "/" + p
}

// WriteText stores a text blob, creating parent directories as needed.
// An existing blob at the same path is overwritten.
func (s *Store) WriteText(p, text string) error {
	full := s.join(p)
	if dir := path.Dir(full); dir != "." {
		if err := hackpadfs.MkdirAll(s.fsys, dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := hackpadfs.WriteFullFile(s.fsys, full, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write blob %s: %w", p, err)
	}
	return nil
}

// ReadText fetches a text blob.
func (s *Store) ReadText(p string) (string, error) {
	data, err := fs.ReadFile(s.fsys, s.join(p))
	if err != nil {
		return "", fmt.Errorf("read blob %s: %w", p, err)
	}
	return string(data), nil
}

// Exists reports whether a blob or directory is present at the path.
func (s *Store) Exists(p string) bool {
	_, err := fs.Stat(s.fsys, s.join(p))
	return err == nil
}

// List returns the entry names directly under a directory path. A
// missing directory yields an empty list, not an error.
func (s *Store) List(p string) ([]string, error) {
	full := s.join(p)
	if full == "" {
		full = "."
	}
	entries, err := fs.ReadDir(s.fsys, full)
	if err != nil {
		if !s.Exists(p) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", p, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
