package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// AferoStore keeps one file per key under root on an afero filesystem.
// Use afero.NewOsFs() in production and afero.NewMemMapFs() in tests.
type AferoStore struct {
	fs   afero.Fs
	root string
}

// NewAferoStore creates a new AferoStore rooted at root.
func NewAferoStore(fs afero.Fs, root string) *AferoStore {
	return &AferoStore{fs: fs, root: root}
}

func (s *AferoStore) pathFor(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", ErrInvalidKey
	}
	return path.Join(s.root, key), nil
}

// Read returns the stored value for key.
func (s *AferoStore) Read(ctx context.Context, key string) (string, bool, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return "", false, err
	}
	data, err := afero.ReadFile(s.fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// Write stores value under key, creating the root directory when needed.
// The value goes to a temp file first and is renamed into place.
func (s *AferoStore) Write(ctx context.Context, key, value string) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.root, 0o755); err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, []byte(value), 0o600); err != nil {
		return err
	}
	return s.fs.Rename(tmp, p)
}

// Remove deletes the file for key. A missing file is fine.
func (s *AferoStore) Remove(ctx context.Context, key string) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
