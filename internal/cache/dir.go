package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the directory created under os.TempDir by NewTempDir.
	DefaultDirName = "email-embed-images"

	defaultDirPerm  = 0o700
	defaultFilePerm = 0o600
)

// Dir stores each entry as one file named by the slugified key.
type Dir struct {
	path     string
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// DirOption configures a directory cache.
type DirOption func(*Dir)

// WithDirPerm sets the permissions used when creating the cache directory.
func WithDirPerm(mode os.FileMode) DirOption {
	return func(d *Dir) {
		d.dirPerm = mode
	}
}

// WithFilePerm sets the permissions of entry files.
func WithFilePerm(mode os.FileMode) DirOption {
	return func(d *Dir) {
		d.filePerm = mode
	}
}

// NewDir creates a directory cache rooted at path, creating it if needed.
func NewDir(path string, opts ...DirOption) (*Dir, error) {
	if path == "" {
		return nil, errors.New("cache dir is empty")
	}
	d := &Dir{
		path:     path,
		dirPerm:  defaultDirPerm,
		filePerm: defaultFilePerm,
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := os.MkdirAll(path, d.dirPerm); err != nil {
		return nil, err
	}
	return d, nil
}

// NewTempDir creates a directory cache in the shared OS temp directory.
// Entries survive process restarts until the OS reclaims them.
func NewTempDir(opts ...DirOption) (*Dir, error) {
	return NewDir(DefaultTempPath(), opts...)
}

// DefaultTempPath is the location used by NewTempDir.
func DefaultTempPath() string {
	return filepath.Join(os.TempDir(), DefaultDirName)
}

// Path returns the directory holding the entries.
func (d *Dir) Path() string {
	return d.path
}

// Get reads the entry file for key.
func (d *Dir) Get(_ context.Context, key string) ([]byte, bool, error) {
	name := Slugify(key)
	if name == "" {
		return nil, false, nil
	}
	full := filepath.Join(d.path, name)
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !info.Mode().IsRegular() {
		return nil, false, nil
	}
	data, err := os.ReadFile(full) //nolint:gosec // name is slugified, no separators survive
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set writes the entry through a temp file so readers never see a partial value.
func (d *Dir) Set(_ context.Context, key string, value []byte) error {
	name := Slugify(key)
	if name == "" {
		return ErrEmptyKey
	}

	tmp, err := os.CreateTemp(d.path, ".entry-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Chmod(d.filePerm); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, filepath.Join(d.path, name)); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
