package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps each root in its own directory on disk.
type LocalStore struct {
	dirs map[string]string
}

func NewLocalStore(uploadsDir, reportsDir string) (*LocalStore, error) {
	dirs := map[string]string{RootUploads: uploadsDir, RootReports: reportsDir}
	for root, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", root, err)
		}
	}
	return &LocalStore{dirs: dirs}, nil
}

// Put writes to a temporary file in the target directory and renames it into
// place once the data is flushed.
func (s *LocalStore) Put(ctx context.Context, root, name string, r io.Reader) (err error) {
	target, err := s.resolve(root, name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	return nil
}

func (s *LocalStore) Open(ctx context.Context, root, name string) (io.ReadCloser, error) {
	target, err := s.resolve(root, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, Ref(root, name))
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, Ref(root, name))
	}
	return f, nil
}

func (s *LocalStore) Delete(ctx context.Context, root, name string) error {
	target, err := s.resolve(root, name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", Ref(root, name), err)
	}
	return nil
}

func (s *LocalStore) resolve(root, name string) (string, error) {
	dir, ok := s.dirs[root]
	if !ok {
		return "", fmt.Errorf("%w: unknown root %q", ErrInvalidPath, root)
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(name)), nil
}
