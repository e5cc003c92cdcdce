// Package fileutil provides the atomic writes and bounded reads used for
// bundle and share files.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DirPerm is applied to directories WriteAtomic creates.
const DirPerm = 0o750

// ErrEmptyPath indicates an empty file path was provided.
var ErrEmptyPath = errors.New("path is empty")

// WriteAtomic replaces path with data so that readers see either the old or
// the new file, never a partial share file. Missing parent directories are
// created with DirPerm.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}
	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := stage(path, data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil { //nolint:gosec // G703: output path chosen by the operator
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	syncDir(filepath.Dir(path))
	return nil
}

// stage writes data to a synced temp file next to path and returns its name.
func stage(path string, data []byte, perm os.FileMode) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	name := f.Name()

	err = errors.Join(writeSynced(f, data, perm), f.Close())
	if err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("staging %s: %w", filepath.Base(path), err)
	}
	return name, nil
}

func writeSynced(f *os.File, data []byte, perm os.FileMode) error {
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Chmod(perm); err != nil {
		return err
	}
	return f.Sync()
}

// syncDir flushes the rename; failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir) //nolint:gosec // G304: parent of an operator-chosen path
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
