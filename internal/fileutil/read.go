package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// MaxFileSize caps share and bundle files read from disk.
const MaxFileSize = 16 << 20

// ErrFileTooLarge indicates a file exceeded the read limit.
var ErrFileTooLarge = errors.New("file too large")

// ReadLimited reads the whole file at path, failing with ErrFileTooLarge when
// it holds more than limit bytes.
func ReadLimited(path string, limit int64) ([]byte, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	f, err := os.Open(path) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, limit)
	}
	return data, nil
}
