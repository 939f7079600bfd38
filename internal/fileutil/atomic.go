// Package fileutil provides file system helpers for the round archive.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// writeTemp writes data to a synced temporary file next to filename and
// returns its path.
func writeTemp(filename string, data []byte, perm os.FileMode) (string, error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(filename)+".tmp.*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	fail := func(err error) (string, error) {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if _, err := tmpFile.Write(data); err != nil {
		return fail(fmt.Errorf("failed to write temp file: %w", err))
	}
	if err := tmpFile.Sync(); err != nil {
		return fail(fmt.Errorf("failed to sync temp file: %w", err))
	}
	if err := tmpFile.Chmod(perm); err != nil {
		return fail(fmt.Errorf("failed to set permissions: %w", err))
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return tmpPath, nil
}

// WriteFileAtomic replaces filename with data. Readers see either the old
// file or the complete new one, never a partial write.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmpPath, err := writeTemp(filename, data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// WriteFileOnce creates filename with data unless it already exists. It
// reports whether this call created the file. Concurrent callers race on a
// hard link so exactly one of them wins and the file is never partial.
func WriteFileOnce(filename string, data []byte, perm os.FileMode) (bool, error) {
	if _, err := os.Stat(filename); err == nil {
		return false, nil
	}

	tmpPath, err := writeTemp(filename, data, perm)
	if err != nil {
		return false, err
	}
	defer os.Remove(tmpPath)

	if err := os.Link(tmpPath, filename); err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to link temp file: %w", err)
	}
	return true, nil
}
