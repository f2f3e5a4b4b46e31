// Package storage holds the small filesystem helpers shared by the file cache.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cesargomez89/shelfwise/internal/constants"
)

// SafeName reports whether name can be joined onto a directory without
// escaping it: no separators, no parent references, no absolute paths.
func SafeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return !filepath.IsAbs(name) && filepath.Base(name) == name
}

func EnsureDir(path string) error {
	return os.MkdirAll(path, constants.DirPermissions)
}

func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}
	return nil
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it into place, so readers never see a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = RemoveFile(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = RemoveFile(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, constants.FilePermissions); err != nil {
		_ = RemoveFile(tmpName)
		return err
	}
	if err := MoveFile(tmpName, path); err != nil {
		_ = RemoveFile(tmpName)
		return err
	}
	return nil
}

// RemoveFile deletes a file. A missing file is not an error.
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether a regular file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func IsNotExist(err error) bool {
	return os.IsNotExist(err)
}
