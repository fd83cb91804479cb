package internal

import (
	"errors"
	"os"
	"path/filepath"
)

// Descend walks root and every descendant directory, following directory
// symlinks and skipping entries it cannot stat or list due to permission
// errors, calling fn once per directory (root included). It is the shared
// recursive-marking algorithm behind the fanotify and inotify adapters'
// initial watch registration; a directory created later is registered on its
// own by those adapters, without a Descend call.
//
// A non-permission error returned by fn aborts the walk and is returned to
// the caller; a permission error from fn is treated the same as a
// permission error reading the directory itself: the subtree is skipped.
func Descend(root string, fn func(dir string) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}
	return descend(root, fn)
}

func descend(dir string, fn func(dir string) error) error {
	if err := fn(dir); err != nil {
		if isPermission(err) {
			return nil
		}
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if isPermission(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		child := filepath.Join(dir, e.Name())

		info, err := os.Stat(child) // follows symlinks
		if err != nil {
			if isPermission(err) {
				continue
			}
			continue // a file vanishing mid-walk is not a fatal walk error
		}
		if !info.IsDir() {
			continue
		}
		if err := descend(child, fn); err != nil {
			return err
		}
	}
	return nil
}

func isPermission(err error) bool {
	return errors.Is(err, os.ErrPermission)
}
