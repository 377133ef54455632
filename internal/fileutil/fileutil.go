// Package fileutil holds file helpers shared by the renderer and the web
// manifest writer.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PublicMode is the permission of every file mosaic publishes. Tiles and
// manifests are usually served by a different user than the one rendering.
const PublicMode os.FileMode = 0o644

// WithWriteFile writes path through a temporary file in the same directory
// and renames it into place, so readers never observe a partial file. The
// result has the given mode regardless of the process umask.
func WithWriteFile(path string, mode os.FileMode, writeFn func(io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}

	err = writeFn(f)
	if err == nil {
		err = f.Chmod(mode)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return err
	}

	err = os.Rename(f.Name(), path)
	if err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("failed to rename temporary file for %s: %w", path, err)
	}
	return nil
}
