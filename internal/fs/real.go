package fs

import (
	"log/slog"

	"github.com/spf13/afero"
)

// RealFileSystem performs actual filesystem operations.
type RealFileSystem struct {
	afero.Fs
}

// AppendLine appends a single line to path.
func (r *RealFileSystem) AppendLine(path, line string) error {
	slog.Debug("appending", "path", path)
	return appendLine(r.Fs, path, line)
}

// IsRegular reports whether path is an existing regular file.
func (r *RealFileSystem) IsRegular(path string) bool {
	return isRegular(r.Fs, path)
}

// Remove performs the remove operation.
func (r *RealFileSystem) Remove(name string) error {
	slog.Debug("removing", "path", name)
	return r.Fs.Remove(name)
}
