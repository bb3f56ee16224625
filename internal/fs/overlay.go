package fs

import (
	"log/slog"

	"github.com/spf13/afero"
)

// OverlayFileSystem reads through to the real filesystem and keeps writes in
// a memory layer. Appending to a file that only exists on disk copies it up
// into the layer first, so later reads see both the disk content and the
// appended lines.
type OverlayFileSystem struct {
	afero.Fs
}

// AppendLine appends to the in-memory copy of path.
func (o *OverlayFileSystem) AppendLine(path, line string) error {
	slog.Debug("appending in memory only", "path", path)
	return appendLine(o.Fs, path, line)
}

// IsRegular reports whether path is a regular file in either layer.
func (o *OverlayFileSystem) IsRegular(path string) bool {
	return isRegular(o.Fs, path)
}

// Remove is a no-op; files in the base layer are never removed.
func (o *OverlayFileSystem) Remove(name string) error {
	slog.Debug("skipping remove on read-only filesystem", "path", name)
	return nil
}
