package fs

import (
	"os"
	"strings"

	"github.com/spf13/afero"
)

// FileSystem extends afero.Fs with the few operations testwire needs on top
// of plain file access.
type FileSystem interface {
	afero.Fs

	// AppendLine appends line plus a trailing newline to path in a single
	// write, creating the file (but not its parent directories) if needed.
	AppendLine(path, line string) error

	// IsRegular reports whether path exists and is a regular file.
	IsRegular(path string) bool
}

// NewReal creates a FileSystem backed by the operating system.
func NewReal() FileSystem {
	return &RealFileSystem{
		Fs: afero.NewOsFs(),
	}
}

// NewReadOnly creates a FileSystem that reads from the operating system but
// keeps every write in memory. Used when the location cache must not be
// modified on disk.
func NewReadOnly() FileSystem {
	base := afero.NewReadOnlyFs(afero.NewOsFs())
	layer := afero.NewMemMapFs()
	return &OverlayFileSystem{Fs: afero.NewCopyOnWriteFs(base, layer)}
}

// NewMem creates an in-memory FileSystem for testing.
func NewMem() FileSystem {
	return &MemFileSystem{Fs: afero.NewMemMapFs()}
}

// NewMemTest returns a MemFileSystem for testing with access to Must* helpers.
func NewMemTest() *MemFileSystem {
	return &MemFileSystem{Fs: afero.NewMemMapFs()}
}

// appendLine writes line and a newline with one Write call on an O_APPEND
// handle, so concurrent appenders never interleave within a line.
func appendLine(afs afero.Fs, path, line string) error {
	f, err := afs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := f.Write([]byte(line)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func isRegular(afs afero.Fs, path string) bool {
	if path == "" {
		return false
	}
	info, err := afs.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
