package fs

import (
	"fmt"

	"github.com/spf13/afero"
)

// MemFileSystem is an in-memory filesystem for testing.
// Unlike RealFileSystem, it performs no logging.
type MemFileSystem struct {
	afero.Fs
}

// AppendLine appends a single line to path.
func (m *MemFileSystem) AppendLine(path, line string) error {
	return appendLine(m.Fs, path, line)
}

// IsRegular reports whether path is an existing regular file.
func (m *MemFileSystem) IsRegular(path string) bool {
	return isRegular(m.Fs, path)
}

// MustMkdirAll creates a directory and panics on error. For use in tests.
func (m *MemFileSystem) MustMkdirAll(path string) {
	if err := m.Fs.MkdirAll(path, 0755); err != nil {
		panic(fmt.Sprintf("MustMkdirAll(%q): %v", path, err))
	}
}

// MustWriteFile writes content to path, creating parent directories, and
// panics on error. For use in tests.
func (m *MemFileSystem) MustWriteFile(path, content string) {
	if err := afero.WriteFile(m.Fs, path, []byte(content), 0644); err != nil {
		panic(fmt.Sprintf("MustWriteFile(%q): %v", path, err))
	}
}

// MustReadFile returns the content of path and panics on error. For use in tests.
func (m *MemFileSystem) MustReadFile(path string) string {
	data, err := afero.ReadFile(m.Fs, path)
	if err != nil {
		panic(fmt.Sprintf("MustReadFile(%q): %v", path, err))
	}
	return string(data)
}
