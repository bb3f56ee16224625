// Package testutil holds helpers shared by package tests.
package testutil

import (
	"path/filepath"
	"runtime"
)

// Path joins parts into a path for the current OS. A leading "/" part makes
// the path absolute: "/a/b" on Unix and "C:\a\b" on Windows, where "C:" alone
// would be relative.
func Path(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	if parts[0] != "/" || runtime.GOOS != "windows" {
		return filepath.Join(parts...)
	}
	return `C:\` + filepath.Join(parts[1:]...)
}
