package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Expand resolves $VAR and ${VAR} references and a leading ~ in a config
// path. Unset variables expand to the empty string.
func Expand(path string) string {
	return ExpandTilde(os.ExpandEnv(path))
}

// ExpandTilde replaces a leading "~" or "~/" with the home directory. Paths
// are returned unchanged when the home directory is unknown.
func ExpandTilde(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(rest, "/"))
}
