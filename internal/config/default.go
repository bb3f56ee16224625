package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prettymuchbryce/testwire/internal/pathutil"
)

//go:embed config-example.yaml
var exampleConfigContent string

// WriteExample writes the example config to configPath unless a file already
// exists there. Returns the expanded path and whether a file was written.
func WriteExample(configPath string) (string, bool, error) {
	expanded := pathutil.ExpandTilde(configPath)

	if _, err := os.Stat(expanded); err == nil {
		return expanded, false, nil
	}

	dir := filepath.Dir(expanded)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	if err := os.WriteFile(expanded, []byte(exampleConfigContent), 0644); err != nil {
		return "", false, fmt.Errorf("failed to create config %s: %w", expanded, err)
	}

	slog.Info("created config", "path", expanded)
	return expanded, true, nil
}
