package config

import (
	"bytes"
	"strings"
	"testing"
	"text/template"
	"time"

	"github.com/prettymuchbryce/testwire/internal/testutil"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// renderYAML renders a YAML template with the given data.
func renderYAML(t *testing.T, tmpl string, data any) string {
	t.Helper()
	var buf bytes.Buffer
	template.Must(template.New("yaml").Parse(tmpl)).Execute(&buf, data)
	return buf.String()
}

func TestLoadWithFs_ValidConfig(t *testing.T) {
	configPath := testutil.Path("/", ".testwire.yaml")
	srcPath := testutil.Path("/", "home", "user", "src")

	fs := afero.NewMemMapFs()
	configYAML := renderYAML(t, `
source_root: {{.SourceRoot}}
cache:
  path: /tmp/locations
  read_only: true
search:
  include: ["**/*_test.go"]
  timeout: 2s
report:
  structured: false
  print_failure_summary: true
logging:
  level: debug
`, map[string]string{"SourceRoot": srcPath})
	afero.WriteFile(fs, configPath, []byte(configYAML), 0644)

	cfg, err := LoadWithFs(configPath, fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SourceRoot != srcPath {
		t.Errorf("expected source root %q, got %q", srcPath, cfg.SourceRoot)
	}
	if cfg.Cache.Path != "/tmp/locations" || !cfg.Cache.ReadOnly || !cfg.Cache.Enabled {
		t.Errorf("unexpected cache config %+v", cfg.Cache)
	}
	if len(cfg.Search.Include) != 1 || cfg.Search.Include[0] != "**/*_test.go" {
		t.Errorf("unexpected include %v", cfg.Search.Include)
	}
	if cfg.Search.Timeout != 2*time.Second {
		t.Errorf("expected timeout 2s, got %v", cfg.Search.Timeout)
	}
	if cfg.Report.Structured || !cfg.Report.PrintFailureSummary {
		t.Errorf("unexpected report config %+v", cfg.Report)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected logging level 'debug', got %q", cfg.Logging.Level)
	}
}

func TestLoadWithFs_DefaultValues(t *testing.T) {
	configPath := testutil.Path("/", ".testwire.yaml")

	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, configPath, []byte("source_root: /src\n"), 0644)

	cfg, err := LoadWithFs(configPath, fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Search.Timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", cfg.Search.Timeout)
	}
	if !cfg.Report.Structured || !cfg.Report.ColorFrames {
		t.Errorf("expected structured output with colored frames by default, got %+v", cfg.Report)
	}
	if got := strings.Join(cfg.Report.TraceFilters, ","); got != "/cache/,/src/testing/,/src/runtime/" {
		t.Errorf("unexpected trace filters %v", cfg.Report.TraceFilters)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected default logging level 'warn', got %q", cfg.Logging.Level)
	}
}

func TestLoadWithFs_FileNotFound(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := LoadWithFs(testutil.Path("/", "nonexistent.yaml"), fs)
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestLoadWithFs_ExpandsCachePath(t *testing.T) {
	t.Setenv("TESTWIRE_CACHE", "/var/cache")
	configPath := testutil.Path("/", ".testwire.yaml")
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, configPath, []byte("cache:\n  path: $TESTWIRE_CACHE/locations\n"), 0644)

	cfg, err := LoadWithFs(configPath, fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Cache.Path != "/var/cache/locations" {
		t.Errorf("Cache.Path = %q, want %q", cfg.Cache.Path, "/var/cache/locations")
	}
}

func TestLoadFirst(t *testing.T) {
	local := testutil.Path("/", "work", ".testwire.yaml")
	user := testutil.Path("/", "home", "user", ".config", "testwire", "config.yaml")

	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, user, []byte("source_root: /user\n"), 0644)

	cfg, err := LoadFirst(fs, local, user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SourceRoot != "/user" {
		t.Errorf("SourceRoot = %q, want %q", cfg.SourceRoot, "/user")
	}

	afero.WriteFile(fs, local, []byte("source_root: /local\n"), 0644)
	cfg, err = LoadFirst(fs, local, user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SourceRoot != "/local" {
		t.Errorf("SourceRoot = %q, want %q", cfg.SourceRoot, "/local")
	}

	cfg, err = LoadFirst(afero.NewMemMapFs(), local, user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SourceRoot != "/app" {
		t.Errorf("SourceRoot = %q, want default", cfg.SourceRoot)
	}
}

func TestLoadWithFs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "search:\n  include: [unclosed\n"},
		{"empty source root", "source_root: \"\"\n"},
		{"bad glob", "search:\n  include: [\"[abc\"]\n"},
		{"negative timeout", "search:\n  timeout: -1s\n"},
		{"unknown level", "logging:\n  level: chatty\n"},
		{"cache without path", "cache:\n  path: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := testutil.Path("/", ".testwire.yaml")
			fs := afero.NewMemMapFs()
			afero.WriteFile(fs, configPath, []byte(tt.yaml), 0644)

			if _, err := LoadWithFs(configPath, fs); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(exampleConfigContent), cfg); err != nil {
		t.Fatalf("example config does not parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("example config invalid: %v", err)
	}

	def := Default()
	if cfg.SourceRoot != def.SourceRoot || cfg.Cache != def.Cache || cfg.Search.Timeout != def.Search.Timeout || cfg.Report.TimeFormat != def.Report.TimeFormat ||
		strings.Join(cfg.Report.TraceFilters, ",") != strings.Join(def.Report.TraceFilters, ",") {
		t.Errorf("example config drifted from defaults: %+v", cfg)
	}
}
