package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Reshape.Workers != 1 {
		t.Errorf("expected 1 worker, got %d", cfg.Reshape.Workers)
	}
	if cfg.Undo.MaxSteps != 32 {
		t.Errorf("expected max steps 32, got %d", cfg.Undo.MaxSteps)
	}
	if cfg.Undo.Compression != "default" {
		t.Errorf("expected compression 'default', got %s", cfg.Undo.Compression)
	}
	if cfg.Demo.Level != 2 {
		t.Errorf("expected demo level 2, got %d", cfg.Demo.Level)
	}
	if len(cfg.Demo.FaceSizes) != 6 {
		t.Errorf("expected 6 demo faces, got %d", len(cfg.Demo.FaceSizes))
	}
	if !cfg.Demo.WithMask {
		t.Error("expected demo mask layer by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
reshape:
  workers: 4

undo:
  max_steps: 8
  compression: best

demo:
  level: 3
  face_sizes: [3, 5]
  with_mask: false

logging:
  level: "debug"
  log_file: "reshape.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Reshape.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Reshape.Workers)
	}
	if cfg.Undo.MaxSteps != 8 || cfg.Undo.Compression != "best" {
		t.Errorf("unexpected undo config %+v", cfg.Undo)
	}
	if cfg.Demo.Level != 3 {
		t.Errorf("expected demo level 3, got %d", cfg.Demo.Level)
	}
	if !reflect.DeepEqual(cfg.Demo.FaceSizes, []int{3, 5}) {
		t.Errorf("expected face sizes [3 5], got %v", cfg.Demo.FaceSizes)
	}
	if cfg.Demo.WithMask {
		t.Error("expected with_mask to be false")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "reshape.log" {
		t.Errorf("expected log file 'reshape.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
reshape:
  workers: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"workers", func(c *Config) { c.Reshape.Workers = 0 }},
		{"max steps", func(c *Config) { c.Undo.MaxSteps = 0 }},
		{"compression", func(c *Config) { c.Undo.Compression = "ultra" }},
		{"negative level", func(c *Config) { c.Demo.Level = -1 }},
		{"huge level", func(c *Config) { c.Demo.Level = 99 }},
		{"no faces", func(c *Config) { c.Demo.FaceSizes = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Reshape.Workers = 3
	cfg.Demo.FaceSizes = []int{3, 3, 4}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("loaded config = %+v, want %+v", loaded, cfg)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "multires.yaml")
	if err := os.WriteFile(configPath, []byte("reshape:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find multires.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		set    flagValues
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			set:  flagValues{debug: true, level: -1},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "workers flag",
			set:  flagValues{workers: 8, level: -1},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Reshape.Workers != 8 {
					t.Errorf("expected 8 workers, got %d", cfg.Reshape.Workers)
				}
			},
		},
		{
			name: "level flag",
			set:  flagValues{level: 0},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Demo.Level != 0 {
					t.Errorf("expected demo level 0, got %d", cfg.Demo.Level)
				}
			},
		},
		{
			name: "no-mask flag",
			set:  flagValues{noMask: true, level: -1},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Demo.WithMask {
					t.Error("expected mask disabled")
				}
			},
		},
		{
			name: "no flags",
			set:  flagValues{level: -1},
			verify: func(t *testing.T, cfg *Config) {
				if !reflect.DeepEqual(cfg, Default()) {
					t.Errorf("expected defaults untouched, got %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved := flags
			flags = tt.set
			defer func() { flags = saved }()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestRegisterFlags(t *testing.T) {
	saved := flags
	defer func() { flags = saved }()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"-workers", "5", "-level", "1", "-no-mask"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg := Default()
	applyFlags(cfg)
	if cfg.Reshape.Workers != 5 || cfg.Demo.Level != 1 || cfg.Demo.WithMask {
		t.Errorf("unexpected config after flags: %+v", cfg)
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
reshape:
  workers: 2
demo:
  level: 3
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	saved := flags
	flags = flagValues{config: configPath, workers: 6, level: -1}
	defer func() { flags = saved }()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers from the flag, not the file.
	if cfg.Reshape.Workers != 6 {
		t.Errorf("expected 6 workers from flag, got %d", cfg.Reshape.Workers)
	}
	// Level from the file, no flag override.
	if cfg.Demo.Level != 3 {
		t.Errorf("expected level 3 from file, got %d", cfg.Demo.Level)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("undo:\n  max_steps: 0\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	saved := flags
	flags = flagValues{config: configPath, level: -1}
	defer func() { flags = saved }()

	if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() = %v, want ErrInvalidConfig", err)
	}
}
