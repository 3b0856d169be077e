package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"servicedesk/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "servicedesk")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "servicedesk.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.LockPath() != filepath.Join(wantData, "repair.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if cfg.Photos.Backend != config.PhotoBackendLocal {
		t.Fatalf("expected local photo backend, got %q", cfg.Photos.Backend)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.LockTimeout() != 10*time.Second {
		t.Fatalf("unexpected lock timeout: %s", cfg.LockTimeout())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.PhotoDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "servicedesk.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
		Repair struct {
			DefaultTechnician  string `toml:"default_technician"`
			LockTimeoutSeconds int    `toml:"lock_timeout_seconds"`
		} `toml:"repair"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "Debug"
	custom.Repair.DefaultTechnician = "  Ana Petrova "
	custom.Repair.LockTimeoutSeconds = 3
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.DataDir != filepath.Join(tempDir, "data") {
		t.Fatalf("expected data dir override, got %q", cfg.Paths.DataDir)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging settings, got %+v", cfg.Logging)
	}
	if cfg.Repair.DefaultTechnician != "Ana Petrova" {
		t.Fatalf("expected trimmed technician, got %q", cfg.Repair.DefaultTechnician)
	}
	if cfg.LockTimeout() != 3*time.Second {
		t.Fatalf("expected 3s lock timeout, got %s", cfg.LockTimeout())
	}
}

func TestLoadReadsDotEnvBesideConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "servicedesk.toml")
	contents := "[photos]\nbackend = \"s3\"\nbucket = \"cargo-photos\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	env := "SERVICEDESK_S3_ACCESS_KEY_ID=from-dotenv\nSERVICEDESK_S3_SECRET_ACCESS_KEY=secret-from-dotenv\n"
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	for _, key := range []string{"SERVICEDESK_S3_ACCESS_KEY_ID", "SERVICEDESK_S3_SECRET_ACCESS_KEY", "AWS_REGION"} {
		if prev, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { _ = os.Setenv(key, prev) })
		} else {
			t.Cleanup(func() { _ = os.Unsetenv(key) })
		}
		_ = os.Unsetenv(key)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Photos.AccessKeyID != "from-dotenv" {
		t.Errorf("expected access key from .env, got %q", cfg.Photos.AccessKeyID)
	}
	if cfg.Photos.SecretAccessKey != "secret-from-dotenv" {
		t.Errorf("expected secret key from .env, got %q", cfg.Photos.SecretAccessKey)
	}
	if cfg.Photos.Region != "us-east-1" {
		t.Errorf("expected default region, got %q", cfg.Photos.Region)
	}
}

func TestEnvRegionFallback(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "servicedesk.toml")
	if err := os.WriteFile(configPath, []byte("[photos]\nbackend = \"s3\"\nbucket = \"b\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AWS_REGION", "eu-central-1")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Photos.Region != "eu-central-1" {
		t.Fatalf("expected region from env, got %q", cfg.Photos.Region)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[repair]") {
		t.Fatalf("sample config missing repair section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "servicedesk") {
		t.Fatalf("expected data dir to contain servicedesk, got %q", cfg.Paths.DataDir)
	}
	if cfg.Photos.Backend != config.PhotoBackendLocal {
		t.Fatalf("expected sample to use local photos, got %q", cfg.Photos.Backend)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown level", func(c *config.Config) { c.Logging.Level = "loud" }},
		{"negative lock timeout", func(c *config.Config) { c.Repair.LockTimeoutSeconds = -1 }},
		{"unknown backend", func(c *config.Config) { c.Photos.Backend = "ftp" }},
		{"s3 without bucket", func(c *config.Config) { c.Photos.Backend = config.PhotoBackendS3 }},
		{"s3 half credentials", func(c *config.Config) {
			c.Photos.Backend = config.PhotoBackendS3
			c.Photos.Bucket = "b"
			c.Photos.AccessKeyID = "id"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}
