package testsupport

import (
	"path/filepath"
	"testing"

	"servicedesk/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Photos default to the local backend and the repair lock wait is short.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.PhotoDir = filepath.Join(base, "photos")
	cfgVal.Repair.LockTimeoutSeconds = 1
	cfgVal.Photos.Region = "us-east-1"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDefaultTechnician sets repair.default_technician on the test config.
func WithDefaultTechnician(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Repair.DefaultTechnician = name
	}
}

// WithMetricsTextfile points metrics.textfile_path inside the temp directory.
func WithMetricsTextfile(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.TextfilePath = filepath.Join(b.baseDir, name)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
