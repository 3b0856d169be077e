package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"servicedesk/internal/cargo"
	"servicedesk/internal/config"
	"servicedesk/internal/logging"
	"servicedesk/internal/metrics"
	"servicedesk/internal/repair"
	"servicedesk/internal/services"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	metrics *metrics.Metrics
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
		metrics:    metrics.New(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// withStore opens the cargo database for the duration of fn and exports
// metrics afterwards, whether or not fn failed.
func (c *commandContext) withStore(ctx context.Context, fn func(*cargo.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := cargo.Open(cfg)
	if err != nil {
		return fmt.Errorf("open cargo database: %w", err)
	}
	defer store.Close()

	runErr := fn(store)
	c.exportMetrics(ctx, cfg, store)
	return runErr
}

func (c *commandContext) exportMetrics(ctx context.Context, cfg *config.Config, store *cargo.Store) {
	path := strings.TrimSpace(cfg.Metrics.TextfilePath)
	if path == "" {
		return
	}
	logger, _ := c.ensureLogger()
	if stats, err := store.Stats(ctx); err == nil {
		counts := make(map[string]int, len(stats))
		for status, n := range stats {
			counts[string(status)] = n
		}
		c.metrics.SetCargoCounts(counts)
	}
	if err := c.metrics.WriteTextfile(path); err != nil && logger != nil {
		logging.WarnWithContext(logger, "metrics export failed", "metrics_export_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "textfile collector shows stale values"),
			logging.String(logging.FieldErrorHint, "check metrics.textfile_path permissions"),
		)
	}
}

// newService builds the repair service over store using the loaded config.
func (c *commandContext) newService(store *cargo.Store, opts ...repair.Option) (*repair.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	base := []repair.Option{
		repair.WithLogger(logger),
		repair.WithMetrics(c.metrics),
		repair.WithLock(cfg.LockPath(), cfg.LockTimeout()),
		repair.WithDefaultTechnician(cfg.Repair.DefaultTechnician),
	}
	return repair.New(store, append(base, opts...)...), nil
}

// resolveCargoID accepts a numeric record ID or a tracking number.
func resolveCargoID(ctx context.Context, store *cargo.Store, value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, usageError("resolve cargo", "cargo id or tracking number is required")
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		if id <= 0 {
			return 0, usageError("resolve cargo", fmt.Sprintf("invalid cargo id %d", id))
		}
		return id, nil
	}
	record, err := store.FindByTracking(ctx, value)
	if err != nil {
		return 0, err
	}
	return record.ID, nil
}

func usageError(operation, message string) error {
	return services.Wrap(services.ErrValidation, "cli", operation, message, nil)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
