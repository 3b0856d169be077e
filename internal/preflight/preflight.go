package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"servicedesk/internal/cargo"
	"servicedesk/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every applicable check for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	switch cfg.Photos.Backend {
	case config.PhotoBackendLocal:
		results = append(results, CheckDirectoryAccess("Photo directory", cfg.Paths.PhotoDir))
	case config.PhotoBackendS3:
		results = append(results, CheckS3Settings(cfg.Photos))
	}
	results = append(results,
		CheckDatabase(ctx, cfg),
		CheckRepairLock(cfg.LockPath()),
	)
	return results
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatabase opens the cargo database and summarizes its contents.
func CheckDatabase(ctx context.Context, cfg *config.Config) Result {
	const name = "Cargo database"

	path := cfg.DatabasePath()
	if _, err := os.Stat(path); err == nil {
		if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
		}
	}

	store, err := cargo.Open(cfg)
	if err != nil {
		if errors.Is(err, cargo.ErrSchemaMismatch) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: schema mismatch, move the file aside to recreate it)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", store.Path(), summarizeStats(stats))}
}

// CheckRepairLock reports whether another process currently holds the repair lock.
func CheckRepairLock(path string) Result {
	const name = "Repair lock"

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !locked {
		return Result{Name: name, Detail: fmt.Sprintf("%s (held by another servicedesk process)", path)}
	}
	_ = lock.Unlock()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (free)", path)}
}

// CheckS3Settings validates the S3 photo settings without contacting AWS.
func CheckS3Settings(cfg config.Photos) Result {
	const name = "Photo bucket"

	if cfg.Bucket == "" {
		return Result{Name: name, Detail: "bucket not configured"}
	}
	source := "default AWS credential chain"
	if cfg.AccessKeyID != "" {
		source = "static credentials"
	}
	target := fmt.Sprintf("s3://%s (%s)", cfg.Bucket, cfg.Region)
	if cfg.Endpoint != "" {
		target = fmt.Sprintf("%s/%s", cfg.Endpoint, cfg.Bucket)
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s using %s", target, source)}
}

func summarizeStats(stats map[cargo.Status]int) string {
	if len(stats) == 0 {
		return "empty"
	}
	total := 0
	parts := make([]string, 0, len(stats))
	for status, count := range stats {
		total += count
		parts = append(parts, fmt.Sprintf("%s=%d", status, count))
	}
	sort.Strings(parts)
	return fmt.Sprintf("%d records: %s", total, strings.Join(parts, ", "))
}
