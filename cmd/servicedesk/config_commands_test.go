package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"servicedesk/internal/config"
)

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err := runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, env, "config", "init", "--path", target)
	if exitCode(err) != exitValidation {
		t.Fatalf("expected refusal to overwrite, got %v", err)
	}
	if _, _, err := runCLI(t, env, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# Config path: "+env.configPath)
	requireContains(t, out, env.cfg.Paths.DataDir)
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Photos.Backend = config.PhotoBackendS3
	env.cfg.Photos.Bucket = "photos"
	env.cfg.Photos.AccessKeyID = "AKIAEXAMPLE"
	env.cfg.Photos.SecretAccessKey = "super-secret"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, env, "--json", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireNotContains(t, out, "super-secret")
	requireNotContains(t, out, "AKIAEXAMPLE")

	var report configReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !report.Exists || report.Config.Photos.Bucket != "photos" || report.Config.Photos.SecretAccessKey != redacted {
		t.Fatalf("unexpected report %+v", report)
	}
}
