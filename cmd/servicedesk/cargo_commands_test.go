package main

import (
	"encoding/json"
	"errors"
	"testing"

	"servicedesk/internal/cargo"
	"servicedesk/internal/services"
)

func TestCargoAddListShowRemove(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "cargo", "add", "--tracking", "zx-100", "--customer", "Dana", "--device", "Laptop", "--notes", "Fan noise")
	if err != nil {
		t.Fatalf("cargo add: %v", err)
	}
	requireContains(t, out, "Registered cargo 1 (ZX-100)")

	if _, _, err := runCLI(t, env, "cargo", "add", "--tracking", "ZX-200", "--customer", "Lee"); err != nil {
		t.Fatalf("cargo add second: %v", err)
	}

	out, _, err = runCLI(t, env, "cargo", "list")
	if err != nil {
		t.Fatalf("cargo list: %v", err)
	}
	requireContains(t, out, "ZX-100")
	requireContains(t, out, "ZX-200")
	requireContains(t, out, "Received")

	out, _, err = runCLI(t, env, "--json", "cargo", "list", "--status", "in-repair")
	if err != nil {
		t.Fatalf("cargo list --status: %v", err)
	}
	var records []cargo.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode list json: %v\n%s", err, out)
	}
	if len(records) != 0 {
		t.Fatalf("expected no in_repair records, got %d", len(records))
	}

	out, _, err = runCLI(t, env, "cargo", "show", "zx-100")
	if err != nil {
		t.Fatalf("cargo show: %v", err)
	}
	requireContains(t, out, "Cargo 1 (ZX-100)")
	requireContains(t, out, "Fan noise")
	requireContains(t, out, "No repair recorded")

	out, _, err = runCLI(t, env, "cargo", "status", "2", "Shipped")
	if err != nil {
		t.Fatalf("cargo status: %v", err)
	}
	requireContains(t, out, "Cargo 2 is now Shipped")

	if _, _, err := runCLI(t, env, "cargo", "remove", "ZX-200"); err != nil {
		t.Fatalf("cargo remove: %v", err)
	}
	_, _, err = runCLI(t, env, "cargo", "show", "2")
	if !errors.Is(err, cargo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
	if exitCode(err) != exitNotFound {
		t.Fatalf("expected not-found exit code, got %d", exitCode(err))
	}
}

func TestCargoCommandValidation(t *testing.T) {
	env := setupCLITestEnv(t)

	cases := []struct {
		name string
		args []string
	}{
		{"unknown status filter", []string{"cargo", "list", "--status", "lost"}},
		{"unknown status value", []string{"cargo", "status", "1", "lost"}},
		{"marker in notes", []string{"cargo", "add", "--tracking", "A1", "--notes", "[[REPAIR_META]]{}"}},
		{"whitespace tracking", []string{"cargo", "add", "--tracking", "A 1"}},
		{"zero id", []string{"cargo", "show", "0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runCLI(t, env, tc.args...)
			if services.Kind(err) != services.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if _, _, err := runCLI(t, env, "cargo", "add", "--tracking", "DUP-1"); err != nil {
		t.Fatalf("cargo add: %v", err)
	}
	_, _, err := runCLI(t, env, "cargo", "add", "--tracking", "dup-1")
	if exitCode(err) != exitConflict {
		t.Fatalf("expected conflict exit for duplicate tracking, got %v", err)
	}
}
