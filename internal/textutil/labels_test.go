package textutil

import (
	"reflect"
	"testing"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Replace   screen\t", "Replace screen"},
		{"Café repair", "Café repair"},
		{"line\nbreak", "line break"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeLabel(tt.in); got != tt.want {
			t.Errorf("NormalizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeLabelsDropsBlanks(t *testing.T) {
	if got := NormalizeLabels(nil); got != nil {
		t.Fatalf("expected nil for nil input, got %#v", got)
	}
	got := NormalizeLabels([]string{" Battery ", "", "  ", "Clean  port"})
	want := []string{"Battery", "Clean port"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeLabels = %#v, want %#v", got, want)
	}
	if got := NormalizeLabels([]string{" "}); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestDisplayStatus(t *testing.T) {
	tests := map[string]string{
		"in_progress": "In Progress",
		"PENDING":     "Pending",
		"in-repair":   "In Repair",
		"":            "",
	}
	for in, want := range tests {
		if got := DisplayStatus(in); got != want {
			t.Errorf("DisplayStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeHelpers(t *testing.T) {
	if got := SanitizeFileName(` front: "cracked"?.jpg `); got != "front- cracked.jpg" {
		t.Fatalf("SanitizeFileName = %q", got)
	}
	if got := SanitizeToken("TRK 10/01"); got != "trk_10_01" {
		t.Fatalf("SanitizeToken = %q", got)
	}
	if got := SanitizeToken("  "); got != "unknown" {
		t.Fatalf("SanitizeToken blank = %q", got)
	}
}
