package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0}

// WritePhoto writes a fake JPEG of roughly size bytes and returns its contents.
// A size smaller than the header still writes the header.
func WritePhoto(t testing.TB, path string, size int) []byte {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	body := bytes.Repeat([]byte{0x42}, max(size-len(jpegHeader), 0))
	data := append(append([]byte(nil), jpegHeader...), body...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return data
}
