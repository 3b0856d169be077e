package photostore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"

	"servicedesk/internal/fileutil"
)

// Local stores photos on the filesystem below Root.
type Local struct {
	Root string
}

// NewLocal returns a Local backend rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{Root: dir}
}

// Put writes body to Root/key atomically. contentType is not persisted.
func (l *Local) Put(ctx context.Context, key, _ string, body io.Reader) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	root, err := filepath.Abs(l.Root)
	if err != nil {
		return "", fmt.Errorf("photostore: resolve root: %w", err)
	}
	dst := filepath.Join(root, filepath.FromSlash(key))
	if _, err := fileutil.WriteAtomic(dst, body, 0o644); err != nil {
		return "", fmt.Errorf("photostore: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(dst)}).String(), nil
}
