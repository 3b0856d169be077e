package photostore

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"servicedesk/internal/config"
	"servicedesk/internal/textutil"
)

// Store persists photo bytes under key and returns a URL for them.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// New returns the backend selected by cfg.Photos.Backend.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("photostore: config is nil")
	}
	switch cfg.Photos.Backend {
	case config.PhotoBackendLocal:
		return NewLocal(cfg.Paths.PhotoDir), nil
	case config.PhotoBackendS3:
		return NewS3(ctx, cfg.Photos)
	default:
		return nil, fmt.Errorf("photostore: unsupported backend %q", cfg.Photos.Backend)
	}
}

// ObjectKey builds cargo/<tracking>/<uuid><ext> for an uploaded file name.
// The extension is lower-cased and dropped when it is not plain alphanumerics.
func ObjectKey(tracking, filename string) string {
	return path.Join("cargo", textutil.SanitizeToken(tracking), uuid.NewString()+extension(filename))
}

// ContentType guesses the MIME type from the file name.
func ContentType(filename string) string {
	if ct := mime.TypeByExtension(extension(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(textutil.SanitizeFileName(filename)))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || !filepath.IsLocal(filepath.FromSlash(key)) {
		return fmt.Errorf("photostore: invalid object key %q", key)
	}
	return nil
}
