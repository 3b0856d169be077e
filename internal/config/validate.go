package config

import (
	"errors"
	"fmt"
	"log/slog"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateRepair(); err != nil {
		return err
	}
	if err := c.validatePhotos(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return fmt.Errorf("logging.level %q is not a recognized level", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateRepair() error {
	if c.Repair.LockTimeoutSeconds < 0 {
		return errors.New("repair.lock_timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validatePhotos() error {
	switch c.Photos.Backend {
	case PhotoBackendLocal:
		if c.Paths.PhotoDir == "" {
			return errors.New("paths.photo_dir must be set when photos.backend is local")
		}
	case PhotoBackendS3:
		if c.Photos.Bucket == "" {
			return errors.New("photos.bucket must be set when photos.backend is s3")
		}
		if (c.Photos.AccessKeyID == "") != (c.Photos.SecretAccessKey == "") {
			return errors.New("photos.access_key_id and photos.secret_access_key must be set together")
		}
	default:
		return fmt.Errorf("photos.backend %q must be %q or %q", c.Photos.Backend, PhotoBackendLocal, PhotoBackendS3)
	}
	return nil
}
