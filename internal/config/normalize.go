package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeRepair()
	c.normalizePhotos()
	c.Metrics.TextfilePath = strings.TrimSpace(c.Metrics.TextfilePath)
	if c.Metrics.TextfilePath != "" {
		expanded, err := expandPath(c.Metrics.TextfilePath)
		if err != nil {
			return fmt.Errorf("metrics.textfile_path: %w", err)
		}
		c.Metrics.TextfilePath = expanded
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.PhotoDir) == "" {
		c.Paths.PhotoDir = defaultPhotoDir
	}
	if c.Paths.PhotoDir, err = expandPath(c.Paths.PhotoDir); err != nil {
		return fmt.Errorf("paths.photo_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeRepair() {
	c.Repair.DefaultTechnician = strings.TrimSpace(c.Repair.DefaultTechnician)
	if c.Repair.LockTimeoutSeconds == 0 {
		c.Repair.LockTimeoutSeconds = defaultLockTimeoutSeconds
	}
}

func (c *Config) normalizePhotos() {
	c.Photos.Backend = strings.ToLower(strings.TrimSpace(c.Photos.Backend))
	if c.Photos.Backend == "" {
		c.Photos.Backend = defaultPhotoBackend
	}
	c.Photos.Bucket = strings.TrimSpace(c.Photos.Bucket)
	c.Photos.Endpoint = strings.TrimRight(strings.TrimSpace(c.Photos.Endpoint), "/")
	c.Photos.PublicDomain = strings.TrimRight(strings.TrimSpace(c.Photos.PublicDomain), "/")

	c.Photos.Region = strings.TrimSpace(c.Photos.Region)
	if c.Photos.Region == "" {
		if value, ok := os.LookupEnv("AWS_REGION"); ok {
			c.Photos.Region = strings.TrimSpace(value)
		}
	}
	if c.Photos.Region == "" {
		c.Photos.Region = defaultS3Region
	}

	c.Photos.AccessKeyID = strings.TrimSpace(c.Photos.AccessKeyID)
	if c.Photos.AccessKeyID == "" {
		if value, ok := os.LookupEnv("SERVICEDESK_S3_ACCESS_KEY_ID"); ok {
			c.Photos.AccessKeyID = strings.TrimSpace(value)
		}
	}
	c.Photos.SecretAccessKey = strings.TrimSpace(c.Photos.SecretAccessKey)
	if c.Photos.SecretAccessKey == "" {
		if value, ok := os.LookupEnv("SERVICEDESK_S3_SECRET_ACCESS_KEY"); ok {
			c.Photos.SecretAccessKey = strings.TrimSpace(value)
		}
	}
}
