package config

const (
	defaultDataDir            = "~/.local/share/servicedesk"
	defaultLogDir             = "~/.local/share/servicedesk/logs"
	defaultPhotoDir           = "~/.local/share/servicedesk/photos"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLockTimeoutSeconds = 10
	defaultPhotoBackend       = PhotoBackendLocal
	defaultS3Region           = "us-east-1"
	defaultConfigPath         = "~/.config/servicedesk/config.toml"
	projectConfigName         = "servicedesk.toml"
	databaseFileName          = "servicedesk.db"
	lockFileName              = "repair.lock"
)

// Photo storage backends.
const (
	PhotoBackendLocal = "local"
	PhotoBackendS3    = "s3"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			PhotoDir: defaultPhotoDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Repair: Repair{
			LockTimeoutSeconds: defaultLockTimeoutSeconds,
		},
		Photos: Photos{
			Backend: defaultPhotoBackend,
		},
	}
}
