// Package config loads usercore settings from built-in defaults overlaid with
// USERCORE_* environment variables.
package config

import (
	"fmt"
	"sort"
	"strings"
	"usercore/internal/logger"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix shared by every supported environment variable.
const EnvPrefix = "USERCORE_"

// Config is the root configuration.
type Config struct {
	Storage Storage `koanf:"storage"`
	Blob    Blob    `koanf:"blob"`
	Log     Log     `koanf:"log"`
}

// Storage selects the data context backend.
type Storage struct {
	Driver      string `koanf:"driver"`
	SQLitePath  string `koanf:"sqlite_path"`
	PostgresDSN string `koanf:"postgres_dsn"`
}

// Blob selects where fixture files are read from and written to.
type Blob struct {
	Driver string `koanf:"driver"`
	FSRoot string `koanf:"fs_root"`
	S3     S3     `koanf:"s3"`
}

// S3 holds S3 / MinIO settings used when Blob.Driver is "s3". Without an
// access key the default AWS credential chain is used.
type S3 struct {
	Bucket          string `koanf:"bucket"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	PathStyle       bool   `koanf:"path_style"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	SessionToken    string `koanf:"session_token"`
}

// Log configures the process logger.
type Log struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// Default returns the configuration used when no environment overrides are present.
func Default() Config {
	return Config{
		Storage: Storage{Driver: "sqlite", SQLitePath: "usercore.db"},
		Blob:    Blob{Driver: "fs", FSRoot: "./blobdata", S3: S3{Region: "us-east-1"}},
		Log:     Log{Level: "info"},
	}
}

// envPaths maps each supported variable to its koanf path. Field names contain
// underscores, so the mapping cannot be derived by splitting on "_".
var envPaths = map[string]string{
	"USERCORE_STORAGE_DRIVER":            "storage.driver",
	"USERCORE_STORAGE_SQLITE_PATH":       "storage.sqlite_path",
	"USERCORE_STORAGE_POSTGRES_DSN":      "storage.postgres_dsn",
	"USERCORE_BLOB_DRIVER":               "blob.driver",
	"USERCORE_BLOB_FS_ROOT":              "blob.fs_root",
	"USERCORE_BLOB_S3_BUCKET":            "blob.s3.bucket",
	"USERCORE_BLOB_S3_REGION":            "blob.s3.region",
	"USERCORE_BLOB_S3_ENDPOINT":          "blob.s3.endpoint",
	"USERCORE_BLOB_S3_PATH_STYLE":        "blob.s3.path_style",
	"USERCORE_BLOB_S3_ACCESS_KEY_ID":     "blob.s3.access_key_id",
	"USERCORE_BLOB_S3_SECRET_ACCESS_KEY": "blob.s3.secret_access_key",
	"USERCORE_BLOB_S3_SESSION_TOKEN":     "blob.s3.session_token",
	"USERCORE_LOG_LEVEL":                 "log.level",
	"USERCORE_LOG_JSON":                  "log.json",
}

// EnvVars lists the supported environment variables in sorted order.
func EnvVars() []string {
	out := make([]string, 0, len(envPaths))
	for k := range envPaths {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Load builds the configuration from defaults and the process environment,
// then validates it.
func Load() (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			path, ok := envPaths[key]
			if !ok {
				return "", nil
			}
			return path, strings.TrimSpace(value)
		},
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var (
	storageDrivers = []string{"memory", "sqlite", "postgres"}
	blobDrivers    = []string{"fs", "s3", "memory"}
)

// Validate rejects unknown drivers and log levels.
func (c Config) Validate() error {
	if !oneOf(c.Storage.Driver, storageDrivers) {
		return fmt.Errorf("unknown storage driver %q (want one of %s)", c.Storage.Driver, strings.Join(storageDrivers, ", "))
	}
	if !oneOf(c.Blob.Driver, blobDrivers) {
		return fmt.Errorf("unknown blob driver %q (want one of %s)", c.Blob.Driver, strings.Join(blobDrivers, ", "))
	}
	if c.Blob.Driver == "s3" && c.Blob.S3.Bucket == "" {
		return fmt.Errorf("%sBLOB_S3_BUCKET required for s3 driver", EnvPrefix)
	}
	if (c.Blob.S3.AccessKeyID == "") != (c.Blob.S3.SecretAccessKey == "") {
		return fmt.Errorf("%sBLOB_S3_ACCESS_KEY_ID and %sBLOB_S3_SECRET_ACCESS_KEY must be set together", EnvPrefix, EnvPrefix)
	}
	if !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
