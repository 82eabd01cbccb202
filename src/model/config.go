package model

import "time"

// ----------------------------------------------------
// ================ Config ================

// LogConfig controls the zerolog setup
type LogConfig struct {
	Level      string `envconfig:"LEVEL" default:"info"`
	Format     string `envconfig:"FORMAT" default:"json"`   // json, console
	Output     string `envconfig:"OUTPUT" default:"stdout"` // stdout, stderr, file
	FilePath   string `envconfig:"FILE_PATH" default:"logs/portal.log"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"rfc3339"` // rfc3339, unix, iso8601
}

// APIConfig points at the school backend
type APIConfig struct {
	BaseURL string        `envconfig:"BASE_URL" default:"http://localhost:5000"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"15s"`
}

// CacheConfig selects and sizes the attendance snapshot store
type CacheConfig struct {
	Backend    string        `envconfig:"BACKEND" default:"memory"` // memory, file, redis
	Dir        string        `envconfig:"DIR" default:"data/attendance_cache"`
	MaxAge     time.Duration `envconfig:"MAX_AGE" default:"10m"`
	Retention  time.Duration `envconfig:"RETENTION" default:"0"` // redis key TTL, 0 keeps keys until evicted
	QuotaBytes int           `envconfig:"QUOTA_BYTES" default:"5242880"`
}

// ServerConfig holds the HTTP facade settings
type ServerConfig struct {
	Port       int    `envconfig:"PORT" default:"3000"`
	ConfigPath string `envconfig:"CONFIG_PATH" default:"config.yaml"`
}
