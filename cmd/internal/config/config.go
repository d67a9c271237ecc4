package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreDB     = "db"
	SessionStoreRedis  = "redis"

	AttachBackendDisk = "disk"
	AttachBackendS3   = "s3"
)

// Config holds every runtime setting of the notes server. Values come from the
// process environment (after .env / SSM loading), see Load.
type Config struct {
	Addr     string `mapstructure:"NOTES_ADDR"`
	DBFile   string `mapstructure:"NOTES_DB_FILE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Feature flags replacing the per-variant programs.
	RequireAuth        bool `mapstructure:"NOTES_REQUIRE_AUTH"`
	EnforceOwnership   bool `mapstructure:"NOTES_ENFORCE_OWNERSHIP"`
	LinksEnabled       bool `mapstructure:"NOTES_LINKS_ENABLED"`
	AttachmentsEnabled bool `mapstructure:"NOTES_ATTACHMENTS_ENABLED"`

	AttachDir      string        `mapstructure:"ATTACH_DIR"`
	AttachBackend  string        `mapstructure:"NOTES_ATTACH_BACKEND"`
	MaxUploadBytes int64         `mapstructure:"NOTES_MAX_UPLOAD_BYTES"`
	SweepInterval  time.Duration `mapstructure:"NOTES_SWEEP_INTERVAL"`
	OrphanGrace    time.Duration `mapstructure:"NOTES_ORPHAN_GRACE"`
	S3Region       string        `mapstructure:"AWS_S3_REGION"`
	S3Bucket       string        `mapstructure:"S3_BUCKET_NAME"`

	SessionStore  string `mapstructure:"NOTES_SESSION_STORE"`
	RedisAddr     string `mapstructure:"NOTES_REDIS_ADDR"`
	RedisPassword string `mapstructure:"NOTES_REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"NOTES_REDIS_DB"`

	// Realtime fan-out is disabled while WSEndpoint is empty.
	WSEndpoint string `mapstructure:"NOTES_WS_ENDPOINT"`
	WSRegion   string `mapstructure:"NOTES_WS_REGION"`
}

var defaults = map[string]any{
	"NOTES_ADDR":                ":8000",
	"NOTES_DB_FILE":             "notes.db",
	"LOG_LEVEL":                 "info",
	"NOTES_REQUIRE_AUTH":        true,
	"NOTES_ENFORCE_OWNERSHIP":   true,
	"NOTES_LINKS_ENABLED":       true,
	"NOTES_ATTACHMENTS_ENABLED": true,
	"ATTACH_DIR":                "attachments",
	"NOTES_ATTACH_BACKEND":      AttachBackendDisk,
	"NOTES_MAX_UPLOAD_BYTES":    int64(30 * 1024 * 1024),
	"NOTES_SWEEP_INTERVAL":      time.Hour,
	"NOTES_ORPHAN_GRACE":        15 * time.Minute,
	"AWS_S3_REGION":             "",
	"S3_BUCKET_NAME":            "",
	"NOTES_SESSION_STORE":       SessionStoreMemory,
	"NOTES_REDIS_ADDR":          "localhost:6379",
	"NOTES_REDIS_PASSWORD":      "",
	"NOTES_REDIS_DB":            0,
	"NOTES_WS_ENDPOINT":         "",
	"NOTES_WS_REGION":           "us-east-2",
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// defaults are static, this can only be a programming error
		panic(err)
	}
	return cfg
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	v := newViper()
	v.AutomaticEnv()

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects flag combinations the server cannot honor.
func (c *Config) Validate() error {
	if c.EnforceOwnership && !c.RequireAuth {
		return errors.New("NOTES_ENFORCE_OWNERSHIP requires NOTES_REQUIRE_AUTH")
	}

	switch c.SessionStore {
	case SessionStoreMemory, SessionStoreDB, SessionStoreRedis:
	default:
		return fmt.Errorf("unknown NOTES_SESSION_STORE %q", c.SessionStore)
	}

	switch c.AttachBackend {
	case AttachBackendDisk:
		if c.AttachmentsEnabled && strings.TrimSpace(c.AttachDir) == "" {
			return errors.New("ATTACH_DIR must not be empty")
		}
	case AttachBackendS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET_NAME is required for the s3 attachment backend")
		}
	default:
		return fmt.Errorf("unknown NOTES_ATTACH_BACKEND %q", c.AttachBackend)
	}

	if c.MaxUploadBytes <= 0 {
		return errors.New("NOTES_MAX_UPLOAD_BYTES must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("NOTES_SWEEP_INTERVAL must be positive")
	}
	if c.OrphanGrace < 0 {
		return errors.New("NOTES_ORPHAN_GRACE must not be negative")
	}
	return nil
}

// RealtimeEnabled reports whether note events are pushed to websocket clients.
func (c *Config) RealtimeEnabled() bool {
	return c.WSEndpoint != ""
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))
	cfg.AttachBackend = strings.ToLower(strings.TrimSpace(cfg.AttachBackend))
	return &cfg, nil
}
