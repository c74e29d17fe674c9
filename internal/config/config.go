// Package config provides unified configuration for the schema evolution
// CLI and the library entry points that host it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration for a single run of the schema engine
// against one database file.
type Config struct {
	// DatabasePath is the SQLite file the engine opens and evolves.
	DatabasePath string `json:"database_path" yaml:"database_path"`

	// SchemaPath is the YAML/JSON file describing the target schema.
	SchemaPath string `json:"schema_path" yaml:"schema_path"`

	// TargetSchemaVersion is the version to stamp the database with once
	// the target schema has been applied.
	TargetSchemaVersion uint64 `json:"target_schema_version" yaml:"target_schema_version"`

	// Mode is the engine mode: automatic, immutable, read-only,
	// soft-reset-file, hard-reset-file, additive-discovered,
	// additive-explicit, or manual. See internal/engine.Mode.
	Mode string `json:"mode" yaml:"mode"`

	// HandleBacklinksAutomatically mirrors engine.Options of the same
	// name.
	HandleBacklinksAutomatically bool `json:"handle_backlinks_automatically" yaml:"handle_backlinks_automatically"`

	// OpenTimeout is loaded from configuration (default 5s) but nothing
	// reads it: store.Open takes no timeout and always uses SQLite's
	// 5-second busy timeout.
	OpenTimeout time.Duration `json:"open_timeout" yaml:"open_timeout"`

	// Archive configures where ErrResetRequired snapshots land.
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}

// ArchiveConfig selects and configures the backup.Archiver the
// orchestrator uses ahead of a file reset.
type ArchiveConfig struct {
	// Type is "none", "local", or "s3".
	Type string `json:"type" yaml:"type"`

	// Dir is the local archive directory (for type "local").
	Dir string `json:"dir" yaml:"dir"`

	// S3 configuration (for type "s3").
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 archive destination configuration.
type S3Config struct {
	Bucket   string `json:"bucket" yaml:"bucket"`
	Region   string `json:"region" yaml:"region"`
	Prefix   string `json:"prefix" yaml:"prefix"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		Mode:        "automatic",
		OpenTimeout: 5 * time.Second,
		Archive: ArchiveConfig{
			Type: "none",
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.SchemaPath == "" {
		return fmt.Errorf("schema_path is required")
	}

	switch strings.ToLower(c.Mode) {
	case "automatic", "immutable", "readonly", "read-only", "softresetfile", "soft-reset-file",
		"hardresetfile", "hard-reset-file", "additivediscovered", "additive-discovered",
		"additiveexplicit", "additive-explicit", "manual":
	default:
		return fmt.Errorf("invalid mode: %s", c.Mode)
	}

	switch c.Archive.Type {
	case "none", "local":
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return fmt.Errorf("archive.s3.bucket is required when archive.type is s3")
		}
	default:
		return fmt.Errorf("invalid archive type: %s (must be none, local, or s3)", c.Archive.Type)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file, overlaying
// it onto DefaultConfig.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv overlays environment variables, prefixed SCHEMAENGINE_, onto
// cfg.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("SCHEMAENGINE_DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("SCHEMAENGINE_SCHEMA_PATH"); v != "" {
		cfg.SchemaPath = v
	}
	if v := os.Getenv("SCHEMAENGINE_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("SCHEMAENGINE_TARGET_SCHEMA_VERSION"); v != "" {
		var version uint64
		if _, err := fmt.Sscanf(v, "%d", &version); err == nil {
			cfg.TargetSchemaVersion = version
		}
	}
	if v := os.Getenv("SCHEMAENGINE_HANDLE_BACKLINKS_AUTOMATICALLY"); v != "" {
		cfg.HandleBacklinksAutomatically = v == "true" || v == "1"
	}
	if v := os.Getenv("SCHEMAENGINE_ARCHIVE_TYPE"); v != "" {
		cfg.Archive.Type = v
	}
	if v := os.Getenv("SCHEMAENGINE_ARCHIVE_DIR"); v != "" {
		cfg.Archive.Dir = v
	}
	if v := os.Getenv("SCHEMAENGINE_ARCHIVE_S3_BUCKET"); v != "" {
		cfg.Archive.S3.Bucket = v
	}
	if v := os.Getenv("SCHEMAENGINE_ARCHIVE_S3_REGION"); v != "" {
		cfg.Archive.S3.Region = v
	}
}
