package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/arkilian/schemaengine/internal/backup"
	"github.com/arkilian/schemaengine/internal/engine"
)

// ParseMode maps the configuration's string Mode to engine.Mode.
func ParseMode(mode string) (engine.Mode, error) {
	switch strings.ToLower(mode) {
	case "automatic":
		return engine.Automatic, nil
	case "immutable":
		return engine.Immutable, nil
	case "readonly", "read-only":
		return engine.ReadOnly, nil
	case "softresetfile", "soft-reset-file":
		return engine.SoftResetFile, nil
	case "hardresetfile", "hard-reset-file":
		return engine.HardResetFile, nil
	case "additivediscovered", "additive-discovered":
		return engine.AdditiveDiscovered, nil
	case "additiveexplicit", "additive-explicit":
		return engine.AdditiveExplicit, nil
	case "manual":
		return engine.Manual, nil
	default:
		return 0, fmt.Errorf("config: unknown mode %q", mode)
	}
}

// BuildArchiver constructs the backup.Archiver named by cfg.Archive.Type.
func BuildArchiver(ctx context.Context, cfg ArchiveConfig) (backup.Archiver, error) {
	switch cfg.Type {
	case "", "none":
		return backup.NoopArchiver{}, nil
	case "local":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("config: archive.dir is required when archive.type is local")
		}
		return backup.NewLocalArchiver(cfg.Dir)
	case "s3":
		return backup.NewS3Archiver(ctx, backup.S3Config{
			Bucket:   cfg.S3.Bucket,
			Region:   cfg.S3.Region,
			Prefix:   cfg.S3.Prefix,
			Endpoint: cfg.S3.Endpoint,
		})
	default:
		return nil, fmt.Errorf("config: unknown archive type %q", cfg.Type)
	}
}
