package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arkilian/schemaengine/pkg/types"
)

// LocalArchiver writes schema snapshots to the local filesystem, the
// development/test analogue of S3Archiver.
type LocalArchiver struct {
	dir string
}

// NewLocalArchiver creates dir if it does not already exist.
func NewLocalArchiver(dir string) (*LocalArchiver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: create archive dir: %w", err)
	}
	return &LocalArchiver{dir: dir}, nil
}

func (a *LocalArchiver) ArchiveSchema(ctx context.Context, schema types.Schema, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encodeSnapshot(schema, reason)
	if err != nil {
		return fmt.Errorf("backup: encode snapshot: %w", err)
	}
	path := filepath.Join(a.dir, snapshotKey("", time.Now()))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("backup: write snapshot %s: %w", path, err)
	}
	return nil
}
