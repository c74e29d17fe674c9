package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/arkilian/schemaengine/internal/apply"
	"github.com/arkilian/schemaengine/internal/backup"
	"github.com/arkilian/schemaengine/internal/differ"
	"github.com/arkilian/schemaengine/internal/schemaerr"
	"github.com/arkilian/schemaengine/internal/store"
	"github.com/arkilian/schemaengine/internal/verify"
	"github.com/arkilian/schemaengine/pkg/types"
)

// Mode selects the legality rules and applier the orchestrator uses.
type Mode int

const (
	Automatic Mode = iota
	Immutable
	ReadOnly
	SoftResetFile
	HardResetFile
	AdditiveDiscovered
	AdditiveExplicit
	Manual
)

func (m Mode) String() string {
	switch m {
	case Automatic:
		return "Automatic"
	case Immutable:
		return "Immutable"
	case ReadOnly:
		return "ReadOnly"
	case SoftResetFile:
		return "SoftResetFile"
	case HardResetFile:
		return "HardResetFile"
	case AdditiveDiscovered:
		return "AdditiveDiscovered"
	case AdditiveExplicit:
		return "AdditiveExplicit"
	case Manual:
		return "Manual"
	default:
		return "Unknown"
	}
}

// ErrResetRequired is returned instead of applying anything when a
// SoftResetFile/HardResetFile mode discovers a migration-requiring
// difference: the engine never deletes the caller's file itself, it
// only signals that the caller must do so and recreate it from target.
var ErrResetRequired = errors.New("engine: persisted schema requires a migration; file reset required")

// MigrationFunc is the caller-supplied migration callback. It runs
// inside the same transaction as the rest of apply_schema_changes and
// may call internal/rename.RenameProperty or mutate data through its own
// side channel; it must not commit or roll back txn.
type MigrationFunc func(ctx context.Context) error

// Options bundles the apply_schema_changes inputs beyond the
// transaction and target schema, since the orchestrator takes enough
// parameters that a flat positional signature would be unreadable.
type Options struct {
	SchemaVersion                     uint64
	TargetSchemaVersion               uint64
	Mode                              Mode
	Changes                           []types.SchemaChange
	HandleBacklinksAutomatically      bool
	MigrationFunc                     MigrationFunc
	SetSchemaVersionOnVersionDecrease bool
	// Archiver receives the discarded schema before ErrResetRequired is
	// returned for SoftResetFile/HardResetFile. Defaults to a no-op.
	Archiver backup.Archiver
}

// ApplySchemaChanges is the engine's single entry point: given a
// precomputed diff against target, it verifies and applies it according
// to mode, running the full verify-then-apply state machine for a
// schema transition.
func ApplySchemaChanges(ctx context.Context, txn store.Transaction, target *types.Schema, opts Options) error {
	logger := txn.Logger()
	if opts.SchemaVersion == NotVersioned {
		logger.Debugf("creating schema version %d in mode %q", opts.TargetSchemaVersion, opts.Mode)
	} else {
		logger.Debugf("migrating from schema version %d to %d in mode %q", opts.SchemaVersion, opts.TargetSchemaVersion, opts.Mode)
	}

	if _, err := EnsureMetadataTable(ctx, txn); err != nil {
		return err
	}

	archiver := opts.Archiver
	if archiver == nil {
		archiver = backup.NoopArchiver{}
	}

	isAdditive := opts.Mode == AdditiveDiscovered || opts.Mode == AdditiveExplicit
	if !isAdditive && opts.SchemaVersion != NotVersioned && opts.TargetSchemaVersion < opts.SchemaVersion {
		return schemaerr.InvalidSchemaVersion(opts.SchemaVersion, opts.TargetSchemaVersion, false)
	}

	if opts.Mode == Immutable || opts.Mode == ReadOnly {
		if err := verify.CompatibleForImmutableAndReadonly(opts.Changes); err != nil {
			return err
		}
	}

	if opts.Mode == SoftResetFile || opts.Mode == HardResetFile {
		if types.NeedsMigration(opts.Changes) {
			old, err := SchemaFromGroup(ctx, txn)
			if err != nil {
				return err
			}
			if err := archiver.ArchiveSchema(ctx, old, fmt.Sprintf("%s: migration required", opts.Mode)); err != nil {
				return fmt.Errorf("engine: archive schema before reset: %w", err)
			}
			return ErrResetRequired
		}
		// No migration needed: behaves like Automatic/Immutable at equal
		// versions — apply whatever the mode's supported automatic set is.
		if err := apply.ApplyNonMigrationChanges(ctx, txn, opts.Changes); err != nil {
			return err
		}
		return SetSchemaKeys(ctx, txn, target)
	}

	if opts.Mode == AdditiveDiscovered || opts.Mode == AdditiveExplicit {
		setSchema := opts.SchemaVersion < opts.TargetSchemaVersion ||
			opts.SchemaVersion == NotVersioned ||
			opts.SetSchemaVersionOnVersionDecrease

		const updateIndexes = true
		if _, err := verify.ValidAdditiveChanges(opts.Changes, updateIndexes); err != nil {
			return err
		}
		if err := apply.ApplyAdditiveChanges(ctx, txn, opts.Changes, updateIndexes); err != nil {
			return err
		}
		if setSchema {
			if err := SetSchemaVersion(ctx, txn, opts.TargetSchemaVersion); err != nil {
				return err
			}
		}
		return SetSchemaKeys(ctx, txn, target)
	}

	if opts.SchemaVersion == NotVersioned {
		if opts.Mode != ReadOnly {
			if err := apply.CreateInitialTables(ctx, txn, opts.Changes); err != nil {
				return err
			}
		}
		if err := SetSchemaVersion(ctx, txn, opts.TargetSchemaVersion); err != nil {
			return err
		}
		return SetSchemaKeys(ctx, txn, target)
	}

	callMigration := func() error {
		if opts.MigrationFunc == nil {
			return nil
		}
		logger.Debugf("calling migration function")
		return opts.MigrationFunc(ctx)
	}

	if opts.Mode == Manual {
		if err := callMigration(); err != nil {
			return err
		}
		reread, err := SchemaFromGroup(ctx, txn)
		if err != nil {
			return err
		}
		if err := verify.NoChangesRequired(differ.Diff(reread, *target, differ.ModeDefault)); err != nil {
			return err
		}
		if opts.MigrationFunc == nil && opts.TargetSchemaVersion != opts.SchemaVersion {
			return schemaerr.InvalidSchemaVersion(opts.SchemaVersion, opts.TargetSchemaVersion, true)
		}
		if err := txn.ValidatePrimaryColumns(ctx); err != nil {
			return schemaerr.SchemaValidationFailed(err)
		}
		if err := SetSchemaKeys(ctx, txn, target); err != nil {
			return err
		}
		return SetSchemaVersion(ctx, txn, opts.TargetSchemaVersion)
	}

	if opts.SchemaVersion == opts.TargetSchemaVersion {
		if err := apply.ApplyNonMigrationChanges(ctx, txn, opts.Changes); err != nil {
			return err
		}
		return SetSchemaKeys(ctx, txn, target)
	}

	oldSchema, err := SchemaFromGroup(ctx, txn)
	if err != nil {
		return err
	}
	if err := apply.ApplyPreMigrationChanges(ctx, txn, opts.Changes); err != nil {
		return err
	}

	if opts.MigrationFunc != nil {
		if err := SetSchemaKeys(ctx, txn, target); err != nil {
			return err
		}
		if err := callMigration(); err != nil {
			return err
		}

		reread, err := SchemaFromGroup(ctx, txn)
		if err != nil {
			return err
		}
		postChanges := differ.Diff(reread, *target, differ.ModeDefault)
		if err := apply.ApplyPostMigrationChanges(ctx, txn, postChanges, oldSchema, true, opts.HandleBacklinksAutomatically); err != nil {
			return err
		}
		if err := txn.ValidatePrimaryColumns(ctx); err != nil {
			return schemaerr.SchemaValidationFailed(err)
		}
	} else {
		if opts.Mode == Automatic && types.NeedsMigration(opts.Changes) {
			return verify.NoMigrationRequired(opts.Changes)
		}
		if err := apply.ApplyPostMigrationChanges(ctx, txn, opts.Changes, types.Schema{}, false, opts.HandleBacklinksAutomatically); err != nil {
			return err
		}
	}

	if err := SetSchemaVersion(ctx, txn, opts.TargetSchemaVersion); err != nil {
		return err
	}
	return SetSchemaKeys(ctx, txn, target)
}
