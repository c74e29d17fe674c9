// Package verify implements the per-mode legality predicates over a
// diffed change list: which SchemaChange variants a given operating mode
// permits, and the structured errors raised when it doesn't.
package verify

import (
	"fmt"

	"github.com/arkilian/schemaengine/internal/schemaerr"
	"github.com/arkilian/schemaengine/pkg/types"
)

// NeedsMigration reports whether any change in the list requires a
// migration. Re-exported from pkg/types for callers that only import
// this package.
func NeedsMigration(changes []types.SchemaChange) bool {
	return types.NeedsMigration(changes)
}

// NoChangesRequired verifies that changes is empty, the post-Manual-
// callback invariant ("the persisted schema must exactly match target").
func NoChangesRequired(changes []types.SchemaChange) error {
	return verifyNoErrors(schemaerr.KindSchemaMismatch, changes, explainAll)
}

// NoMigrationRequired verifies that every change in the list is one of
// the changes Automatic/Immutable/ReadOnly can apply without a
// migration: AddTable, AddInitialProperties, AddIndex, RemoveIndex.
func NoMigrationRequired(changes []types.SchemaChange) error {
	return verifyNoErrors(schemaerr.KindSchemaMismatch, changes, func(c types.SchemaChange) string {
		switch c.(type) {
		case types.AddTable, types.AddInitialProperties, types.AddIndex, types.RemoveIndex:
			return ""
		default:
			return types.ExplainChange(c)
		}
	})
}

// ValidAdditiveChanges verifies the legal set for AdditiveDiscovered /
// AdditiveExplicit: {AddTable, AddInitialProperties, AddProperty,
// RemoveProperty, AddIndex, RemoveIndex}. RemoveProperty is tolerated
// (legal, but never applied). It returns did_change — true iff any
// AddTable, AddInitialProperties or AddProperty occurred, or any index
// change occurred and updateIndexes is true; a RemoveProperty alone does
// not set it.
//
// This deliberately conflates two signals (non-index changes, and index
// changes when updateIndexes is set); callers gate notification on it,
// so the semantics must not be "improved." See DESIGN.md.
func ValidAdditiveChanges(changes []types.SchemaChange, updateIndexes bool) (didChange bool, err error) {
	var otherChanges, indexChanges bool

	badExplain := func(c types.SchemaChange) string {
		switch c.(type) {
		case types.AddTable, types.AddInitialProperties, types.AddProperty:
			otherChanges = true
			return ""
		case types.RemoveProperty:
			return ""
		case types.AddIndex, types.RemoveIndex:
			indexChanges = true
			return ""
		default:
			return types.ExplainChange(c)
		}
	}

	if err := verifyNoErrors(schemaerr.KindInvalidAdditiveSchemaChange, changes, badExplain); err != nil {
		return false, err
	}
	return otherChanges || (indexChanges && updateIndexes), nil
}

// ValidExternalChanges verifies that another writer has not removed any
// class: every variant is legal except RemoveTable.
func ValidExternalChanges(changes []types.SchemaChange) error {
	return verifyNoErrors(schemaerr.KindInvalidExternalSchemaChange, changes, func(c types.SchemaChange) string {
		if op, ok := c.(types.RemoveTable); ok {
			return fmt.Sprintf("Class '%s' has been removed.", op.Object.Name)
		}
		return ""
	})
}

// CompatibleForImmutableAndReadonly verifies the legal set for
// Immutable/ReadOnly: {AddTable, AddInitialProperties, ChangeTableType,
// RemoveProperty, AddIndex, RemoveIndex}.
func CompatibleForImmutableAndReadonly(changes []types.SchemaChange) error {
	return verifyNoErrors(schemaerr.KindInvalidReadOnlySchemaChange, changes, func(c types.SchemaChange) string {
		switch c.(type) {
		case types.AddTable, types.AddInitialProperties, types.ChangeTableType,
			types.RemoveProperty, types.AddIndex, types.RemoveIndex:
			return ""
		default:
			return types.ExplainChange(c)
		}
	})
}

func explainAll(c types.SchemaChange) string { return types.ExplainChange(c) }

// verifyNoErrors runs explain over every change, collecting every
// non-empty message, and wraps the full list (accumulated, not raised on
// first offense — "users see the full list") into the given error kind.
func verifyNoErrors(kind schemaerr.Kind, changes []types.SchemaChange, explain func(types.SchemaChange) string) error {
	var issues []types.ValidationIssue
	for _, c := range changes {
		if msg := explain(c); msg != "" {
			issues = append(issues, types.ValidationIssue{Message: msg})
		}
	}
	if len(issues) == 0 {
		return nil
	}
	return schemaerr.NewValidation(kind, issues)
}
