// Package rename implements the property-rename primitive the user
// migration callback calls mid-migration, before the post-migration
// diff is recomputed against the callback's edits.
package rename

import (
	"context"
	"fmt"

	"github.com/arkilian/schemaengine/internal/apply"
	"github.com/arkilian/schemaengine/internal/schemaerr"
	"github.com/arkilian/schemaengine/internal/store"
	"github.com/arkilian/schemaengine/pkg/types"
)

// RenameProperty renames oldName to newName on the persisted table
// backing class, and rebinds the corresponding property on target if
// present. It is a pre-diff operation: callers invoke it from inside a
// migration callback, before the orchestrator re-reads the schema to
// compute the post-migration diff.
//
// Preconditions, enforced in order: class exists on the persisted
// store; class still exists in target; target must not already have a
// property named oldName (it should already consider the property
// renamed); oldName must exist on the persisted table. When newName
// does not yet exist on the persisted table the column is renamed in
// place. Otherwise a column named newName already exists there (a
// multi-step migration landed on an intermediate name): that column is
// dropped, oldName's column is renamed onto newName, and nullability is
// relaxed — never tightened: a nullable newName column makes the renamed
// column nullable, and a nullable oldName column with a required newName
// column is rejected.
func RenameProperty(ctx context.Context, group store.Group, target *types.Schema, class, oldName, newName string) error {
	tableName := apply.TableNameForObjectType(class)
	table, ok, err := group.GetTable(ctx, tableName)
	if err != nil {
		return err
	}
	if !ok {
		return schemaerr.NoSuchTable("Cannot rename properties for type '%s' because it does not exist.", class)
	}

	targetObject := target.Find(class)
	if targetObject == nil {
		return schemaerr.NoSuchTable("Cannot rename properties for type '%s' because it has been removed from the Realm.", class)
	}
	if targetObject.PropertyForName(oldName) != nil {
		return schemaerr.IllegalOperation(
			"Cannot rename property '%s.%s' to '%s' because the source property still exists.", class, oldName, newName)
	}

	persistedProps, err := table.Columns(ctx)
	if err != nil {
		return err
	}
	persisted := types.ObjectSchema{Name: class, PersistedProperties: persistedProps}

	oldProperty := persisted.PropertyForName(oldName)
	if oldProperty == nil {
		return schemaerr.InvalidProperty(class, oldName)
	}

	newProperty := persisted.PropertyForName(newName)
	if newProperty == nil {
		// The target column doesn't exist yet on the persisted table,
		// meaning this is probably an intermediate rename in a
		// multi-version migration. Safe: schema validation at the end of
		// the migration will fail unless it gets renamed again to a valid
		// name before the migration completes.
		if err := table.RenameColumn(ctx, oldProperty.ColumnKey, newName); err != nil {
			return err
		}
		if prop := targetObject.PropertyForName(newName); prop != nil {
			prop.ColumnKey = oldProperty.ColumnKey
		}
		return nil
	}

	if !sameTypeAndTarget(*oldProperty, *newProperty) {
		return schemaerr.IllegalOperation(
			"Cannot rename property '%s.%s' to '%s' because it would change from type '%s' to '%s'.",
			class, oldName, newName, oldProperty.TypeString(), newProperty.TypeString())
	}
	if oldProperty.Type.Nullable && !newProperty.Type.Nullable {
		return schemaerr.IllegalOperation(
			"Cannot rename property '%s.%s' to '%s' because it would change from optional to required.",
			class, oldName, newName)
	}

	if err := table.RemoveColumn(ctx, newProperty.ColumnKey); err != nil {
		return fmt.Errorf("rename: remove stale column %s.%s: %w", class, newName, err)
	}
	if err := table.RenameColumn(ctx, oldProperty.ColumnKey, newName); err != nil {
		return fmt.Errorf("rename: rename column %s.%s: %w", class, oldName, err)
	}

	if prop := targetObject.PropertyForName(newName); prop != nil {
		prop.ColumnKey = oldProperty.ColumnKey
	}

	if newProperty.Type.Nullable && !oldProperty.Type.Nullable {
		if err := table.SetNullability(ctx, oldProperty.ColumnKey, true, false); err != nil {
			return fmt.Errorf("rename: relax nullability %s.%s: %w", class, newName, err)
		}
	}
	return nil
}

// sameTypeAndTarget checks base-type/collection/link-target equality,
// ignoring nullability, before allowing a rename across two
// differently-nullable columns.
func sameTypeAndTarget(a, b types.Property) bool {
	if a.Type.Base != b.Type.Base || a.Type.Collection != b.Type.Collection {
		return false
	}
	if a.Type.Base == types.Object || a.Type.Base == types.LinkingObjects {
		return a.ObjectType == b.ObjectType
	}
	return true
}
