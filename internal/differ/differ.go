// Package differ computes the ordered list of SchemaChange values that
// would transform a persisted schema into a target schema.
package differ

import "github.com/arkilian/schemaengine/pkg/types"

// Diff compares old against target and returns an ordered sequence of
// SchemaChange values following these emission rules:
//
//  1. classes in target but not old -> AddTable (each immediately
//     followed by its AddInitialProperties pair).
//  2. classes in both: table type changes -> ChangeTableType.
//  3. classes in both: property-level changes, in target property order,
//     then RemoveProperty for old properties missing from target.
//  4. classes in both: primary key changes.
//  5. classes in old but not target -> RemoveTable.
//
// Rules 1-4 are emitted class by class in target's class order; all
// RemoveTable entries come after them, in old's class order.
// mode does not currently suppress any emission; it is accepted so the
// signature has a stable place for future mode-specific suppression to
// live.
func Diff(old, target types.Schema, mode ModeHint) []types.SchemaChange {
	var changes []types.SchemaChange

	for _, targetClass := range target.Classes() {
		oldClass := old.Find(targetClass.Name)
		if oldClass == nil {
			targetClassCopy := targetClass
			changes = append(changes,
				types.AddTable{Object: &targetClassCopy},
				types.AddInitialProperties{Object: &targetClassCopy},
			)
			continue
		}
		changes = append(changes, diffClass(oldClass, target.Find(targetClass.Name))...)
	}

	for _, oldClass := range old.Classes() {
		if !target.Has(oldClass.Name) {
			oldClassCopy := oldClass
			changes = append(changes, types.RemoveTable{Object: &oldClassCopy})
		}
	}

	return changes
}

// ModeHint is accepted by Diff for forward-compatibility with mode-gated
// suppression rules; no current mode suppresses any diff entry, so this
// is presently just documentation of intent at call sites.
type ModeHint int

const ModeDefault ModeHint = 0

func diffClass(old, target *types.ObjectSchema) []types.SchemaChange {
	var changes []types.SchemaChange

	if old.TableType != target.TableType {
		changes = append(changes, types.ChangeTableType{
			Object: target, OldType: old.TableType, NewType: target.TableType,
		})
	}

	for i := range target.PersistedProperties {
		targetProp := &target.PersistedProperties[i]
		oldProp := old.PropertyForName(targetProp.Name)
		if oldProp == nil {
			changes = append(changes, types.AddProperty{Object: target, Property: targetProp})
			continue
		}
		changes = append(changes, diffProperty(target, oldProp, targetProp)...)
	}

	for i := range old.PersistedProperties {
		oldProp := &old.PersistedProperties[i]
		if target.PropertyForName(oldProp.Name) == nil {
			changes = append(changes, types.RemoveProperty{Object: target, Property: oldProp})
		}
	}

	if old.PrimaryKey != target.PrimaryKey {
		changes = append(changes, types.ChangePrimaryKey{
			Object:   target,
			Property: target.PrimaryKeyProperty(),
		})
	}

	return changes
}

func diffProperty(object *types.ObjectSchema, old, target *types.Property) []types.SchemaChange {
	var changes []types.SchemaChange

	if !sameTypeAndLinkTarget(*old, *target) {
		changes = append(changes, types.ChangePropertyType{
			Object: object, OldProperty: old, NewProperty: target,
		})
		// A replaced column carries the target's nullability and index by
		// construction (the applier recreates it from scratch), so the
		// source does not additionally emit nullability/index changes for
		// a property whose type changed.
		return changes
	}

	if old.Type.Nullable != target.Type.Nullable {
		if target.Type.Nullable {
			changes = append(changes, types.MakePropertyNullable{Object: object, Property: target})
		} else {
			changes = append(changes, types.MakePropertyRequired{Object: object, Property: target})
		}
	}

	if old.Index != target.Index {
		if target.Index != types.IndexNone {
			changes = append(changes, types.AddIndex{Object: object, Property: target, Type: target.Index})
		} else {
			changes = append(changes, types.RemoveIndex{Object: object, Property: old})
		}
	}

	return changes
}

func sameTypeAndLinkTarget(old, target types.Property) bool {
	if old.Type.Base != target.Type.Base || old.Type.Collection != target.Type.Collection {
		return false
	}
	if old.Type.Base == types.Object || old.Type.Base == types.LinkingObjects {
		return old.ObjectType == target.ObjectType
	}
	return true
}
