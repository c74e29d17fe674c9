// Package apply implements the four change appliers the orchestrator
// selects between (initial table creation, non-migration changes,
// additive changes, pre/post-migration changes) plus the column-level
// primitives they share.
package apply

import (
	"context"
	"fmt"

	"github.com/arkilian/schemaengine/internal/store"
	"github.com/arkilian/schemaengine/pkg/types"
)

// tableHelper caches the last resolved Table for the last ObjectSchema
// it was asked to resolve, since appliers walk a change list that is
// grouped by class and repeatedly re-resolving the same table by name
// would be wasted round trips against the storage engine.
type tableHelper struct {
	group   store.Group
	lastObj *types.ObjectSchema
	lastTbl store.Table
}

func newTableHelper(group store.Group) *tableHelper {
	return &tableHelper{group: group}
}

func (h *tableHelper) get(ctx context.Context, object *types.ObjectSchema) (store.Table, error) {
	if object == h.lastObj {
		return h.lastTbl, nil
	}
	name := TableNameForObjectType(object.Name)
	tbl, ok, err := h.group.GetTable(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("apply: no table for class %q", object.Name)
	}
	h.lastObj = object
	h.lastTbl = tbl
	return tbl, nil
}

// TableNameForObjectType is the one place apply composes a physical
// table name from a class name; kept in sync with
// internal/engine.TableNameForObjectType, which the rest of the module
// uses for the same mapping.
func TableNameForObjectType(objectType string) string {
	return "class_" + objectType
}

// addColumn resolves a link target when the property is an Object,
// otherwise adds a scalar column and wires up any requested index. It
// is a no-op that returns the existing column key when the property is
// primary and its column already exists, since that column was already
// created as part of the table itself.
func addColumn(ctx context.Context, group store.Group, table store.Table, property *types.Property) (types.ColumnKey, error) {
	if property.IsPrimary {
		if col, ok, err := table.GetColumnKey(ctx, property.Name); err != nil {
			return types.ColumnKey{}, err
		} else if ok {
			return col, nil
		}
	}

	if property.Type.Base == types.Object {
		targetName := TableNameForObjectType(property.ObjectType)
		target, ok, err := group.GetTable(ctx, targetName)
		if err != nil {
			return types.ColumnKey{}, err
		}
		if !ok {
			return types.ColumnKey{}, fmt.Errorf("apply: link target table %q does not exist", targetName)
		}
		return table.AddLinkColumn(ctx, target, property.Name, property.Type.Collection)
	}

	col, err := table.AddColumn(ctx, property.Type, property.Name)
	if err != nil {
		return types.ColumnKey{}, err
	}
	if property.RequiresIndex() {
		if err := table.AddSearchIndex(ctx, col, types.IndexGeneral); err != nil {
			return types.ColumnKey{}, err
		}
	}
	if property.RequiresFulltextIndex() {
		if err := table.AddFulltextIndex(ctx, col); err != nil {
			return types.ColumnKey{}, err
		}
	}
	return col, nil
}

// replaceColumn drops the old column and recreates it from next: the
// new column carries the target schema's nullability and index by
// construction.
func replaceColumn(ctx context.Context, group store.Group, table store.Table, old, next *types.Property) error {
	if err := table.RemoveColumn(ctx, old.ColumnKey); err != nil {
		return err
	}
	_, err := addColumn(ctx, group, table, next)
	return err
}

// createTable is the free function create_table: idempotent, and shapes
// table creation according to whether the class declares a primary key
// or is Embedded.
func createTable(ctx context.Context, group store.Group, object *types.ObjectSchema) (store.Table, error) {
	name := TableNameForObjectType(object.Name)
	if tbl, ok, err := group.GetTable(ctx, name); err != nil {
		return nil, err
	} else if ok {
		return tbl, nil
	}

	if pk := object.PrimaryKeyProperty(); pk != nil {
		return group.AddTableWithPrimaryKey(ctx, name, pk.Type, pk.Name, object.TableType)
	}
	if object.TableType == types.Embedded {
		return group.AddTable(ctx, name, types.Embedded)
	}
	return group.GetOrAddTable(ctx, name, object.TableType)
}

// addInitialColumns creates a column for every persisted property except
// the primary key, which add_table_with_primary_key already created.
func addInitialColumns(ctx context.Context, group store.Group, object *types.ObjectSchema) error {
	name := TableNameForObjectType(object.Name)
	table, ok, err := group.GetTable(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("apply: no table for class %q", object.Name)
	}
	for i := range object.PersistedProperties {
		prop := &object.PersistedProperties[i]
		if prop.IsPrimary {
			continue
		}
		if _, err := addColumn(ctx, group, table, prop); err != nil {
			return err
		}
	}
	return nil
}

func makePropertyOptional(ctx context.Context, table store.Table, property *types.Property) error {
	return table.SetNullability(ctx, property.ColumnKey, true, false)
}

// makePropertyRequired recreates the column rather than narrowing it in
// place, so every existing value in the column, not only the nulls, is
// discarded instead of null values causing the nullability change to
// fail outright.
func makePropertyRequired(ctx context.Context, group store.Group, table store.Table, property *types.Property) error {
	if err := table.RemoveColumn(ctx, property.ColumnKey); err != nil {
		return err
	}
	_, err := addColumn(ctx, group, table, property)
	return err
}

// setPrimaryKey resolves property (nil meaning "no primary key") to a
// column key on table and installs it.
func setPrimaryKey(ctx context.Context, table store.Table, property *types.Property) error {
	if property == nil {
		return table.SetPrimaryKeyColumn(ctx, nil)
	}
	col, ok, err := table.GetColumnKey(ctx, property.Name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("apply: primary key property %q has no column", property.Name)
	}
	return table.SetPrimaryKeyColumn(ctx, &col)
}

func addSearchIndex(ctx context.Context, table store.Table, property *types.Property, kind types.IndexType) error {
	col, ok, err := table.GetColumnKey(ctx, property.Name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("apply: indexed property %q has no column", property.Name)
	}
	return table.AddSearchIndex(ctx, col, kind)
}

func removeSearchIndex(ctx context.Context, table store.Table, property *types.Property) error {
	col, ok, err := table.GetColumnKey(ctx, property.Name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("apply: unindexed property %q has no column", property.Name)
	}
	return table.RemoveSearchIndex(ctx, col)
}
