// Package engine implements the core API exposed to callers: the
// metadata protocol, schema/table-name mapping, schema introspection,
// and the apply_schema_changes orchestrator state machine built on top
// of internal/differ, internal/verify, and internal/apply.
package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/arkilian/schemaengine/internal/store"
	"github.com/arkilian/schemaengine/pkg/types"
)

// NotVersioned is the sentinel schema version meaning "never written."
const NotVersioned uint64 = math.MaxUint64

const (
	metadataTableName  = "metadata"
	versionColumnName  = "version"
	objectTablePrefix  = "class_"
)

// TableNameForObjectType prepends the class-table prefix.
func TableNameForObjectType(objectType string) string {
	return objectTablePrefix + objectType
}

// ObjectTypeForTableName strips the class-table prefix, returning "" if
// name doesn't carry it (metadata, schema_version_history, and any other
// hidden or sidecar table).
func ObjectTypeForTableName(name string) string {
	if len(name) > len(objectTablePrefix) && name[:len(objectTablePrefix)] == objectTablePrefix {
		return name[len(objectTablePrefix):]
	}
	return ""
}

// EnsureMetadataTable creates the single-row "metadata" table if absent,
// including its one int64 "version" column, and returns it.
func EnsureMetadataTable(ctx context.Context, group store.Group) (store.Table, error) {
	table, err := group.GetOrAddTable(ctx, metadataTableName, types.TopLevel)
	if err != nil {
		return nil, fmt.Errorf("engine: ensure metadata table: %w", err)
	}
	if _, ok, err := table.GetColumnKey(ctx, versionColumnName); err != nil {
		return nil, fmt.Errorf("engine: ensure metadata table: %w", err)
	} else if !ok {
		if _, err := table.AddColumn(ctx, types.PropertyType{Base: types.Int}, versionColumnName); err != nil {
			return nil, fmt.Errorf("engine: ensure metadata table: %w", err)
		}
	}
	return table, nil
}

// GetSchemaVersion reads the persisted schema version, NotVersioned if
// the metadata table has never been written to.
func GetSchemaVersion(ctx context.Context, group store.Group) (uint64, error) {
	table, ok, err := group.GetTable(ctx, metadataTableName)
	if err != nil {
		return 0, fmt.Errorf("engine: get schema version: %w", err)
	}
	if !ok {
		return NotVersioned, nil
	}
	col, ok, err := table.GetColumnKey(ctx, versionColumnName)
	if err != nil {
		return 0, fmt.Errorf("engine: get schema version: %w", err)
	}
	if !ok {
		return NotVersioned, nil
	}
	raw, ok, err := table.ReadInt64Row(ctx, col)
	if err != nil {
		return 0, fmt.Errorf("engine: get schema version: %w", err)
	}
	if !ok {
		return NotVersioned, nil
	}
	return uint64(raw), nil
}

// SetSchemaVersion writes the metadata table's version row, creating the
// table first if necessary.
func SetSchemaVersion(ctx context.Context, group store.Group, version uint64) error {
	table, err := EnsureMetadataTable(ctx, group)
	if err != nil {
		return err
	}
	col, ok, err := table.GetColumnKey(ctx, versionColumnName)
	if err != nil {
		return fmt.Errorf("engine: set schema version: %w", err)
	}
	if !ok {
		return fmt.Errorf("engine: set schema version: metadata table missing version column")
	}
	if err := table.WriteInt64Row(ctx, col, int64(version)); err != nil {
		return fmt.Errorf("engine: set schema version: %w", err)
	}
	return nil
}

// SchemaFromGroup reconstructs the persisted Schema from every visible
// class table in group (every table whose name carries the class-table
// prefix).
func SchemaFromGroup(ctx context.Context, group store.Group) (types.Schema, error) {
	keys, err := group.GetTableKeys(ctx)
	if err != nil {
		return types.Schema{}, fmt.Errorf("engine: schema from group: %w", err)
	}

	var classes []types.ObjectSchema
	for _, key := range keys {
		name, err := group.GetTableName(ctx, key)
		if err != nil {
			return types.Schema{}, fmt.Errorf("engine: schema from group: %w", err)
		}
		objectType := ObjectTypeForTableName(name)
		if objectType == "" {
			continue
		}
		table, ok, err := group.GetTableByKey(ctx, key)
		if err != nil {
			return types.Schema{}, fmt.Errorf("engine: schema from group: %w", err)
		}
		if !ok {
			continue
		}
		objectSchema, err := objectSchemaFromTable(ctx, objectType, table)
		if err != nil {
			return types.Schema{}, err
		}
		classes = append(classes, objectSchema)
	}
	return types.NewSchema(classes), nil
}

func objectSchemaFromTable(ctx context.Context, objectType string, table store.Table) (types.ObjectSchema, error) {
	tableType, err := table.TableType(ctx)
	if err != nil {
		return types.ObjectSchema{}, fmt.Errorf("engine: read table type for %s: %w", objectType, err)
	}
	props, err := table.Columns(ctx)
	if err != nil {
		return types.ObjectSchema{}, fmt.Errorf("engine: read columns for %s: %w", objectType, err)
	}

	objectSchema := types.ObjectSchema{
		Name:                 objectType,
		TableType:            tableType,
		PersistedProperties:  props,
		TableKey:             table.Key(),
	}
	if pk := objectSchema.PrimaryKeyProperty(); pk != nil {
		objectSchema.PrimaryKey = pk.Name
	}
	return objectSchema, nil
}

// SetSchemaKeys binds schema's TableKey and each property's ColumnKey in
// place against group, skipping any class no longer present in group
// (the caller's target schema may describe classes not yet created).
func SetSchemaKeys(ctx context.Context, group store.Group, schema *types.Schema) error {
	classes := schema.Classes()
	for i := range classes {
		objectSchema := &classes[i]
		name := TableNameForObjectType(objectSchema.Name)
		table, ok, err := group.GetTable(ctx, name)
		if err != nil {
			return fmt.Errorf("engine: set schema keys: %w", err)
		}
		if !ok {
			continue
		}
		objectSchema.TableKey = table.Key()
		for j := range objectSchema.PersistedProperties {
			prop := &objectSchema.PersistedProperties[j]
			col, ok, err := table.GetColumnKey(ctx, prop.Name)
			if err != nil {
				return fmt.Errorf("engine: set schema keys: %w", err)
			}
			if ok {
				prop.ColumnKey = col
			}
		}
	}
	*schema = types.NewSchema(classes)
	return nil
}

// DeleteDataForObject drops the class table for objectType entirely, if
// it exists.
func DeleteDataForObject(ctx context.Context, group store.Group, objectType string) error {
	table, ok, err := group.GetTable(ctx, TableNameForObjectType(objectType))
	if err != nil {
		return fmt.Errorf("engine: delete data for %s: %w", objectType, err)
	}
	if !ok {
		return nil
	}
	if err := group.RemoveTable(ctx, table.Key()); err != nil {
		return fmt.Errorf("engine: delete data for %s: %w", objectType, err)
	}
	return nil
}

// IsEmpty reports whether every visible class table (hidden and sidecar
// tables excluded) holds zero rows.
func IsEmpty(ctx context.Context, group store.Group) (bool, error) {
	keys, err := group.GetTableKeys(ctx)
	if err != nil {
		return false, fmt.Errorf("engine: is empty: %w", err)
	}
	for _, key := range keys {
		name, err := group.GetTableName(ctx, key)
		if err != nil {
			return false, fmt.Errorf("engine: is empty: %w", err)
		}
		if ObjectTypeForTableName(name) == "" {
			continue
		}
		table, ok, err := group.GetTableByKey(ctx, key)
		if err != nil {
			return false, fmt.Errorf("engine: is empty: %w", err)
		}
		if !ok {
			continue
		}
		empty, err := table.IsEmpty(ctx)
		if err != nil {
			return false, fmt.Errorf("engine: is empty: %w", err)
		}
		if !empty {
			return false, nil
		}
	}
	return true, nil
}
