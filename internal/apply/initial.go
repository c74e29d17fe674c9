package apply

import (
	"context"

	"github.com/arkilian/schemaengine/internal/store"
	"github.com/arkilian/schemaengine/pkg/types"
)

// CreateInitialTables applies every change in a fresh-database diff
// (schema_version == NotVersioned). In normal operation the only
// variants present are AddTable/AddInitialProperties, since a diff
// against an empty persisted schema can never produce anything else —
// but every variant is still handled defensively, in case a malformed
// schema file produced by another tool manages to slip one through.
func CreateInitialTables(ctx context.Context, group store.Group, changes []types.SchemaChange) error {
	helper := newTableHelper(group)

	for _, change := range changes {
		var err error
		switch c := change.(type) {
		case types.AddTable:
			_, err = createTable(ctx, group, c.Object)
		case types.RemoveTable:
			// never applied
		case types.ChangeTableType:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				err = tbl.SetTableType(ctx, c.NewType, false)
			}
		case types.AddInitialProperties:
			err = addInitialColumns(ctx, group, c.Object)
		case types.AddProperty:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				_, err = addColumn(ctx, group, tbl, c.Property)
			}
		case types.RemoveProperty:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				err = tbl.RemoveColumn(ctx, c.Property.ColumnKey)
			}
		case types.MakePropertyNullable:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				err = makePropertyOptional(ctx, tbl, c.Property)
			}
		case types.MakePropertyRequired:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				err = makePropertyRequired(ctx, group, tbl, c.Property)
			}
		case types.ChangePrimaryKey:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				err = setPrimaryKey(ctx, tbl, c.Property)
			}
		case types.AddIndex:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				err = addSearchIndex(ctx, tbl, c.Property, c.Type)
			}
		case types.RemoveIndex:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				err = removeSearchIndex(ctx, tbl, c.Property)
			}
		case types.ChangePropertyType:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				err = replaceColumn(ctx, group, tbl, c.OldProperty, c.NewProperty)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
