package apply

import (
	"context"

	"github.com/arkilian/schemaengine/internal/schemaerr"
	"github.com/arkilian/schemaengine/internal/store"
	"github.com/arkilian/schemaengine/pkg/types"
)

// ApplyPreMigrationChanges applies everything a migration needs done
// before the caller's migration callback runs. RemoveProperty and
// ChangeTableType are deliberately skipped here and handled in
// ApplyPostMigrationChanges, since the callback may still want to read
// the old column or needs the table in its old shape while copying data.
func ApplyPreMigrationChanges(ctx context.Context, group store.Group, changes []types.SchemaChange) error {
	helper := newTableHelper(group)

	for _, change := range changes {
		var err error
		switch c := change.(type) {
		case types.AddTable:
			_, err = createTable(ctx, group, c.Object)
		case types.RemoveTable, types.ChangeTableType, types.RemoveProperty:
			// delayed until after the migration
		case types.AddInitialProperties:
			err = addInitialColumns(ctx, group, c.Object)
		case types.AddProperty:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				_, err = addColumn(ctx, group, tbl, c.Property)
			}
		case types.ChangePropertyType:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				err = replaceColumn(ctx, group, tbl, c.OldProperty, c.NewProperty)
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
				err = tbl.SetPrimaryKeyColumn(ctx, nil)
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
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ApplyPostMigrationChanges applies what's left once the migration
// callback (if any) has run: table type changes, pending property
// removals, and primary key/index bookkeeping against the possibly
// reread schema. initialSchema is the schema as it was before the
// migration ran, used to validate that a RemoveProperty wasn't actually
// a rename whose target never got renamed back; it is the zero Schema
// when didRereadSchema is false, in which case that check is skipped.
func ApplyPostMigrationChanges(ctx context.Context, group store.Group, changes []types.SchemaChange, initialSchema types.Schema, didRereadSchema, handleBacklinksAutomatically bool) error {
	helper := newTableHelper(group)

	for _, change := range changes {
		var err error
		switch c := change.(type) {
		case types.RemoveProperty:
			if !initialSchema.Empty() {
				if obj := initialSchema.Find(c.Object.Name); obj != nil && obj.PropertyForName(c.Property.Name) == nil {
					return schemaerr.InvalidProperty(c.Object.Name, c.Property.Name)
				}
			}
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				col, ok, gerr := tbl.GetColumnKey(ctx, c.Property.Name)
				if gerr != nil {
					err = gerr
				} else if ok {
					err = tbl.RemoveColumn(ctx, col)
				}
			}
		case types.ChangePrimaryKey:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				err = setPrimaryKey(ctx, tbl, c.Property)
			}
		case types.AddTable:
			_, err = createTable(ctx, group, c.Object)
		case types.AddInitialProperties:
			if didRereadSchema {
				err = addInitialColumns(ctx, group, c.Object)
			}
			// otherwise already handled during ApplyPreMigrationChanges
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
		case types.ChangeTableType:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				err = tbl.SetTableType(ctx, c.NewType, handleBacklinksAutomatically)
			}
		case types.RemoveTable, types.ChangePropertyType, types.MakePropertyNullable,
			types.MakePropertyRequired, types.AddProperty:
			// nothing left to do for these by this stage
		}
		if err != nil {
			return err
		}
	}
	return nil
}
