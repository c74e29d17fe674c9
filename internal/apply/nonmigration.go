package apply

import (
	"context"

	"github.com/arkilian/schemaengine/internal/schemaerr"
	"github.com/arkilian/schemaengine/internal/store"
	"github.com/arkilian/schemaengine/pkg/types"
)

// ApplyNonMigrationChanges applies the changes Automatic/Immutable/
// ReadOnly permit without a migration (AddTable, AddInitialProperties,
// AddIndex, RemoveIndex), and accumulates a SchemaMismatch issue for
// every other variant instead of applying it — it both verifies and
// applies in the same pass, since the legal subset is applied as a
// side effect of checking that every change is legal.
func ApplyNonMigrationChanges(ctx context.Context, group store.Group, changes []types.SchemaChange) error {
	helper := newTableHelper(group)
	var issues []types.ValidationIssue

	for _, change := range changes {
		var err error
		switch c := change.(type) {
		case types.AddTable:
			_, err = createTable(ctx, group, c.Object)
		case types.AddInitialProperties:
			err = addInitialColumns(ctx, group, c.Object)
		case types.AddIndex:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				col, ok, gerr := tbl.GetColumnKey(ctx, c.Property.Name)
				if gerr != nil {
					err = gerr
				} else if ok {
					err = tbl.AddSearchIndex(ctx, col, c.Type)
				}
			}
		case types.RemoveIndex:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				col, ok, gerr := tbl.GetColumnKey(ctx, c.Property.Name)
				if gerr != nil {
					err = gerr
				} else if ok {
					err = tbl.RemoveSearchIndex(ctx, col)
				}
			}
		default:
			issues = append(issues, types.ValidationIssue{Message: types.ExplainChange(change)})
			continue
		}
		if err != nil {
			return err
		}
	}

	if len(issues) > 0 {
		return schemaerr.NewValidation(schemaerr.KindSchemaMismatch, issues)
	}
	return nil
}
