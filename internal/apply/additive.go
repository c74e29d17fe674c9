package apply

import (
	"context"

	"github.com/arkilian/schemaengine/internal/store"
	"github.com/arkilian/schemaengine/pkg/types"
)

// ApplyAdditiveChanges applies the changes legal under
// AdditiveDiscovered/AdditiveExplicit. It assumes the caller already
// ran verify.ValidAdditiveChanges, so it never raises an error for a
// change variant outside the additive set — it simply ignores it,
// since the caller has already guaranteed there is nothing illegal
// left to report.
func ApplyAdditiveChanges(ctx context.Context, group store.Group, changes []types.SchemaChange, updateIndexes bool) error {
	helper := newTableHelper(group)

	for _, change := range changes {
		var err error
		switch c := change.(type) {
		case types.AddTable:
			_, err = createTable(ctx, group, c.Object)
		case types.AddInitialProperties:
			err = addInitialColumns(ctx, group, c.Object)
		case types.AddProperty:
			var tbl store.Table
			if tbl, err = helper.get(ctx, c.Object); err == nil {
				_, err = addColumn(ctx, group, tbl, c.Property)
			}
		case types.AddIndex:
			if updateIndexes {
				var tbl store.Table
				if tbl, err = helper.get(ctx, c.Object); err == nil {
					err = addSearchIndex(ctx, tbl, c.Property, c.Type)
				}
			}
		case types.RemoveIndex:
			if updateIndexes {
				var tbl store.Table
				if tbl, err = helper.get(ctx, c.Object); err == nil {
					err = removeSearchIndex(ctx, tbl, c.Property)
				}
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
