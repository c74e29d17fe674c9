package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arkilian/schemaengine/pkg/types"
)

// sqliteTable is the Table realization bound to one owning Txn. It
// mixes real DDL against the physical "class_<Name>" table with sidecar
// bookkeeping in __arkilian_properties/__arkilian_tables for structural
// facts SQLite cannot express directly.
type sqliteTable struct {
	txn  *Txn
	name string
	key  types.TableKey
}

var _ Table = (*sqliteTable)(nil)

func (tb *sqliteTable) Name() string        { return tb.name }
func (tb *sqliteTable) Key() types.TableKey { return tb.key }

func (tb *sqliteTable) AddColumn(ctx context.Context, propType types.PropertyType, name string) (types.ColumnKey, error) {
	return tb.addColumn(ctx, propType, name, "")
}

func (tb *sqliteTable) AddLinkColumn(ctx context.Context, target Table, name string, collection types.CollectionKind) (types.ColumnKey, error) {
	propType := types.PropertyType{Base: types.Object, Collection: collection, Nullable: collection == types.CollectionNone}
	return tb.addColumn(ctx, propType, name, target.Name())
}

func (tb *sqliteTable) addColumn(ctx context.Context, propType types.PropertyType, name, objectType string) (types.ColumnKey, error) {
	physical := physicalTableName(tb.name)
	colType := sqlColumnType(propType.Base, propType.Collection)

	stmt := fmt.Sprintf(`ALTER TABLE "%s" ADD COLUMN "%s" %s`, physical, name, colType)
	if _, err := tb.txn.tx.ExecContext(ctx, stmt); err != nil {
		return types.ColumnKey{}, fmt.Errorf("store: add column %s.%s: %w", tb.name, name, err)
	}

	var nextOrder int
	if err := tb.txn.tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(create_order), -1) + 1 FROM __arkilian_properties WHERE table_key = ?`,
		tb.key.Int64(),
	).Scan(&nextOrder); err != nil {
		return types.ColumnKey{}, fmt.Errorf("store: add column %s.%s: %w", tb.name, name, err)
	}

	res, err := tb.txn.tx.ExecContext(ctx,
		`INSERT INTO __arkilian_properties
		 (table_key, name, base_type, nullable, collection, object_type, create_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tb.key.Int64(), name, int(propType.Base), boolToInt(propType.Nullable), int(propType.Collection), objectType, nextOrder,
	)
	if err != nil {
		return types.ColumnKey{}, fmt.Errorf("store: register column %s.%s: %w", tb.name, name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.ColumnKey{}, fmt.Errorf("store: register column %s.%s: %w", tb.name, name, err)
	}
	return types.NewColumnKey(id), nil
}

func (tb *sqliteTable) RemoveColumn(ctx context.Context, col types.ColumnKey) error {
	name, err := tb.ColumnName(ctx, col)
	if err != nil {
		return err
	}
	physical := physicalTableName(tb.name)
	if _, err := tb.txn.tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE "%s" DROP COLUMN "%s"`, physical, name)); err != nil {
		return fmt.Errorf("store: remove column %s.%s: %w", tb.name, name, err)
	}
	if _, err := tb.txn.tx.ExecContext(ctx,
		`UPDATE __arkilian_tables SET primary_key_column = NULL WHERE table_key = ? AND primary_key_column = ?`,
		tb.key.Int64(), col.Int64()); err != nil {
		return fmt.Errorf("store: remove column %s.%s: clear primary key: %w", tb.name, name, err)
	}
	if _, err := tb.txn.tx.ExecContext(ctx, `DELETE FROM __arkilian_properties WHERE column_key = ?`, col.Int64()); err != nil {
		return fmt.Errorf("store: remove column %s.%s: %w", tb.name, name, err)
	}
	return nil
}

func (tb *sqliteTable) RenameColumn(ctx context.Context, col types.ColumnKey, newName string) error {
	oldName, err := tb.ColumnName(ctx, col)
	if err != nil {
		return err
	}
	physical := physicalTableName(tb.name)
	stmt := fmt.Sprintf(`ALTER TABLE "%s" RENAME COLUMN "%s" TO "%s"`, physical, oldName, newName)
	if _, err := tb.txn.tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("store: rename column %s.%s: %w", tb.name, oldName, err)
	}
	if _, err := tb.txn.tx.ExecContext(ctx,
		`UPDATE __arkilian_properties SET name = ? WHERE column_key = ?`, newName, col.Int64()); err != nil {
		return fmt.Errorf("store: rename column %s.%s: %w", tb.name, oldName, err)
	}
	return nil
}

func (tb *sqliteTable) GetColumnKey(ctx context.Context, name string) (types.ColumnKey, bool, error) {
	var id int64
	err := tb.txn.tx.QueryRowContext(ctx,
		`SELECT column_key FROM __arkilian_properties WHERE table_key = ? AND name = ?`,
		tb.key.Int64(), name,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return types.ColumnKey{}, false, nil
	}
	if err != nil {
		return types.ColumnKey{}, false, fmt.Errorf("store: get column key %s.%s: %w", tb.name, name, err)
	}
	return types.NewColumnKey(id), true, nil
}

func (tb *sqliteTable) SetNullability(ctx context.Context, col types.ColumnKey, nullable bool, throwOnNull bool) error {
	if throwOnNull && !nullable {
		name, err := tb.ColumnName(ctx, col)
		if err != nil {
			return err
		}
		physical := physicalTableName(tb.name)
		var nullCount int
		q := fmt.Sprintf(`SELECT COUNT(*) FROM "%s" WHERE "%s" IS NULL`, physical, name)
		if err := tb.txn.tx.QueryRowContext(ctx, q).Scan(&nullCount); err != nil {
			return fmt.Errorf("store: set nullability %s.%s: %w", tb.name, name, err)
		}
		if nullCount > 0 {
			return fmt.Errorf("store: cannot make %s.%s required: existing null values", tb.name, name)
		}
	}
	if _, err := tb.txn.tx.ExecContext(ctx,
		`UPDATE __arkilian_properties SET nullable = ? WHERE column_key = ?`, boolToInt(nullable), col.Int64()); err != nil {
		return fmt.Errorf("store: set nullability: %w", err)
	}
	return nil
}

func (tb *sqliteTable) SetPrimaryKeyColumn(ctx context.Context, col *types.ColumnKey) error {
	var arg interface{}
	if col != nil {
		arg = col.Int64()
	}
	if _, err := tb.txn.tx.ExecContext(ctx,
		`UPDATE __arkilian_tables SET primary_key_column = ? WHERE table_key = ?`, arg, tb.key.Int64()); err != nil {
		return fmt.Errorf("store: set primary key column for %s: %w", tb.name, err)
	}
	return nil
}

func (tb *sqliteTable) SetTableType(ctx context.Context, tableType types.TableType, handleBacklinksAutomatically bool) error {
	// handleBacklinksAutomatically is accepted for interface parity with
	// the orchestrator's call site; this realization has no backlink
	// bookkeeping of its own to reconcile, since LinkingObjects columns
	// are computed, never persisted.
	_ = handleBacklinksAutomatically
	if _, err := tb.txn.tx.ExecContext(ctx,
		`UPDATE __arkilian_tables SET table_type = ? WHERE table_key = ?`, int(tableType), tb.key.Int64()); err != nil {
		return fmt.Errorf("store: set table type for %s: %w", tb.name, err)
	}
	return nil
}

func (tb *sqliteTable) AddSearchIndex(ctx context.Context, col types.ColumnKey, kind types.IndexType) error {
	name, err := tb.ColumnName(ctx, col)
	if err != nil {
		return err
	}
	physical := physicalTableName(tb.name)
	idxName := fmt.Sprintf("idx_%s_%s", tb.name, name)
	if _, err := tb.txn.tx.ExecContext(ctx,
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "%s" ON "%s" ("%s")`, idxName, physical, name)); err != nil {
		return fmt.Errorf("store: add search index %s.%s: %w", tb.name, name, err)
	}
	if _, err := tb.txn.tx.ExecContext(ctx,
		`UPDATE __arkilian_properties SET index_type = ? WHERE column_key = ?`, int(kind), col.Int64()); err != nil {
		return fmt.Errorf("store: add search index %s.%s: %w", tb.name, name, err)
	}
	return nil
}

func (tb *sqliteTable) RemoveSearchIndex(ctx context.Context, col types.ColumnKey) error {
	name, err := tb.ColumnName(ctx, col)
	if err != nil {
		return err
	}
	idxName := fmt.Sprintf("idx_%s_%s", tb.name, name)
	if _, err := tb.txn.tx.ExecContext(ctx, fmt.Sprintf(`DROP INDEX IF EXISTS "%s"`, idxName)); err != nil {
		return fmt.Errorf("store: remove search index %s.%s: %w", tb.name, name, err)
	}
	if _, err := tb.txn.tx.ExecContext(ctx,
		`UPDATE __arkilian_properties SET index_type = 0 WHERE column_key = ?`, col.Int64()); err != nil {
		return fmt.Errorf("store: remove search index %s.%s: %w", tb.name, name, err)
	}
	return nil
}

func (tb *sqliteTable) AddFulltextIndex(ctx context.Context, col types.ColumnKey) error {
	return tb.AddSearchIndex(ctx, col, types.IndexFulltext)
}

func (tb *sqliteTable) IsEmpty(ctx context.Context) (bool, error) {
	physical := physicalTableName(tb.name)
	var n int
	if err := tb.txn.tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, physical)).Scan(&n); err != nil {
		return false, fmt.Errorf("store: is empty %s: %w", tb.name, err)
	}
	return n == 0, nil
}

func (tb *sqliteTable) Columns(ctx context.Context) ([]types.Property, error) {
	rows, err := tb.txn.tx.QueryContext(ctx,
		`SELECT column_key, name, base_type, nullable, collection, object_type, link_origin_property, index_type
		 FROM __arkilian_properties WHERE table_key = ? ORDER BY create_order`, tb.key.Int64())
	if err != nil {
		return nil, fmt.Errorf("store: columns %s: %w", tb.name, err)
	}
	defer rows.Close()

	pkCol, hasPK, err := tb.PrimaryKeyColumn(ctx)
	if err != nil {
		return nil, err
	}

	var props []types.Property
	for rows.Next() {
		var (
			colKey             int64
			name               string
			baseType           int
			nullable           int
			collection         int
			objectType         string
			linkOriginProperty string
			indexType          int
		)
		if err := rows.Scan(&colKey, &name, &baseType, &nullable, &collection, &objectType, &linkOriginProperty, &indexType); err != nil {
			return nil, fmt.Errorf("store: columns %s: %w", tb.name, err)
		}
		ck := types.NewColumnKey(colKey)
		props = append(props, types.Property{
			Name: name,
			Type: types.PropertyType{
				Base:       types.BaseType(baseType),
				Nullable:   nullable != 0,
				Collection: types.CollectionKind(collection),
			},
			IsPrimary:          hasPK && ck == pkCol,
			Index:              types.IndexType(indexType),
			ObjectType:         objectType,
			LinkOriginProperty: linkOriginProperty,
			ColumnKey:          ck,
		})
	}
	return props, rows.Err()
}

func (tb *sqliteTable) TableType(ctx context.Context) (types.TableType, error) {
	var tableType int
	if err := tb.txn.tx.QueryRowContext(ctx,
		`SELECT table_type FROM __arkilian_tables WHERE table_key = ?`, tb.key.Int64()).Scan(&tableType); err != nil {
		return 0, fmt.Errorf("store: table type %s: %w", tb.name, err)
	}
	return types.TableType(tableType), nil
}

func (tb *sqliteTable) PrimaryKeyColumn(ctx context.Context) (types.ColumnKey, bool, error) {
	var id sql.NullInt64
	if err := tb.txn.tx.QueryRowContext(ctx,
		`SELECT primary_key_column FROM __arkilian_tables WHERE table_key = ?`, tb.key.Int64()).Scan(&id); err != nil {
		return types.ColumnKey{}, false, fmt.Errorf("store: primary key column %s: %w", tb.name, err)
	}
	if !id.Valid {
		return types.ColumnKey{}, false, nil
	}
	return types.NewColumnKey(id.Int64), true, nil
}

func (tb *sqliteTable) ColumnName(ctx context.Context, col types.ColumnKey) (string, error) {
	var name string
	if err := tb.txn.tx.QueryRowContext(ctx,
		`SELECT name FROM __arkilian_properties WHERE column_key = ?`, col.Int64()).Scan(&name); err != nil {
		return "", fmt.Errorf("store: column name: %w", err)
	}
	return name, nil
}

// ReadInt64Row reads the metadata table's one row, one column value. ok
// is false only when the table has no rows yet (before WriteInt64Row has
// ever been called).
func (tb *sqliteTable) ReadInt64Row(ctx context.Context, col types.ColumnKey) (int64, bool, error) {
	name, err := tb.ColumnName(ctx, col)
	if err != nil {
		return 0, false, err
	}
	physical := physicalTableName(tb.name)
	var value sql.NullInt64
	err = tb.txn.tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT "%s" FROM "%s" LIMIT 1`, name, physical)).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("store: read row %s.%s: %w", tb.name, name, err)
	}
	return value.Int64, true, nil
}

// WriteInt64Row writes value into the table's single row, creating that
// row on first use.
func (tb *sqliteTable) WriteInt64Row(ctx context.Context, col types.ColumnKey, value int64) error {
	name, err := tb.ColumnName(ctx, col)
	if err != nil {
		return err
	}
	physical := physicalTableName(tb.name)

	var exists bool
	if err := tb.txn.tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM "%s")`, physical)).Scan(&exists); err != nil {
		return fmt.Errorf("store: write row %s.%s: %w", tb.name, name, err)
	}

	if exists {
		_, err = tb.txn.tx.ExecContext(ctx, fmt.Sprintf(`UPDATE "%s" SET "%s" = ?`, physical, name), value)
	} else {
		_, err = tb.txn.tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO "%s" ("%s") VALUES (?)`, physical, name), value)
	}
	if err != nil {
		return fmt.Errorf("store: write row %s.%s: %w", tb.name, name, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
