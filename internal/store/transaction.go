package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arkilian/schemaengine/pkg/types"
)

// Txn implements Transaction (and therefore Group) over a single open
// *sql.Tx. It is the only concrete type the rest of the engine ever
// receives from Open/Begin; internal/engine, internal/apply, and
// internal/rename consume it exclusively through the store.Transaction
// interface.
type Txn struct {
	tx     *sql.Tx
	logger Logger
}

var _ Transaction = (*Txn)(nil)

// Logger returns the transaction's logger, the noop logger unless
// WithLogger was used to construct it.
func (t *Txn) Logger() Logger { return t.logger }

// WithLogger returns a copy of the transaction using the given logger for
// subsequent Debugf calls.
func (t *Txn) WithLogger(l Logger) *Txn {
	return &Txn{tx: t.tx, logger: l}
}

// Commit commits the underlying SQL transaction.
func (t *Txn) Commit() error { return t.tx.Commit() }

// Rollback rolls back the underlying SQL transaction.
func (t *Txn) Rollback() error { return t.tx.Rollback() }

func (t *Txn) GetOrAddTable(ctx context.Context, name string, tableType types.TableType) (Table, error) {
	if tbl, ok, err := t.GetTable(ctx, name); err != nil {
		return nil, err
	} else if ok {
		return tbl, nil
	}
	return t.AddTable(ctx, name, tableType)
}

func (t *Txn) AddTable(ctx context.Context, name string, tableType types.TableType) (Table, error) {
	return t.addTable(ctx, name, tableType, nil, types.PropertyType{})
}

func (t *Txn) AddTableWithPrimaryKey(ctx context.Context, name string, pkType types.PropertyType, pkName string, tableType types.TableType) (Table, error) {
	return t.addTable(ctx, name, tableType, &pkName, pkType)
}

func (t *Txn) addTable(ctx context.Context, name string, tableType types.TableType, pkName *string, pkType types.PropertyType) (Table, error) {
	physical := physicalTableName(name)

	if _, err := t.tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE "%s" (id INTEGER PRIMARY KEY AUTOINCREMENT)`, physical)); err != nil {
		return nil, fmt.Errorf("store: create table %s: %w", name, err)
	}

	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO __arkilian_tables (name, table_type) VALUES (?, ?)`, name, int(tableType))
	if err != nil {
		return nil, fmt.Errorf("store: register table %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: register table %s: %w", name, err)
	}
	tableKey := types.NewTableKey(id)
	tbl := &sqliteTable{txn: t, name: name, key: tableKey}

	if pkName != nil {
		col, err := tbl.AddColumn(ctx, pkType, *pkName)
		if err != nil {
			return nil, err
		}
		if err := tbl.SetPrimaryKeyColumn(ctx, &col); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func (t *Txn) GetTable(ctx context.Context, name string) (Table, bool, error) {
	var id int64
	var tableType int
	err := t.tx.QueryRowContext(ctx,
		`SELECT table_key, table_type FROM __arkilian_tables WHERE name = ?`, name,
	).Scan(&id, &tableType)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get table %s: %w", name, err)
	}
	return &sqliteTable{txn: t, name: name, key: types.NewTableKey(id)}, true, nil
}

func (t *Txn) GetTableByKey(ctx context.Context, key types.TableKey) (Table, bool, error) {
	name, err := t.GetTableName(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if name == "" {
		return nil, false, nil
	}
	return &sqliteTable{txn: t, name: name, key: key}, true, nil
}

func (t *Txn) RemoveTable(ctx context.Context, key types.TableKey) error {
	name, err := t.GetTableName(ctx, key)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("store: remove table: no table with key %d", key.Int64())
	}
	if _, err := t.tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE "%s"`, physicalTableName(name))); err != nil {
		return fmt.Errorf("store: drop table %s: %w", name, err)
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM __arkilian_properties WHERE table_key = ?`, key.Int64()); err != nil {
		return fmt.Errorf("store: remove table %s properties: %w", name, err)
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM __arkilian_tables WHERE table_key = ?`, key.Int64()); err != nil {
		return fmt.Errorf("store: remove table %s: %w", name, err)
	}
	return nil
}

func (t *Txn) GetTableKeys(ctx context.Context) ([]types.TableKey, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT table_key FROM __arkilian_tables ORDER BY table_key`)
	if err != nil {
		return nil, fmt.Errorf("store: get table keys: %w", err)
	}
	defer rows.Close()

	var keys []types.TableKey
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: get table keys: %w", err)
		}
		keys = append(keys, types.NewTableKey(id))
	}
	return keys, rows.Err()
}

func (t *Txn) GetTableName(ctx context.Context, key types.TableKey) (string, error) {
	var name string
	err := t.tx.QueryRowContext(ctx, `SELECT name FROM __arkilian_tables WHERE table_key = ?`, key.Int64()).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get table name: %w", err)
	}
	return name, nil
}

func (t *Txn) Size(ctx context.Context) (int, error) {
	var n int
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM __arkilian_tables`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: size: %w", err)
	}
	return n, nil
}

// ValidatePrimaryColumns checks that every table with a declared primary
// key column still has no duplicate, non-null values in it, the
// post-callback invariant the orchestrator enforces after Manual-mode
// and migration callbacks run.
func (t *Txn) ValidatePrimaryColumns(ctx context.Context) error {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT t.name, p.name FROM __arkilian_tables t
		 JOIN __arkilian_properties p ON p.column_key = t.primary_key_column
		 WHERE t.primary_key_column IS NOT NULL`)
	if err != nil {
		return fmt.Errorf("store: validate primary columns: %w", err)
	}
	type pk struct{ table, column string }
	var pks []pk
	for rows.Next() {
		var p pk
		if err := rows.Scan(&p.table, &p.column); err != nil {
			rows.Close()
			return fmt.Errorf("store: validate primary columns: %w", err)
		}
		pks = append(pks, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range pks {
		var dupes int
		q := fmt.Sprintf(
			`SELECT COUNT(*) FROM (SELECT "%s" FROM "%s" WHERE "%s" IS NOT NULL GROUP BY "%s" HAVING COUNT(*) > 1)`,
			p.column, physicalTableName(p.table), p.column, p.column)
		if err := t.tx.QueryRowContext(ctx, q).Scan(&dupes); err != nil {
			return fmt.Errorf("store: validate primary key for %s: %w", p.table, err)
		}
		if dupes > 0 {
			return fmt.Errorf("store: primary key '%s.%s' is not unique after migration", p.table, p.column)
		}
	}
	return nil
}
