package store

import "github.com/arkilian/schemaengine/pkg/types"

// Sidecar schema for the SQLite-backed realization of the Group/Table
// contract. SQLite has no native notion of nullable-as-a-type-flag,
// collection-of-scalar columns, link targets, fulltext flags, or a named
// primary key column, so those structural facts live in two hidden
// bookkeeping tables rather than in the physical table's own DDL. Every
// other structural fact (table existence, column existence, column name)
// is still backed by real SQLite DDL: CREATE TABLE, ALTER TABLE ADD
// COLUMN / DROP COLUMN / RENAME COLUMN, CREATE INDEX.

// createSidecarTablesSQL bootstraps the two hidden catalog tables. They
// are created once per database, outside of the caller's schema.
const createSidecarTablesSQL = `
CREATE TABLE IF NOT EXISTS __arkilian_tables (
    table_key INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    table_type INTEGER NOT NULL,
    primary_key_column INTEGER
);

CREATE TABLE IF NOT EXISTS __arkilian_properties (
    column_key INTEGER PRIMARY KEY AUTOINCREMENT,
    table_key INTEGER NOT NULL REFERENCES __arkilian_tables(table_key),
    name TEXT NOT NULL,
    base_type INTEGER NOT NULL,
    nullable INTEGER NOT NULL,
    collection INTEGER NOT NULL,
    object_type TEXT NOT NULL DEFAULT '',
    link_origin_property TEXT NOT NULL DEFAULT '',
    index_type INTEGER NOT NULL DEFAULT 0,
    create_order INTEGER NOT NULL,
    UNIQUE(table_key, name)
);
`

// physicalTableName maps a Group-level table name (such as "class_Dog"
// or "metadata") to the real SQLite table backing it, which carries one
// more "class_" prefix. Sidecar bookkeeping keys off the Group-level
// name directly, never the physical name, so renaming the mapping
// strategy here never requires a sidecar migration.
func physicalTableName(className string) string {
	return "class_" + className
}

// sqlColumnType maps a Property's type to the storage class used for its
// physical SQLite column. Collections and several scalar kinds with no
// native SQLite representation (Decimal, UUID, ObjectId, Date, Mixed) are
// stored as canonical TEXT/JSON; the sidecar row is what the engine
// actually trusts for type identity.
func sqlColumnType(base types.BaseType, collection types.CollectionKind) string {
	if collection != types.CollectionNone { // any non-scalar shape is JSON-encoded TEXT
		return "TEXT"
	}
	switch base {
	case types.Int, types.Bool:
		return "INTEGER"
	case types.Float, types.Double:
		return "REAL"
	case types.Data:
		return "BLOB"
	case types.Object:
		return "INTEGER" // stores the target row's rowid
	default:
		return "TEXT"
	}
}
