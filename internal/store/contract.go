// Package store defines the opaque table/column storage-engine contract
// consumed by the schema engine (Group, Table, Transaction) and
// provides a concrete realization of it backed by SQLite via
// mattn/go-sqlite3. The contract is intentionally narrow: the schema
// engine never reaches past it into SQL directly.
package store

import (
	"context"

	"github.com/arkilian/schemaengine/pkg/types"
)

// Logger is the narrow logging surface a Transaction exposes to the
// orchestrator.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// Group is the opaque table-level storage engine contract: a collection
// of tables, addressable by name or by TableKey.
type Group interface {
	// GetOrAddTable returns the named table, creating a plain (no
	// primary key) table of the given type if it does not already exist.
	GetOrAddTable(ctx context.Context, name string, tableType types.TableType) (Table, error)

	// AddTable creates a new table of the given type. It is an error to
	// call it for a name that already exists; callers that want
	// idempotent creation use GetOrAddTable.
	AddTable(ctx context.Context, name string, tableType types.TableType) (Table, error)

	// AddTableWithPrimaryKey creates a new table whose primary key column
	// is created as part of table creation, named pkName with type pkType.
	AddTableWithPrimaryKey(ctx context.Context, name string, pkType types.PropertyType, pkName string, tableType types.TableType) (Table, error)

	// GetTable returns the named table, or ok=false if it does not exist.
	GetTable(ctx context.Context, name string) (table Table, ok bool, err error)

	// GetTableByKey resolves a previously-bound TableKey back to a Table.
	GetTableByKey(ctx context.Context, key types.TableKey) (Table, bool, error)

	// RemoveTable drops the named table. Never invoked by any applier for
	// RemoveTable changes, which are never auto-applied; exposed for
	// completeness and for DeleteDataForObject.
	RemoveTable(ctx context.Context, key types.TableKey) error

	// GetTableKeys lists every table, including hidden ones
	// (metadata, ...). Callers filter using
	// ObjectTypeForTableName.
	GetTableKeys(ctx context.Context) ([]types.TableKey, error)

	// GetTableName resolves a TableKey to its name.
	GetTableName(ctx context.Context, key types.TableKey) (string, error)

	// Size reports the number of tables, hidden tables included.
	Size(ctx context.Context) (int, error)
}

// Table is the opaque column-level storage engine contract for one table.
type Table interface {
	Name() string
	Key() types.TableKey

	// AddColumn adds a scalar (non-link) column.
	AddColumn(ctx context.Context, propType types.PropertyType, name string) (types.ColumnKey, error)

	// AddLinkColumn adds an Object-typed column referring to target, which
	// must already exist. collection honors List/Set/Dictionary shape.
	AddLinkColumn(ctx context.Context, target Table, name string, collection types.CollectionKind) (types.ColumnKey, error)

	RemoveColumn(ctx context.Context, col types.ColumnKey) error
	RenameColumn(ctx context.Context, col types.ColumnKey, newName string) error

	// GetColumnKey returns ok=false if no column with that name exists.
	GetColumnKey(ctx context.Context, name string) (col types.ColumnKey, ok bool, err error)

	// SetNullability sets nullability in place. throwOnNull requests that
	// the engine refuse to widen-then-narrow through existing nulls; the
	// schema engine always calls this with throwOnNull=false.
	SetNullability(ctx context.Context, col types.ColumnKey, nullable bool, throwOnNull bool) error

	// SetPrimaryKeyColumn sets the table's primary key column, or clears it
	// when col is nil.
	SetPrimaryKeyColumn(ctx context.Context, col *types.ColumnKey) error

	// SetTableType changes the table's storage shape.
	// handleBacklinksAutomatically controls whether dangling backlinks are
	// converted automatically when the table becomes Embedded; forwarded
	// verbatim from the orchestrator.
	SetTableType(ctx context.Context, tableType types.TableType, handleBacklinksAutomatically bool) error

	AddSearchIndex(ctx context.Context, col types.ColumnKey, kind types.IndexType) error
	RemoveSearchIndex(ctx context.Context, col types.ColumnKey) error
	AddFulltextIndex(ctx context.Context, col types.ColumnKey) error

	IsEmpty(ctx context.Context) (bool, error)

	// Columns returns every persisted column's Property description, in
	// creation order, for reconstructing an ObjectSchema in
	// schema_from_group. ObjectType/PropertyType are fully populated;
	// ColumnKey is bound.
	Columns(ctx context.Context) ([]types.Property, error)

	// TableType reports the table's current storage shape.
	TableType(ctx context.Context) (types.TableType, error)

	// PrimaryKeyColumn returns the table's primary key column, if any.
	PrimaryKeyColumn(ctx context.Context) (col types.ColumnKey, ok bool, err error)

	// ColumnName resolves a ColumnKey back to its current name.
	ColumnName(ctx context.Context, col types.ColumnKey) (string, error)

	// ReadInt64Row and WriteInt64Row read/write the single scalar cell of
	// the table's single row. Object/row data access is otherwise out of
	// this contract's scope; this pair exists only because the single-row
	// "metadata" table holding the schema version is itself part of the
	// core API the engine exposes, not a caller-level data operation.
	ReadInt64Row(ctx context.Context, col types.ColumnKey) (value int64, ok bool, err error)
	WriteInt64Row(ctx context.Context, col types.ColumnKey, value int64) error
}

// Transaction is a Group bound to a single open write transaction, plus
// the two extra primitives the orchestrator needs: a logger and
// cross-table primary-key validation.
type Transaction interface {
	Group
	Logger() Logger
	// ValidatePrimaryColumns checks that every table's primary key column
	// (if any) still satisfies uniqueness, called after a Manual-mode
	// callback or after a migration callback runs.
	ValidatePrimaryColumns(ctx context.Context) error
}
