package engine

import (
	"context"
	"fmt"

	"github.com/arkilian/schemaengine/internal/store"
	"github.com/arkilian/schemaengine/pkg/types"
)

// fakeGroup is a minimal in-memory stand-in for the SQLite-backed store,
// enough to drive the orchestrator state machine through its branches
// without a real database file.
type fakeGroup struct {
	tables       map[int64]*fakeTable
	byName       map[string]int64
	nextTableKey int64
}

func newFakeGroup() *fakeGroup {
	return &fakeGroup{tables: make(map[int64]*fakeTable), byName: make(map[string]int64)}
}

type fakeTable struct {
	key       types.TableKey
	name      string
	tableType types.TableType
	columns   []*fakeColumn
	nextCol   int64
	pkCol     *types.ColumnKey
	rowCount  int
	int64Row  map[int64]int64
}

type fakeColumn struct {
	key        types.ColumnKey
	name       string
	propType   types.PropertyType
	objectType string
	index      types.IndexType
}

func (g *fakeGroup) addTable(ctx context.Context, name string, tableType types.TableType) (*fakeTable, error) {
	if _, ok := g.byName[name]; ok {
		return nil, fmt.Errorf("fake: table %q already exists", name)
	}
	g.nextTableKey++
	key := types.NewTableKey(g.nextTableKey)
	t := &fakeTable{key: key, name: name, tableType: tableType, int64Row: make(map[int64]int64)}
	g.tables[key.Int64()] = t
	g.byName[name] = key.Int64()
	return t, nil
}

func (g *fakeGroup) GetOrAddTable(ctx context.Context, name string, tableType types.TableType) (store.Table, error) {
	if id, ok := g.byName[name]; ok {
		return g.tables[id], nil
	}
	return g.addTable(ctx, name, tableType)
}

func (g *fakeGroup) AddTable(ctx context.Context, name string, tableType types.TableType) (store.Table, error) {
	return g.addTable(ctx, name, tableType)
}

func (g *fakeGroup) AddTableWithPrimaryKey(ctx context.Context, name string, pkType types.PropertyType, pkName string, tableType types.TableType) (store.Table, error) {
	t, err := g.addTable(ctx, name, tableType)
	if err != nil {
		return nil, err
	}
	col, err := t.AddColumn(ctx, pkType, pkName)
	if err != nil {
		return nil, err
	}
	if err := t.SetPrimaryKeyColumn(ctx, &col); err != nil {
		return nil, err
	}
	return t, nil
}

func (g *fakeGroup) GetTable(ctx context.Context, name string) (store.Table, bool, error) {
	id, ok := g.byName[name]
	if !ok {
		return nil, false, nil
	}
	return g.tables[id], true, nil
}

func (g *fakeGroup) GetTableByKey(ctx context.Context, key types.TableKey) (store.Table, bool, error) {
	t, ok := g.tables[key.Int64()]
	return t, ok, nil
}

func (g *fakeGroup) RemoveTable(ctx context.Context, key types.TableKey) error {
	t, ok := g.tables[key.Int64()]
	if !ok {
		return nil
	}
	delete(g.byName, t.name)
	delete(g.tables, key.Int64())
	return nil
}

func (g *fakeGroup) GetTableKeys(ctx context.Context) ([]types.TableKey, error) {
	keys := make([]types.TableKey, 0, len(g.tables))
	for _, t := range g.tables {
		keys = append(keys, t.key)
	}
	return keys, nil
}

func (g *fakeGroup) GetTableName(ctx context.Context, key types.TableKey) (string, error) {
	t, ok := g.tables[key.Int64()]
	if !ok {
		return "", fmt.Errorf("fake: no such table key")
	}
	return t.name, nil
}

func (g *fakeGroup) Size(ctx context.Context) (int, error) { return len(g.tables), nil }

func (t *fakeTable) Name() string        { return t.name }
func (t *fakeTable) Key() types.TableKey { return t.key }

func (t *fakeTable) findColumn(name string) *fakeColumn {
	for _, c := range t.columns {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (t *fakeTable) findColumnByKey(key types.ColumnKey) *fakeColumn {
	for _, c := range t.columns {
		if c.key == key {
			return c
		}
	}
	return nil
}

func (t *fakeTable) AddColumn(ctx context.Context, propType types.PropertyType, name string) (types.ColumnKey, error) {
	if t.findColumn(name) != nil {
		return types.ColumnKey{}, fmt.Errorf("fake: column %q already exists on %q", name, t.name)
	}
	t.nextCol++
	key := types.NewColumnKey(t.nextCol)
	t.columns = append(t.columns, &fakeColumn{key: key, name: name, propType: propType})
	return key, nil
}

func (t *fakeTable) AddLinkColumn(ctx context.Context, target store.Table, name string, collection types.CollectionKind) (types.ColumnKey, error) {
	key, err := t.AddColumn(ctx, types.PropertyType{Base: types.Object, Collection: collection}, name)
	if err != nil {
		return key, err
	}
	t.findColumnByKey(key).objectType = target.Name()
	return key, nil
}

func (t *fakeTable) RemoveColumn(ctx context.Context, col types.ColumnKey) error {
	for i, c := range t.columns {
		if c.key == col {
			t.columns = append(t.columns[:i], t.columns[i+1:]...)
			if t.pkCol != nil && *t.pkCol == col {
				t.pkCol = nil
			}
			return nil
		}
	}
	return fmt.Errorf("fake: no such column")
}

func (t *fakeTable) RenameColumn(ctx context.Context, col types.ColumnKey, newName string) error {
	c := t.findColumnByKey(col)
	if c == nil {
		return fmt.Errorf("fake: no such column")
	}
	c.name = newName
	return nil
}

func (t *fakeTable) GetColumnKey(ctx context.Context, name string) (types.ColumnKey, bool, error) {
	c := t.findColumn(name)
	if c == nil {
		return types.ColumnKey{}, false, nil
	}
	return c.key, true, nil
}

func (t *fakeTable) SetNullability(ctx context.Context, col types.ColumnKey, nullable bool, throwOnNull bool) error {
	c := t.findColumnByKey(col)
	if c == nil {
		return fmt.Errorf("fake: no such column")
	}
	c.propType.Nullable = nullable
	return nil
}

func (t *fakeTable) SetPrimaryKeyColumn(ctx context.Context, col *types.ColumnKey) error {
	t.pkCol = col
	return nil
}

func (t *fakeTable) SetTableType(ctx context.Context, tableType types.TableType, handleBacklinksAutomatically bool) error {
	t.tableType = tableType
	return nil
}

func (t *fakeTable) AddSearchIndex(ctx context.Context, col types.ColumnKey, kind types.IndexType) error {
	c := t.findColumnByKey(col)
	if c == nil {
		return fmt.Errorf("fake: no such column")
	}
	c.index = kind
	return nil
}

func (t *fakeTable) RemoveSearchIndex(ctx context.Context, col types.ColumnKey) error {
	c := t.findColumnByKey(col)
	if c == nil {
		return fmt.Errorf("fake: no such column")
	}
	c.index = types.IndexNone
	return nil
}

func (t *fakeTable) AddFulltextIndex(ctx context.Context, col types.ColumnKey) error {
	return t.AddSearchIndex(ctx, col, types.IndexFulltext)
}

func (t *fakeTable) IsEmpty(ctx context.Context) (bool, error) { return t.rowCount == 0, nil }

func (t *fakeTable) Columns(ctx context.Context) ([]types.Property, error) {
	props := make([]types.Property, 0, len(t.columns))
	for _, c := range t.columns {
		props = append(props, types.Property{
			Name:       c.name,
			Type:       c.propType,
			Index:      c.index,
			ObjectType: c.objectType,
			IsPrimary:  t.pkCol != nil && *t.pkCol == c.key,
			ColumnKey:  c.key,
		})
	}
	return props, nil
}

func (t *fakeTable) TableType(ctx context.Context) (types.TableType, error) { return t.tableType, nil }

func (t *fakeTable) PrimaryKeyColumn(ctx context.Context) (types.ColumnKey, bool, error) {
	if t.pkCol == nil {
		return types.ColumnKey{}, false, nil
	}
	return *t.pkCol, true, nil
}

func (t *fakeTable) ColumnName(ctx context.Context, col types.ColumnKey) (string, error) {
	c := t.findColumnByKey(col)
	if c == nil {
		return "", fmt.Errorf("fake: no such column")
	}
	return c.name, nil
}

func (t *fakeTable) ReadInt64Row(ctx context.Context, col types.ColumnKey) (int64, bool, error) {
	v, ok := t.int64Row[col.Int64()]
	return v, ok, nil
}

func (t *fakeTable) WriteInt64Row(ctx context.Context, col types.ColumnKey, value int64) error {
	t.int64Row[col.Int64()] = value
	return nil
}

var _ store.Table = (*fakeTable)(nil)
var _ store.Group = (*fakeGroup)(nil)

// fakeTxn wraps fakeGroup with the two extra Transaction primitives. It
// never rejects a primary key: the fixtures in this package's tests never
// populate rows, so duplicate-row detection has nothing to check.
type fakeTxn struct {
	*fakeGroup
}

func newFakeTxn() *fakeTxn { return &fakeTxn{fakeGroup: newFakeGroup()} }

func (t *fakeTxn) Logger() store.Logger                            { return fakeLogger{} }
func (t *fakeTxn) ValidatePrimaryColumns(ctx context.Context) error { return nil }

var _ store.Transaction = (*fakeTxn)(nil)

type fakeLogger struct{}

func (fakeLogger) Debugf(string, ...interface{}) {}
