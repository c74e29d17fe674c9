package apply

import (
	"context"
	"fmt"

	"github.com/arkilian/schemaengine/internal/store"
	"github.com/arkilian/schemaengine/pkg/types"
)

// fakeGroup is a minimal in-memory store.Group, just enough surface for
// the appliers in this package to exercise against without a real
// database. Mirrors internal/engine's own test fake; kept separate since
// apply must not import engine.
type fakeGroup struct {
	tables map[string]*fakeTable
	nextTK int64
}

func newFakeGroup() *fakeGroup {
	return &fakeGroup{tables: make(map[string]*fakeTable)}
}

type fakeTable struct {
	key       types.TableKey
	name      string
	tableType types.TableType
	columns   []*fakeColumn
	nextCol   int64
	pkCol     *types.ColumnKey
}

type fakeColumn struct {
	key        types.ColumnKey
	name       string
	propType   types.PropertyType
	objectType string
	index      types.IndexType
}

func (g *fakeGroup) addTable(name string, tableType types.TableType) (*fakeTable, error) {
	if _, ok := g.tables[name]; ok {
		return nil, fmt.Errorf("fake: table %q already exists", name)
	}
	g.nextTK++
	t := &fakeTable{key: types.NewTableKey(g.nextTK), name: name, tableType: tableType}
	g.tables[name] = t
	return t, nil
}

func (g *fakeGroup) GetOrAddTable(ctx context.Context, name string, tableType types.TableType) (store.Table, error) {
	if t, ok := g.tables[name]; ok {
		return t, nil
	}
	return g.addTable(name, tableType)
}

func (g *fakeGroup) AddTable(ctx context.Context, name string, tableType types.TableType) (store.Table, error) {
	return g.addTable(name, tableType)
}

func (g *fakeGroup) AddTableWithPrimaryKey(ctx context.Context, name string, pkType types.PropertyType, pkName string, tableType types.TableType) (store.Table, error) {
	t, err := g.addTable(name, tableType)
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
	t, ok := g.tables[name]
	return t, ok, nil
}

func (g *fakeGroup) GetTableByKey(ctx context.Context, key types.TableKey) (store.Table, bool, error) {
	for _, t := range g.tables {
		if t.key == key {
			return t, true, nil
		}
	}
	return nil, false, nil
}

func (g *fakeGroup) RemoveTable(ctx context.Context, key types.TableKey) error {
	for name, t := range g.tables {
		if t.key == key {
			delete(g.tables, name)
			return nil
		}
	}
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
	for _, t := range g.tables {
		if t.key == key {
			return t.name, nil
		}
	}
	return "", fmt.Errorf("fake: no such table key")
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

func (t *fakeTable) IsEmpty(ctx context.Context) (bool, error) { return true, nil }

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
	return 0, false, nil
}

func (t *fakeTable) WriteInt64Row(ctx context.Context, col types.ColumnKey, value int64) error {
	return nil
}

var _ store.Table = (*fakeTable)(nil)
var _ store.Group = (*fakeGroup)(nil)
