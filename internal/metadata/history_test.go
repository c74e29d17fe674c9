package metadata

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/arkilian/schemaengine/pkg/types"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func dogSchema(props ...string) types.Schema {
	var persisted []types.Property
	for _, p := range props {
		persisted = append(persisted, types.Property{Name: p, Type: types.PropertyType{Base: types.String}})
	}
	return types.NewSchema([]types.ObjectSchema{
		{Name: "Dog", TableType: types.TopLevel, PersistedProperties: persisted},
	})
}

func TestManagerRegisterAndGetVersion(t *testing.T) {
	ctx := context.Background()
	mgr, err := NewManager(openTestDB(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	schema := dogSchema("name")
	if err := mgr.RegisterVersion(ctx, 1, schema); err != nil {
		t.Fatalf("RegisterVersion: %v", err)
	}

	got, ok, err := mgr.Get(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Version != 1 {
		t.Errorf("version = %d, want 1", got.Version)
	}
	if !types.StructurallyEqual(got.Schema, schema) {
		t.Error("round-tripped schema is not structurally equal to the original")
	}
}

func TestManagerLatestReflectsMostRecentVersion(t *testing.T) {
	ctx := context.Background()
	mgr, err := NewManager(openTestDB(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, ok, err := mgr.Latest(ctx); err != nil || ok {
		t.Fatalf("expected no latest before any registration, ok=%v err=%v", ok, err)
	}

	if err := mgr.RegisterVersion(ctx, 1, dogSchema("name")); err != nil {
		t.Fatalf("RegisterVersion(1): %v", err)
	}
	if err := mgr.RegisterVersion(ctx, 2, dogSchema("name", "breed")); err != nil {
		t.Fatalf("RegisterVersion(2): %v", err)
	}

	latest, ok, err := mgr.Latest(ctx)
	if err != nil || !ok {
		t.Fatalf("Latest: ok=%v err=%v", ok, err)
	}
	if latest.Version != 2 {
		t.Errorf("latest version = %d, want 2", latest.Version)
	}
	if latest.Schema.Find("Dog").PropertyForName("breed") == nil {
		t.Error("expected the latest snapshot to include the breed property")
	}
}

func TestManagerRegisterVersionSkipsStructurallyIdenticalRewrite(t *testing.T) {
	ctx := context.Background()
	mgr, err := NewManager(openTestDB(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	schema := dogSchema("name")
	if err := mgr.RegisterVersion(ctx, 1, schema); err != nil {
		t.Fatalf("RegisterVersion(1): %v", err)
	}
	// Same structural content under a would-be version bump; since the
	// fingerprint and structural comparison both agree nothing changed,
	// no new row should be written and the latest version stays 1.
	if err := mgr.RegisterVersion(ctx, 2, schema); err != nil {
		t.Fatalf("RegisterVersion(2): %v", err)
	}

	history, err := mgr.History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected exactly one history entry, got %d", len(history))
	}
}

func TestManagerHistoryOrdersOldestFirst(t *testing.T) {
	ctx := context.Background()
	mgr, err := NewManager(openTestDB(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	for v, props := range map[uint64][]string{1: {"name"}, 2: {"name", "breed"}, 3: {"name", "breed", "age"}} {
		if err := mgr.RegisterVersion(ctx, v, dogSchema(props...)); err != nil {
			t.Fatalf("RegisterVersion(%d): %v", v, err)
		}
	}

	history, err := mgr.History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].Version <= history[i-1].Version {
			t.Fatalf("expected strictly increasing versions, got %d then %d", history[i-1].Version, history[i].Version)
		}
	}
}

func TestManagerGetReturnsNotFoundForUnknownVersion(t *testing.T) {
	ctx := context.Background()
	mgr, err := NewManager(openTestDB(t))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	_, ok, err := mgr.Get(ctx, 99)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for an unregistered version")
	}
}
