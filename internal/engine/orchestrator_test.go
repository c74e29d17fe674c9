package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/arkilian/schemaengine/internal/differ"
	"github.com/arkilian/schemaengine/internal/rename"
	"github.com/arkilian/schemaengine/internal/schemaerr"
	"github.com/arkilian/schemaengine/pkg/types"
)

func dogSchema(props ...types.Property) types.Schema {
	return types.NewSchema([]types.ObjectSchema{
		{Name: "Dog", TableType: types.TopLevel, PersistedProperties: props},
	})
}

func stringProp(name string) types.Property {
	return types.Property{Name: name, Type: types.PropertyType{Base: types.String}}
}

func TestOrchestrator_FreshCreate(t *testing.T) {
	ctx := context.Background()
	txn := newFakeTxn()

	target := dogSchema(stringProp("name"))
	changes := differ.Diff(types.Schema{}, target, differ.ModeDefault)

	err := ApplySchemaChanges(ctx, txn, &target, Options{
		SchemaVersion:       NotVersioned,
		TargetSchemaVersion: 1,
		Mode:                Automatic,
		Changes:             changes,
	})
	if err != nil {
		t.Fatalf("fresh create: unexpected error: %v", err)
	}

	gotVersion, err := GetSchemaVersion(ctx, txn)
	if err != nil {
		t.Fatalf("GetSchemaVersion: %v", err)
	}
	if gotVersion != 1 {
		t.Fatalf("schema version = %d, want 1", gotVersion)
	}

	table, ok, err := txn.GetTable(ctx, "class_Dog")
	if err != nil || !ok {
		t.Fatalf("expected class_Dog to exist, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := table.GetColumnKey(ctx, "name"); !ok {
		t.Fatal("expected the name column to have been created")
	}

	if target.Find("Dog").TableKey.Valid() == false {
		t.Fatal("expected SetSchemaKeys to bind the class's TableKey")
	}
}

func TestOrchestrator_AdditiveAddsTableThenColumn(t *testing.T) {
	ctx := context.Background()
	txn := newFakeTxn()

	target := dogSchema(stringProp("name"))
	changes := differ.Diff(types.Schema{}, target, differ.ModeDefault)
	if err := ApplySchemaChanges(ctx, txn, &target, Options{
		SchemaVersion:       NotVersioned,
		TargetSchemaVersion: 1,
		Mode:                AdditiveDiscovered,
		Changes:             changes,
	}); err != nil {
		t.Fatalf("additive create: unexpected error: %v", err)
	}

	current, err := SchemaFromGroup(ctx, txn)
	if err != nil {
		t.Fatalf("SchemaFromGroup: %v", err)
	}

	target2 := dogSchema(stringProp("name"), stringProp("breed"))
	changes2 := differ.Diff(current, target2, differ.ModeDefault)
	if err := ApplySchemaChanges(ctx, txn, &target2, Options{
		SchemaVersion:       1,
		TargetSchemaVersion: 1,
		Mode:                AdditiveDiscovered,
		Changes:             changes2,
	}); err != nil {
		t.Fatalf("additive add column: unexpected error: %v", err)
	}

	table, ok, err := txn.GetTable(ctx, "class_Dog")
	if err != nil || !ok {
		t.Fatalf("expected class_Dog to exist, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := table.GetColumnKey(ctx, "breed"); !ok {
		t.Fatal("expected the breed column to have been added additively")
	}

	gotVersion, err := GetSchemaVersion(ctx, txn)
	if err != nil {
		t.Fatalf("GetSchemaVersion: %v", err)
	}
	if gotVersion != 1 {
		t.Fatalf("schema version should not have changed on an equal-version additive apply, got %d", gotVersion)
	}
}

func TestOrchestrator_SameVersionRejectsNonAdditiveChange(t *testing.T) {
	ctx := context.Background()
	txn := newFakeTxn()

	target := dogSchema(stringProp("name"))
	changes := differ.Diff(types.Schema{}, target, differ.ModeDefault)
	if err := ApplySchemaChanges(ctx, txn, &target, Options{
		SchemaVersion:       NotVersioned,
		TargetSchemaVersion: 1,
		Mode:                Automatic,
		Changes:             changes,
	}); err != nil {
		t.Fatalf("fresh create: unexpected error: %v", err)
	}

	current, err := SchemaFromGroup(ctx, txn)
	if err != nil {
		t.Fatalf("SchemaFromGroup: %v", err)
	}

	target2 := dogSchema(stringProp("name"), stringProp("breed"))
	changes2 := differ.Diff(current, target2, differ.ModeDefault)
	err = ApplySchemaChanges(ctx, txn, &target2, Options{
		SchemaVersion:       1,
		TargetSchemaVersion: 1,
		Mode:                Automatic,
		Changes:             changes2,
	})
	if err == nil {
		t.Fatal("expected AddProperty to be rejected at equal schema version")
	}
	var schemaErr *schemaerr.Error
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *schemaerr.Error, got %T: %v", err, err)
	}
	if schemaErr.Kind != schemaerr.KindSchemaMismatch {
		t.Errorf("expected KindSchemaMismatch, got %s", schemaErr.Kind)
	}
}

func TestOrchestrator_ReadOnlyRejectsPropertyAddition(t *testing.T) {
	ctx := context.Background()
	txn := newFakeTxn()

	target := dogSchema(stringProp("name"))
	changes := differ.Diff(types.Schema{}, target, differ.ModeDefault)
	if err := ApplySchemaChanges(ctx, txn, &target, Options{
		SchemaVersion:       NotVersioned,
		TargetSchemaVersion: 1,
		Mode:                Automatic,
		Changes:             changes,
	}); err != nil {
		t.Fatalf("fresh create: unexpected error: %v", err)
	}

	current, err := SchemaFromGroup(ctx, txn)
	if err != nil {
		t.Fatalf("SchemaFromGroup: %v", err)
	}

	// AddProperty is outside the Immutable/ReadOnly legal set, so it must
	// be rejected before any attempt to apply it, regardless of whether
	// schema versions match.
	target2 := dogSchema(stringProp("name"), stringProp("breed"))
	changes2 := differ.Diff(current, target2, differ.ModeDefault)
	err = ApplySchemaChanges(ctx, txn, &target2, Options{
		SchemaVersion:       1,
		TargetSchemaVersion: 1,
		Mode:                ReadOnly,
		Changes:             changes2,
	})
	if err == nil {
		t.Fatal("expected AddProperty to be rejected under ReadOnly")
	}
	var schemaErr *schemaerr.Error
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *schemaerr.Error, got %T: %v", err, err)
	}
	if schemaErr.Kind != schemaerr.KindInvalidReadOnlySchemaChange {
		t.Errorf("expected KindInvalidReadOnlySchemaChange, got %s", schemaErr.Kind)
	}
}

func TestOrchestrator_MigrationWithRename(t *testing.T) {
	ctx := context.Background()
	txn := newFakeTxn()

	v1 := dogSchema(stringProp("name"))
	changes := differ.Diff(types.Schema{}, v1, differ.ModeDefault)
	if err := ApplySchemaChanges(ctx, txn, &v1, Options{
		SchemaVersion:       NotVersioned,
		TargetSchemaVersion: 1,
		Mode:                Automatic,
		Changes:             changes,
	}); err != nil {
		t.Fatalf("v1 create: unexpected error: %v", err)
	}

	current, err := SchemaFromGroup(ctx, txn)
	if err != nil {
		t.Fatalf("SchemaFromGroup: %v", err)
	}

	v2 := dogSchema(stringProp("fullName"))
	changes2 := differ.Diff(current, v2, differ.ModeDefault)

	err = ApplySchemaChanges(ctx, txn, &v2, Options{
		SchemaVersion:       1,
		TargetSchemaVersion: 2,
		Mode:                Automatic,
		Changes:             changes2,
		MigrationFunc: func(ctx context.Context) error {
			return rename.RenameProperty(ctx, txn, &v2, "Dog", "name", "fullName")
		},
	})
	if err != nil {
		t.Fatalf("migration with rename: unexpected error: %v", err)
	}

	table, ok, err := txn.GetTable(ctx, "class_Dog")
	if err != nil || !ok {
		t.Fatalf("expected class_Dog to exist, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := table.GetColumnKey(ctx, "name"); ok {
		t.Fatal("expected the old name column to be gone after the rename")
	}
	if _, ok, _ := table.GetColumnKey(ctx, "fullName"); !ok {
		t.Fatal("expected the fullName column to exist after the rename")
	}

	gotVersion, err := GetSchemaVersion(ctx, txn)
	if err != nil {
		t.Fatalf("GetSchemaVersion: %v", err)
	}
	if gotVersion != 2 {
		t.Fatalf("schema version = %d, want 2", gotVersion)
	}
}

func TestOrchestrator_RequiresMigrationWithoutCallbackRaisesSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	txn := newFakeTxn()

	v1 := dogSchema(stringProp("name"))
	changes := differ.Diff(types.Schema{}, v1, differ.ModeDefault)
	if err := ApplySchemaChanges(ctx, txn, &v1, Options{
		SchemaVersion:       NotVersioned,
		TargetSchemaVersion: 1,
		Mode:                Automatic,
		Changes:             changes,
	}); err != nil {
		t.Fatalf("v1 create: unexpected error: %v", err)
	}

	current, err := SchemaFromGroup(ctx, txn)
	if err != nil {
		t.Fatalf("SchemaFromGroup: %v", err)
	}

	// Adding a required property needs a migration; under Automatic mode
	// with no MigrationFunc this must fail with SchemaMismatch rather than
	// applying the change unsupervised.
	v2 := dogSchema(stringProp("name"), stringProp("breed"))
	changes2 := differ.Diff(current, v2, differ.ModeDefault)
	err = ApplySchemaChanges(ctx, txn, &v2, Options{
		SchemaVersion:       1,
		TargetSchemaVersion: 2,
		Mode:                Automatic,
		Changes:             changes2,
	})
	if err == nil {
		t.Fatal("expected SchemaMismatch error, got nil")
	}
	var schemaErr *schemaerr.Error
	if !errors.As(err, &schemaErr) || schemaErr.Kind != schemaerr.KindSchemaMismatch {
		t.Fatalf("expected KindSchemaMismatch, got %v", err)
	}
	if !containsIssue(schemaErr.Issues, "'Dog.breed' has been added") {
		t.Fatalf("expected an issue mentioning Dog.breed has been added, got %v", schemaErr.Issues)
	}
}

func containsIssue(issues []types.ValidationIssue, substr string) bool {
	for _, issue := range issues {
		if strings.Contains(issue.Message, substr) {
			return true
		}
	}
	return false
}
