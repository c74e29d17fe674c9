package backup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arkilian/schemaengine/pkg/types"
)

func sampleSchema() types.Schema {
	return types.NewSchema([]types.ObjectSchema{
		{Name: "Dog", TableType: types.TopLevel, PrimaryKey: "id", PersistedProperties: []types.Property{
			{Name: "id", Type: types.PropertyType{Base: types.Int}, IsPrimary: true},
			{Name: "name", Type: types.PropertyType{Base: types.String}},
		}},
	})
}

func TestEncodeSnapshotRoundTripsThroughJSON(t *testing.T) {
	schema := sampleSchema()
	payload, err := encodeSnapshot(schema, "HardResetFile: migration required")
	if err != nil {
		t.Fatalf("encodeSnapshot: %v", err)
	}

	var s snapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if s.Reason != "HardResetFile: migration required" {
		t.Errorf("reason = %q", s.Reason)
	}
	if s.Fingerprint != schema.Fingerprint() {
		t.Errorf("fingerprint = %d, want %d", s.Fingerprint, schema.Fingerprint())
	}
	if len(s.Classes) != 1 || s.Classes[0].Name != "Dog" || s.Classes[0].PrimaryKey != "id" {
		t.Errorf("unexpected classes: %+v", s.Classes)
	}
	if len(s.Classes[0].Properties) != 2 {
		t.Errorf("expected 2 properties, got %d", len(s.Classes[0].Properties))
	}
}

func TestSnapshotKeyIsUniqueForSameTimestamp(t *testing.T) {
	now := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)
	a := snapshotKey("prefix/", now)
	b := snapshotKey("prefix/", now)
	if a == b {
		t.Fatal("expected two snapshot keys for the same timestamp to differ")
	}
	if filepath.Ext(a) != ".json" {
		t.Errorf("expected a .json suffix, got %q", a)
	}
}

func TestNoopArchiverDiscardsSnapshot(t *testing.T) {
	if err := (NoopArchiver{}).ArchiveSchema(context.Background(), sampleSchema(), "test"); err != nil {
		t.Fatalf("NoopArchiver.ArchiveSchema: %v", err)
	}
}

func TestLocalArchiverWritesAFile(t *testing.T) {
	dir := t.TempDir()
	archiver, err := NewLocalArchiver(dir)
	if err != nil {
		t.Fatalf("NewLocalArchiver: %v", err)
	}

	if err := archiver.ArchiveSchema(context.Background(), sampleSchema(), "SoftResetFile: migration required"); err != nil {
		t.Fatalf("ArchiveSchema: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one archived file, got %d", len(entries))
	}

	payload, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var s snapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		t.Fatalf("unmarshal archived payload: %v", err)
	}
	if s.Reason != "SoftResetFile: migration required" {
		t.Errorf("reason = %q", s.Reason)
	}
}

func TestLocalArchiverRejectsCancelledContext(t *testing.T) {
	dir := t.TempDir()
	archiver, err := NewLocalArchiver(dir)
	if err != nil {
		t.Fatalf("NewLocalArchiver: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := archiver.ArchiveSchema(ctx, sampleSchema(), "test"); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
