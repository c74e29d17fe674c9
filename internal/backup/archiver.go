// Package backup provides the Archiver collaborator the orchestrator
// calls before signaling that a SoftResetFile/HardResetFile migration
// requires the caller to delete and recreate the file: it snapshots the
// schema that is about to be discarded so an operator can recover what
// shape the data was in, mirroring the archival role
// internal/storage/s3.go plays for the manifest catalog's compacted
// partitions.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arkilian/schemaengine/pkg/types"
)

// Archiver snapshots a schema that is being discarded by a file reset,
// tagged with a human-readable reason ("SoftResetFile: migration
// required", "HardResetFile: migration required").
type Archiver interface {
	ArchiveSchema(ctx context.Context, schema types.Schema, reason string) error
}

// snapshot is the archived payload: enough to reconstruct what the
// discarded file's schema looked like, plus why it was discarded.
type snapshot struct {
	Reason      string      `json:"reason"`
	Classes     []classJSON `json:"classes"`
	Fingerprint uint64      `json:"fingerprint"`
}

type classJSON struct {
	Name       string   `json:"name"`
	TableType  string   `json:"table_type"`
	PrimaryKey string   `json:"primary_key,omitempty"`
	Properties []string `json:"properties"`
}

func encodeSnapshot(schema types.Schema, reason string) ([]byte, error) {
	s := snapshot{Reason: reason, Fingerprint: schema.Fingerprint()}
	for _, c := range schema.Classes() {
		cj := classJSON{Name: c.Name, TableType: c.TableType.String(), PrimaryKey: c.PrimaryKey}
		for _, p := range c.PersistedProperties {
			cj.Properties = append(cj.Properties, p.Name+":"+p.TypeString())
		}
		s.Classes = append(s.Classes, cj)
	}
	return json.Marshal(s)
}

// snapshotKey names the archived object by reset time plus a random
// suffix: two resets landing in the same process within the same
// nanosecond-formatted timestamp must not silently overwrite each
// other's snapshot.
func snapshotKey(prefix string, now time.Time) string {
	return fmt.Sprintf("%sschema-reset-%s-%s.json", prefix, now.UTC().Format("20060102T150405.000000000Z"), uuid.NewString())
}

// NoopArchiver discards the snapshot; used when no archival destination
// is configured.
type NoopArchiver struct{}

func (NoopArchiver) ArchiveSchema(context.Context, types.Schema, string) error { return nil }
