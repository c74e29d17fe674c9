// Package metadata keeps an audit trail of schema versions alongside
// the engine's own metadata table: every version actually registered,
// compressed, and a fingerprinted record. It is layered on top of the
// engine, not consulted by it — apply_schema_changes only reads and
// writes the single "metadata" table's version column (internal/engine)
// and never makes a decision based on this history.
package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/snappy"

	"github.com/arkilian/schemaengine/pkg/types"
)

const createHistoryTableSQL = `
CREATE TABLE IF NOT EXISTS schema_version_history (
    version     INTEGER NOT NULL,
    fingerprint INTEGER NOT NULL,
    snapshot    BLOB NOT NULL,
    created_at  INTEGER NOT NULL,
    PRIMARY KEY (version)
)`

// Manager records a snappy-compressed snapshot of the schema every time
// RegisterVersion observes a structural change, and skips the write
// when the incoming schema is structurally identical to the most
// recently recorded one.
type Manager struct {
	db *sql.DB
}

// NewManager wraps a *sql.DB (normally store.DB.SQL()) that already has
// the engine's own sidecar tables bootstrapped; this package adds its
// own table alongside them.
func NewManager(db *sql.DB) (*Manager, error) {
	if _, err := db.Exec(createHistoryTableSQL); err != nil {
		return nil, fmt.Errorf("metadata: create history table: %w", err)
	}
	return &Manager{db: db}, nil
}

// VersionRecord is one entry of the schema version history.
type VersionRecord struct {
	Version   uint64
	Schema    types.Schema
	CreatedAt time.Time
}

// schemaDTO is the JSON-serializable projection of types.Schema, whose
// own fields are private to keep external callers from mutating the
// class index out from under its name lookup.
type schemaDTO struct {
	Classes []types.ObjectSchema `json:"classes"`
}

func encode(schema types.Schema) ([]byte, error) {
	raw, err := json.Marshal(schemaDTO{Classes: schema.Classes()})
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

func decode(compressed []byte) (types.Schema, error) {
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return types.Schema{}, fmt.Errorf("metadata: decompress snapshot: %w", err)
	}
	var dto schemaDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return types.Schema{}, fmt.Errorf("metadata: unmarshal snapshot: %w", err)
	}
	return types.NewSchema(dto.Classes), nil
}

// RegisterVersion records schema under version, unless the latest
// recorded entry is already structurally identical to it. Fingerprint
// equality is only a pre-filter: on a match it still falls back to
// StructurallyEqual before skipping the insert, since murmur3 can
// collide.
func (m *Manager) RegisterVersion(ctx context.Context, version uint64, schema types.Schema) error {
	latest, ok, err := m.Latest(ctx)
	if err != nil {
		return err
	}
	if ok && latest.Schema.Fingerprint() == schema.Fingerprint() && types.StructurallyEqual(latest.Schema, schema) {
		return nil
	}

	compressed, err := encode(schema)
	if err != nil {
		return fmt.Errorf("metadata: encode schema for version %d: %w", version, err)
	}

	_, err = m.db.ExecContext(ctx,
		`INSERT INTO schema_version_history (version, fingerprint, snapshot, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(version) DO UPDATE SET fingerprint = excluded.fingerprint, snapshot = excluded.snapshot, created_at = excluded.created_at`,
		int64(version), int64(schema.Fingerprint()), compressed, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("metadata: register version %d: %w", version, err)
	}
	return nil
}

// Latest returns the most recently registered version, ok=false if none
// has ever been registered.
func (m *Manager) Latest(ctx context.Context) (VersionRecord, bool, error) {
	return m.scanOne(ctx,
		`SELECT version, snapshot, created_at FROM schema_version_history ORDER BY version DESC LIMIT 1`)
}

// Get returns the snapshot recorded for a specific version.
func (m *Manager) Get(ctx context.Context, version uint64) (VersionRecord, bool, error) {
	return m.scanOne(ctx,
		`SELECT version, snapshot, created_at FROM schema_version_history WHERE version = ?`, int64(version))
}

func (m *Manager) scanOne(ctx context.Context, query string, args ...interface{}) (VersionRecord, bool, error) {
	var (
		version       int64
		snapshot      []byte
		createdAtUnix int64
	)
	err := m.db.QueryRowContext(ctx, query, args...).Scan(&version, &snapshot, &createdAtUnix)
	if err == sql.ErrNoRows {
		return VersionRecord{}, false, nil
	}
	if err != nil {
		return VersionRecord{}, false, fmt.Errorf("metadata: query version history: %w", err)
	}
	schema, err := decode(snapshot)
	if err != nil {
		return VersionRecord{}, false, err
	}
	return VersionRecord{Version: uint64(version), Schema: schema, CreatedAt: time.Unix(createdAtUnix, 0)}, true, nil
}

// History returns every registered version, oldest first.
func (m *Manager) History(ctx context.Context) ([]VersionRecord, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT version, snapshot, created_at FROM schema_version_history ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("metadata: list history: %w", err)
	}
	defer rows.Close()

	var records []VersionRecord
	for rows.Next() {
		var (
			version       int64
			snapshot      []byte
			createdAtUnix int64
		)
		if err := rows.Scan(&version, &snapshot, &createdAtUnix); err != nil {
			return nil, fmt.Errorf("metadata: scan history: %w", err)
		}
		schema, err := decode(snapshot)
		if err != nil {
			return nil, err
		}
		records = append(records, VersionRecord{Version: uint64(version), Schema: schema, CreatedAt: time.Unix(createdAtUnix, 0)})
	}
	return records, rows.Err()
}
