package accessory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ashvale/vesync-bridge/internal/infrastructure/database"
)

// Record is one persisted accessory context row. Identity fields are
// what reconciliation keys on; Context is an opaque bag of cached
// state (last known values, commanded speed) that survives restarts.
type Record struct {
	UUID        string
	DeviceCID   string
	SubDeviceNo int
	DeviceType  string
	Name        string
	Context     map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ContextStore persists accessory context across restarts.
type ContextStore interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, id string) (Record, error)
	LoadAll(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, id string) error
}

// SQLiteStore is the SQLite-backed context store.
type SQLiteStore struct {
	db *database.DB
}

// NewSQLiteStore creates a context store over an open database.
// The accessory_context table is created by the embedded migrations.
func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save upserts a record keyed by identity. CreatedAt is preserved on
// update; UpdatedAt is set to now.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	blob := []byte("{}")
	if rec.Context != nil {
		var err error
		blob, err = json.Marshal(rec.Context)
		if err != nil {
			return fmt.Errorf("encoding accessory context: %w", err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accessory_context
			(uuid, device_cid, sub_device_no, device_type, name, context, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			device_cid    = excluded.device_cid,
			sub_device_no = excluded.sub_device_no,
			device_type   = excluded.device_type,
			name          = excluded.name,
			context       = excluded.context,
			updated_at    = excluded.updated_at`,
		rec.UUID, rec.DeviceCID, rec.SubDeviceNo, rec.DeviceType, rec.Name,
		string(blob), now, now,
	)
	if err != nil {
		return fmt.Errorf("saving accessory context %s: %w", rec.UUID, err)
	}
	return nil
}

// Load returns the record for one identity.
//
// Returns:
//   - error: ErrContextNotFound if no row exists
func (s *SQLiteStore) Load(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT uuid, device_cid, sub_device_no, device_type, name, context, created_at, updated_at
		FROM accessory_context
		WHERE uuid = ?`, id)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrContextNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("loading accessory context %s: %w", id, err)
	}
	return rec, nil
}

// LoadAll returns every persisted record, ordered by identity.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uuid, device_cid, sub_device_no, device_type, name, context, created_at, updated_at
		FROM accessory_context
		ORDER BY uuid`)
	if err != nil {
		return nil, fmt.Errorf("loading accessory contexts: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning accessory context: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accessory contexts: %w", err)
	}
	return out, nil
}

// Delete removes the record for one identity. Deleting a missing row
// is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM accessory_context WHERE uuid = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting accessory context %s: %w", id, err)
	}
	return nil
}

// scanRecord decodes one row via the given Scan function.
func scanRecord(scan func(...any) error) (Record, error) {
	var (
		rec       Record
		blob      string
		createdAt string
		updatedAt string
	)
	err := scan(&rec.UUID, &rec.DeviceCID, &rec.SubDeviceNo, &rec.DeviceType,
		&rec.Name, &blob, &createdAt, &updatedAt)
	if err != nil {
		return Record{}, err
	}

	if err := json.Unmarshal([]byte(blob), &rec.Context); err != nil {
		// A corrupt blob should not take down startup; the identity
		// fields are intact and the cached state rebuilds on first sync.
		rec.Context = map[string]any{}
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return rec, nil
}
