package accessory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ashvale/vesync-bridge/internal/infrastructure/database"
	_ "github.com/ashvale/vesync-bridge/migrations"
)

// openTestStore opens a migrated SQLite store in a temp directory.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "bridge.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return NewSQLiteStore(db)
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := Record{
		UUID:        "uuid-1",
		DeviceCID:   "cid-abc",
		SubDeviceNo: 0,
		DeviceType:  "Core300S",
		Name:        "Bedroom Purifier",
		Context:     map[string]any{"last_speed": float64(2)},
	}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "uuid-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DeviceCID != "cid-abc" || got.DeviceType != "Core300S" || got.Name != "Bedroom Purifier" {
		t.Errorf("loaded record = %+v", got)
	}
	if got.Context["last_speed"] != float64(2) {
		t.Errorf("context round trip = %v, want 2", got.Context["last_speed"])
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestSQLiteStore_SaveNilContext(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := Record{UUID: "uuid-1", DeviceCID: "cid-abc", DeviceType: "Core300S", Name: "Purifier"}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save with nil context: %v", err)
	}

	got, err := store.Load(ctx, "uuid-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Context == nil || len(got.Context) != 0 {
		t.Errorf("nil context should round-trip as an empty map, got %v", got.Context)
	}
}

func TestSQLiteStore_SaveUpserts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := Record{UUID: "uuid-1", DeviceCID: "cid-abc", DeviceType: "Core300S", Name: "Old"}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec.Name = "New"
	rec.Context = map[string]any{"online": true}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := store.Load(ctx, "uuid-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "New" {
		t.Errorf("name = %q, want New", got.Name)
	}
	if got.Context["online"] != true {
		t.Errorf("context = %v, want online=true", got.Context)
	}

	all, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("row count after upsert = %d, want 1", len(all))
	}
}

func TestSQLiteStore_LoadMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Load(context.Background(), "nope")
	if !errors.Is(err, ErrContextNotFound) {
		t.Errorf("Load missing = %v, want ErrContextNotFound", err)
	}
}

func TestSQLiteStore_LoadAllOrdered(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"charlie", "alpha", "bravo"} {
		rec := Record{UUID: id, DeviceCID: "cid-" + id, DeviceType: "ESW15-USA"}
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	all, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	want := []string{"alpha", "bravo", "charlie"}
	if len(all) != len(want) {
		t.Fatalf("rows = %d, want %d", len(all), len(want))
	}
	for i, rec := range all {
		if rec.UUID != want[i] {
			t.Errorf("row %d = %s, want %s", i, rec.UUID, want[i])
		}
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := Record{UUID: "uuid-1", DeviceCID: "cid-abc", DeviceType: "Core300S"}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, "uuid-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, "uuid-1"); !errors.Is(err, ErrContextNotFound) {
		t.Errorf("Load after Delete = %v, want ErrContextNotFound", err)
	}

	// Deleting a missing row is not an error.
	if err := store.Delete(ctx, "uuid-1"); err != nil {
		t.Errorf("Delete missing = %v, want nil", err)
	}
}

func TestSQLiteStore_SubDevicesSharedCID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for sub := 0; sub < 2; sub++ {
		rec := Record{
			UUID:        NewID(Namespace("test"), "cid-outdoor", sub),
			DeviceCID:   "cid-outdoor",
			SubDeviceNo: sub,
			DeviceType:  "ESO15-TB",
		}
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save sub %d: %v", sub, err)
		}
	}

	all, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("rows = %d, want 2 (one per outlet)", len(all))
	}
}
