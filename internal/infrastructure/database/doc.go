// Package database provides SQLite persistence for the accessory-context store.
//
// The bridge owns a single SQLite file holding the host-side accessory
// context: the device identity fields needed to reconcile accessories
// across restarts. Nothing else is persisted.
//
// # Features
//
//   - WAL mode for concurrent reads during writes
//   - Busy timeout to avoid "database is locked" errors
//   - Embedded SQL migrations (compiled into the binary)
//   - Per-migration transactions with resumable failure handling
//
// # Usage
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        "./data/vesyncbridge.db",
//	    WALMode:     true,
//	    BusyTimeout: 5,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
