package mirror

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // pure-Go sqlite driver, registers as "sqlite"
)

// RunLedger is a SQLite-backed record of in-flight pending entries and
// actively-walked drives, used to put a crashed or SIGKILLed run's
// unfinished entries back on the pending queue. SyncDrive still walks the
// drive's whole tree again afterwards. It is strictly a recovery aid: the
// filesystem (content file plus sidecar) remains the authority for what has
// been durably mirrored.
type RunLedger struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenRunLedger opens (creating if absent) the ledger database at dbPath
// and applies any pending schema migrations. Pass ":memory:" for tests.
func OpenRunLedger(ctx context.Context, dbPath string, logger *slog.Logger) (*RunLedger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("mirror: opening ledger database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()

		return nil, fmt.Errorf("mirror: setting WAL mode: %w", err)
	}

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()

		return nil, err
	}

	return &RunLedger{db: db, logger: logger}, nil
}

// Close closes the underlying database handle.
func (l *RunLedger) Close() error {
	return l.db.Close()
}

// RegisterDrive records that driveID is now mid-walk. Called at the start
// of SyncDrive.
func (l *RunLedger) RegisterDrive(ctx context.Context, driveID, driveName string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO active_drives (drive_id, drive_name, started_at) VALUES (?, ?, datetime('now'))
		 ON CONFLICT(drive_id) DO UPDATE SET started_at = excluded.started_at`,
		driveID, driveName)
	if err != nil {
		return fmt.Errorf("mirror: registering drive %s in ledger: %w", driveID, err)
	}

	return nil
}

// DeregisterDrive removes driveID's active-drive row, along with any
// remaining pending_entries rows for it. Called after a drive completes
// successfully (post-reconciliation).
func (l *RunLedger) DeregisterDrive(ctx context.Context, driveID string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM pending_entries WHERE drive_id = ?`, driveID); err != nil {
		return fmt.Errorf("mirror: clearing pending entries for drive %s: %w", driveID, err)
	}

	if _, err := l.db.ExecContext(ctx, `DELETE FROM active_drives WHERE drive_id = ?`, driveID); err != nil {
		return fmt.Errorf("mirror: deregistering drive %s: %w", driveID, err)
	}

	return nil
}

// ActiveDrive identifies a drive whose walk was interrupted by a prior
// process exit.
type ActiveDrive struct {
	DriveID   string
	DriveName string
}

// ListActiveDrives returns every drive currently recorded as mid-walk. A
// non-empty result on orchestrator startup means the prior run was
// interrupted.
func (l *RunLedger) ListActiveDrives(ctx context.Context) ([]ActiveDrive, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT drive_id, drive_name FROM active_drives`)
	if err != nil {
		return nil, fmt.Errorf("mirror: listing active drives: %w", err)
	}
	defer rows.Close()

	var out []ActiveDrive

	for rows.Next() {
		var d ActiveDrive
		if err := rows.Scan(&d.DriveID, &d.DriveName); err != nil {
			return nil, fmt.Errorf("mirror: scanning active drive row: %w", err)
		}

		out = append(out, d)
	}

	return out, rows.Err()
}

// InsertPending mirrors a newly-enqueued PendingEntry into the ledger.
func (l *RunLedger) InsertPending(ctx context.Context, e PendingEntry) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO pending_entries
		 (drive_id, parent_folder_rel, item_id, item_name, web_url, created_date, walk_size)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(drive_id, parent_folder_rel, item_id) DO NOTHING`,
		e.DriveID, e.ParentFolderRel, e.Item.ID, e.Item.Name, e.Item.WebURL, e.Item.CreatedDate, e.Item.Size)
	if err != nil {
		return fmt.Errorf("mirror: inserting pending entry: %w", err)
	}

	return nil
}

// DeletePending removes a PendingEntry's ledger row once it has been
// finalized (content written and sidecar recorded) or permanently failed.
func (l *RunLedger) DeletePending(ctx context.Context, e PendingEntry) error {
	driveID, parentFolderRel, itemID := e.Key()

	_, err := l.db.ExecContext(ctx,
		`DELETE FROM pending_entries WHERE drive_id = ? AND parent_folder_rel = ? AND item_id = ?`,
		driveID, parentFolderRel, itemID)
	if err != nil {
		return fmt.Errorf("mirror: deleting pending entry: %w", err)
	}

	return nil
}

// LoadPending returns every pending_entries row recorded for driveID,
// reconstituted as PendingEntry values, so SyncDrive can put them back on
// its in-memory queue after a restart, before it walks the tree again.
func (l *RunLedger) LoadPending(ctx context.Context, driveID string) ([]PendingEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT parent_folder_rel, item_id, item_name, web_url, created_date, walk_size
		 FROM pending_entries WHERE drive_id = ?`, driveID)
	if err != nil {
		return nil, fmt.Errorf("mirror: loading pending entries for drive %s: %w", driveID, err)
	}
	defer rows.Close()

	var out []PendingEntry

	for rows.Next() {
		e := PendingEntry{DriveID: driveID}

		if err := rows.Scan(
			&e.ParentFolderRel, &e.Item.ID, &e.Item.Name,
			&e.Item.WebURL, &e.Item.CreatedDate, &e.Item.Size,
		); err != nil {
			return nil, fmt.Errorf("mirror: scanning pending entry row: %w", err)
		}

		out = append(out, e)
	}

	return out, rows.Err()
}
