// Package metastore persists chunk directories and chunk items in SQLite.
// It provides the point reads, conditional updates, appends and range
// queries the insertion and selection services are built on.
package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"pet-gallery/internal/gallery_server/chunkdir"
)

var ErrDirectoryNotFound = errors.New("chunk directory not found")

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func Open(path string, logger *slog.Logger) (*Store, error) {
	// Pragmas are per-connection, so the busy timeout goes into the DSN
	// where the driver applies it to every connection the pool opens.
	// Concurrent inserters briefly contend on the directory row; waiting a
	// little beats surfacing SQLITE_BUSY to the caller.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema. The (label, chunk_id) index backs the range
// query used by selection.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS chunk_directory (
			label       TEXT PRIMARY KEY,
			chunk_count INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS chunk_state (
			label    TEXT    NOT NULL,
			chunk_id INTEGER NOT NULL,
			volume   INTEGER NOT NULL DEFAULT 0,
			active   INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (label, chunk_id)
		);
		CREATE TABLE IF NOT EXISTS chunk_item (
			label      TEXT    NOT NULL,
			object_key TEXT    NOT NULL,
			chunk_id   INTEGER NOT NULL,
			weight     REAL    NOT NULL,
			PRIMARY KEY (label, object_key)
		);
		CREATE INDEX IF NOT EXISTS chunk_item_by_chunk
			ON chunk_item (label, chunk_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate metadata schema: %w", err)
	}
	return nil
}

// EnsureDirectory lazily creates the directory row for a label with a zero
// chunk count. Existing rows are left untouched.
func (s *Store) EnsureDirectory(ctx context.Context, label string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO chunk_directory (label, chunk_count) VALUES (?, 0)", label)
	if err != nil {
		return fmt.Errorf("failed to initialize directory for %q: %w", label, err)
	}
	return nil
}

// Directory returns the label's directory snapshot. Only the active chunk
// rows are read, so the cost is bounded by the active set, not the chunk
// count.
func (s *Store) Directory(ctx context.Context, label string) (chunkdir.Directory, error) {
	dir := chunkdir.Directory{Label: label}

	err := s.db.QueryRowContext(ctx,
		"SELECT chunk_count FROM chunk_directory WHERE label = ?", label).
		Scan(&dir.ChunkCount)
	if errors.Is(err, sql.ErrNoRows) {
		return dir, ErrDirectoryNotFound
	}
	if err != nil {
		return dir, fmt.Errorf("failed to read directory for %q: %w", label, err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT chunk_id, volume FROM chunk_state WHERE label = ? AND active = 1 ORDER BY chunk_id",
		label)
	if err != nil {
		return dir, fmt.Errorf("failed to read active chunks for %q: %w", label, err)
	}
	defer rows.Close()

	for rows.Next() {
		var state chunkdir.ChunkState
		if err := rows.Scan(&state.ID, &state.Volume); err != nil {
			return dir, fmt.Errorf("failed to scan chunk state for %q: %w", label, err)
		}
		dir.Active = append(dir.Active, state)
	}
	if err := rows.Err(); err != nil {
		return dir, fmt.Errorf("failed to read active chunks for %q: %w", label, err)
	}
	return dir, nil
}

// CreateChunk allocates the next chunk id with an optimistic check on the
// current chunk count. It returns ok=false when another writer advanced the
// count first; the caller reloads and retries.
func (s *Store) CreateChunk(ctx context.Context, label string, expectedCount int) (int, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create chunk for %q: %w", label, err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE chunk_directory SET chunk_count = chunk_count + 1 WHERE label = ? AND chunk_count = ?",
		label, expectedCount)
	if err != nil {
		return 0, false, fmt.Errorf("failed to advance chunk count for %q: %w", label, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to advance chunk count for %q: %w", label, err)
	}
	if affected == 0 {
		return 0, false, nil
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO chunk_state (label, chunk_id, volume, active) VALUES (?, ?, 0, 1)",
		label, expectedCount); err != nil {
		return 0, false, fmt.Errorf("failed to create chunk state for %q: %w", label, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to create chunk for %q: %w", label, err)
	}
	return expectedCount, true, nil
}

// IncrementVolume bumps the chunk's recorded volume, guarded by the
// capacity guideline: the update applies only while the volume is still
// below max. ok=false means the guard failed and the count was left alone.
func (s *Store) IncrementVolume(ctx context.Context, label string, chunkID, max int) (int, bool, error) {
	var volume int
	err := s.db.QueryRowContext(ctx,
		"UPDATE chunk_state SET volume = volume + 1 WHERE label = ? AND chunk_id = ? AND volume < ? RETURNING volume",
		label, chunkID, max).Scan(&volume)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to increment volume of chunk %d for %q: %w", chunkID, label, err)
	}
	return volume, true, nil
}

// Deactivate removes the chunk from the eligible set. Removal is
// one-directional; nothing in this store re-activates a chunk.
func (s *Store) Deactivate(ctx context.Context, label string, chunkID int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE chunk_state SET active = 0 WHERE label = ? AND chunk_id = ?",
		label, chunkID)
	if err != nil {
		return fmt.Errorf("failed to deactivate chunk %d for %q: %w", chunkID, label, err)
	}
	return nil
}

// ChunkVolumes returns the recorded volume of every chunk of a label,
// active or not. Used for inspection and tests, never on the request path.
func (s *Store) ChunkVolumes(ctx context.Context, label string) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT chunk_id, volume FROM chunk_state WHERE label = ?", label)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk volumes for %q: %w", label, err)
	}
	defer rows.Close()

	volumes := make(map[int]int)
	for rows.Next() {
		var chunkID, volume int
		if err := rows.Scan(&chunkID, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan chunk volume for %q: %w", label, err)
		}
		volumes[chunkID] = volume
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunk volumes for %q: %w", label, err)
	}
	return volumes, nil
}

// AppendItem writes one immutable chunk item.
func (s *Store) AppendItem(ctx context.Context, item chunkdir.Item) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chunk_item (label, object_key, chunk_id, weight) VALUES (?, ?, ?, ?)",
		item.Label, item.ObjectKey, item.ChunkID, item.Weight)
	if err != nil {
		return fmt.Errorf("failed to append item %q to chunk %d: %w", item.ObjectKey, item.ChunkID, err)
	}
	return nil
}

// ChunkItems returns all items of one (label, chunk) pair in insertion
// order. The result is bounded by the chunk capacity regardless of catalog
// size.
func (s *Store) ChunkItems(ctx context.Context, label string, chunkID int) ([]chunkdir.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT object_key, weight FROM chunk_item WHERE label = ? AND chunk_id = ? ORDER BY rowid",
		label, chunkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk %d for %q: %w", chunkID, label, err)
	}
	defer rows.Close()

	var items []chunkdir.Item
	for rows.Next() {
		item := chunkdir.Item{Label: label, ChunkID: chunkID}
		if err := rows.Scan(&item.ObjectKey, &item.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan item of chunk %d for %q: %w", chunkID, label, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query chunk %d for %q: %w", chunkID, label, err)
	}
	return items, nil
}
