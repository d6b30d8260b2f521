package tagcache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"repomap/internal/logging"
	"repomap/internal/paths"
	"repomap/internal/tags"
)

// Schema version tracking
const currentSchemaVersion = 1

// DiskTagStore persists tag entries in a SQLite database under the
// repository cache directory. Payloads are JSON, zstd-compressed when
// compression is enabled.
type DiskTagStore struct {
	conn     *sql.DB
	logger   *logging.Logger
	dbPath   string
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

// OpenDiskStore opens or creates the tag database at
// .repo_map_cache/tags.db. A fresh database gets its schema created;
// an existing one is version-checked.
func OpenDiskStore(repoRoot string, compress bool, logger *logging.Logger) (*DiskTagStore, error) {
	if _, err := paths.EnsureCacheDir(repoRoot); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dbPath := paths.GetTagsDBPath(repoRoot)
	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set pragmas for performance and reliability
	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous=NORMAL", // Balance between safety and performance
		"PRAGMA busy_timeout=5000",  // Wait up to 5 seconds on lock
		"PRAGMA temp_store=MEMORY",  // Use memory for temp tables
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &DiskTagStore{
		conn:     conn,
		logger:   logger,
		dbPath:   dbPath,
		compress: compress,
	}

	if compress {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		store.encoder = encoder
		store.decoder = decoder
	}

	if !dbExists {
		logger.Info("Creating new tag database", map[string]interface{}{
			"path": dbPath,
		})
		if err := store.initializeSchema(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	} else {
		if err := store.checkSchemaVersion(); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return store, nil
}

// OpenStore opens the disk store, falling back to an in-memory store when
// the database cannot be opened. The fallback is logged, never fatal.
func OpenStore(repoRoot string, enabled, compress bool, logger *logging.Logger) TagStore {
	if !enabled {
		return NewInMemoryTagStore()
	}
	store, err := OpenDiskStore(repoRoot, compress, logger)
	if err != nil {
		logger.Warn("Tag database unavailable, using in-memory cache", map[string]interface{}{
			"error": err.Error(),
		})
		return NewInMemoryTagStore()
	}
	return store
}

func (s *DiskTagStore) initializeSchema() error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER NOT NULL
			)
		`); err != nil {
			return err
		}
		if _, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS tag_entries (
				abs_path TEXT PRIMARY KEY,
				mtime REAL NOT NULL,
				payload BLOB NOT NULL
			)
		`); err != nil {
			return fmt.Errorf("failed to create tag_entries table: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
			return err
		}
		_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion)
		return err
	})
}

// checkSchemaVersion rebuilds the database when the stored version does
// not match. Cached tags are cheap to regenerate, so no migrations.
func (s *DiskTagStore) checkSchemaVersion() error {
	var version int
	err := s.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == nil && version == currentSchemaVersion {
		return nil
	}

	// A missing table or version mismatch means rebuild, not failure.
	s.logger.Warn("Tag database schema mismatch, rebuilding", map[string]interface{}{
		"found":    version,
		"expected": currentSchemaVersion,
	})
	if _, dropErr := s.conn.Exec("DROP TABLE IF EXISTS tag_entries"); dropErr != nil {
		return fmt.Errorf("failed to rebuild tag database: %w", dropErr)
	}
	return s.initializeSchema()
}

// withTx executes a function within a transaction
func (s *DiskTagStore) withTx(fn func(*sql.Tx) error) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", map[string]interface{}{
				"error":          err.Error(),
				"rollback_error": rbErr.Error(),
			})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Get returns the cached entry for an absolute path. A corrupt record is
// deleted and reported as a miss so the caller regenerates it.
func (s *DiskTagStore) Get(absPath string) (Entry, bool) {
	var mtime float64
	var payload []byte
	err := s.conn.QueryRow(
		"SELECT mtime, payload FROM tag_entries WHERE abs_path = ?", absPath,
	).Scan(&mtime, &payload)
	if err != nil {
		return Entry{}, false
	}

	data := payload
	if s.compress {
		decoded, err := s.decoder.DecodeAll(payload, nil)
		if err != nil {
			s.healRecord(absPath, err)
			return Entry{}, false
		}
		data = decoded
	}

	var tagList []tags.Tag
	if err := json.Unmarshal(data, &tagList); err != nil {
		s.healRecord(absPath, err)
		return Entry{}, false
	}

	return Entry{Mtime: mtime, Tags: tagList}, true
}

func (s *DiskTagStore) healRecord(absPath string, cause error) {
	s.logger.Warn("Dropping corrupt tag cache record", map[string]interface{}{
		"path":  absPath,
		"error": cause.Error(),
	})
	_, _ = s.conn.Exec("DELETE FROM tag_entries WHERE abs_path = ?", absPath)
}

// Set stores an entry for an absolute path, replacing any previous one.
func (s *DiskTagStore) Set(absPath string, entry Entry) error {
	data, err := json.Marshal(entry.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	if s.compress {
		data = s.encoder.EncodeAll(data, nil)
	}

	_, err = s.conn.Exec(
		"INSERT OR REPLACE INTO tag_entries (abs_path, mtime, payload) VALUES (?, ?, ?)",
		absPath, entry.Mtime, data,
	)
	return err
}

// Delete removes an entry.
func (s *DiskTagStore) Delete(absPath string) error {
	_, err := s.conn.Exec("DELETE FROM tag_entries WHERE abs_path = ?", absPath)
	return err
}

// All returns every readable entry in the store. Corrupt records are
// healed and skipped, same as in Get.
func (s *DiskTagStore) All() (map[string]Entry, error) {
	rows, err := s.conn.Query("SELECT abs_path, mtime, payload FROM tag_entries")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Entry)
	var corrupt []string
	for rows.Next() {
		var absPath string
		var mtime float64
		var payload []byte
		if err := rows.Scan(&absPath, &mtime, &payload); err != nil {
			return nil, err
		}

		data := payload
		if s.compress {
			decoded, err := s.decoder.DecodeAll(payload, nil)
			if err != nil {
				corrupt = append(corrupt, absPath)
				continue
			}
			data = decoded
		}

		var tagList []tags.Tag
		if err := json.Unmarshal(data, &tagList); err != nil {
			corrupt = append(corrupt, absPath)
			continue
		}
		out[absPath] = Entry{Mtime: mtime, Tags: tagList}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, absPath := range corrupt {
		s.healRecord(absPath, errors.New("unreadable payload"))
	}
	return out, nil
}

// Len returns the number of cached entries.
func (s *DiskTagStore) Len() (int, error) {
	var n int
	err := s.conn.QueryRow("SELECT COUNT(*) FROM tag_entries").Scan(&n)
	return n, err
}

// Close closes the database connection.
func (s *DiskTagStore) Close() error {
	if s.decoder != nil {
		s.decoder.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
