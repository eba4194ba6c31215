// Package storage persists analysis run history in a local SQLite database.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gstewart/log-insights-go/internal/ngram"
)

// Storage handles database operations
type Storage struct {
	db *sql.DB
}

// RunRecord represents one completed analysis run
type RunRecord struct {
	ID              int64
	Timestamp       time.Time
	LogType         string // "apache-error" or "apache-access"
	GramSize        int
	InputDir        string
	FileCount       int
	RecordCount     int
	DurationSeconds float64
	TopGrams        []ngram.ScoredGram
}

// Database configuration constants
const (
	// busyTimeoutMs is how long SQLite waits when database is locked (5 seconds)
	busyTimeoutMs = 5000
	// maxOpenConns limits concurrent connections (SQLite works best with 1)
	maxOpenConns = 1
	// maxIdleConns is the number of idle connections to keep
	maxIdleConns = 1
	// connMaxLifetime is how long a connection can be reused
	connMaxLifetime = 30 * time.Minute
)

// New creates a new storage instance
func New(dbPath string) (*Storage, error) {
	// Create directory if it doesn't exist (0700 for security - owner only)
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with busy timeout to prevent indefinite waits
	// The _busy_timeout pragma prevents "database is locked" errors by waiting
	dsn := fmt.Sprintf("%s?_busy_timeout=%d", dbPath, busyTimeoutMs)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite works best with a single connection to avoid lock contention
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	storage := &Storage{db: db}

	// Initialize schema
	if err := storage.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Schema version constants
const (
	// currentSchemaVersion is the latest schema version
	// Increment this when adding new migrations
	currentSchemaVersion = 1
)

// initSchema creates the database schema if it doesn't exist
func (s *Storage) initSchema() error {
	// Create schema_version table first (tracks migration state)
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	// Get current schema version
	version := s.getSchemaVersion()

	// Run migrations based on current version
	if err := s.migrateSchema(version); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version (0 if not set)
func (s *Storage) getSchemaVersion() int {
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err != nil {
		return 0 // No version set, needs full migration
	}
	return version
}

// setSchemaVersion updates the schema version
func (s *Storage) setSchemaVersion(version int) error {
	// Delete existing and insert new (simpler than upsert for single row)
	if _, err := s.db.Exec(`DELETE FROM schema_version`); err != nil {
		return err
	}
	if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
		return err
	}
	return nil
}

// migrateSchema runs migrations from currentVersion to latest
func (s *Storage) migrateSchema(currentVersion int) error {
	if currentVersion >= currentSchemaVersion {
		return nil // Already up to date
	}

	log.Printf("storage: migrating schema from version %d to %d", currentVersion, currentSchemaVersion)

	// Migration 0 -> 1: Create base runs table
	if currentVersion < 1 {
		if err := s.migrateV1(); err != nil {
			return fmt.Errorf("migration v1 failed: %w", err)
		}
	}

	// Update schema version
	if err := s.setSchemaVersion(currentSchemaVersion); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	log.Printf("storage: schema migration completed successfully (now at version %d)", currentSchemaVersion)
	return nil
}

// migrateV1 creates the base runs table
func (s *Storage) migrateV1() error {
	log.Printf("storage: running migration v1 - create base tables")

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		log_type TEXT NOT NULL,
		gram_size INTEGER NOT NULL,
		input_dir TEXT NOT NULL,
		file_count INTEGER DEFAULT 0,
		record_count INTEGER DEFAULT 0,
		duration_seconds REAL DEFAULT 0.0,
		top_grams TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_timestamp ON runs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_log_type ON runs(log_type);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun saves a completed run to the database
func (s *Storage) SaveRun(run *RunRecord) error {
	topGramsJSON, err := json.Marshal(run.TopGrams)
	if err != nil {
		return fmt.Errorf("failed to marshal top grams: %w", err)
	}

	query := `
		INSERT INTO runs (
			timestamp, log_type, gram_size, input_dir,
			file_count, record_count, duration_seconds, top_grams
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(
		query,
		run.Timestamp.Format(time.RFC3339),
		run.LogType,
		run.GramSize,
		run.InputDir,
		run.FileCount,
		run.RecordCount,
		run.DurationSeconds,
		string(topGramsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	run.ID = id
	return nil
}

// GetRecentRuns retrieves runs from the last N days, optionally filtered by log type
func (s *Storage) GetRecentRuns(days int, logType string) ([]*RunRecord, error) {
	cutoffDate := time.Now().AddDate(0, 0, -days).Format(time.RFC3339)

	query := `
		SELECT id, timestamp, log_type, gram_size, input_dir,
		       file_count, record_count, duration_seconds, top_grams
		FROM runs
		WHERE timestamp >= ?
	`
	args := []interface{}{cutoffDate}

	if logType != "" {
		query += ` AND log_type = ?`
		args = append(args, logType)
	}

	query += ` ORDER BY timestamp DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func(rows *sql.Rows) {
		err = rows.Close()
		if err != nil {
			log.Printf("storage: failed to close database rows: %v", err)
		}
	}(rows)

	var runs []*RunRecord
	for rows.Next() {
		run, err := s.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// scanRun scans one row into a RunRecord
func (s *Storage) scanRun(rows *sql.Rows) (*RunRecord, error) {
	var run RunRecord
	var timestampStr, topGramsJSON string

	if err := rows.Scan(
		&run.ID,
		&timestampStr,
		&run.LogType,
		&run.GramSize,
		&run.InputDir,
		&run.FileCount,
		&run.RecordCount,
		&run.DurationSeconds,
		&topGramsJSON,
	); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	timestamp, err := time.Parse(time.RFC3339, timestampStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	run.Timestamp = timestamp

	if topGramsJSON != "" {
		if err := json.Unmarshal([]byte(topGramsJSON), &run.TopGrams); err != nil {
			return nil, fmt.Errorf("failed to unmarshal top grams: %w", err)
		}
	}

	return &run, nil
}

// CleanupOldRuns deletes runs older than N days
func (s *Storage) CleanupOldRuns(days int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -days).Format(time.RFC3339)

	query := `DELETE FROM runs WHERE timestamp < ?`
	result, err := s.db.Exec(query, cutoffDate)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old runs: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected, nil
}

// GetStatistics returns database statistics
func (s *Storage) GetStatistics() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	// Total count
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, err
	}
	stats["total_runs"] = total

	// Runs per log type
	rows, err := s.db.Query(`SELECT log_type, COUNT(*) FROM runs GROUP BY log_type`)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		err = rows.Close()
		if err != nil {
			log.Printf("storage: failed to close database rows: %v", err)
		}
	}(rows)

	typeDist := make(map[string]int)
	for rows.Next() {
		var logType string
		var count int
		if err := rows.Scan(&logType, &count); err != nil {
			return nil, err
		}
		typeDist[logType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats["runs_by_log_type"] = typeDist

	return stats, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
