package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DBFileName is the history database inside the data directory
const DBFileName = "storeopt.db"

// Run statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Manager persists the scan history
type Manager struct {
	db *sql.DB
}

// RunRecord summarizes one analysis run
type RunRecord struct {
	ID                    int64
	RunID                 string
	Root                  string
	StartTime             time.Time
	EndTime               time.Time
	Status                string
	FilesScanned          int
	TotalBytes            int64
	DuplicateGroups       int
	WastedBytes           int64
	CompressionCandidates int
	OffloadCandidates     int
	HashFailures          int
	ReportPath            string
	Error                 string
}

// Duration is the wall time of the run
func (r RunRecord) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// NewManager opens (or creates) the history database in dataDir
func NewManager(dataDir string) (*Manager, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataDir, DBFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection avoids "database is locked" between our own writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	manager := &Manager{db: db}
	if err := manager.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return manager, nil
}

func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		root TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		files_scanned INTEGER DEFAULT 0,
		total_bytes INTEGER DEFAULT 0,
		duplicate_groups INTEGER DEFAULT 0,
		wasted_bytes INTEGER DEFAULT 0,
		compression_candidates INTEGER DEFAULT 0,
		offload_candidates INTEGER DEFAULT 0,
		hash_failures INTEGER DEFAULT 0,
		report_path TEXT,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_root_time ON runs(root, start_time DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	`

	_, err := m.db.Exec(schema)
	return err
}

// SaveRun records a finished run
func (m *Manager) SaveRun(record RunRecord) error {
	if record.Status != StatusSuccess && record.Status != StatusFailed {
		return fmt.Errorf("invalid status: %s (must be '%s' or '%s')", record.Status, StatusSuccess, StatusFailed)
	}
	if record.RunID == "" {
		return fmt.Errorf("run id cannot be empty")
	}

	query := `
		INSERT INTO runs (run_id, root, start_time, end_time, status, files_scanned, total_bytes,
			duplicate_groups, wasted_bytes, compression_candidates, offload_candidates,
			hash_failures, report_path, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := m.db.Exec(query,
		record.RunID,
		record.Root,
		record.StartTime,
		record.EndTime,
		record.Status,
		record.FilesScanned,
		record.TotalBytes,
		record.DuplicateGroups,
		record.WastedBytes,
		record.CompressionCandidates,
		record.OffloadCandidates,
		record.HashFailures,
		record.ReportPath,
		record.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}

	return nil
}

const selectRuns = `
	SELECT id, run_id, root, start_time, end_time, status, files_scanned, total_bytes,
		duplicate_groups, wasted_bytes, compression_candidates, offload_candidates,
		hash_failures, report_path, error
	FROM runs
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var r RunRecord
	var reportPath, errText sql.NullString
	err := row.Scan(
		&r.ID,
		&r.RunID,
		&r.Root,
		&r.StartTime,
		&r.EndTime,
		&r.Status,
		&r.FilesScanned,
		&r.TotalBytes,
		&r.DuplicateGroups,
		&r.WastedBytes,
		&r.CompressionCandidates,
		&r.OffloadCandidates,
		&r.HashFailures,
		&reportPath,
		&errText,
	)
	r.ReportPath = reportPath.String
	r.Error = errText.String
	return r, err
}

func (m *Manager) queryRuns(query string, args ...any) ([]RunRecord, error) {
	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// GetHistory returns the most recent runs for a root, newest first
func (m *Manager) GetHistory(root string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	return m.queryRuns(selectRuns+` WHERE root = ? ORDER BY start_time DESC LIMIT ?`, root, limit)
}

// GetAllHistory returns the most recent runs across all roots
func (m *Manager) GetAllHistory(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	return m.queryRuns(selectRuns+` ORDER BY start_time DESC LIMIT ?`, limit)
}

// GetLastSuccess returns the last successful run for a root, or nil
func (m *Manager) GetLastSuccess(root string) (*RunRecord, error) {
	row := m.db.QueryRow(selectRuns+` WHERE root = ? AND status = ? ORDER BY start_time DESC LIMIT 1`,
		root, StatusSuccess)

	record, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last success: %w", err)
	}

	return &record, nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
