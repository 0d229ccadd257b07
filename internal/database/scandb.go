package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/daqtools/rdhscan/internal/model"
)

// ScanDB is the SQLite export destination for finished run reports.
//
// Design decision: The database is write-only from the tool's point of
// view: reports are appended and never read back, so two runs over the
// same capture stay independent. Reading is left to sqlite3 and ad-hoc
// queries by the people archiving the runs.
type ScanDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ScanDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ScanDB at the specified file path.
// If CreateIfNotExists is true, the parent directory and database file are
// created. If CreateIfNotExists is false and the database doesn't exist,
// an error is returned.
func Open(dbPath string, opts Options) (*ScanDB, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids lock
	// contention entirely for our append-only workload.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScanDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *ScanDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *ScanDB) createTables() error {
	schema := `
	-- Runs store one row per processed capture, with the full report as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		input_file TEXT NOT NULL,
		profile TEXT NOT NULL,
		rdh_version INTEGER,
		trigger_type INTEGER,
		total_pages INTEGER NOT NULL,
		total_hbfs INTEGER NOT NULL,
		total_triggers INTEGER NOT NULL,
		payload_bytes INTEGER NOT NULL,
		success INTEGER NOT NULL,
		fatal TEXT,
		elapsed_ns INTEGER NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_input ON runs(input_file);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);

	-- Findings store one row per finding so defects are queryable
	-- without unpacking the report JSON
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		code TEXT NOT NULL,
		severity TEXT NOT NULL,
		link INTEGER NOT NULL,
		offset INTEGER NOT NULL,
		message TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	CREATE INDEX IF NOT EXISTS idx_findings_code ON findings(code);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport appends a finished run report: one runs row plus one findings
// row per finding, atomically.
func (sdb *ScanDB) SaveReport(ctx context.Context, report *model.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (
		input_file, profile, rdh_version, trigger_type,
		total_pages, total_hbfs, total_triggers, payload_bytes,
		success, fatal, elapsed_ns, report_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.InputFile,
		report.Profile,
		report.Version,
		report.TriggerType,
		report.TotalPages,
		report.TotalHBFs,
		report.TotalTriggers,
		report.PayloadBytes,
		report.Success(),
		report.Fatal,
		report.Elapsed.Nanoseconds(),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to resolve run id: %w", err)
	}

	for _, f := range report.Findings {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO findings (run_id, code, severity, link, offset, message)
		VALUES (?, ?, ?, ?, ?, ?)
		`,
			runID,
			f.Code.String(),
			f.Severity.String(),
			f.Link,
			f.Offset,
			f.Message,
		); err != nil {
			return fmt.Errorf("failed to insert finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}
