package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/formcrawler/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "formcrawler.db"

// storedTimeFormat has a fixed-width fraction so stored timestamps sort
// lexically in time order.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// CrawlDB stores finished crawl reports.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no crawl history at %s (run a crawl with --save first)", dbPath)
	} else if err != nil {
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per crawl; the full report is kept as JSON
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id TEXT PRIMARY KEY,
		start_url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		same_domain INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		error TEXT,
		page_count INTEGER NOT NULL DEFAULT 0,
		form_count INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_start_url ON crawl_runs(start_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON crawl_runs(started_at);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary describes a stored crawl without loading its report.
type RunSummary struct {
	ID         string
	StartURL   string
	Depth      int
	SameDomain bool
	StartedAt  time.Time
	FinishedAt time.Time
	Status     model.CrawlStatus
	Error      string
	PageCount  int
	FormCount  int
}

// SaveCrawlReport stores a report. Saving the same report twice replaces the
// earlier copy.
func (cdb *CrawlDB) SaveCrawlReport(ctx context.Context, report *model.CrawlReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	var finished any
	if !report.FinishedAt.IsZero() {
		finished = report.FinishedAt.UTC().Format(storedTimeFormat)
	}

	query := `
	INSERT INTO crawl_runs (id, start_url, depth, same_domain, started_at, finished_at, status, error, page_count, form_count, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		finished_at = excluded.finished_at,
		status = excluded.status,
		error = excluded.error,
		page_count = excluded.page_count,
		form_count = excluded.form_count,
		report_json = excluded.report_json
	`

	_, err = cdb.db.ExecContext(ctx, query,
		report.ID,
		report.StartURL,
		report.Depth,
		report.SameDomain,
		report.StartedAt.UTC().Format(storedTimeFormat),
		finished,
		string(report.Status),
		report.Error,
		len(report.Pages),
		len(report.Forms),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save crawl report: %w", err)
	}

	return nil
}

// ListRuns returns stored crawls, newest first. A non-empty startURL limits
// the result to crawls of that URL; a positive limit caps the number of rows.
func (cdb *CrawlDB) ListRuns(ctx context.Context, startURL string, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, start_url, depth, same_domain, started_at, finished_at, status, error, page_count, form_count
	FROM crawl_runs
	WHERE 1=1
	`
	args := make([]any, 0, 2)

	if startURL != "" {
		query += " AND start_url = ?"
		args = append(args, startURL)
	}

	query += " ORDER BY started_at DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var run RunSummary
		var started string
		var finished, errMsg sql.NullString
		var status string

		if err := rows.Scan(
			&run.ID,
			&run.StartURL,
			&run.Depth,
			&run.SameDomain,
			&started,
			&finished,
			&status,
			&errMsg,
			&run.PageCount,
			&run.FormCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan crawl run: %w", err)
		}

		run.StartedAt = parseTimestamp(started)
		if finished.Valid {
			run.FinishedAt = parseTimestamp(finished.String)
		}
		run.Status = model.CrawlStatus(status)
		run.Error = errMsg.String
		results = append(results, run)
	}

	return results, rows.Err()
}

// GetCrawlReport loads a stored report by ID. It returns nil, nil when no
// crawl has that ID.
func (cdb *CrawlDB) GetCrawlReport(ctx context.Context, id string) (*model.CrawlReport, error) {
	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, `SELECT report_json FROM crawl_runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl report: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// DeleteRun removes a stored crawl. It reports whether a row was deleted.
func (cdb *CrawlDB) DeleteRun(ctx context.Context, id string) (bool, error) {
	result, err := cdb.db.ExecContext(ctx, `DELETE FROM crawl_runs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete crawl run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// timestampFormats contains the timestamp formats that may be stored.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses a stored timestamp. It returns the zero time when
// no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
