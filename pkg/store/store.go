// Package store keeps endpoint results and resource reports in SQLite
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bankbench/pkg/benchmark"
	"github.com/bankbench/pkg/monitor"
	_ "github.com/mattn/go-sqlite3"
)

const timeLayout = "2006-01-02 15:04:05.000"

// Manager owns the SQLite database
type Manager struct {
	db *sql.DB
}

// ResourceRecord is a stored resource report
type ResourceRecord struct {
	ID         int64
	CapturedAt time.Time
	AppVersion string
	Endpoint   string
	Data       json.RawMessage
}

// NewManager opens (or creates) the database at dbPath and applies the schema.
// ":memory:" gives a private in-memory database.
func NewManager(dbPath string) (*Manager, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: shared
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to results database: %w", err)
	}

	m := &Manager{db: db}
	if err := m.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS endpoint_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		app_version TEXT NOT NULL,
		auth TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		number_of_requests INTEGER NOT NULL,
		avg_response_time REAL NOT NULL,
		requests_per_second REAL NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_endpoint_results_version ON endpoint_results(app_version);

	CREATE TABLE IF NOT EXISTS resource_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		captured_at DATETIME NOT NULL,
		app_version TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_resource_reports_endpoint ON resource_reports(endpoint);
	`

	if _, err := m.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// SaveEndpointResult stores one endpoint result
func (m *Manager) SaveEndpointResult(ctx context.Context, r *benchmark.EndpointResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal endpoint result: %w", err)
	}

	query := `
		INSERT INTO endpoint_results (
			run_id, started_at, app_version, auth, endpoint,
			number_of_requests, avg_response_time, requests_per_second, data
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = m.db.ExecContext(ctx, query,
		r.RunID,
		r.StartedAt.UTC().Format(timeLayout),
		r.AppVersion,
		r.Auth,
		r.Endpoint,
		r.NumberOfRequests,
		r.AvgResponseTime,
		r.RequestsPerSecond,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save endpoint result: %w", err)
	}
	return nil
}

// ListEndpointResults returns the stored results of appVersion, oldest first.
// An empty appVersion returns all of them.
func (m *Manager) ListEndpointResults(ctx context.Context, appVersion string) ([]*benchmark.EndpointResult, error) {
	query := `SELECT data FROM endpoint_results WHERE (? = '' OR app_version = ?) ORDER BY id`
	rows, err := m.db.QueryContext(ctx, query, appVersion, appVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to query endpoint results: %w", err)
	}
	defer rows.Close()

	var results []*benchmark.EndpointResult
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan endpoint result: %w", err)
		}
		var r benchmark.EndpointResult
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("failed to decode endpoint result: %w", err)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// SaveResourceReport stores one capture report
func (m *Manager) SaveResourceReport(ctx context.Context, report *monitor.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal resource report: %w", err)
	}

	query := `INSERT INTO resource_reports (captured_at, app_version, endpoint, data) VALUES (?, ?, ?, ?)`
	_, err = m.db.ExecContext(ctx, query,
		time.Now().UTC().Format(timeLayout),
		report.Total.AppVersion,
		report.Total.Endpoint,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save resource report: %w", err)
	}
	return nil
}

// ListResourceReports returns the stored reports of endpoint, oldest first.
// An empty endpoint returns all of them.
func (m *Manager) ListResourceReports(ctx context.Context, endpoint string) ([]ResourceRecord, error) {
	query := `
		SELECT id, captured_at, app_version, endpoint, data
		FROM resource_reports
		WHERE (? = '' OR endpoint = ?)
		ORDER BY id
	`
	rows, err := m.db.QueryContext(ctx, query, endpoint, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to query resource reports: %w", err)
	}
	defer rows.Close()

	var records []ResourceRecord
	for rows.Next() {
		var rec ResourceRecord
		var capturedAt, data string
		if err := rows.Scan(&rec.ID, &capturedAt, &rec.AppVersion, &rec.Endpoint, &data); err != nil {
			return nil, fmt.Errorf("failed to scan resource report: %w", err)
		}
		if t, err := time.Parse(timeLayout, capturedAt); err == nil {
			rec.CapturedAt = t
		}
		rec.Data = json.RawMessage(data)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ResultSink stores every measured endpoint result
func (m *Manager) ResultSink() benchmark.ResultSink {
	return m.SaveEndpointResult
}

// ReportSink stores every finished capture report
func (m *Manager) ReportSink() monitor.ReportSink {
	return m.SaveResourceReport
}

// Close closes the database
func (m *Manager) Close() error {
	return m.db.Close()
}
