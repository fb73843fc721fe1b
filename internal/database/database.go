package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lounge/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the durable archive of submitted booking requests.
type DB struct {
	db *sql.DB
}

func NewDB(path string) (*DB, error) {
	// Создаем директорию для БД, если её нет
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &DB{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS booking_requests (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		email TEXT NOT NULL,
		service TEXT NOT NULL,
		date TEXT NOT NULL DEFAULT '',
		time TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		submitted_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_requests_submitted_at ON booking_requests(submitted_at);
	`
	_, err := db.Exec(schema)
	return err
}

// ArchiveRequest inserts a submitted request. Requests are append-only.
func (d *DB) ArchiveRequest(ctx context.Context, req *models.BookingRequest) error {
	query := `
		INSERT INTO booking_requests (id, session_id, name, phone, email, service, date, time, notes, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := d.db.ExecContext(ctx, query,
		req.ID, req.SessionID, req.Name, req.Phone, req.Email,
		req.Service, req.Date, req.Time, req.Notes, req.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to archive request: %v", err)
	}
	return nil
}

// ListRequests returns archived requests with submitted_at in [start, end),
// newest first.
func (d *DB) ListRequests(ctx context.Context, start, end time.Time) ([]*models.BookingRequest, error) {
	query := `
		SELECT id, session_id, name, phone, email, service, date, time, notes, submitted_at
		FROM booking_requests
		WHERE submitted_at >= ? AND submitted_at < ?
		ORDER BY submitted_at DESC
	`
	rows, err := d.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %v", err)
	}
	defer rows.Close()

	var requests []*models.BookingRequest
	for rows.Next() {
		var req models.BookingRequest
		if err := rows.Scan(&req.ID, &req.SessionID, &req.Name, &req.Phone, &req.Email,
			&req.Service, &req.Date, &req.Time, &req.Notes, &req.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan request: %v", err)
		}
		requests = append(requests, &req)
	}

	return requests, rows.Err()
}

// CountRequests returns the total number of archived requests.
func (d *DB) CountRequests(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM booking_requests`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count requests: %v", err)
	}
	return count, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
