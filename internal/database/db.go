package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jgoulah/gridprofile/pkg/models"
	_ "modernc.org/sqlite"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// sqlite allows a single writer
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, now: time.Now}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS monthly_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		period TEXT NOT NULL,
		kwh REAL NOT NULL,
		source TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(user_id, period)
	);
	CREATE INDEX IF NOT EXISTS idx_usage_user ON monthly_usage(user_id);

	CREATE TABLE IF NOT EXISTS profile_cache (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_profile_cache_expires ON profile_cache(expires_at);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// UpsertUsage stores monthly readings for a user, replacing any existing
// reading for the same month. All rows are written in one transaction.
func (db *DB) UpsertUsage(ctx context.Context, userID, source string, records []models.UsageRecord) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO monthly_usage (user_id, period, kwh, source, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id, period) DO UPDATE SET
		kwh = excluded.kwh,
		source = excluded.source,
		updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	updatedAt := db.now().UTC().Format(time.RFC3339)
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, userID, r.Period.String(), r.KWh, source, updatedAt); err != nil {
			return fmt.Errorf("upserting usage for %s: %w", r.Period, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing usage: %w", err)
	}
	return nil
}

// ListUsage retrieves a user's monthly readings ordered by period. A nil
// window returns everything.
func (db *DB) ListUsage(ctx context.Context, userID string, window *models.Window) ([]models.UsageData, error) {
	query := `
	SELECT id, user_id, period, kwh, source, updated_at
	FROM monthly_usage
	WHERE user_id = ?
	ORDER BY period ASC
	`

	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying usage data: %w", err)
	}
	defer rows.Close()

	results := make([]models.UsageData, 0)
	for rows.Next() {
		var data models.UsageData
		var periodStr, updatedStr string

		if err := rows.Scan(&data.ID, &data.UserID, &periodStr, &data.KWh, &data.Source, &updatedStr); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		data.Period, err = models.ParsePeriod(periodStr)
		if err != nil {
			return nil, fmt.Errorf("parsing period: %w", err)
		}
		if window != nil && !window.Contains(data.Period) {
			continue
		}

		data.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}

		results = append(results, data)
	}

	return results, rows.Err()
}

// Records returns a user's readings as observed usage records
func (db *DB) Records(ctx context.Context, userID string, window *models.Window) ([]models.UsageRecord, error) {
	data, err := db.ListUsage(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	records := make([]models.UsageRecord, len(data))
	for i, d := range data {
		records[i] = d.Record()
	}
	return records, nil
}

// ListUsers returns every user with stored readings
func (db *DB) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT user_id FROM monthly_usage ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var user string
		if err := rows.Scan(&user); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// DeleteUsage removes one month of a user's readings
func (db *DB) DeleteUsage(ctx context.Context, userID string, period models.Period) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM monthly_usage WHERE user_id = ? AND period = ?`, userID, period.String())
	if err != nil {
		return false, fmt.Errorf("deleting usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting usage: %w", err)
	}
	return n > 0, nil
}
