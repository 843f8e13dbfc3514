package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Get returns an unexpired cached profile payload
func (db *DB) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT payload FROM profile_cache WHERE key = ? AND expires_at > ?`,
		key, db.now().UnixNano(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying profile cache: %w", err)
	}
	return payload, true, nil
}

// Set stores a profile payload until now+ttl
func (db *DB) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := db.conn.ExecContext(ctx, `
	INSERT INTO profile_cache (key, payload, expires_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at
	`, key, value, db.now().Add(ttl).UnixNano())
	if err != nil {
		return fmt.Errorf("writing profile cache: %w", err)
	}
	return nil
}

// Delete removes a cached profile
func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM profile_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting profile cache entry: %w", err)
	}
	return nil
}

// PurgeExpiredProfiles deletes expired cache rows and returns how many were removed
func (db *DB) PurgeExpiredProfiles(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM profile_cache WHERE expires_at <= ?`, db.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purging profile cache: %w", err)
	}
	return res.RowsAffected()
}

// ClearProfiles deletes every cached profile
func (db *DB) ClearProfiles(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM profile_cache`)
	if err != nil {
		return 0, fmt.Errorf("clearing profile cache: %w", err)
	}
	return res.RowsAffected()
}
