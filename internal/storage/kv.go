package storage

import (
	"database/sql"
	"errors"
	"time"
)

// GetKV returns the value stored under key. ok is false when the key is unset.
func (db *DB) GetKV(key string) (value string, ok bool, err error) {
	err = db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// PutKV upserts value under key.
func (db *DB) PutKV(key, value string) error {
	_, err := db.conn.Exec(`
INSERT INTO kv(key, value, updated_at) VALUES(?,?,?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}
