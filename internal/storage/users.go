package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// API roles. Viewers read runs and waivers; admins also create and revoke
// waivers.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

var (
	ErrUserExists  = errors.New("user already exists")
	ErrInvalidRole = errors.New("role must be admin or viewer")
)

// User is an API account. The password hash never leaves this package except
// through GetUserByUsername, which login needs.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// CreateUser stores an account with an already hashed password.
func (db *DB) CreateUser(username, passHash, role string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, errors.New("username is required")
	}
	if role != RoleAdmin && role != RoleViewer {
		return 0, fmt.Errorf("%w, got %q", ErrInvalidRole, role)
	}
	res, err := db.conn.Exec(`INSERT INTO users(username, pass_hash, role, created_at) VALUES(?,?,?,?)`,
		username, passHash, role, stamp(time.Now()))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, username)
		}
		return 0, err
	}
	return res.LastInsertId()
}

// GetUserByUsername returns the user and its password hash.
func (db *DB) GetUserByUsername(username string) (User, string, error) {
	var (
		u       User
		hash    string
		created string
	)
	err := db.conn.QueryRow(`SELECT id, username, role, created_at, pass_hash FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.Role, &created, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, "", ErrNotFound
	}
	if err != nil {
		return User{}, "", err
	}
	u.CreatedAt = parseTime(created)
	return u, hash, nil
}

// CreateSession stores a login token. Expired sessions are pruned on the way.
func (db *DB) CreateSession(userID int64, token string, expires time.Time) error {
	now := stamp(time.Now())
	if _, err := db.conn.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, now); err != nil {
		return err
	}
	return execOne(db.conn, `INSERT INTO sessions(token, user_id, expires_at, created_at) VALUES(?,?,?,?)`,
		token, userID, stamp(expires), now)
}

// GetSession resolves an unexpired token to its user.
func (db *DB) GetSession(token string) (User, error) {
	var (
		u       User
		created string
	)
	err := db.conn.QueryRow(`
SELECT u.id, u.username, u.role, u.created_at
FROM sessions s JOIN users u ON s.user_id = u.id
WHERE s.token = ? AND s.expires_at > ?`, token, stamp(time.Now())).
		Scan(&u.ID, &u.Username, &u.Role, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}

func (db *DB) DeleteSession(token string) error {
	return execOne(db.conn, `DELETE FROM sessions WHERE token = ?`, token)
}

// LogAudit appends one audit row; meta is stored as JSON.
func (db *DB) LogAudit(username, action, resource string, meta map[string]any) error {
	b, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("audit meta: %w", err)
	}
	_, err = db.conn.Exec(`INSERT INTO audit(ts, username, action, resource, meta_json) VALUES(?,?,?,?,?)`,
		stamp(time.Now()), username, action, resource, string(b))
	return err
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

// execOne runs q and reports ErrNotFound when no row changed.
func execOne(db *sql.DB, q string, args ...any) error {
	res, err := db.Exec(q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
