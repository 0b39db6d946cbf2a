package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/guanw/ReviewMate/internal/ir"
)

// ListRuns returns a lightweight list of runs with counts, newest first.
func (db *DB) ListRuns(limit, offset int) ([]RunRow, error) {
	const q = `
		SELECT r.id, r.started_at, COALESCE(r.policy,''), COALESCE(r.ir_version,''),
		       (SELECT COUNT(1) FROM violations v WHERE v.run_id = r.id) AS violations
		  FROM runs r
		 ORDER BY r.started_at DESC, r.id DESC
		 LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var rr RunRow
		var startedAtStr string
		if err := rows.Scan(&rr.ID, &startedAtStr, &rr.Policy, &rr.IRVersion, &rr.Violations); err != nil {
			return nil, err
		}
		rr.StartedAt = parseTime(startedAtStr)
		out = append(out, rr)
	}
	return out, rows.Err()
}

// ListViolations returns a run's violations in report order, optionally
// restricted to one rule.
func (db *DB) ListViolations(runID, rule string) ([]ir.Violation, error) {
	q := `
		SELECT file, line, rule, COALESCE(severity,''), COALESCE(message,''), fault
		  FROM violations
		 WHERE run_id = ?`
	args := []any{runID}
	if rule != "" {
		q += ` AND UPPER(rule) = UPPER(?)`
		args = append(args, rule)
	}
	q += ` ORDER BY seq`
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ir.Violation{}
	for rows.Next() {
		var v ir.Violation
		if err := rows.Scan(&v.File, &v.Line, &v.RuleName, &v.Severity, &v.Message, &v.Fault); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (db *DB) HasRun(id string) (bool, error) {
	const q = `SELECT 1 FROM runs WHERE id = ? LIMIT 1`
	var one int
	err := db.conn.QueryRow(q, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// parseTime reads RFC3339Nano first, falling back to RFC3339; zero if neither.
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
