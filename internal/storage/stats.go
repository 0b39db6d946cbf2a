package storage

import "time"

// Stats are whole-database totals, read on each metrics scrape.
type Stats struct {
	Runs          int
	Violations    int
	ActiveWaivers int
}

func (db *DB) Stats() (Stats, error) {
	var s Stats
	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := db.conn.QueryRow(`
SELECT
  (SELECT COUNT(*) FROM runs),
  (SELECT COUNT(*) FROM violations),
  (SELECT COUNT(*) FROM waivers WHERE revoked_at IS NULL AND expires_at > ?)`, now).
		Scan(&s.Runs, &s.Violations, &s.ActiveWaivers)
	return s, err
}
