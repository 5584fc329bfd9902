package history

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Celebration is one ledger row: an event the daemon decided to celebrate.
type Celebration struct {
	ID          int64     `json:"id"`
	UUID        string    `json:"uuid"`
	Kind        string    `json:"kind"`
	Tool        string    `json:"tool"`
	SessionID   string    `json:"session_id"`
	Intensity   string    `json:"intensity"`
	XPAwarded   int       `json:"xp_awarded"`
	XPTotal     int       `json:"xp_total"`
	Achievement string    `json:"achievement"`
	CreatedAt   time.Time `json:"created_at"`
}

// Insert records a celebration. CreatedAt and UUID are assigned here when
// unset.
func Insert(db *sql.DB, c *Celebration) error {
	if c.UUID == "" {
		c.UUID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	return RetryWithBackoff(func() error {
		res, err := db.Exec(`
			INSERT INTO celebrations (uuid, kind, tool, session_id, intensity, xp_awarded, xp_total, achievement, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.UUID, c.Kind, c.Tool, c.SessionID, c.Intensity, c.XPAwarded, c.XPTotal, c.Achievement,
			c.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return err
		}
		c.ID, _ = res.LastInsertId()
		return nil
	})
}

// Recent returns the newest celebrations, most recent first.
func Recent(db *sql.DB, limit int) ([]Celebration, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT id, uuid, kind, tool, session_id, intensity, xp_awarded, xp_total, achievement, created_at
		FROM celebrations
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Celebration
	for rows.Next() {
		var c Celebration
		var created string
		if err := rows.Scan(&c.ID, &c.UUID, &c.Kind, &c.Tool, &c.SessionID, &c.Intensity,
			&c.XPAwarded, &c.XPTotal, &c.Achievement, &created); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the total number of ledger rows.
func Count(db *sql.DB) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM celebrations`).Scan(&n)
	return n, err
}
