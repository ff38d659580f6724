package store

import (
	"database/sql"
	"time"
)

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// dayString renders a local calendar day as YYYY-MM-DD for storage.
// Lexicographic order matches chronological order, so BETWEEN works.
func dayString(t time.Time) string {
	return t.Format("2006-01-02")
}

// parseDay restores a stored day string to local midnight in loc.
func parseDay(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, loc)
}
