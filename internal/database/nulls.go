package database

import (
	"database/sql"
	"time"
)

// NullString converts an optional string into a nullable column value.
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// NullFloat64 converts an optional float into a nullable column value.
func NullFloat64(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// NullUnix converts an optional time into nullable unix seconds.
func NullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

// StringPtr returns nil for NULL.
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Float64Ptr returns nil for NULL.
func Float64Ptr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

// FromUnix converts stored unix seconds into a UTC time.
func FromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// TimePtr converts nullable unix seconds into an optional UTC time.
func TimePtr(ni sql.NullInt64) *time.Time {
	if !ni.Valid {
		return nil
	}
	t := FromUnix(ni.Int64)
	return &t
}
