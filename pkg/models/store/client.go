package store

import "time"

// Keys the UI layer reads for downstream filter-dimension lookups.
const (
	KeySessionID = "session_id"
	KeyUser      = "user"
)

type ClientEntry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

type ReportRecord struct {
	SessionID string
	UserName  string
	Filename  string
	ReportURL string
	Message   string
	CreatedAt time.Time
}
