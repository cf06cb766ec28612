package mailsync

import "time"

// SyncResult counts what one user's sync did.
type SyncResult struct {
	UserID string
	// Skipped is set when sync is disabled in the user's settings.
	Skipped     bool
	Fetched     int
	Newsletters int
	Duplicates  int
	Filtered    int
	Links       int
	Errors      int
	LastUID     uint32
	Duration    time.Duration
}

// RunStats aggregates one scheduler pass.
type RunStats struct {
	Users       int
	Newsletters int
	Links       int
	Errors      int
	Duration    time.Duration
}

func (r *RunStats) add(res SyncResult) {
	r.Users++
	r.Newsletters += res.Newsletters
	r.Links += res.Links
	r.Errors += res.Errors
}
