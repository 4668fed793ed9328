package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Fetch outcomes recorded in the fetch log.
const (
	OutcomeReady     = "ready"
	OutcomeFailed    = "failed"
	OutcomeDiscarded = "discarded"
)

// FetchRecord is one resolved profile-projects request. Records are history
// only and are never used to render a page.
type FetchRecord struct {
	ID                string
	CreatedAt         time.Time
	Subject           string
	Generation        uint64
	Outcome           string
	Message           string
	OwnedCount        int
	CollaboratedCount int
}
