package domain

import "time"

// Instrument represents a registered tradable instrument. Symbol is the
// unique key and is immutable once created; instruments are never deleted.
// ReferencePrice is informational only and is never consulted by matching.
type Instrument struct {
	Name           string
	Symbol         string
	Owner          string
	TotalShares    int64
	ReferencePrice int64
	CreatedAt      time.Time
}
