package staleness

import "time"

// Policy decides when a cached record must be fetched again.
type Policy struct {
	// RefreshAfter is the periodic time-to-live. Zero disables it.
	RefreshAfter time.Duration
	// RefreshIfOlder is a one-time cutover: anything written at or before it
	// is stale. The zero time disables it.
	RefreshIfOlder time.Time

	now func() time.Time
}

// New builds a policy from a TTL in days and an optional cutover instant.
func New(refreshAfterDays int, refreshIfOlder time.Time) Policy {
	return Policy{
		RefreshAfter:   time.Duration(refreshAfterDays) * 24 * time.Hour,
		RefreshIfOlder: refreshIfOlder,
	}
}

// WithClock returns a copy of p that reads the current time from now.
func (p Policy) WithClock(now func() time.Time) Policy {
	p.now = now
	return p
}

// IsStale reports whether a record last written at ts needs a refresh.
func (p Policy) IsStale(ts time.Time) bool {
	if ts.IsZero() {
		return true
	}
	if p.RefreshAfter > 0 && ts.Before(p.clock().Add(-p.RefreshAfter)) {
		return true
	}
	if !p.RefreshIfOlder.IsZero() && !ts.After(p.RefreshIfOlder) {
		return true
	}
	return false
}

func (p Policy) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}
