// Package staleness implements the cache refresh policy.
//
// Two independent triggers exist. RefreshAfter is a rolling time-to-live
// applied to every record. RefreshIfOlder is a fixed instant used once after
// a cache layout change: every record written at or before it is refreshed
// the next time it is read, regardless of its age.
package staleness
