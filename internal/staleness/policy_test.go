package staleness_test

import (
	"testing"
	"time"

	"reelcache/internal/staleness"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestIsStaleTTL(t *testing.T) {
	p := staleness.New(30, time.Time{}).WithClock(clock)
	if p.IsStale(fixedNow.AddDate(0, 0, -29)) {
		t.Fatal("29 day old record should be fresh")
	}
	if !p.IsStale(fixedNow.AddDate(0, 0, -31)) {
		t.Fatal("31 day old record should be stale")
	}
	if !p.IsStale(time.Time{}) {
		t.Fatal("missing timestamp should be stale")
	}
}

func TestIsStaleEpochIsInclusive(t *testing.T) {
	epoch := fixedNow.AddDate(0, 0, -5)
	p := staleness.New(30, epoch).WithClock(clock)
	if !p.IsStale(epoch) {
		t.Fatal("record written at the epoch should be stale")
	}
	if !p.IsStale(epoch.Add(-time.Second)) {
		t.Fatal("record written before the epoch should be stale")
	}
	if p.IsStale(epoch.Add(time.Second)) {
		t.Fatal("record written after the epoch should be fresh")
	}
}

func TestIsStaleTriggersAreIndependent(t *testing.T) {
	epochOnly := staleness.New(0, fixedNow.AddDate(-1, 0, 0)).WithClock(clock)
	if epochOnly.IsStale(fixedNow.AddDate(0, -6, 0)) {
		t.Fatal("disabled TTL should not mark records stale")
	}
	ttlOnly := staleness.New(7, time.Time{}).WithClock(clock)
	if ttlOnly.IsStale(fixedNow.AddDate(0, 0, -1)) {
		t.Fatal("disabled epoch should not mark records stale")
	}
}

func TestIsStaleMonotonic(t *testing.T) {
	epoch := fixedNow.AddDate(0, -2, 0)
	p := staleness.New(30, epoch).WithClock(clock)
	start := epoch.Add(time.Hour)
	var prevFresh bool
	for ts := start; !ts.After(fixedNow); ts = ts.Add(12 * time.Hour) {
		fresh := !p.IsStale(ts)
		if prevFresh && !fresh {
			t.Fatalf("staleness not monotonic at %s", ts)
		}
		prevFresh = fresh
	}
	if !prevFresh {
		t.Fatal("expected the newest timestamp to be fresh")
	}
}
