package index

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// SQLITE_BUSY; extended codes keep it in the low byte.
const sqliteBusyCode = 5

const (
	busyAttempts = 5
	busyDelay    = 10 * time.Millisecond
	busyMaxDelay = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) && coded.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy reruns op while another connection holds the write lock. Any
// other error is returned after the first attempt.
func retryOnBusy(ctx context.Context, op func() error) error {
	return retry.Do(op,
		retry.Context(ctx),
		retry.Attempts(busyAttempts),
		retry.Delay(busyDelay),
		retry.MaxDelay(busyMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isSQLiteBusy),
		retry.LastErrorOnly(true),
	)
}
