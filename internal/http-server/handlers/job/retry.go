package job

import (
	"time"

	"golang.org/x/exp/slog"

	"go-crash/internal/lib/logger/sl"
)

// RetryJob re-runs a failed persistence write out-of-band. Attempts are
// capped; a write still failing after the last attempt is logged loudly and
// left to be reconciled from the store's own durability guarantees.
type RetryJob struct {
	Log      *slog.Logger
	Name     string
	Fn       func() error
	Attempt  int
	MaxTries int
	Backoff  time.Duration
}

func (j *RetryJob) Execute() {
	err := j.Fn()
	if err == nil {
		j.Log.Info("retried write succeeded",
			sl.String("job", j.Name),
			slog.Int("attempt", j.Attempt))

		return
	}

	if j.Attempt >= j.MaxTries {
		j.Log.Error("write failed after all retries, needs manual reconciliation",
			sl.String("job", j.Name),
			sl.Err(err))

		return
	}

	Dispatch(&RetryJob{
		Log:      j.Log,
		Name:     j.Name,
		Fn:       j.Fn,
		Attempt:  j.Attempt + 1,
		MaxTries: j.MaxTries,
		Backoff:  j.Backoff * 2,
	}, j.Backoff)
}

// NewRetryFunc adapts the queue to the engine's retry hook.
func NewRetryFunc(log *slog.Logger) func(name string, fn func() error) {
	return func(name string, fn func() error) {
		Dispatch(&RetryJob{
			Log:      log,
			Name:     name,
			Fn:       fn,
			Attempt:  1,
			MaxTries: 5,
			Backoff:  2 * time.Second,
		}, 2*time.Second)
	}
}
