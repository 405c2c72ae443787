package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted is returned by Until when the condition never held
// within the policy's attempts.
var ErrExhausted = errors.New("retry: condition not met before attempts ran out")

// Policy is a bounded, constant-interval retry policy. Every wait point
// in the sync pipeline is driven by one of these instead of a blind sleep.
type Policy struct {
	// Attempts is the total number of tries, values below 1 mean 1.
	Attempts int
	// Interval is the pause between two tries.
	Interval time.Duration
}

// Config is the on-disk form of a Policy.
type Config struct {
	Attempts   int `json:"attempts"`
	IntervalMs int `json:"interval_ms"`
}

func (c Config) Policy() Policy {
	return Policy{
		Attempts: c.Attempts,
		Interval: time.Duration(c.IntervalMs) * time.Millisecond,
	}
}

func (p Policy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// Timeout is the longest a policy can spend sleeping between attempts.
func (p Policy) Timeout() time.Duration {
	return time.Duration(p.attempts()-1) * p.Interval
}

func (p Policy) backoff(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(p.Interval),
			uint64(p.attempts()-1),
		),
		ctx,
	)
}

// Do calls op until it returns nil, the attempts run out or ctx is done.
// The error of the last attempt is returned. Wrap an error with Permanent
// to stop retrying immediately.
func Do(ctx context.Context, p Policy, op func(attempt int) error) error {
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		return op(attempt)
	}, p.backoff(ctx))
}

// Until polls cond until it reports true. Errors returned by cond are not
// retried. If the condition never holds ErrExhausted is returned.
func Until(ctx context.Context, p Policy, cond func(attempt int) (bool, error)) error {
	return Do(ctx, p, func(attempt int) error {
		ok, err := cond(attempt)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return ErrExhausted
		}
		return nil
	})
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
