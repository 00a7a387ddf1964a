package httputil

import (
	"context"
	"errors"
	"time"
)

// Once retries a transient failure a single time without waiting.
var Once = Policy{Attempts: 2}

// Policy bounds how often and how fast an operation is re-run.
type Policy struct {
	Attempts int
	Delay    time.Duration
	// OnRetry, when set, is called before each attempt after the first.
	OnRetry func(attempt int, err error)
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as worth another attempt. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked by [Transient].
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// Do runs fn until it succeeds, returns a non-transient error, or the
// attempts run out. The returned error is unwrapped from its transient
// marker. Cancelling ctx stops the loop between attempts.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := max(p.Attempts, 1)
	var err error
	for i := range attempts {
		if i > 0 {
			if p.OnRetry != nil {
				p.OnRetry(i, err)
			}
			if p.Delay > 0 {
				t := time.NewTimer(p.Delay)
				select {
				case <-ctx.Done():
					t.Stop()
					return ctx.Err()
				case <-t.C:
				}
			} else if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		err = fn(i)
		if err == nil {
			return nil
		}
		var t *transientError
		if !errors.As(err, &t) {
			return err
		}
		err = t.err
	}
	return err
}
