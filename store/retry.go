package store

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff controls connection retries against a remote backend.
type Backoff struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     bool
}

func (p Backoff) normalized() Backoff {
	q := p
	if q.BaseDelay <= 0 {
		q.BaseDelay = 200 * time.Millisecond
	}
	if q.MaxDelay <= 0 {
		q.MaxDelay = 5 * time.Second
	}
	if q.MaxDelay < q.BaseDelay {
		q.MaxDelay = q.BaseDelay
	}
	if q.MaxRetries < 0 {
		q.MaxRetries = 0
	}
	return q
}

// delay returns the wait before the given retry attempt (0-based).
func (p Backoff) delay(attempt int) time.Duration {
	d := p.BaseDelay << attempt
	if d > p.MaxDelay || d <= 0 {
		d = p.MaxDelay
	}
	if !p.Jitter {
		return d
	}
	// +/- 50%
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + rand.N(d-half) // #nosec G404 non-crypto
}

// retry runs fn until it succeeds, the attempts are used up or ctx ends.
func retry(ctx context.Context, p Backoff, fn func() error) error {
	p = p.normalized()
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= p.MaxRetries {
			return err
		}
		t := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
