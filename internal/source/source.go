// Package source produces location fixes for the live map. Every source
// runs in its own goroutine and delivers fixes over a channel; consumers
// apply them on their UI goroutine.
package source

import (
	"context"
	"errors"
	"time"

	"circuit-tracker/internal/geo"
)

// ErrNoFixes is returned by sources that have nothing to emit.
var ErrNoFixes = errors.New("source has no fixes")

// Source emits fixes on out until ctx is done or the source is exhausted.
// Run never closes out.
type Source interface {
	Run(ctx context.Context, out chan<- geo.Fix) error
}

// Start runs src in a new goroutine and returns a channel that is closed
// when it stops. The error, if any, is passed to done.
func Start(ctx context.Context, src Source, buffer int, done func(error)) <-chan geo.Fix {
	out := make(chan geo.Fix, buffer)
	go func() {
		defer close(out)
		err := src.Run(ctx, out)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		if done != nil {
			done(err)
		}
	}()
	return out
}

// emit sends fix unless ctx is done first.
func emit(ctx context.Context, out chan<- geo.Fix, fix geo.Fix) error {
	select {
	case out <- fix:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
