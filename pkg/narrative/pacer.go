package narrative

import (
	"context"
	"time"
)

// DefaultPace is the pause between dependent chunk requests.
const DefaultPace = 500 * time.Millisecond

// Pacer spaces out consecutive requests to the generation service.
type Pacer interface {
	Wait(ctx context.Context) error
}

type PacerFunc func(ctx context.Context) error

func (f PacerFunc) Wait(ctx context.Context) error { return f(ctx) }

// NoDelay never waits but still reports cancellation.
var NoDelay Pacer = PacerFunc(func(ctx context.Context) error { return ctx.Err() })

// Delay waits d or until ctx is done.
func Delay(d time.Duration) Pacer {
	if d <= 0 {
		return NoDelay
	}
	return PacerFunc(func(ctx context.Context) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	})
}
