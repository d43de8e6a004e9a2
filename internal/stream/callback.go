package stream

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/mariolpantunes/optviewer/internal/opt"
)

// NewCallback returns the per-epoch callback of a streaming run. It snapshots
// the population into an epoch event, waits for throttle (bounding the rate at
// which a browser receives frames) and asks the optimizer to stop once the
// best score of the epoch is at or below threshold, or once ctx is done.
func NewCallback(ctx context.Context, events chan<- Event, throttle time.Duration, threshold float64) opt.Callback {
	return func(epoch int, scores []float64, pop *mat.Dense) bool {
		msg := NewEpochMessage(epoch, scores, pop)
		if !send(ctx, events, Event{Kind: EventEpoch, Epoch: msg}) {
			return true
		}

		if throttle > 0 {
			timer := time.NewTimer(throttle)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return true
			}
		}

		return msg.BestScore <= threshold || ctx.Err() != nil
	}
}

// send delivers ev, preferring the buffer over ctx so that a run which is
// already cancelled still records what fits. It reports false when ctx ended
// before ev could be delivered.
func send(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	default:
	}

	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
