package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mariolpantunes/optviewer/internal/opt"
)

// Run executes o on the calling goroutine and reports the outcome on events:
// an error event when the optimizer fails or panics, then the done event,
// then the channel is closed. The done event is sent on every path.
func Run(ctx context.Context, runID string, o opt.Optimizer, events chan<- Event) (res *opt.Result, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("optimizer panicked: %v", r)
		}

		switch {
		case err == nil:
			slog.Info("Run completed",
				"run_id", runID,
				"epochs", res.Epochs,
				"best_score", res.BestScore,
				"stopped_early", res.Stopped,
				"elapsed", time.Since(start),
			)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			slog.Info("Run cancelled", "run_id", runID, "elapsed", time.Since(start))
		default:
			slog.Error("Run failed", "run_id", runID, "error", err)
			send(ctx, events, Event{Kind: EventError, Err: err.Error()})
		}

		send(ctx, events, Event{Kind: EventDone})
		close(events)
	}()

	return o.Optimize(ctx)
}

// Start runs o on its own goroutine. The returned channel is closed once the
// worker has exited.
func Start(ctx context.Context, runID string, o opt.Optimizer, events chan<- Event) <-chan struct{} {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		Run(ctx, runID, o, events)
	}()
	return finished
}
