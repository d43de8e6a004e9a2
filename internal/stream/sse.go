package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// DoneFrame terminates every stream
const DoneFrame = "event: done\ndata: Done\n\n"

// PingInterval is how often an idle stream sends a comment line
const PingInterval = 30 * time.Second

type errorPayload struct {
	Error string `json:"error"`
}

// Generator turns the events of one run into SSE frames. It starts in the
// streaming state and moves to done after emitting the done frame; from then
// on it produces nothing.
type Generator struct {
	events  <-chan Event
	done    bool
	observe func(Event)
}

// NewGenerator consumes events
func NewGenerator(events <-chan Event) *Generator {
	return &Generator{events: events}
}

// Observe registers fn to see every event before it is rendered
func (g *Generator) Observe(fn func(Event)) *Generator {
	g.observe = fn
	return g
}

// Done reports whether the done frame has been emitted
func (g *Generator) Done() bool {
	return g.done
}

// Frame renders one event. A closed channel is treated as done so that a
// consumer never waits forever.
func (g *Generator) Frame(ev Event, ok bool) []byte {
	if g.done {
		return nil
	}
	if ok && g.observe != nil {
		g.observe(ev)
	}
	if !ok || ev.Kind == EventDone {
		g.done = true
		return []byte(DoneFrame)
	}

	switch ev.Kind {
	case EventEpoch:
		// An epoch that cannot be encoded is reported and skipped; the
		// stream goes on with the next one.
		data, err := json.Marshal(ev.Epoch)
		if err != nil {
			slog.Error("Failed to marshal epoch",
				"epoch", ev.Epoch.Epoch,
				"best_score", ev.Epoch.BestScore,
				"pop_size", len(ev.Epoch.PopZ),
				"error", err,
			)
			return errorFrame(fmt.Sprintf("failed to marshal epoch %d: %v", ev.Epoch.Epoch, err))
		}
		return []byte(fmt.Sprintf("data: %s\n\n", data))
	case EventError:
		return errorFrame(ev.Err)
	default:
		return nil
	}
}

// Next blocks for the next event and renders it. It returns ctx's error when
// the consumer goes away first.
func (g *Generator) Next(ctx context.Context) ([]byte, error) {
	if g.done {
		return nil, io.EOF
	}
	select {
	case ev, ok := <-g.events:
		return g.Frame(ev, ok), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stream writes every frame to w until the done frame has been written,
// calling flush after each write. While no event arrives a ping comment is
// sent every ping interval; a non-positive ping disables it.
func (g *Generator) Stream(ctx context.Context, w io.Writer, flush func(), ping time.Duration) error {
	var tick <-chan time.Time
	if ping > 0 {
		ticker := time.NewTicker(ping)
		defer ticker.Stop()
		tick = ticker.C
	}

	for !g.done {
		var frame []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-g.events:
			frame = g.Frame(ev, ok)
		case <-tick:
			frame = []byte(": ping\n\n")
		}
		if len(frame) == 0 {
			continue
		}
		if _, err := w.Write(frame); err != nil {
			return fmt.Errorf("failed to write SSE frame: %w", err)
		}
		if flush != nil {
			flush()
		}
	}
	return nil
}

// WriteSetupError writes the single frame sent when a run cannot start
func WriteSetupError(w io.Writer, err error) error {
	data, mErr := json.Marshal(errorPayload{Error: err.Error()})
	if mErr != nil {
		return fmt.Errorf("failed to marshal error: %w", mErr)
	}
	_, wErr := fmt.Fprintf(w, "data: %s\n\n", data)
	return wErr
}

func errorFrame(msg string) []byte {
	data, _ := json.Marshal(errorPayload{Error: msg})
	return []byte(fmt.Sprintf("event: error\ndata: %s\n\n", data))
}
