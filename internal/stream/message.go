// Package stream relays the epochs of a running optimizer to a single
// consumer, in order, over a channel, and renders them as Server-Sent Events.
//
// One run owns one channel: the worker goroutine is the only producer and the
// SSE generator is the only consumer. The worker always finishes with exactly
// one done event and then closes the channel.
package stream

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// EpochMessage is the state of the population after one epoch
type EpochMessage struct {
	Epoch     int       `json:"epoch"`
	PopX      []float64 `json:"pop_x"`
	PopY      []float64 `json:"pop_y"`
	PopZ      []float64 `json:"pop_z"`
	BestScore float64   `json:"best_score"`
}

// NewEpochMessage snapshots pop and scores. Nothing in the message aliases the
// inputs, so the optimizer is free to keep mutating them. JSON has no NaN or
// infinity: NaN and +Inf become math.MaxFloat64 and -Inf becomes its negation,
// so a diverging objective still renders as the worst point on the plot.
func NewEpochMessage(epoch int, scores []float64, pop *mat.Dense) *EpochMessage {
	n, d := pop.Dims()

	msg := &EpochMessage{
		Epoch: epoch,
		PopX:  mat.Col(nil, 0, pop),
		PopZ:  append(make([]float64, 0, len(scores)), scores...),
	}
	if d > 1 {
		msg.PopY = mat.Col(nil, 1, pop)
	} else {
		msg.PopY = make([]float64, n)
	}
	clampFinite(msg.PopX)
	clampFinite(msg.PopY)
	clampFinite(msg.PopZ)
	if len(msg.PopZ) > 0 {
		msg.BestScore = floats.Min(msg.PopZ)
	}
	return msg
}

func clampFinite(v []float64) {
	for i, x := range v {
		switch {
		case math.IsNaN(x), math.IsInf(x, 1):
			v[i] = math.MaxFloat64
		case math.IsInf(x, -1):
			v[i] = -math.MaxFloat64
		}
	}
}

// EventKind distinguishes the values travelling on a run's channel
type EventKind int

const (
	// EventEpoch carries an EpochMessage
	EventEpoch EventKind = iota
	// EventError reports an optimizer failure after streaming started
	EventError
	// EventDone is the sentinel: always the last event of a run
	EventDone
)

func (k EventKind) String() string {
	switch k {
	case EventEpoch:
		return "epoch"
	case EventError:
		return "error"
	case EventDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event is one value on a run's channel
type Event struct {
	Kind  EventKind
	Epoch *EpochMessage
	Err   string
}

// EventBuffer is the capacity of a run's channel. A throttled run never
// fills it; an unthrottled one waits for the consumer, or for cancellation.
const EventBuffer = 64

// NewEvents allocates the channel for one run
func NewEvents() chan Event {
	return make(chan Event, EventBuffer)
}
