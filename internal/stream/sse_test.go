package stream

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mariolpantunes/optviewer/internal/registry"
)

func TestGeneratorFrames(t *testing.T) {
	events := make(chan Event, 4)
	events <- Event{Kind: EventEpoch, Epoch: NewEpochMessage(0, []float64{2}, mat.NewDense(1, 2, []float64{1, 1}))}
	events <- Event{Kind: EventError, Err: "diverged"}
	events <- Event{Kind: EventDone}
	close(events)

	var buf bytes.Buffer
	flushes := 0
	g := NewGenerator(events)
	require.NoError(t, g.Stream(context.Background(), &buf, func() { flushes++ }, 0))

	want := `data: {"epoch":0,"pop_x":[1],"pop_y":[1],"pop_z":[2],"best_score":2}` + "\n\n" +
		"event: error\ndata: {\"error\":\"diverged\"}\n\n" +
		DoneFrame
	assert.Equal(t, want, buf.String())
	assert.Equal(t, 3, flushes)
	assert.True(t, g.Done())
}

func TestGeneratorSkipsUnencodableEpoch(t *testing.T) {
	events := make(chan Event, 3)
	events <- Event{Kind: EventEpoch, Epoch: &EpochMessage{Epoch: 0, BestScore: math.NaN()}}
	events <- Event{Kind: EventEpoch, Epoch: NewEpochMessage(1, []float64{math.NaN()}, mat.NewDense(1, 2, nil))}
	events <- Event{Kind: EventDone}

	var buf bytes.Buffer
	require.NoError(t, NewGenerator(events).Stream(context.Background(), &buf, nil, 0))

	frames := strings.Split(strings.TrimSuffix(buf.String(), "\n\n"), "\n\n")
	require.Len(t, frames, 3)
	assert.True(t, strings.HasPrefix(frames[0], "event: error\ndata: {\"error\":\"failed to marshal epoch 0"))
	assert.True(t, strings.HasPrefix(frames[1], `data: {"epoch":1,`), "the stream continues after a bad epoch")
	assert.Equal(t, strings.TrimSuffix(DoneFrame, "\n\n"), frames[2])
}

func TestGeneratorObserve(t *testing.T) {
	var seen []EventKind
	g := NewGenerator(nil).Observe(func(ev Event) { seen = append(seen, ev.Kind) })

	g.Frame(Event{Kind: EventEpoch, Epoch: &EpochMessage{}}, true)
	g.Frame(Event{Kind: EventDone}, true)
	g.Frame(Event{Kind: EventEpoch, Epoch: &EpochMessage{}}, true)

	assert.Equal(t, []EventKind{EventEpoch, EventDone}, seen)
}

func TestGeneratorProducesNothingAfterDone(t *testing.T) {
	g := NewGenerator(nil)
	assert.Equal(t, DoneFrame, string(g.Frame(Event{Kind: EventDone}, true)))
	assert.Nil(t, g.Frame(Event{Kind: EventEpoch}, true))

	_, err := g.Next(context.Background())
	assert.Error(t, err)
}

func TestGeneratorTreatsClosedChannelAsDone(t *testing.T) {
	events := make(chan Event)
	close(events)

	frame, err := NewGenerator(events).Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DoneFrame, string(frame))
}

func TestGeneratorStopsWhenConsumerLeaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewGenerator(make(chan Event)).Stream(ctx, &buf, nil, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestGeneratorPings(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	NewGenerator(make(chan Event)).Stream(ctx, &buf, nil, 10*time.Millisecond)
	assert.Contains(t, buf.String(), ": ping\n\n")
}

func TestWriteSetupError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSetupError(&buf, errors.New("unknown function: Nope")))
	assert.Equal(t, "data: {\"error\":\"unknown function: Nope\"}\n\n", buf.String())
}

func TestEndToEndStream(t *testing.T) {
	req := DefaultRequest()
	req.Sleep = 0
	req.Epochs = 4
	req.Threshold = -1

	events, err := Open(context.Background(), registry.Default(), "test", req)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewGenerator(events).Stream(context.Background(), &buf, nil, 0))

	frames := strings.Split(strings.TrimSuffix(buf.String(), "\n\n"), "\n\n")
	require.Len(t, frames, 5)
	for _, f := range frames[:4] {
		assert.True(t, strings.HasPrefix(f, "data: {\"epoch\":"), f)
	}
	assert.Equal(t, strings.TrimSuffix(DoneFrame, "\n\n"), frames[4])
}
