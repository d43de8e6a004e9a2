package server

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/constraints"

	"github.com/mariolpantunes/optviewer/internal/stream"
)

type number interface {
	constraints.Integer | constraints.Float
}

// parseNumber parses raw as T. An empty string yields def.
func parseNumber[T number](raw string, def T) (T, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}

	var zero T
	switch any(zero).(type) {
	case float32, float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return def, err
		}
		return T(f), nil
	default:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return def, err
		}
		return T(i), nil
	}
}

// jsonNumber accepts a JSON number or a string holding one, the way form
// inputs tend to send them
func jsonNumber[T number](raw json.RawMessage, def T) (T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return def, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseNumber(s, def)
	}
	// bare JSON numbers are truncated towards zero
	f, err := parseNumber(string(raw), 0.0)
	if err != nil {
		return def, err
	}
	return T(f), nil
}

func stringOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// parseStreamRequest builds a run request from /stream query parameters.
// The four numeric parameters are parsed as a group: if any of them is
// malformed, all four fall back to their defaults.
func parseStreamRequest(q url.Values, def stream.Request) stream.Request {
	req := def
	req.Algorithm = stringOr(q.Get("algorithm"), def.Algorithm)
	req.Function = stringOr(q.Get("function"), def.Function)
	req.Initializer = stringOr(q.Get("initializer"), def.Initializer)

	epochs, errEpochs := parseNumber(q.Get("epochs"), def.Epochs)
	popSize, errPop := parseNumber(q.Get("pop_size"), def.PopSize)
	sleep, errSleep := parseNumber(q.Get("sleep"), def.Sleep.Seconds())
	threshold, errThreshold := parseNumber(q.Get("threshold"), def.Threshold)
	if errEpochs != nil || errPop != nil || errSleep != nil || errThreshold != nil {
		return req
	}

	req.Epochs = epochs
	req.PopSize = popSize
	req.Sleep = secondsToDuration(sleep)
	req.Threshold = threshold
	return req
}

// secondsToDuration clamps negative and NaN delays to zero
func secondsToDuration(s float64) time.Duration {
	if !(s > 0) {
		return 0
	}
	if s > float64(24*time.Hour/time.Second) {
		return 24 * time.Hour
	}
	return time.Duration(s * float64(time.Second))
}

// surfaceBody is the body of POST /surface
type surfaceBody struct {
	Function string `json:"function"`
}

// previewBody is the body of POST /preview
type previewBody struct {
	Function    string          `json:"function"`
	Initializer string          `json:"initializer"`
	PopSize     json.RawMessage `json:"pop_size"`
}

// request resolves the body against the defaults. A pop_size that is not a
// number falls back to the default.
func (b previewBody) request(def stream.Request) stream.Request {
	req := def
	req.Function = stringOr(b.Function, def.Function)
	req.Initializer = stringOr(b.Initializer, def.Initializer)
	if n, err := jsonNumber(b.PopSize, def.PopSize); err == nil {
		req.PopSize = n
	}
	return req
}

func previewKey(req stream.Request) string {
	return fmt.Sprintf("preview|%s|%s|%d|%d", req.Function, req.Initializer, req.PopSize, req.Seed)
}
