package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mariolpantunes/optviewer/internal/stream"
)

// handleStream handles GET /stream: it starts a run and relays its epochs as
// Server-Sent Events until the run is done or the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	req := parseStreamRequest(r.URL.Query(), s.cfg.Request())
	runID := uuid.NewString()
	logger := slog.With("run_id", runID, "algorithm", req.Algorithm, "function", req.Function)

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Run-ID", runID)

	ctx := r.Context()
	events, err := stream.Open(ctx, s.registry, runID, req)
	if err != nil {
		logger.Warn("Run setup failed", "error", err)
		s.metrics.runsFinished.WithLabelValues(outcomeSetupFailed).Inc()
		if err := stream.WriteSetupError(w, err); err != nil {
			logger.Error("Failed to write setup error", "error", err)
		}
		flusher.Flush()
		return
	}

	logger.Info("Run started",
		"initializer", req.Initializer,
		"epochs", req.Epochs,
		"pop_size", req.PopSize,
		"sleep", req.Sleep,
		"threshold", req.Threshold,
	)
	s.metrics.runsStarted.WithLabelValues(req.Algorithm, req.Function).Inc()
	s.metrics.activeStreams.Inc()
	defer s.metrics.activeStreams.Dec()

	s.runs.Add(runID, req)
	defer s.runs.Remove(runID)

	start := time.Now()
	gen := stream.NewGenerator(events).Observe(func(ev stream.Event) {
		s.runs.Observe(runID, ev)
	})
	err = gen.Stream(ctx, w, flusher.Flush, s.cfg.Server.PingInterval)
	s.metrics.runDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		s.metrics.runsFinished.WithLabelValues(outcomeCompleted).Inc()
	case errors.Is(err, ctx.Err()):
		logger.Debug("SSE client disconnected")
		s.metrics.runsFinished.WithLabelValues(outcomeDisconnected).Inc()
	default:
		logger.Error("Failed to write SSE stream", "error", err)
		s.metrics.runsFinished.WithLabelValues(outcomeWriteFailed).Inc()
	}
}
