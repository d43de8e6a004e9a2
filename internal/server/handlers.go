package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mariolpantunes/optviewer/internal/objective"
	"github.com/mariolpantunes/optviewer/internal/registry"
	"github.com/mariolpantunes/optviewer/internal/stream"
)

// surfaceResponse is the grid of POST /surface, tagged for the plotting library
type surfaceResponse struct {
	*objective.Surface
	Type string `json:"type"`
}

// handleConfig handles GET /config
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.registry.Names())
}

// handleSurface handles POST /surface
func (s *Server) handleSurface(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body surfaceBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	name := stringOr(body.Function, s.cfg.Run.Function)

	key := "surface|" + name
	if cached, ok := s.cacheGet("surface", key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	f, err := s.registry.Function(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	surface, err := objective.Grid(f, s.cfg.SearchBounds(), s.cfg.Surface.Resolution)
	if err != nil {
		slog.Error("Failed to compute surface", "function", name, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := surfaceResponse{Surface: surface, Type: "surface"}
	s.cacheSet(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handlePreview handles POST /preview
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body previewBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req := body.request(s.cfg.Request())

	key := previewKey(req)
	if cached, ok := s.cacheGet("preview", key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	msg, err := stream.Preview(s.registry, req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, registry.ErrUnknownKey) || errors.Is(err, stream.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	s.cacheSet(key, msg)
	writeJSON(w, http.StatusOK, msg)
}

// handleRuns handles GET /runs: the runs whose stream is currently open
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.runs.List())
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) cacheGet(kind, key string) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	v, ok := s.cache.Get(key)
	s.metrics.cacheLookup(kind, ok)
	return v, ok
}

func (s *Server) cacheSet(key string, v any) {
	if s.cache != nil {
		s.cache.SetDefault(key, v)
	}
}

// decodeBody decodes an optional JSON body; an empty body leaves v untouched
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errors.New("invalid JSON body: " + err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
