package server

import (
	"log/slog"
	"net/http"

	"github.com/mariolpantunes/optviewer/internal/ui"
)

// handleIndex handles GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// Only handle exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	names := s.registry.Names()
	run := s.cfg.Run
	page := ui.Dashboard(ui.PageData{
		Algorithms:   names.Algorithms,
		Functions:    names.Functions,
		Initializers: names.Initializers,
		Algorithm:    run.Algorithm,
		Function:     run.Function,
		Initializer:  run.Initializer,
		Epochs:       run.Epochs,
		PopSize:      run.PopSize,
		Sleep:        run.Sleep.Seconds(),
		Threshold:    run.Threshold,
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		slog.Error("Failed to render page", "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}
