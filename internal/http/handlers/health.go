package handlers

import (
	"net/http"
)

// Health reports gateway liveness plus the backend's model readiness. A dead
// backend does not fail the probe; the payload carries the degraded view.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{"status": "ok"}

	backend, err := a.Client.Health(r.Context())
	if err != nil {
		payload["backend"] = map[string]any{"reachable": false}
		a.json(w, http.StatusOK, payload)
		return
	}
	payload["backend"] = map[string]any{
		"reachable":           true,
		"status":              backend.Status,
		"whisper_loaded":      backend.WhisperLoaded,
		"grammar_tool_loaded": backend.GrammarToolLoaded,
		"models_loaded":       backend.ModelsLoaded(),
	}
	a.json(w, http.StatusOK, payload)
}
