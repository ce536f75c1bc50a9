package handlers

import (
	"net/http"

	"server/internal/domain"
	"server/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// Plans returns the static plan catalog.
func (a *App) Plans(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"plans": domain.Plans()})
}

// PlanUpgrade acknowledges an upgrade request without changing the stored
// account. There is no billing; the catalog entry is echoed back so clients
// can render the checkout pitch.
func (a *App) PlanUpgrade(w http.ResponseWriter, r *http.Request) {
	tier := domain.PlanTier(chi.URLParam(r, "tier"))
	plan, ok := domain.PlanByTier(tier)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown plan")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"plan":    plan,
		"message": "Checkout is not available yet.",
	})
}

// Languages returns the selectable transcription languages plus the one
// detected for this request, with the country that informed the detection.
func (a *App) Languages(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"languages": domain.Languages(),
		"detected":  middleware.LanguageFromContext(r.Context()),
		"country":   middleware.CountryFromContext(r.Context()),
	})
}
