package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/middleware"
	"server/internal/poller"
	"server/internal/quota"
	"server/internal/session"
	"server/internal/transcriber"
	"server/internal/upload"
)

// App bundles the gateway's wired services for the HTTP layer. Job state is
// kept here because the gateway tracks at most one candidate upload and one
// active transcription at a time.
type App struct {
	Logger       infra.Logger
	Session      *session.Manager
	Gate         *upload.Gate
	Client       *transcriber.Client
	PollInterval time.Duration
	JWTSecret    string

	mu           sync.Mutex
	candidate    *domain.UploadCandidate
	activeJob    *domain.Job
	activeTask   *poller.Task
	activeUpload *domain.UploadCandidate
	lastResult   *domain.TranscriptionResult
	submitting   bool
}

func NewApp(logger infra.Logger, sess *session.Manager, gate *upload.Gate, client *transcriber.Client, pollInterval time.Duration, jwtSecret string) *App {
	if pollInterval <= 0 {
		pollInterval = poller.DefaultInterval
	}
	return &App{
		Logger:       logger,
		Session:      sess,
		Gate:         gate,
		Client:       client,
		PollInterval: pollInterval,
		JWTSecret:    jwtSecret,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error":   errCode,
		"message": message,
	})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// errorStatus maps domain sentinels onto HTTP status codes and the stable
// error slugs of the JSON envelope.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrNoUploadStaged):
		return http.StatusBadRequest, "no_upload"
	case errors.Is(err, domain.ErrUnsupportedModel):
		return http.StatusBadRequest, "unsupported_model"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusForbidden, "quota_exceeded"
	case errors.Is(err, domain.ErrFormatLocked):
		return http.StatusForbidden, "format_locked"
	case errors.Is(err, domain.ErrJobInFlight):
		return http.StatusConflict, "job_in_flight"
	case errors.Is(err, domain.ErrInvalidFileType):
		return http.StatusUnsupportedMediaType, "invalid_file_type"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "file_too_large"
	case errors.Is(err, domain.ErrBackendNotReady):
		return http.StatusServiceUnavailable, "backend_not_ready"
	}
	return http.StatusInternalServerError, "internal"
}

// fail writes the error envelope for a domain sentinel. An empty message
// falls back to the sentinel's text.
func (a *App) fail(w http.ResponseWriter, err error, message string) {
	status, slug := errorStatus(err)
	if message == "" {
		message = err.Error()
	}
	a.error(w, status, slug, message)
}

// upsell is fail plus the upgrade prompt fields used by quota and plan gates.
func (a *App) upsell(w http.ResponseWriter, err error, message string) {
	status, slug := errorStatus(err)
	a.json(w, status, map[string]any{
		"error":            slug,
		"message":          message,
		"upgrade_required": true,
		"quota":            a.ledgerView(),
	})
}

// ledgerPayload is the quota view shared by several responses.
type ledgerPayload struct {
	UsedMinutes      float64 `json:"used_minutes"`
	LimitMinutes     float64 `json:"limit_minutes"`
	RemainingMinutes float64 `json:"remaining_minutes"`
	UsageFraction    float64 `json:"usage_fraction"`
	UsedDisplay      string  `json:"used_display"`
	RemainingDisplay string  `json:"remaining_display"`
}

func (a *App) ledgerView() ledgerPayload {
	l := a.Session.Ledger()
	return ledgerPayload{
		UsedMinutes:      l.Used,
		LimitMinutes:     l.Ceiling,
		RemainingMinutes: l.Remaining(),
		UsageFraction:    l.UsageFraction(),
		UsedDisplay:      quota.FormatMinutes(l.Used),
		RemainingDisplay: quota.FormatMinutes(l.Remaining()),
	}
}
