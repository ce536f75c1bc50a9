package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"server/internal/domain"
)

// UploadsCreate validates and stages one audio or video file. A new upload
// replaces the previous candidate; its staged bytes are discarded.
func (a *App) UploadsCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(domain.MaxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "audio file required")
		return
	}
	defer file.Close()

	mediaType := header.Header.Get("Content-Type")
	candidate, err := a.Gate.Stage(r.Context(), header.Filename, mediaType, header.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidFileType):
			a.fail(w, err, "Please upload a valid audio file (MP3, WAV, M4A, OGG, MP4)")
		case errors.Is(err, domain.ErrFileTooLarge):
			a.fail(w, err, "File size must be less than 100MB")
		default:
			a.Logger.Error().Err(err).Msg("failed to stage upload")
			a.error(w, http.StatusInternalServerError, "internal", "failed to stage upload")
		}
		return
	}

	a.mu.Lock()
	previous := a.candidate
	a.candidate = candidate
	a.mu.Unlock()
	if previous != nil {
		a.Gate.Discard(r.Context(), previous)
	}

	ledger := a.Session.Ledger()
	payload := map[string]any{
		"upload": candidate,
		"quota":  a.ledgerView(),
	}
	if !ledger.CanAccept(candidate.DurationMinutes) {
		payload["warning"] = fmt.Sprintf(
			"Not enough time remaining. You need %.1f minutes but only have %.1f minutes left.",
			candidate.DurationMinutes, ledger.Remaining())
	}
	a.json(w, http.StatusCreated, payload)
}

// UploadsDelete discards the staged candidate, if any.
func (a *App) UploadsDelete(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	candidate := a.candidate
	a.candidate = nil
	a.mu.Unlock()

	if candidate != nil {
		a.Gate.Discard(r.Context(), candidate)
	}
	a.json(w, http.StatusOK, map[string]any{"discarded": candidate != nil})
}
