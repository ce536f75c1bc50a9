package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"server/internal/domain"
	"server/internal/export"
	"server/pkg/zip"

	"github.com/go-chi/chi/v5"
)

// TranscriptionsExport serves the completed transcript in the requested
// format. Plain text prefers the backend's own download; the richer formats
// are rendered locally and gated behind paid plans.
func (a *App) TranscriptionsExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := export.Format(chi.URLParam(r, "format"))
	if !export.ValidFormat(format) {
		a.error(w, http.StatusBadRequest, "bad_request", "format must be txt, pdf, or doc")
		return
	}

	a.mu.Lock()
	result := a.lastResult
	a.mu.Unlock()
	if result == nil || result.JobID != id {
		a.fail(w, domain.ErrNotFound, "no completed transcription for this job")
		return
	}

	if !export.Allowed(a.Session.Account(), format) {
		a.upsell(w, domain.ErrFormatLocked, "Upgrade to Pro to unlock PDF and Word downloads.")
		return
	}

	body := export.Render(*result, format)
	if format == export.FormatText {
		// The backend's download endpoint is authoritative when reachable.
		if data, err := a.Client.Download(r.Context(), id); err == nil {
			body = data
		} else {
			a.Logger.Debug().Err(err).Str("job_id", id).Msg("backend download unavailable, serving local transcript")
		}
	}

	filename := export.Filename(result.Filename, format)
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// TranscriptionsExportBundle serves every format as one zip. The bundle
// includes the paid formats, so it carries the same gating as PDF and Word.
func (a *App) TranscriptionsExportBundle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a.mu.Lock()
	result := a.lastResult
	a.mu.Unlock()
	if result == nil || result.JobID != id {
		a.fail(w, domain.ErrNotFound, "no completed transcription for this job")
		return
	}

	if !export.Allowed(a.Session.Account(), export.FormatWord) {
		a.upsell(w, domain.ErrFormatLocked, "Upgrade to Pro to unlock PDF and Word downloads.")
		return
	}

	base := result.Filename
	if dot := strings.Index(base, "."); dot >= 0 {
		base = base[:dot]
	}
	files := []zip.File{
		{Name: export.Filename(result.Filename, export.FormatText), Data: export.Text(*result)},
		{Name: base + "_transcript_printable.html", Data: export.PrintableHTML(*result)},
		{Name: export.Filename(result.Filename, export.FormatWord), Data: export.WordHTML(*result)},
	}
	archive, err := zip.Archive(files)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", id).Msg("failed to build export bundle")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build export bundle")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"_transcripts.zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
