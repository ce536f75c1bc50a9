package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/poller"
	"server/internal/transcriber"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type transcribeRequest struct {
	Model             string `json:"model"`
	NoiseReduction    bool   `json:"noise_reduction"`
	GrammarCorrection bool   `json:"grammar_correction"`
	Language          string `json:"language"`
}

const modelsLoadingMessage = "AI models are still loading. Please wait a moment and try again."

// TranscriptionsCreate submits the staged upload to the backend and starts
// the status poller. One job at a time: a second submission while a job is
// still running is rejected rather than queued.
func (a *App) TranscriptionsCreate(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	model := domain.TranscriptionModel(req.Model)
	if model == "" {
		model = domain.ModelWhisper
	}
	if !domain.ValidModel(model) {
		a.fail(w, domain.ErrUnsupportedModel, "model must be whisper or gemini")
		return
	}
	language := req.Language
	if language == "" || !domain.SupportedLanguage(language) {
		language = middleware.LanguageFromContext(r.Context())
	}

	a.mu.Lock()
	if a.submitting || (a.activeTask != nil && !a.activeTask.Snapshot().State.Terminal()) {
		a.mu.Unlock()
		a.fail(w, domain.ErrJobInFlight, "A transcription is already in progress. Please wait for it to finish.")
		return
	}
	a.submitting = true
	candidate := a.candidate
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.submitting = false
		a.mu.Unlock()
	}()

	if candidate == nil {
		a.fail(w, domain.ErrNoUploadStaged, "Please upload a file first.")
		return
	}

	ledger := a.Session.Ledger()
	if !ledger.CanAccept(candidate.DurationMinutes) {
		a.upsell(w, domain.ErrQuotaExceeded, fmt.Sprintf(
			"Not enough time remaining. You need %.1f minutes but only have %.1f minutes left.",
			candidate.DurationMinutes, ledger.Remaining()))
		return
	}

	health, err := a.Client.Health(r.Context())
	if err != nil {
		a.error(w, http.StatusBadGateway, "backend_error", "Failed to transcribe audio. Please try again.")
		return
	}
	// Gemini jobs bypass the local model gate; only whisper needs the
	// backend's models warmed up.
	if model == domain.ModelWhisper && !health.ModelsLoaded() {
		a.fail(w, domain.ErrBackendNotReady, modelsLoadingMessage)
		return
	}

	data, err := a.Gate.Open(r.Context(), candidate)
	if err != nil {
		a.Logger.Error().Err(err).Str("upload_id", candidate.ID).Msg("staged upload unreadable")
		a.error(w, http.StatusInternalServerError, "internal", "Failed to transcribe audio. Please try again.")
		return
	}

	jobID, err := a.Client.Submit(r.Context(), transcriber.SubmitRequest{
		Filename:          candidate.Filename,
		Data:              data,
		Model:             model,
		NoiseReduction:    req.NoiseReduction,
		GrammarCorrection: req.GrammarCorrection,
	})
	if err != nil {
		var apiErr *transcriber.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			a.error(w, http.StatusBadGateway, "backend_error", apiErr.Message)
			return
		}
		a.Logger.Error().Err(err).Msg("backend submission failed")
		a.error(w, http.StatusBadGateway, "backend_error", "Failed to transcribe audio. Please try again.")
		return
	}

	job := &domain.Job{
		ID:                jobID,
		UploadID:          candidate.ID,
		Filename:          candidate.Filename,
		Language:          language,
		Model:             model,
		NoiseReduction:    req.NoiseReduction,
		GrammarCorrection: req.GrammarCorrection,
		DurationMinutes:   candidate.DurationMinutes,
		CreatedAt:         time.Now().UTC(),
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	// The poller outlives the request; it runs until the job is terminal or
	// the task is stopped.
	task := poller.Start(context.Background(), a.Client, job.ID, a.PollInterval, a.Logger, func(snap poller.Snapshot) {
		a.finishJob(job, candidate, snap)
	})

	a.mu.Lock()
	a.activeJob = job
	a.activeTask = task
	a.activeUpload = candidate
	// A candidate staged concurrently during the submission window is a
	// fresh upload and must survive.
	if a.candidate == candidate {
		a.candidate = nil
	}
	a.mu.Unlock()

	a.json(w, http.StatusAccepted, map[string]any{
		"job":   jobView(job),
		"state": task.Snapshot(),
	})
}

// finishJob runs once per job when its poller reaches a terminal snapshot.
// Completed jobs charge the ledger and keep a result for export; failed jobs
// charge nothing.
func (a *App) finishJob(job *domain.Job, candidate *domain.UploadCandidate, snap poller.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if snap.State == domain.JobStateCompleted {
		result := &domain.TranscriptionResult{
			JobID:           job.ID,
			Filename:        job.Filename,
			Transcript:      snap.Transcription,
			Language:        job.Language,
			Confidence:      snap.Confidence,
			DurationMinutes: job.DurationMinutes,
			CompletedAt:     snap.CompletedAt,
		}
		a.mu.Lock()
		a.lastResult = result
		a.mu.Unlock()

		if err := a.Session.Charge(ctx, job.DurationMinutes); err != nil {
			a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to charge usage")
		}
	} else {
		a.Logger.Warn().Str("job_id", job.ID).Str("error", snap.Error).Msg("transcription failed")
	}

	a.Gate.Discard(ctx, candidate)
	a.mu.Lock()
	if a.activeUpload == candidate {
		a.activeUpload = nil
	}
	a.mu.Unlock()
}

func jobView(job *domain.Job) map[string]any {
	return map[string]any{
		"id":                 job.ID,
		"filename":           job.Filename,
		"language":           job.Language,
		"model":              job.Model,
		"noise_reduction":    job.NoiseReduction,
		"grammar_correction": job.GrammarCorrection,
		"duration_minutes":   job.DurationMinutes,
		"created_at":         job.CreatedAt,
	}
}

// taskFor returns the active job and its poller when the path ID matches.
func (a *App) taskFor(r *http.Request) (*domain.Job, *poller.Task, bool) {
	id := chi.URLParam(r, "id")
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeJob == nil || a.activeJob.ID != id {
		return nil, nil, false
	}
	return a.activeJob, a.activeTask, true
}

// TranscriptionsGet reports the job's current lifecycle snapshot.
func (a *App) TranscriptionsGet(w http.ResponseWriter, r *http.Request) {
	job, task, ok := a.taskFor(r)
	if !ok {
		a.fail(w, domain.ErrNotFound, "job not found")
		return
	}
	snap := task.Snapshot()
	payload := map[string]any{
		"job":   jobView(job),
		"state": snap,
		"quota": a.ledgerView(),
	}
	if snap.State == domain.JobStateCompleted {
		a.mu.Lock()
		if a.lastResult != nil && a.lastResult.JobID == job.ID {
			payload["result"] = a.lastResult
		}
		a.mu.Unlock()
	}
	a.json(w, http.StatusOK, payload)
}

// TranscriptionsCancel stops polling the job. The backend keeps processing;
// only the gateway stops watching.
func (a *App) TranscriptionsCancel(w http.ResponseWriter, r *http.Request) {
	job, task, ok := a.taskFor(r)
	if !ok {
		a.fail(w, domain.ErrNotFound, "job not found")
		return
	}
	task.Stop()
	snap := task.Snapshot()

	// Release the submission slot and the staged bytes. finishJob never runs
	// for a cancelled job because its snapshot stays non-terminal.
	a.mu.Lock()
	var staged *domain.UploadCandidate
	if a.activeJob == job {
		staged = a.activeUpload
		a.activeJob = nil
		a.activeTask = nil
		a.activeUpload = nil
	}
	a.mu.Unlock()
	if staged != nil {
		a.Gate.Discard(r.Context(), staged)
	}

	a.json(w, http.StatusOK, map[string]any{"state": snap})
}
