package domain

import "time"

// TranscriptionModel enumerates backend model choices.
type TranscriptionModel string

const (
	ModelWhisper TranscriptionModel = "whisper"
	ModelGemini  TranscriptionModel = "gemini"
)

// ValidModel reports whether the backend accepts the model choice.
func ValidModel(m TranscriptionModel) bool {
	return m == ModelWhisper || m == ModelGemini
}

// JobState enumerates the client-side lifecycle of one transcription job.
type JobState string

const (
	JobStateSubmitted JobState = "submitted"
	JobStatePolling   JobState = "polling"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// Job is one server-side transcription task tracked by the gateway. Only one
// job is active at a time; a new submission supersedes the previous record.
type Job struct {
	ID                string
	UploadID          string
	Filename          string
	Language          string
	Model             TranscriptionModel
	NoiseReduction    bool
	GrammarCorrection bool
	DurationMinutes   float64
	CreatedAt         time.Time
}

// TranscriptionResult captures a completed job.
type TranscriptionResult struct {
	JobID           string    `json:"job_id"`
	Filename        string    `json:"filename"`
	Transcript      string    `json:"transcript"`
	Language        string    `json:"language"`
	Confidence      float64   `json:"confidence"`
	DurationMinutes float64   `json:"duration_minutes"`
	CompletedAt     time.Time `json:"completed_at"`
}
