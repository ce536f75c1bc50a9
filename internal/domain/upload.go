package domain

import "time"

// MaxUploadBytes is the upload size ceiling (100 MiB).
const MaxUploadBytes = 100 * 1024 * 1024

// UploadCandidate is a validated, staged file awaiting submission. A new
// upload replaces the previous candidate.
type UploadCandidate struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	MediaType       string    `json:"media_type"`
	SizeBytes       int64     `json:"size_bytes"`
	DurationMinutes float64   `json:"duration_minutes"`
	StorageKey      string    `json:"-"`
	StagedAt        time.Time `json:"staged_at"`
}
