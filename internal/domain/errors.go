package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidFileType  = errors.New("invalid file type")
	ErrFileTooLarge     = errors.New("file too large")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrJobInFlight      = errors.New("transcription already in progress")
	ErrBackendNotReady  = errors.New("backend not ready")
	ErrFormatLocked     = errors.New("download format locked")
	ErrNoUploadStaged   = errors.New("no upload staged")
	ErrUnsupportedModel = errors.New("unsupported model")
)
