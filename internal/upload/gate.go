// Package upload validates and stages files ahead of submission. Validation
// order is fixed: declared media type, then byte size, then duration probing.
package upload

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/storage"

	"github.com/google/uuid"
)

var allowedMediaTypes = map[string]struct{}{
	"audio/mp3":  {},
	"audio/wav":  {},
	"audio/m4a":  {},
	"audio/ogg":  {},
	"video/mp4":  {},
	"audio/mpeg": {},
}

// Gate validates a selected file and stages it for submission.
type Gate struct {
	store  *storage.FileStore
	logger infra.Logger
}

// NewGate wires the gate to the staging store.
func NewGate(store *storage.FileStore, logger infra.Logger) *Gate {
	return &Gate{store: store, logger: logger}
}

// AllowedType reports whether the declared media type is accepted. Parameters
// (e.g. codecs) are stripped before the lookup.
func AllowedType(mediaType string) bool {
	parsed, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		parsed = strings.ToLower(strings.TrimSpace(mediaType))
	}
	_, ok := allowedMediaTypes[parsed]
	return ok
}

// Stage validates the file and, on success, persists its bytes and returns
// the candidate. The previous candidate's staged bytes should be removed by
// the caller once the replacement is accepted.
func (g *Gate) Stage(ctx context.Context, filename, mediaType string, size int64, r io.Reader) (*domain.UploadCandidate, error) {
	if !AllowedType(mediaType) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidFileType, mediaType)
	}
	if size > domain.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, size)
	}

	data, err := io.ReadAll(io.LimitReader(r, domain.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("upload: read file: %w", err)
	}
	if int64(len(data)) > domain.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, len(data))
	}

	// Duration probing is deliberately lenient: an undecodable file stages
	// with zero minutes rather than failing the upload.
	minutes := ProbeDurationMinutes(data)

	id := uuid.NewString()
	safeName := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if safeName == "" || safeName == "." || safeName == "/" {
		safeName = "upload"
	}
	key, err := g.store.Write(ctx, fmt.Sprintf("staged/%s/%s", id, safeName), data)
	if err != nil {
		return nil, fmt.Errorf("upload: stage file: %w", err)
	}

	g.logger.Debug().
		Str("upload_id", id).
		Str("filename", safeName).
		Int("bytes", len(data)).
		Float64("duration_minutes", minutes).
		Msg("upload staged")

	return &domain.UploadCandidate{
		ID:              id,
		Filename:        safeName,
		MediaType:       mediaType,
		SizeBytes:       int64(len(data)),
		DurationMinutes: minutes,
		StorageKey:      key,
		StagedAt:        time.Now().UTC(),
	}, nil
}

// Open returns the staged bytes for a candidate.
func (g *Gate) Open(ctx context.Context, candidate *domain.UploadCandidate) ([]byte, error) {
	if candidate == nil {
		return nil, domain.ErrNoUploadStaged
	}
	data, err := g.store.Read(ctx, candidate.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("upload: read staged file: %w", err)
	}
	return data, nil
}

// Discard removes a previously staged candidate's bytes.
func (g *Gate) Discard(ctx context.Context, candidate *domain.UploadCandidate) {
	if candidate == nil {
		return
	}
	if err := g.store.Remove(ctx, candidate.StorageKey); err != nil {
		g.logger.Warn().Err(err).Str("upload_id", candidate.ID).Msg("failed to discard staged upload")
	}
}
