// Package transcriber is the HTTP client for the external transcription
// backend. The backend owns all processing; this client only speaks its
// upload/status/download/health contract.
package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
)

// Backend job status values.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Options configures the backend client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client performs HTTP calls against the transcription backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// Health is the backend readiness probe payload.
type Health struct {
	Status            string `json:"status"`
	WhisperLoaded     bool   `json:"whisper_loaded"`
	GrammarToolLoaded bool   `json:"grammar_tool_loaded"`
}

// ModelsLoaded reports whether the backend finished loading its models.
func (h Health) ModelsLoaded() bool {
	return h.WhisperLoaded && h.GrammarToolLoaded
}

// SubmitRequest carries one staged file plus processing options.
type SubmitRequest struct {
	Filename          string
	Data              []byte
	Model             domain.TranscriptionModel
	NoiseReduction    bool
	GrammarCorrection bool
}

// JobStatus is the backend's view of a transcription job.
type JobStatus struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	Progress      int     `json:"progress"`
	Filename      string  `json:"filename"`
	Transcription string  `json:"transcription"`
	Confidence    float64 `json:"confidence"`
	CompletedAt   string  `json:"completed_at"`
	Error         string  `json:"error"`
}

type submitResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// APIError is a non-success backend response. Message carries the backend's
// error field verbatim so it can be surfaced to the user unchanged.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("transcriber: backend returned status %d", e.StatusCode)
}

// NewClient constructs a client with sane defaults. The default HTTP client
// carries no timeout: transcription uploads and downloads can legitimately
// take minutes, so callers bound calls with contexts where needed.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health probes backend readiness.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, fmt.Errorf("transcriber: build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcriber: health request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, c.decodeError(resp)
	}
	var health Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("transcriber: decode health response: %w", err)
	}
	return &health, nil
}

// Submit uploads the file and processing options, returning the backend job
// identifier. A non-success response becomes an *APIError carrying the
// backend's message.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio", req.Filename)
	if err != nil {
		return "", fmt.Errorf("transcriber: build multipart: %w", err)
	}
	if _, err := part.Write(req.Data); err != nil {
		return "", fmt.Errorf("transcriber: write file part: %w", err)
	}
	_ = writer.WriteField("model", string(req.Model))
	_ = writer.WriteField("noise_reduction", strconv.FormatBool(req.NoiseReduction))
	_ = writer.WriteField("grammar_correction", strconv.FormatBool(req.GrammarCorrection))
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("transcriber: close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/transcribe", &body)
	if err != nil {
		return "", fmt.Errorf("transcriber: build submit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("transcriber: submit request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", c.decodeError(resp)
	}

	var decoded submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("transcriber: decode submit response: %w", err)
	}
	if decoded.JobID == "" {
		return "", fmt.Errorf("transcriber: backend returned empty job id")
	}
	c.logger.Debug().Str("job_id", decoded.JobID).Str("filename", req.Filename).Msg("transcription submitted")
	return decoded.JobID, nil
}

// Status fetches the job's current state.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	url := fmt.Sprintf("%s/api/transcribe/%s/status", c.baseURL, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transcriber: build status request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcriber: status request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, c.decodeError(resp)
	}
	var status JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("transcriber: decode status response: %w", err)
	}
	return &status, nil
}

// Download fetches the rendered transcript artifact for a completed job.
func (c *Client) Download(ctx context.Context, jobID string) ([]byte, error) {
	url := fmt.Sprintf("%s/api/transcribe/%s/download", c.baseURL, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transcriber: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcriber: download request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, c.decodeError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transcriber: read download: %w", err)
	}
	return data, nil
}

func (c *Client) decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var detail errorResponse
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: detail.Error}
	}
	return &APIError{StatusCode: resp.StatusCode}
}
