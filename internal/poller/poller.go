// Package poller drives one transcription job from submission to a terminal
// state by polling the backend on a fixed interval. Each job owns exactly one
// task; cancelling the task is the only way polling stops early. No
// cancellation is ever sent to the backend, so an abandoned remote job keeps
// running there.
package poller

import (
	"context"
	"sync"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/transcriber"
)

// DefaultInterval is the fixed status poll interval.
const DefaultInterval = 2 * time.Second

// defaultConfidence backfills payloads that omit a confidence value.
const defaultConfidence = 0.95

// GenericFailureMessage is surfaced when a failed job carries no error field.
const GenericFailureMessage = "Transcription failed"

// StatusClient is the slice of the backend client the poller needs.
type StatusClient interface {
	Status(ctx context.Context, jobID string) (*transcriber.JobStatus, error)
}

// Snapshot is an observable view of the job's lifecycle. Once the state is
// terminal it never changes again.
type Snapshot struct {
	JobID         string          `json:"job_id"`
	State         domain.JobState `json:"state"`
	Progress      int             `json:"progress"`
	Transcription string          `json:"transcription,omitempty"`
	Confidence    float64         `json:"confidence,omitempty"`
	CompletedAt   time.Time       `json:"completed_at,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// Task polls one job until it reaches a terminal state or is stopped.
type Task struct {
	jobID      string
	client     StatusClient
	interval   time.Duration
	logger     infra.Logger
	onTerminal func(Snapshot)

	mu      sync.Mutex
	snap    Snapshot
	subs    map[int]chan Snapshot
	nextSub int

	cancel context.CancelFunc
	done   chan struct{}
}

// Start begins polling immediately. The snapshot reports submitted until the
// first status arrives. onTerminal runs exactly once, after the snapshot
// reached a terminal state and before Done is closed.
func Start(ctx context.Context, client StatusClient, jobID string, interval time.Duration, logger infra.Logger, onTerminal func(Snapshot)) *Task {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		jobID:      jobID,
		client:     client,
		interval:   interval,
		logger:     logger,
		onTerminal: onTerminal,
		snap:       Snapshot{JobID: jobID, State: domain.JobStateSubmitted},
		subs:       make(map[int]chan Snapshot),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go t.run(ctx)
	return t
}

// Snapshot returns the current view of the job.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// Done is closed when the poll loop has exited, whether by reaching a
// terminal state or by Stop.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Stop cancels polling. Safe to call multiple times and after completion.
func (t *Task) Stop() {
	t.cancel()
}

// Subscribe returns a channel receiving snapshot updates, starting with the
// current one. The returned cancel function releases the subscription; the
// channel is closed when the task finishes. Slow subscribers miss
// intermediate updates rather than blocking the poll loop.
func (t *Task) Subscribe() (<-chan Snapshot, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan Snapshot, 8)
	ch <- t.snap
	if t.snap.State.Terminal() {
		close(ch)
		return ch, func() {}
	}

	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(ch)
		}
	}
}

func (t *Task) run(ctx context.Context) {
	defer close(t.done)
	defer t.cancel()
	// Release any subscribers left when the loop exits early via Stop.
	defer func() {
		t.mu.Lock()
		for id, ch := range t.subs {
			delete(t.subs, id)
			close(ch)
		}
		t.mu.Unlock()
	}()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status, err := t.client.Status(ctx, t.jobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// A failed poll is not a failed job; keep polling.
			t.logger.Warn().Err(err).Str("job_id", t.jobID).Msg("status poll failed")
			continue
		}

		if terminal := t.apply(status); terminal {
			if t.onTerminal != nil {
				t.onTerminal(t.Snapshot())
			}
			return
		}
	}
}

// apply folds a status payload into the snapshot and reports whether a
// terminal state was reached. Terminal snapshots are immutable: a stale or
// contradictory later payload can never regress the state.
func (t *Task) apply(status *transcriber.JobStatus) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snap.State.Terminal() {
		return true
	}

	switch status.Status {
	case transcriber.StatusCompleted:
		confidence := status.Confidence
		if confidence == 0 {
			confidence = defaultConfidence
		}
		t.snap.State = domain.JobStateCompleted
		t.snap.Progress = 100
		t.snap.Transcription = status.Transcription
		t.snap.Confidence = confidence
		t.snap.CompletedAt = parseCompletedAt(status.CompletedAt)
		t.snap.Error = ""
	case transcriber.StatusFailed:
		message := status.Error
		if message == "" {
			message = GenericFailureMessage
		}
		t.snap.State = domain.JobStateFailed
		t.snap.Error = message
	default:
		t.snap.State = domain.JobStatePolling
		t.snap.Progress = status.Progress
	}

	t.broadcastLocked()

	if t.snap.State.Terminal() {
		for id, ch := range t.subs {
			delete(t.subs, id)
			close(ch)
		}
		return true
	}
	return false
}

func (t *Task) broadcastLocked() {
	for _, ch := range t.subs {
		select {
		case ch <- t.snap:
		default:
		}
	}
}

// parseCompletedAt accepts the backend's ISO-8601 timestamps with or without
// a zone, falling back to the local completion time.
func parseCompletedAt(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Now().UTC()
}
