package poller

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"server/internal/domain"
	"server/internal/transcriber"

	"github.com/rs/zerolog"
)

// scriptedClient replays a fixed status sequence, repeating the final entry.
type scriptedClient struct {
	mu       sync.Mutex
	sequence []transcriber.JobStatus
	errs     []error
	calls    int
}

func (c *scriptedClient) Status(ctx context.Context, jobID string) (*transcriber.JobStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i >= len(c.sequence) {
		i = len(c.sequence) - 1
	}
	status := c.sequence[i]
	return &status, nil
}

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func waitDone(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("task did not finish in time")
	}
}

func TestCompletedTerminalState(t *testing.T) {
	client := &scriptedClient{sequence: []transcriber.JobStatus{
		{Status: transcriber.StatusQueued, Progress: 0},
		{Status: transcriber.StatusProcessing, Progress: 40},
		{Status: transcriber.StatusCompleted, Transcription: "hello", CompletedAt: "2026-01-02T15:04:05Z"},
	}}

	var terminal Snapshot
	task := Start(context.Background(), client, "job-1", time.Millisecond, zerolog.New(io.Discard), func(s Snapshot) {
		terminal = s
	})
	waitDone(t, task)

	snap := task.Snapshot()
	if snap.State != domain.JobStateCompleted {
		t.Fatalf("state = %s, want completed", snap.State)
	}
	if snap.Transcription != "hello" || snap.Progress != 100 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Confidence != 0.95 {
		t.Fatalf("confidence = %v, want default 0.95", snap.Confidence)
	}
	if terminal.State != domain.JobStateCompleted {
		t.Fatalf("onTerminal snapshot = %+v", terminal)
	}
}

func TestFailedCarriesBackendMessage(t *testing.T) {
	client := &scriptedClient{sequence: []transcriber.JobStatus{
		{Status: transcriber.StatusFailed, Error: "audio undecodable"},
	}}
	task := Start(context.Background(), client, "job-2", time.Millisecond, zerolog.New(io.Discard), nil)
	waitDone(t, task)

	snap := task.Snapshot()
	if snap.State != domain.JobStateFailed {
		t.Fatalf("state = %s, want failed", snap.State)
	}
	if snap.Error != "audio undecodable" {
		t.Fatalf("error = %q, want the backend message", snap.Error)
	}
}

func TestFailedWithoutMessageUsesGenericFallback(t *testing.T) {
	client := &scriptedClient{sequence: []transcriber.JobStatus{
		{Status: transcriber.StatusFailed},
	}}
	task := Start(context.Background(), client, "job-3", time.Millisecond, zerolog.New(io.Discard), nil)
	waitDone(t, task)

	if got := task.Snapshot().Error; got != GenericFailureMessage {
		t.Fatalf("error = %q, want %q", got, GenericFailureMessage)
	}
}

func TestNonTerminalStatusOnlyUpdatesProgress(t *testing.T) {
	client := &scriptedClient{sequence: []transcriber.JobStatus{
		{Status: transcriber.StatusProcessing, Progress: 30},
	}}
	task := Start(context.Background(), client, "job-4", time.Millisecond, zerolog.New(io.Discard), nil)
	defer task.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if snap := task.Snapshot(); snap.Progress == 30 {
			if snap.State != domain.JobStatePolling {
				t.Fatalf("state = %s, want polling", snap.State)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("progress never reached 30")
}

func TestSubmittedUntilFirstStatus(t *testing.T) {
	client := &scriptedClient{sequence: []transcriber.JobStatus{
		{Status: transcriber.StatusProcessing, Progress: 5},
	}}
	// An hour-long interval keeps the first poll from firing.
	task := Start(context.Background(), client, "job-9", time.Hour, zerolog.New(io.Discard), nil)
	defer task.Stop()

	if got := task.Snapshot().State; got != domain.JobStateSubmitted {
		t.Fatalf("state before first status = %s, want submitted", got)
	}
}

func TestPollErrorKeepsPolling(t *testing.T) {
	client := &scriptedClient{
		errs: []error{errors.New("connection refused")},
		sequence: []transcriber.JobStatus{
			{Status: transcriber.StatusCompleted, Transcription: "ok"},
		},
	}
	task := Start(context.Background(), client, "job-5", time.Millisecond, zerolog.New(io.Discard), nil)
	waitDone(t, task)

	if got := task.Snapshot().State; got != domain.JobStateCompleted {
		t.Fatalf("state = %s, want completed despite transient poll error", got)
	}
}

func TestStopCancelsTimer(t *testing.T) {
	client := &scriptedClient{sequence: []transcriber.JobStatus{
		{Status: transcriber.StatusProcessing, Progress: 10},
	}}
	task := Start(context.Background(), client, "job-6", time.Millisecond, zerolog.New(io.Discard), nil)

	deadline := time.Now().Add(time.Second)
	for client.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	task.Stop()
	waitDone(t, task)

	settled := client.callCount()
	time.Sleep(20 * time.Millisecond)
	if client.callCount() != settled {
		t.Fatalf("status requests kept firing after Stop: %d -> %d", settled, client.callCount())
	}
}

func TestTerminalStateNeverRegresses(t *testing.T) {
	task := &Task{
		jobID: "job-7",
		snap:  Snapshot{JobID: "job-7", State: domain.JobStateCompleted, Progress: 100, Transcription: "done"},
		subs:  map[int]chan Snapshot{},
	}
	if terminal := task.apply(&transcriber.JobStatus{Status: transcriber.StatusProcessing, Progress: 10}); !terminal {
		t.Fatalf("apply() on a terminal snapshot should report terminal")
	}
	snap := task.Snapshot()
	if snap.State != domain.JobStateCompleted || snap.Progress != 100 {
		t.Fatalf("terminal snapshot mutated: %+v", snap)
	}
}

func TestSubscribeReceivesUpdatesAndCloses(t *testing.T) {
	client := &scriptedClient{sequence: []transcriber.JobStatus{
		{Status: transcriber.StatusProcessing, Progress: 50},
		{Status: transcriber.StatusCompleted, Transcription: "fin"},
	}}
	task := Start(context.Background(), client, "job-8", time.Millisecond, zerolog.New(io.Discard), nil)
	ch, cancel := task.Subscribe()
	defer cancel()

	var last Snapshot
	for snap := range ch {
		last = snap
	}
	if last.State != domain.JobStateCompleted {
		t.Fatalf("last streamed snapshot = %+v, want completed", last)
	}
	waitDone(t, task)
}
