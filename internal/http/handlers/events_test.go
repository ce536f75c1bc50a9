package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"server/internal/poller"
	"server/internal/transcriber"

	"github.com/gorilla/websocket"
)

func TestEventsStreamUntilTerminal(t *testing.T) {
	backend := &fakeBackend{
		whisperLoaded: true, grammarLoaded: true,
		statuses: []transcriber.JobStatus{
			{Status: transcriber.StatusProcessing, Progress: 25},
			{Status: transcriber.StatusProcessing, Progress: 75},
			{Status: transcriber.StatusCompleted, Transcription: "streamed", CompletedAt: "2026-01-02T15:04:05Z"},
		},
	}
	router, _ := newTestServer(t, backend)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	stageUpload(t, router, "a.mp3", "audio/mp3", []byte("xx"))
	rec, body := doJSON(t, router, http.MethodPost, "/v1/transcriptions/", `{}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("submit = %d: %s", rec.Code, rec.Body.String())
	}
	job, _ := body["job"].(map[string]any)
	jobID, _ := job["id"].(string)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/transcriptions/" + jobID + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var last poller.Snapshot
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var snap poller.Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			break
		}
		last = snap
	}
	if last.State != "completed" {
		t.Fatalf("last streamed state = %q, want completed (snapshot %+v)", last.State, last)
	}
	if last.Transcription != "streamed" {
		t.Fatalf("transcription = %q", last.Transcription)
	}
}

func TestEventsUnknownJob(t *testing.T) {
	router, _ := newTestServer(t, &fakeBackend{})
	rec, _ := doJSON(t, router, http.MethodGet, "/v1/transcriptions/nope/events", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
