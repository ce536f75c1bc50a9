package handlers

import (
	"net/http"
	"time"

	"server/internal/domain"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway is same-origin by deployment; CORS already vets browsers.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// TranscriptionsEvents streams lifecycle snapshots for the job over a
// WebSocket. The stream starts with the current snapshot and closes once the
// job reaches a terminal state.
func (a *App) TranscriptionsEvents(w http.ResponseWriter, r *http.Request) {
	_, task, ok := a.taskFor(r)
	if !ok {
		a.fail(w, domain.ErrNotFound, "job not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	snapshots, cancel := task.Subscribe()
	defer cancel()

	// Drain client frames so close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for snap := range snapshots {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(snap); err != nil {
			return
		}
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
}
