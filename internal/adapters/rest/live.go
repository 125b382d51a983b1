package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	// levelBuffer bounds each connection's queue of pending readings. A slow
	// client loses readings; the feed never waits for it.
	levelBuffer = 8
	// levelWriteTimeout bounds a single websocket write to a client.
	levelWriteTimeout = 5 * time.Second
)

// levelMessage is one live loudness reading pushed while capture runs.
type levelMessage struct {
	Type  string  `json:"type"`
	Level float64 `json:"level"`
}

// LiveLevels handles GET /ws/levels. Connected clients receive the
// recorder's per-buffer RMS readings for the live waveform display.
func (h *Handler) LiveLevels(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		writeError(w, http.StatusNotImplemented, captureDisabledMessage)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	queue := make(chan float64, levelBuffer)
	h.mu.Lock()
	h.conns[conn] = queue
	h.mu.Unlock()

	// Closing the queue under the lock keeps broadcastLevels from sending
	// into a closed channel.
	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		close(queue)
		h.mu.Unlock()
	}()

	go writeLevels(conn, queue)

	// The stream is write-only; reading just detects the client going away.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

// writeLevels drains one connection's queue. A failed write ends the drain;
// the read loop notices the dead client and unregisters it.
func writeLevels(conn *websocket.Conn, queue <-chan float64) {
	for level := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), levelWriteTimeout)
		err := wsjson.Write(ctx, conn, levelMessage{Type: "level", Level: level})
		cancel()
		if err != nil {
			return
		}
	}
}

// broadcastLevels fans recorder level readings out to every connected client.
func (h *Handler) broadcastLevels() {
	for level := range h.recorder.Levels() {
		h.mu.RLock()
		for _, queue := range h.conns {
			select {
			case queue <- level:
			default:
			}
		}
		h.mu.RUnlock()
	}
}
