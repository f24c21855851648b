package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gridsync-logstream/internal/domain"
)

type MonitorEvent struct {
	Type   string    `json:"type"`
	Ts     time.Time `json:"ts"`
	From   string    `json:"from,omitempty"`
	State  string    `json:"state,omitempty"`
	Target string    `json:"target,omitempty"`
	Reason string    `json:"reason,omitempty"`
	Error  string    `json:"error,omitempty"`
	Seq    uint64    `json:"seq,omitempty"`
}

// MonitorHub fans controller events out to WebSocket clients. It implements
// usecase.Observer; events are queued and delivered from the hub's own
// goroutine so the controller never waits on a client.
type MonitorHub struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	wmu      sync.Mutex

	queue     chan MonitorEvent
	closeOnce sync.Once
	done      chan struct{}
}

func NewMonitorHub() *MonitorHub {
	h := &MonitorHub{
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		queue:    make(chan MonitorEvent, 1024),
		done:     make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *MonitorHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	_ = c.SetReadDeadline(time.Time{})
	for {
		// keepalive reads to detect client close
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = c.Close()
}

// Publish queues ev for delivery, dropping it if the queue is full.
func (h *MonitorHub) Publish(ev MonitorEvent) {
	if ev.Ts.IsZero() {
		ev.Ts = time.Now().UTC()
	}
	select {
	case h.queue <- ev:
	default:
	}
}

func (h *MonitorHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *MonitorHub) loop() {
	for {
		select {
		case <-h.done:
			return
		case ev := <-h.queue:
			h.broadcast(ev)
		}
	}
}

func (h *MonitorHub) broadcast(ev MonitorEvent) {
	data, _ := json.Marshal(ev)
	// snapshot clients to avoid holding read lock during writes
	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	// serialize writes to prevent concurrent writes to same conn
	h.wmu.Lock()
	for _, c := range clients {
		_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		_ = c.WriteMessage(websocket.TextMessage, data)
	}
	h.wmu.Unlock()
}

func (h *MonitorHub) StateChanged(from, to domain.ControllerState) {
	h.Publish(MonitorEvent{Type: "state_changed", From: string(from), State: string(to)})
}

func (h *MonitorHub) AttemptStarted(target domain.EndpointAddress) {
	h.Publish(MonitorEvent{Type: "attempt_started", Target: target.URL()})
}

func (h *MonitorHub) SessionEnded(reason domain.EndReason, err error) {
	ev := MonitorEvent{Type: "session_ended", Reason: string(reason)}
	if err != nil {
		ev.Error = err.Error()
	}
	h.Publish(ev)
}

// RecordReceived announces only the sequence number; readers fetch content
// through /api/records.
func (h *MonitorHub) RecordReceived(rec domain.LogRecord) {
	h.Publish(MonitorEvent{Type: "record", Seq: rec.Seq})
}
