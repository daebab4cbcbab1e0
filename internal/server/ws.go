package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"meetpilot/internal/orchestrator"
	"meetpilot/internal/session"
)

// Inbound event kinds on the session channel.
const (
	inboundTextChanged     = "text-changed"
	inboundExplicitMessage = "explicit-message"
)

type inboundEvent struct {
	Kind       string `json:"kind"`
	SessionKey string `json:"session_key"`
	Text       string `json:"text"`
}

// outboundFrame carries one completed turn's events to subscribers.
type outboundFrame struct {
	SessionKey string               `json:"session_key"`
	Events     []orchestrator.Event `json:"events"`
}

// errorFrame reports an invalid inbound event without closing the channel.
type errorFrame struct {
	Error string `json:"error"`
}

// wsConn is one connected client with a dedicated writer goroutine.
type wsConn struct {
	ws   *websocket.Conn
	send chan any
}

// trySend queues a frame without blocking the read loop. If the writer
// has stalled the frame is dropped.
func (c *wsConn) trySend(frame any) {
	select {
	case c.send <- frame:
	default:
	}
}

// Hub routes orchestrator emissions to the connections that have used the
// session key. It is the orchestrator's Emitter.
type Hub struct {
	mu     sync.Mutex
	subs   map[session.Key]map[*wsConn]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[session.Key]map[*wsConn]struct{}),
		logger: logger.Named("hub"),
	}
}

// Emit delivers a turn's events to every subscriber of the key. A slow
// client's frame is dropped rather than blocking the pipeline.
func (h *Hub) Emit(key session.Key, events []orchestrator.Event) {
	frame := outboundFrame{SessionKey: key.String(), Events: events}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.subs[key] {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("dropping frame for slow client", zap.String("session", key.String()))
		}
	}
}

func (h *Hub) subscribe(key session.Key, c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[*wsConn]struct{})
	}
	h.subs[key][c] = struct{}{}
}

func (h *Hub) drop(c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, conns := range h.subs {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.subs, key)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleWS runs the session channel: reads inbound events, feeds the
// orchestrator, and relays emitted turns back.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &wsConn{ws: ws, send: make(chan any, 32)}

	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		for frame := range c.send {
			if err := ws.WriteJSON(frame); err != nil {
				return
			}
		}
	}()

	defer func() {
		s.hub.drop(c)
		close(c.send)
		writer.Wait()
		ws.Close()
	}()

	for {
		var ev inboundEvent
		if err := ws.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed", zap.Error(err))
			}
			return
		}

		key, err := session.ParseKey(ev.SessionKey)
		if err != nil {
			// A malformed key is the one error class surfaced to the client.
			c.trySend(errorFrame{Error: err.Error()})
			continue
		}
		s.hub.subscribe(key, c)

		switch ev.Kind {
		case inboundTextChanged:
			s.orch.HandleTextChanged(key, ev.Text)
		case inboundExplicitMessage:
			// Turns block until complete; keep the read loop responsive.
			go s.orch.HandleExplicitMessage(key, ev.Text)
		default:
			c.trySend(errorFrame{Error: "unknown event kind: " + ev.Kind})
		}
	}
}
