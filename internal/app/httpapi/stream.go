package httpapi

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ArenaX-Network/arena_layer/pkg/logger"
)

// streamMessage is the wire frame of the event stream, in both directions.
// Clients send join/leave/heartbeat frames; the server answers with reply
// frames carrying the same ref and pushes event frames to subscribed topics.
type streamMessage struct {
	Event   string `json:"event"`
	Topic   string `json:"topic,omitempty"`
	Ref     string `json:"ref,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

const (
	streamEventJoin      = "join"
	streamEventLeave     = "leave"
	streamEventHeartbeat = "heartbeat"
	streamEventReply     = "reply"
)

// streamConn is one connected subscriber. Writes go through the send
// channel so only the writer goroutine touches the socket.
type streamConn struct {
	sock *websocket.Conn
	send chan streamMessage
}

// streamHub fans competition events out to websocket subscribers.
type streamHub struct {
	mu   sync.RWMutex
	subs map[string]map[*streamConn]struct{}
	log  *logger.Logger

	upgrader websocket.Upgrader
}

func newStreamHub(log *logger.Logger) *streamHub {
	return &streamHub{
		subs: make(map[string]map[*streamConn]struct{}),
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the CORS middleware.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Publish pushes an event to every subscriber of topic. Subscribers whose
// send buffer is full miss the event rather than blocking the publisher.
func (hub *streamHub) Publish(topic, event string, payload any) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	for conn := range hub.subs[topic] {
		select {
		case conn.send <- streamMessage{Event: event, Topic: topic, Payload: payload}:
		default:
			hub.log.WithFields(map[string]any{"topic": topic, "event": event}).
				Warn("dropping stream event for slow subscriber")
		}
	}
}

func (hub *streamHub) subscribe(topic string, conn *streamConn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.subs[topic] == nil {
		hub.subs[topic] = make(map[*streamConn]struct{})
	}
	hub.subs[topic][conn] = struct{}{}
}

func (hub *streamHub) unsubscribe(topic string, conn *streamConn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	delete(hub.subs[topic], conn)
	if len(hub.subs[topic]) == 0 {
		delete(hub.subs, topic)
	}
}

func (hub *streamHub) drop(conn *streamConn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for topic, conns := range hub.subs {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(hub.subs, topic)
		}
	}
}

// handleStream upgrades the request and serves the subscription protocol
// until the peer disconnects. Credentials are checked by the auth
// middleware before the upgrade.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sock, err := h.stream.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("stream upgrade failed")
		return
	}
	conn := &streamConn{sock: sock, send: make(chan streamMessage, 32)}
	done := make(chan struct{})
	go conn.writeLoop(done)

	defer func() {
		h.stream.drop(conn)
		close(done)
		sock.Close()
	}()

	for {
		var msg streamMessage
		if err := sock.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Event {
		case streamEventJoin:
			if msg.Topic == "" {
				continue
			}
			h.stream.subscribe(msg.Topic, conn)
			conn.reply(streamEventReply, msg.Topic, msg.Ref)
		case streamEventLeave:
			h.stream.unsubscribe(msg.Topic, conn)
			conn.reply(streamEventReply, msg.Topic, msg.Ref)
		case streamEventHeartbeat:
			conn.reply(streamEventHeartbeat, "", msg.Ref)
		}
	}
}

func (c *streamConn) reply(event, topic, ref string) {
	select {
	case c.send <- streamMessage{Event: event, Topic: topic, Ref: ref}:
	default:
	}
}

func (c *streamConn) writeLoop(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			if err := c.sock.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
