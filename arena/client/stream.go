package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StreamEvent is one frame pushed by the event stream.
type StreamEvent struct {
	Event   string         `json:"event"`
	Topic   string         `json:"topic,omitempty"`
	Ref     string         `json:"ref,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// StreamHandler handles stream events. Handlers run on their own
// goroutine; slow handlers do not stall the read loop.
type StreamHandler func(event *StreamEvent)

// Stream is a live subscription to competition events. Join a topic such
// as "competition:<id>" and register handlers per event name.
type Stream struct {
	c *Client

	mu       sync.RWMutex
	conn     *websocket.Conn
	joined   map[string]struct{}
	handlers map[string][]StreamHandler
	done     chan struct{}
	ref      int

	heartbeatInterval time.Duration
}

// Stream returns a stream bound to this client's endpoint and credentials.
// The stream is not connected until Connect is called.
func (c *Client) Stream() *Stream {
	return &Stream{
		c:                 c,
		joined:            make(map[string]struct{}),
		handlers:          make(map[string][]StreamHandler),
		heartbeatInterval: 30 * time.Second,
	}
}

func (s *Stream) wsURL() string {
	u := s.c.baseURL
	if strings.HasPrefix(u, "https") {
		u = "wss" + u[5:]
	} else if strings.HasPrefix(u, "http") {
		u = "ws" + u[4:]
	}
	return u + "/api/v1/stream"
}

// Connect dials the stream endpoint and starts the read and heartbeat
// loops. Connecting an already connected stream is a no-op.
func (s *Stream) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	header := http.Header{"X-API-Key": {s.c.apiKey}}
	if token := s.c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.wsURL(), header)
	if err != nil {
		return fmt.Errorf("stream dial: %w", err)
	}

	s.conn = conn
	s.done = make(chan struct{})
	go s.readLoop(conn)
	go s.heartbeat()
	return nil
}

// Close leaves all topics and closes the connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	close(s.done)
	s.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	err := s.conn.Close()
	s.conn = nil
	s.joined = make(map[string]struct{})
	return err
}

// Join subscribes to a topic. Events for the topic start flowing to the
// handlers registered with On.
func (s *Stream) Join(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("stream not connected")
	}
	if _, ok := s.joined[topic]; ok {
		return nil
	}
	if err := s.send("join", topic); err != nil {
		return err
	}
	s.joined[topic] = struct{}{}
	return nil
}

// Leave unsubscribes from a topic.
func (s *Stream) Leave(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("stream not connected")
	}
	if _, ok := s.joined[topic]; !ok {
		return nil
	}
	if err := s.send("leave", topic); err != nil {
		return err
	}
	delete(s.joined, topic)
	return nil
}

// send writes a control frame. Callers hold s.mu.
func (s *Stream) send(event, topic string) error {
	s.ref++
	return s.conn.WriteJSON(StreamEvent{
		Event: event,
		Topic: topic,
		Ref:   fmt.Sprintf("%d", s.ref),
	})
}

// On registers a handler for an event on a topic.
func (s *Stream) On(topic, event string, handler StreamHandler) *Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := topic + ":" + event
	s.handlers[key] = append(s.handlers[key], handler)
	return s
}

// OnTrade registers a typed handler for trades executed in a competition.
func (s *Stream) OnTrade(competitionID string, handler func(*Trade)) *Stream {
	return s.On(CompetitionTopic(competitionID), "trade", func(event *StreamEvent) {
		if t := decodePayload[Trade](s.c, event.Payload, "Trade"); t != nil {
			handler(t)
		}
	})
}

// OnCompetition registers a typed handler for competition lifecycle
// changes (start, end).
func (s *Stream) OnCompetition(competitionID string, handler func(*Competition)) *Stream {
	return s.On(CompetitionTopic(competitionID), "competition", func(event *StreamEvent) {
		if c := decodePayload[Competition](s.c, event.Payload, "Competition"); c != nil {
			handler(c)
		}
	})
}

// CompetitionTopic builds the stream topic for a competition.
func CompetitionTopic(competitionID string) string {
	return "competition:" + competitionID
}

func decodePayload[T any](c *Client, payload map[string]any, typeExpr string) *T {
	if payload == nil {
		return nil
	}
	v, ok := c.registry.FromWire(payload, typeExpr, "").(*T)
	if !ok {
		return nil
	}
	return v
}

func (s *Stream) readLoop(conn *websocket.Conn) {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var event StreamEvent
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}
		s.dispatch(&event)
	}
}

func (s *Stream) dispatch(event *StreamEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, handler := range s.handlers[event.Topic+":"+event.Event] {
		go handler(event)
	}
}

func (s *Stream) heartbeat() {
	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.conn != nil {
				s.send("heartbeat", "")
			}
			s.mu.Unlock()
		}
	}
}
