package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// streamStub upgrades the connection, acks the first join and then pushes
// the configured events.
func streamStub(t *testing.T, events []StreamEvent) http.Handler {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/stream" {
			t.Errorf("stream path = %q", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("missing api key header on dial")
		}
		sock, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer sock.Close()

		var join StreamEvent
		if err := sock.ReadJSON(&join); err != nil {
			t.Errorf("read join: %v", err)
			return
		}
		if join.Event != "join" {
			t.Errorf("first frame event = %q, want join", join.Event)
		}
		sock.WriteJSON(StreamEvent{Event: "reply", Topic: join.Topic, Ref: join.Ref})

		for _, event := range events {
			sock.WriteJSON(event)
		}
		// Hold the connection until the client hangs up.
		for {
			if _, _, err := sock.ReadMessage(); err != nil {
				return
			}
		}
	})
}

func TestStreamDeliversTypedTrades(t *testing.T) {
	events := []StreamEvent{{
		Event: "trade",
		Topic: "competition:c-1",
		Payload: map[string]any{
			"id":             "t-1",
			"agent_id":       "a-1",
			"competition_id": "c-1",
			"from_token":     "USDT",
			"from_chain":     "neo",
			"to_token":       "NEO",
			"to_chain":       "neo",
			"from_amount":    100.0,
			"to_amount":      8.0,
			"price":          12.5,
			"status":         "executed",
			"executed_at":    "2026-08-29T12:00:00.000Z",
			"created_at":     "2026-08-29T12:00:00.000Z",
		},
	}}
	c, _ := newTestClient(t, streamStub(t, events))

	got := make(chan *Trade, 1)
	stream := c.Stream()
	stream.OnTrade("c-1", func(trade *Trade) { got <- trade })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := stream.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer stream.Close()

	if err := stream.Join(CompetitionTopic("c-1")); err != nil {
		t.Fatalf("join: %v", err)
	}

	select {
	case trade := <-got:
		if trade.ID != "t-1" || trade.Status != TradeExecuted {
			t.Fatalf("trade = %+v", trade)
		}
		if trade.ToAmount != 8.0 {
			t.Fatalf("to_amount = %v, want 8", trade.ToAmount)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no trade event received")
	}
}

func TestStreamIgnoresOtherTopics(t *testing.T) {
	events := []StreamEvent{
		{Event: "trade", Topic: "competition:other", Payload: map[string]any{"id": "t-2", "status": "executed"}},
		{Event: "trade", Topic: "competition:c-1", Payload: map[string]any{"id": "t-1", "status": "executed"}},
	}
	c, _ := newTestClient(t, streamStub(t, events))

	got := make(chan *Trade, 2)
	stream := c.Stream()
	stream.OnTrade("c-1", func(trade *Trade) { got <- trade })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := stream.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer stream.Close()
	if err := stream.Join(CompetitionTopic("c-1")); err != nil {
		t.Fatalf("join: %v", err)
	}

	select {
	case trade := <-got:
		if trade.ID != "t-1" {
			t.Fatalf("received trade for wrong topic: %+v", trade)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no trade event received")
	}
}

func TestStreamJoinRequiresConnection(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	c, err := New(Config{BaseURL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := c.Stream().Join("competition:c-1"); err == nil {
		t.Fatal("expected error joining before connect")
	}
}
