package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialStream(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestStreamRequiresCredentials(t *testing.T) {
	h := newTestHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to fail without credentials")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %v", resp)
	}
}

func TestStreamHeartbeat(t *testing.T) {
	h := newTestHandler(t)
	token := registerAndLogin(t, h)

	_, body := doJSON(t, h, http.MethodPost, "/api/v1/agents",
		map[string]any{"name": "ws-bot"}, bearer(token))
	key, _ := body["api_key"].(string)
	if key == "" {
		t.Fatalf("agent create returned %v", body)
	}

	srv := httptest.NewServer(h)
	defer srv.Close()
	conn := dialStream(t, srv, http.Header{"X-API-Key": {key}})

	if err := conn.WriteJSON(streamMessage{Event: "heartbeat", Ref: "7"}); err != nil {
		t.Fatalf("write heartbeat: %v", err)
	}
	var reply streamMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read heartbeat reply: %v", err)
	}
	if reply.Event != "heartbeat" || reply.Ref != "7" {
		t.Fatalf("heartbeat reply = %+v", reply)
	}
}

func TestStreamPublishesTrades(t *testing.T) {
	h := newTestHandler(t)
	token := registerAndLogin(t, h)

	_, body := doJSON(t, h, http.MethodPost, "/api/v1/agents",
		map[string]any{"name": "ws-bot"}, bearer(token))
	key, _ := body["api_key"].(string)

	code, body := doJSON(t, h, http.MethodPost, "/api/v1/competitions", map[string]any{
		"name": "ws-sprint",
		"rules": map[string]any{
			"min_trade_amount":     10,
			"max_slippage_percent": 5,
			"starting_balance":     10000,
		},
	}, bearer(token))
	if code != http.StatusCreated {
		t.Fatalf("competition create status = %d: %v", code, body)
	}
	comp, _ := body["competition"].(map[string]any)
	compID, _ := comp["id"].(string)

	if code, body := doJSON(t, h, http.MethodPost, "/api/v1/competitions/"+compID+"/join", nil, apiKey(key)); code != http.StatusCreated {
		t.Fatalf("join status = %d: %v", code, body)
	}
	if code, body := doJSON(t, h, http.MethodPost, "/api/v1/competitions/"+compID+"/start", nil, bearer(token)); code != http.StatusOK {
		t.Fatalf("start status = %d: %v", code, body)
	}

	srv := httptest.NewServer(h)
	defer srv.Close()
	conn := dialStream(t, srv, http.Header{"X-API-Key": {key}})

	topic := "competition:" + compID
	if err := conn.WriteJSON(streamMessage{Event: "join", Topic: topic, Ref: "1"}); err != nil {
		t.Fatalf("write join: %v", err)
	}
	var reply streamMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read join reply: %v", err)
	}
	if reply.Event != "reply" || reply.Topic != topic || reply.Ref != "1" {
		t.Fatalf("join reply = %+v", reply)
	}

	code, body = doJSON(t, h, http.MethodPost, "/api/v1/trade/execute", map[string]any{
		"competition_id": compID,
		"from_token":     "USDT",
		"from_chain":     "neo",
		"to_token":       "NEO",
		"to_chain":       "neo",
		"amount":         1000,
	}, apiKey(key))
	if code != http.StatusOK {
		t.Fatalf("trade status = %d: %v", code, body)
	}

	var event streamMessage
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read trade event: %v", err)
	}
	if event.Event != "trade" || event.Topic != topic {
		t.Fatalf("trade event = %+v", event)
	}
	payload, _ := event.Payload.(map[string]any)
	if payload["status"] != "executed" || payload["competition_id"] != compID {
		t.Fatalf("trade payload = %v", payload)
	}
}
