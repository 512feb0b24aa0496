package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// rpcHandler fakes a Neo node; it maps an RPC method to a result or error.
type rpcHandler func(method string, params []any) (any, *RPCError)

func newTestClient(t *testing.T, handle rpcHandler) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode rpc request: %v", err)
			return
		}
		result, rpcErr := handle(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{RPCURL: server.URL, NetworkID: 894710606})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestGetBlockCount(t *testing.T) {
	client := newTestClient(t, func(method string, _ []any) (any, *RPCError) {
		if method != "getblockcount" {
			t.Fatalf("unexpected method %s", method)
		}
		return 123456, nil
	})

	count, err := client.GetBlockCount(context.Background())
	if err != nil {
		t.Fatalf("get block count: %v", err)
	}
	if count != 123456 {
		t.Fatalf("count = %d, want 123456", count)
	}
}

func TestCallSurfacesRPCError(t *testing.T) {
	client := newTestClient(t, func(string, []any) (any, *RPCError) {
		return nil, &RPCError{Code: -32601, Message: "method not found"}
	})

	_, err := client.Call(context.Background(), "bogus")
	if err == nil {
		t.Fatal("expected error")
	}
	rpcErr, ok := err.(*RPCError)
	if !ok || rpcErr.Code != -32601 {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInvokeFunctionParsesStack(t *testing.T) {
	client := newTestClient(t, func(method string, params []any) (any, *RPCError) {
		if method != "invokefunction" {
			t.Fatalf("unexpected method %s", method)
		}
		if params[0] != "0xabc" || params[1] != "balanceOf" {
			t.Fatalf("unexpected params: %v", params)
		}
		return map[string]any{
			"state":       "HALT",
			"gasconsumed": "997775",
			"stack": []any{
				map[string]any{"type": "Integer", "value": "42"},
			},
		}, nil
	})

	res, err := client.InvokeFunction(context.Background(), "0xabc", "balanceOf", nil)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if res.State != "HALT" || len(res.Stack) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	n, err := ParseInteger(res.Stack[0])
	if err != nil || n.Int64() != 42 {
		t.Fatalf("stack value = %v (err %v), want 42", n, err)
	}
}

func TestWaitForApplicationLogRetriesUnknownTx(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(method string, _ []any) (any, *RPCError) {
		if method != "getapplicationlog" {
			t.Fatalf("unexpected method %s", method)
		}
		calls++
		if calls < 3 {
			return nil, &RPCError{Code: -100, Message: "Unknown transaction"}
		}
		return map[string]any{
			"txid": "0xdef",
			"executions": []any{
				map[string]any{"trigger": "Application", "vmstate": "HALT", "gasconsumed": "100"},
			},
		}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log, err := client.WaitForApplicationLog(ctx, "0xdef", time.Millisecond)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if log.TxID != "0xdef" || calls != 3 {
		t.Fatalf("log = %+v after %d calls", log, calls)
	}
}

func TestWaitForApplicationLogHonorsContext(t *testing.T) {
	client := newTestClient(t, func(string, []any) (any, *RPCError) {
		return nil, &RPCError{Code: -100, Message: "Unknown transaction"}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := client.WaitForApplicationLog(ctx, "0xdef", time.Millisecond); err == nil {
		t.Fatal("expected context deadline error")
	}
}

func strItem(s string) map[string]any {
	return map[string]any{"type": "ByteString", "value": base64.StdEncoding.EncodeToString([]byte(s))}
}

func intItem(v string) map[string]any {
	return map[string]any{"type": "Integer", "value": v}
}
