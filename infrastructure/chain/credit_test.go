package chain

import (
	"context"
	"encoding/base64"
	"errors"
	"math/big"
	"testing"
)

const creditContract = "0x2222222222222222222222222222222222222222"

func TestCreditBalanceOf(t *testing.T) {
	client := newTestClient(t, func(method string, params []any) (any, *RPCError) {
		if params[1] != "balanceOf" {
			t.Fatalf("unexpected operation %v", params[1])
		}
		return map[string]any{
			"state": "HALT",
			"stack": []any{intItem("5000000000")},
		}, nil
	})

	manager := NewCreditManager(client, creditContract, nil)
	env, err := manager.BalanceOf(context.Background(), "0xaa00000000000000000000000000000000000000")
	if err != nil {
		t.Fatalf("balance of: %v", err)
	}
	if env.Result.Cmp(big.NewInt(5000000000)) != 0 {
		t.Fatalf("balance = %s", env.Result)
	}
}

func TestCreditDepositRejectsNonPositiveAmount(t *testing.T) {
	manager := NewCreditManager(nil, creditContract, nil)
	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5)} {
		if _, err := manager.Deposit(context.Background(), amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %v: err = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestCreditFaultMapping(t *testing.T) {
	client := newTestClient(t, func(string, []any) (any, *RPCError) {
		return map[string]any{"state": "FAULT", "exception": "insufficient credit for withdrawal"}, nil
	})
	manager := NewCreditManager(client, creditContract, nil)
	_, err := manager.Withdraw(context.Background(), big.NewInt(100))
	if !errors.Is(err, ErrInsufficientCredit) {
		t.Fatalf("err = %v, want ErrInsufficientCredit", err)
	}
}

func TestCreditHistory(t *testing.T) {
	from := make([]byte, 20)
	from[0] = 0x01
	event := map[string]any{
		"type": "Struct",
		"value": []any{
			strItem("deposit"),
			map[string]any{"type": "ByteString", "value": base64.StdEncoding.EncodeToString(from)},
			map[string]any{"type": "Null"},
			intItem("250"),
			intItem("1724932800"),
		},
	}
	client := newTestClient(t, func(method string, params []any) (any, *RPCError) {
		if params[1] != "getHistory" {
			t.Fatalf("unexpected operation %v", params[1])
		}
		return map[string]any{
			"state": "HALT",
			"stack": []any{map[string]any{"type": "Array", "value": []any{event}}},
		}, nil
	})

	manager := NewCreditManager(client, creditContract, nil)
	env, err := manager.History(context.Background(), "0xaa00000000000000000000000000000000000000", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(env.Result) != 1 {
		t.Fatalf("history has %d events", len(env.Result))
	}
	got := env.Result[0]
	if got.Kind != "deposit" || got.Amount.Int64() != 250 || got.To != "" {
		t.Fatalf("unexpected event: %+v", got)
	}
}
