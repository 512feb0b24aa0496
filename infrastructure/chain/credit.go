package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

// CreditEvent is one entry of an address's credit history.
type CreditEvent struct {
	Kind      string   `json:"kind"`
	From      string   `json:"from,omitempty"`
	To        string   `json:"to,omitempty"`
	Amount    *big.Int `json:"amount"`
	Timestamp uint64   `json:"timestamp"`
}

// CreditManager wraps the on-chain credit-accounting contract.
type CreditManager struct {
	client       *Client
	contractHash string
	account      *wallet.Account
}

// NewCreditManager creates a manager for the credit contract.
func NewCreditManager(client *Client, contractHash string, account *wallet.Account) *CreditManager {
	return &CreditManager{client: client, contractHash: contractHash, account: account}
}

func (m *CreditManager) invokeRead(ctx context.Context, method string, params ...ContractParam) (StackItem, error) {
	res, err := m.client.InvokeFunction(ctx, m.contractHash, method, params)
	if err != nil {
		return StackItem{}, fmt.Errorf("invoke %s: %w", method, err)
	}
	if res.State != "HALT" {
		return StackItem{}, faultError(method, res.Exception)
	}
	if len(res.Stack) == 0 {
		return StackItem{}, fmt.Errorf("%s returned an empty stack", method)
	}
	return res.Stack[0], nil
}

func (m *CreditManager) invokeWrite(ctx context.Context, method string, params ...ContractParam) (*TxResult, error) {
	if m.account != nil {
		return m.client.InvokeFunctionWithSignerAndWait(ctx, m.contractHash, method, params, m.account, transaction.CalledByEntry, true)
	}
	return m.client.InvokeFunctionAndWait(ctx, m.contractHash, method, params, true)
}

// BalanceOf returns the credit balance of a script hash.
func (m *CreditManager) BalanceOf(ctx context.Context, address string) (Envelope[*big.Int], error) {
	item, err := m.invokeRead(ctx, "balanceOf", NewHash160Param(address))
	if err != nil {
		return Envelope[*big.Int]{}, err
	}
	balance, err := ParseInteger(item)
	if err != nil {
		return Envelope[*big.Int]{}, err
	}
	return Envelope[*big.Int]{Result: balance}, nil
}

// Deposit credits the signer's account and returns the transaction hash.
func (m *CreditManager) Deposit(ctx context.Context, amount *big.Int) (Envelope[string], error) {
	if amount == nil || amount.Sign() <= 0 {
		return Envelope[string]{}, fmt.Errorf("deposit: %w", ErrInvalidAmount)
	}
	res, err := m.invokeWrite(ctx, "deposit", NewIntegerParam(amount))
	if err != nil {
		return Envelope[string]{}, err
	}
	return Envelope[string]{Result: res.TxHash, Meta: metaFromTxResult(res)}, nil
}

// Withdraw debits the signer's account and returns the transaction hash.
func (m *CreditManager) Withdraw(ctx context.Context, amount *big.Int) (Envelope[string], error) {
	if amount == nil || amount.Sign() <= 0 {
		return Envelope[string]{}, fmt.Errorf("withdraw: %w", ErrInvalidAmount)
	}
	res, err := m.invokeWrite(ctx, "withdraw", NewIntegerParam(amount))
	if err != nil {
		return Envelope[string]{}, err
	}
	return Envelope[string]{Result: res.TxHash, Meta: metaFromTxResult(res)}, nil
}

// Transfer moves credit to another script hash and returns the transaction
// hash.
func (m *CreditManager) Transfer(ctx context.Context, to string, amount *big.Int) (Envelope[string], error) {
	if amount == nil || amount.Sign() <= 0 {
		return Envelope[string]{}, fmt.Errorf("transfer: %w", ErrInvalidAmount)
	}
	res, err := m.invokeWrite(ctx, "transfer", NewHash160Param(to), NewIntegerParam(amount))
	if err != nil {
		return Envelope[string]{}, err
	}
	return Envelope[string]{Result: res.TxHash, Meta: metaFromTxResult(res)}, nil
}

// parseCreditEvent decodes the contract's event struct:
// [kind, from, to, amount, timestamp].
func parseCreditEvent(item StackItem) (CreditEvent, error) {
	fields, err := ParseArray(item)
	if err != nil {
		return CreditEvent{}, err
	}
	if len(fields) < 5 {
		return CreditEvent{}, fmt.Errorf("credit event has %d fields, want 5", len(fields))
	}
	event := CreditEvent{}
	if event.Kind, err = ParseString(fields[0]); err != nil {
		return CreditEvent{}, fmt.Errorf("event kind: %w", err)
	}
	// From/To may be Null for mint and burn style events.
	if fields[1].Type != "Null" {
		if event.From, err = ParseHash160(fields[1]); err != nil {
			return CreditEvent{}, fmt.Errorf("event from: %w", err)
		}
	}
	if fields[2].Type != "Null" {
		if event.To, err = ParseHash160(fields[2]); err != nil {
			return CreditEvent{}, fmt.Errorf("event to: %w", err)
		}
	}
	if event.Amount, err = ParseInteger(fields[3]); err != nil {
		return CreditEvent{}, fmt.Errorf("event amount: %w", err)
	}
	ts, err := ParseInteger(fields[4])
	if err != nil {
		return CreditEvent{}, fmt.Errorf("event timestamp: %w", err)
	}
	event.Timestamp = ts.Uint64()
	return event, nil
}

// History returns the most recent credit events for a script hash.
func (m *CreditManager) History(ctx context.Context, address string, limit int) (Envelope[[]CreditEvent], error) {
	if limit <= 0 {
		limit = 50
	}
	item, err := m.invokeRead(ctx, "getHistory", NewHash160Param(address), NewIntegerParam(big.NewInt(int64(limit))))
	if err != nil {
		return Envelope[[]CreditEvent]{}, err
	}
	items, err := ParseArray(item)
	if err != nil {
		return Envelope[[]CreditEvent]{}, err
	}
	events := make([]CreditEvent, 0, len(items))
	for _, it := range items {
		event, err := parseCreditEvent(it)
		if err != nil {
			return Envelope[[]CreditEvent]{}, err
		}
		events = append(events, event)
	}
	return Envelope[[]CreditEvent]{Result: events}, nil
}
