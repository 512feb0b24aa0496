package chain

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

// InvokeResult is the result of an invocation simulation.
type InvokeResult struct {
	Script      string      `json:"script"`
	State       string      `json:"state"`
	GasConsumed string      `json:"gasconsumed"`
	Exception   string      `json:"exception,omitempty"`
	Stack       []StackItem `json:"stack"`
	Tx          string      `json:"tx,omitempty"`
}

// StackItem is a Neo VM stack item.
type StackItem struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// TxResult reports the outcome of a broadcast transaction.
type TxResult struct {
	TxHash  string
	VMState string
	AppLog  *ApplicationLog
}

// InvokeFunction simulates a contract call without signers.
func (c *Client) InvokeFunction(ctx context.Context, scriptHash, method string, params []ContractParam) (*InvokeResult, error) {
	if params == nil {
		params = []ContractParam{}
	}
	result, err := c.Call(ctx, "invokefunction", scriptHash, method, params)
	if err != nil {
		return nil, err
	}
	var invokeResult InvokeResult
	if err := json.Unmarshal(result, &invokeResult); err != nil {
		return nil, fmt.Errorf("unmarshal invoke result: %w", err)
	}
	return &invokeResult, nil
}

// InvokeFunctionWithSigners simulates a contract call on behalf of the given
// signer accounts (CalledByEntry scope).
func (c *Client) InvokeFunctionWithSigners(ctx context.Context, scriptHash, method string, params []ContractParam, signers ...string) (*InvokeResult, error) {
	if params == nil {
		params = []ContractParam{}
	}
	rpcSigners := make([]RPCSigner, 0, len(signers))
	for _, account := range signers {
		rpcSigners = append(rpcSigners, RPCSigner{Account: account, Scopes: "CalledByEntry"})
	}
	result, err := c.Call(ctx, "invokefunction", scriptHash, method, params, rpcSigners)
	if err != nil {
		return nil, err
	}
	var invokeResult InvokeResult
	if err := json.Unmarshal(result, &invokeResult); err != nil {
		return nil, fmt.Errorf("unmarshal invoke result: %w", err)
	}
	return &invokeResult, nil
}

// InvokeScript simulates a raw script (base64-encoded).
func (c *Client) InvokeScript(ctx context.Context, script string, signers []RPCSigner) (*InvokeResult, error) {
	args := []any{script}
	if len(signers) > 0 {
		args = append(args, signers)
	}
	result, err := c.Call(ctx, "invokescript", args...)
	if err != nil {
		return nil, err
	}
	var invokeResult InvokeResult
	if err := json.Unmarshal(result, &invokeResult); err != nil {
		return nil, fmt.Errorf("unmarshal invoke result: %w", err)
	}
	return &invokeResult, nil
}

// SendRawTransaction broadcasts a signed transaction (base64-encoded).
func (c *Client) SendRawTransaction(ctx context.Context, rawTx string) (string, error) {
	result, err := c.Call(ctx, "sendrawtransaction", rawTx)
	if err != nil {
		return "", err
	}
	var response struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(result, &response); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	return response.Hash, nil
}

// CalculateNetworkFee asks the node for the network fee of a transaction.
func (c *Client) CalculateNetworkFee(ctx context.Context, rawTx string) (int64, error) {
	result, err := c.Call(ctx, "calculatenetworkfee", rawTx)
	if err != nil {
		return 0, err
	}
	var response struct {
		NetworkFee string `json:"networkfee"`
	}
	if err := json.Unmarshal(result, &response); err != nil {
		return 0, fmt.Errorf("unmarshal network fee: %w", err)
	}
	fee, err := strconv.ParseInt(response.NetworkFee, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse network fee %q: %w", response.NetworkFee, err)
	}
	return fee, nil
}

// DefaultTxWaitTimeout bounds waiting for a transaction to execute.
const DefaultTxWaitTimeout = 2 * time.Minute

// DefaultPollInterval is the application-log polling interval.
const DefaultPollInterval = 2 * time.Second

// validUntilBlockOffset keeps broadcast transactions valid for roughly an
// hour of 15-second blocks.
const validUntilBlockOffset = 240

// WaitForApplicationLog polls for a transaction's application log until it
// appears or the context expires. A missing transaction is transient and
// retried.
func (c *Client) WaitForApplicationLog(ctx context.Context, txHash string, pollInterval time.Duration) (*ApplicationLog, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			log, err := c.GetApplicationLog(ctx, txHash)
			if err != nil {
				if isNotFoundError(err) {
					continue
				}
				return nil, err
			}
			return log, nil
		}
	}
}

// InvokeFunctionAndWait simulates an invocation and, when the node attaches
// a transaction (node-side wallet), optionally waits for its execution.
func (c *Client) InvokeFunctionAndWait(ctx context.Context, contractHash, method string, params []ContractParam, wait bool) (*TxResult, error) {
	invokeResult, err := c.InvokeFunction(ctx, contractHash, method, params)
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", method, err)
	}
	if invokeResult.State != "HALT" {
		return nil, faultError(method, invokeResult.Exception)
	}

	result := &TxResult{TxHash: invokeResult.Tx, VMState: invokeResult.State}
	if !wait || invokeResult.Tx == "" {
		return result, nil
	}

	wctx, cancel := context.WithTimeout(ctx, DefaultTxWaitTimeout)
	defer cancel()

	appLog, err := c.WaitForApplicationLog(wctx, invokeResult.Tx, DefaultPollInterval)
	if err != nil {
		return result, fmt.Errorf("wait for %s execution: %w", method, err)
	}
	result.AppLog = appLog
	if len(appLog.Executions) > 0 {
		result.VMState = appLog.Executions[0].VMState
		if result.VMState != "HALT" {
			return result, faultError(method, appLog.Executions[0].Exception)
		}
	}
	return result, nil
}

// InvokeFunctionWithSignerAndWait simulates an invocation, builds a real
// transaction from the resulting script, signs it with the account, and
// broadcasts it. With wait set it also waits for the application log.
func (c *Client) InvokeFunctionWithSignerAndWait(ctx context.Context, contractHash, method string, params []ContractParam, account *wallet.Account, scope transaction.WitnessScope, wait bool) (*TxResult, error) {
	sim, err := c.InvokeFunctionWithSigners(ctx, contractHash, method, params, "0x"+account.ScriptHash().StringLE())
	if err != nil {
		return nil, fmt.Errorf("simulate %s: %w", method, err)
	}
	if sim.State != "HALT" {
		return nil, faultError(method, sim.Exception)
	}

	script, err := base64.StdEncoding.DecodeString(sim.Script)
	if err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	sysFee, err := strconv.ParseInt(sim.GasConsumed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse gas consumed %q: %w", sim.GasConsumed, err)
	}
	height, err := c.GetBlockCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("get block count: %w", err)
	}

	tx := transaction.New(script, sysFee)
	tx.Nonce = randomNonce()
	tx.ValidUntilBlock = height + validUntilBlockOffset
	tx.Signers = []transaction.Signer{{Account: account.ScriptHash(), Scopes: scope}}

	// A placeholder witness lets the node size the network fee.
	tx.Scripts = []transaction.Witness{{VerificationScript: account.Contract.Script}}
	unsigned := tx.Bytes()
	netFee, err := c.CalculateNetworkFee(ctx, base64.StdEncoding.EncodeToString(unsigned))
	if err != nil {
		return nil, fmt.Errorf("calculate network fee: %w", err)
	}
	tx.NetworkFee = netFee
	tx.Scripts = nil

	if err := account.SignTx(netmode.Magic(c.networkID), tx); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	signed := tx.Bytes()

	txHash, err := c.SendRawTransaction(ctx, base64.StdEncoding.EncodeToString(signed))
	if err != nil {
		return nil, fmt.Errorf("broadcast %s: %w", method, err)
	}
	result := &TxResult{TxHash: txHash, VMState: "HALT"}
	if !wait {
		return result, nil
	}

	wctx, cancel := context.WithTimeout(ctx, DefaultTxWaitTimeout)
	defer cancel()

	appLog, err := c.WaitForApplicationLog(wctx, txHash, DefaultPollInterval)
	if err != nil {
		return result, fmt.Errorf("wait for %s execution: %w", method, err)
	}
	result.AppLog = appLog
	if len(appLog.Executions) > 0 {
		result.VMState = appLog.Executions[0].VMState
		if result.VMState != "HALT" {
			return result, faultError(method, appLog.Executions[0].Exception)
		}
	}
	return result, nil
}

func randomNonce() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return uint32(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint32(buf[:])
}
