package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

// BucketInfo describes an on-chain storage bucket.
type BucketInfo struct {
	ID          *big.Int `json:"id"`
	Name        string   `json:"name"`
	Owner       string   `json:"owner"`
	ObjectCount *big.Int `json:"object_count"`
	CreatedAt   uint64   `json:"created_at"`
}

// BucketManager wraps the on-chain bucket-storage contract. Reads are
// invocation simulations; writes are signed transactions.
type BucketManager struct {
	client       *Client
	contractHash string
	account      *wallet.Account
}

// NewBucketManager creates a manager for the bucket contract. The account
// may be nil when only reads (or node-side signing) are needed.
func NewBucketManager(client *Client, contractHash string, account *wallet.Account) *BucketManager {
	return &BucketManager{client: client, contractHash: contractHash, account: account}
}

// invokeRead simulates a call and returns the top stack item.
func (m *BucketManager) invokeRead(ctx context.Context, method string, params ...ContractParam) (StackItem, error) {
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

// invokeWrite executes a state-changing call as a signed transaction and
// waits for its application log.
func (m *BucketManager) invokeWrite(ctx context.Context, method string, params ...ContractParam) (*TxResult, error) {
	if m.account != nil {
		return m.client.InvokeFunctionWithSignerAndWait(ctx, m.contractHash, method, params, m.account, transaction.CalledByEntry, true)
	}
	return m.client.InvokeFunctionAndWait(ctx, m.contractHash, method, params, true)
}

// parseBucketInfo decodes the contract's bucket struct:
// [id, name, owner, objectCount, createdAt].
func parseBucketInfo(item StackItem) (BucketInfo, error) {
	fields, err := ParseArray(item)
	if err != nil {
		return BucketInfo{}, err
	}
	if len(fields) < 5 {
		return BucketInfo{}, fmt.Errorf("bucket struct has %d fields, want 5", len(fields))
	}
	info := BucketInfo{}
	if info.ID, err = ParseInteger(fields[0]); err != nil {
		return BucketInfo{}, fmt.Errorf("bucket id: %w", err)
	}
	if info.Name, err = ParseString(fields[1]); err != nil {
		return BucketInfo{}, fmt.Errorf("bucket name: %w", err)
	}
	if info.Owner, err = ParseHash160(fields[2]); err != nil {
		return BucketInfo{}, fmt.Errorf("bucket owner: %w", err)
	}
	if info.ObjectCount, err = ParseInteger(fields[3]); err != nil {
		return BucketInfo{}, fmt.Errorf("bucket object count: %w", err)
	}
	createdAt, err := ParseInteger(fields[4])
	if err != nil {
		return BucketInfo{}, fmt.Errorf("bucket created at: %w", err)
	}
	info.CreatedAt = createdAt.Uint64()
	return info, nil
}

// Create registers a new bucket and returns its info. The bucket ID is read
// from the execution result stack.
func (m *BucketManager) Create(ctx context.Context, name string) (Envelope[BucketInfo], error) {
	if name == "" {
		return Envelope[BucketInfo]{}, fmt.Errorf("bucket name required")
	}
	res, err := m.invokeWrite(ctx, "createBucket", NewStringParam(name))
	if err != nil {
		return Envelope[BucketInfo]{}, err
	}

	info := BucketInfo{Name: name}
	if res.AppLog != nil && len(res.AppLog.Executions) > 0 && len(res.AppLog.Executions[0].Stack) > 0 {
		if id, err := ParseInteger(res.AppLog.Executions[0].Stack[0]); err == nil {
			info.ID = id
		}
	}
	return Envelope[BucketInfo]{Result: info, Meta: metaFromTxResult(res)}, nil
}

// Get returns a bucket by ID.
func (m *BucketManager) Get(ctx context.Context, bucketID *big.Int) (Envelope[BucketInfo], error) {
	item, err := m.invokeRead(ctx, "getBucket", NewIntegerParam(bucketID))
	if err != nil {
		return Envelope[BucketInfo]{}, err
	}
	info, err := parseBucketInfo(item)
	if err != nil {
		return Envelope[BucketInfo]{}, err
	}
	return Envelope[BucketInfo]{Result: info}, nil
}

// List returns the buckets owned by a script hash.
func (m *BucketManager) List(ctx context.Context, owner string) (Envelope[[]BucketInfo], error) {
	item, err := m.invokeRead(ctx, "listBuckets", NewHash160Param(owner))
	if err != nil {
		return Envelope[[]BucketInfo]{}, err
	}
	items, err := ParseArray(item)
	if err != nil {
		return Envelope[[]BucketInfo]{}, err
	}
	buckets := make([]BucketInfo, 0, len(items))
	for _, it := range items {
		info, err := parseBucketInfo(it)
		if err != nil {
			return Envelope[[]BucketInfo]{}, err
		}
		buckets = append(buckets, info)
	}
	return Envelope[[]BucketInfo]{Result: buckets}, nil
}

// Put stores an object under a key and returns the transaction hash.
func (m *BucketManager) Put(ctx context.Context, bucketID *big.Int, key string, value []byte) (Envelope[string], error) {
	if key == "" {
		return Envelope[string]{}, fmt.Errorf("object key required")
	}
	res, err := m.invokeWrite(ctx, "putObject", NewIntegerParam(bucketID), NewStringParam(key), NewByteArrayParam(value))
	if err != nil {
		return Envelope[string]{}, err
	}
	return Envelope[string]{Result: res.TxHash, Meta: metaFromTxResult(res)}, nil
}

// GetObject reads an object's bytes.
func (m *BucketManager) GetObject(ctx context.Context, bucketID *big.Int, key string) (Envelope[[]byte], error) {
	item, err := m.invokeRead(ctx, "getObject", NewIntegerParam(bucketID), NewStringParam(key))
	if err != nil {
		return Envelope[[]byte]{}, err
	}
	if item.Type == "Null" {
		return Envelope[[]byte]{}, fmt.Errorf("getObject: %w", ErrObjectNotFound)
	}
	raw, err := ParseByteArray(item)
	if err != nil {
		return Envelope[[]byte]{}, err
	}
	return Envelope[[]byte]{Result: raw}, nil
}

// DeleteObject removes an object and returns the transaction hash.
func (m *BucketManager) DeleteObject(ctx context.Context, bucketID *big.Int, key string) (Envelope[string], error) {
	res, err := m.invokeWrite(ctx, "deleteObject", NewIntegerParam(bucketID), NewStringParam(key))
	if err != nil {
		return Envelope[string]{}, err
	}
	return Envelope[string]{Result: res.TxHash, Meta: metaFromTxResult(res)}, nil
}

// Delete removes an empty bucket and returns the transaction hash.
func (m *BucketManager) Delete(ctx context.Context, bucketID *big.Int) (Envelope[string], error) {
	res, err := m.invokeWrite(ctx, "deleteBucket", NewIntegerParam(bucketID))
	if err != nil {
		return Envelope[string]{}, err
	}
	return Envelope[string]{Result: res.TxHash, Meta: metaFromTxResult(res)}, nil
}
