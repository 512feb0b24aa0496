package chain

// Meta carries transaction-level metadata for write operations. Pure reads
// leave it zero.
type Meta struct {
	TxHash      string `json:"tx_hash,omitempty"`
	BlockIndex  uint32 `json:"block_index,omitempty"`
	GasConsumed string `json:"gas_consumed,omitempty"`
}

// Envelope pairs an operation result with its transaction metadata.
type Envelope[T any] struct {
	Result T    `json:"result"`
	Meta   Meta `json:"meta"`
}

// metaFromTxResult extracts envelope metadata from a broadcast transaction.
func metaFromTxResult(res *TxResult) Meta {
	meta := Meta{TxHash: res.TxHash}
	if res.AppLog != nil && len(res.AppLog.Executions) > 0 {
		meta.GasConsumed = res.AppLog.Executions[0].GasConsumed
	}
	return meta
}
