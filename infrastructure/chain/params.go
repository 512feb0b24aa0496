package chain

import (
	"encoding/base64"
	"math/big"
)

// ContractParam is a contract invocation parameter in the RPC wire format.
type ContractParam struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

// NewHash160Param builds a Hash160 parameter from a 0x-prefixed script hash.
func NewHash160Param(scriptHash string) ContractParam {
	return ContractParam{Type: "Hash160", Value: scriptHash}
}

// NewIntegerParam builds an Integer parameter.
func NewIntegerParam(value *big.Int) ContractParam {
	return ContractParam{Type: "Integer", Value: value.String()}
}

// NewStringParam builds a String parameter.
func NewStringParam(value string) ContractParam {
	return ContractParam{Type: "String", Value: value}
}

// NewByteArrayParam builds a ByteArray parameter. The RPC wire format is
// base64.
func NewByteArrayParam(value []byte) ContractParam {
	return ContractParam{Type: "ByteArray", Value: base64.StdEncoding.EncodeToString(value)}
}

// NewBoolParam builds a Boolean parameter.
func NewBoolParam(value bool) ContractParam {
	return ContractParam{Type: "Boolean", Value: value}
}

// NewArrayParam builds an Array parameter from nested parameters.
func NewArrayParam(items ...ContractParam) ContractParam {
	if items == nil {
		items = []ContractParam{}
	}
	return ContractParam{Type: "Array", Value: items}
}

// NewAnyParam builds the null Any parameter.
func NewAnyParam() ContractParam {
	return ContractParam{Type: "Any"}
}

// RPCSigner is a transaction signer in the RPC wire format, used for
// invocation simulations.
type RPCSigner struct {
	Account string `json:"account"`
	Scopes  string `json:"scopes"`
}
