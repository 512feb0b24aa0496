package chain

import (
	"fmt"
	"strings"

	"github.com/joeqian10/neo3-gogogo/crypto"
	"github.com/joeqian10/neo3-gogogo/helper"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

// AccountFromPrivateKey builds a neo-go signing account from a hex-encoded
// private key (no 0x prefix).
func AccountFromPrivateKey(privateKeyHex string) (*wallet.Account, error) {
	priv, err := keys.NewPrivateKeyFromHex(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return wallet.NewAccountFromPrivateKey(priv), nil
}

// AddressToScriptHash converts a Neo N3 address to its 0x big-endian script
// hash string.
func AddressToScriptHash(addr string) (string, error) {
	hash, err := crypto.AddressToScriptHash(addr, helper.DefaultAddressVersion)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return "0x" + hash.String(), nil
}

// ScriptHashToAddress converts a 0x script hash string to a Neo N3 address.
func ScriptHashToAddress(scriptHash string) (string, error) {
	hash, err := helper.UInt160FromString(scriptHash)
	if err != nil {
		return "", fmt.Errorf("invalid script hash %q: %w", scriptHash, err)
	}
	return crypto.ScriptHashToAddress(hash, helper.DefaultAddressVersion), nil
}
