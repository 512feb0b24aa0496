package chain

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// decodeStackBytes decodes a ByteString/Buffer payload. Neo N3 RPC encodes
// these as base64; hex is accepted for client-supplied values.
func decodeStackBytes(value string) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		return hex.DecodeString(trimmed[2:])
	}
	if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil {
		return decoded, nil
	}
	if len(trimmed)%2 != 0 {
		return nil, fmt.Errorf("invalid byte string")
	}
	return hex.DecodeString(trimmed)
}

// ParseArray extracts the elements of an Array or Struct stack item.
func ParseArray(item StackItem) ([]StackItem, error) {
	if item.Type != "Array" && item.Type != "Struct" {
		return nil, fmt.Errorf("expected Array or Struct, got %s", item.Type)
	}
	var items []StackItem
	if err := json.Unmarshal(item.Value, &items); err != nil {
		return nil, fmt.Errorf("unmarshal array: %w", err)
	}
	return items, nil
}

// mapEntry is a key/value pair inside a Map stack item.
type mapEntry struct {
	Key   StackItem `json:"key"`
	Value StackItem `json:"value"`
}

// ParseMap extracts a Map stack item keyed by its string keys.
func ParseMap(item StackItem) (map[string]StackItem, error) {
	if item.Type != "Map" {
		return nil, fmt.Errorf("expected Map, got %s", item.Type)
	}
	var entries []mapEntry
	if err := json.Unmarshal(item.Value, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal map: %w", err)
	}
	result := make(map[string]StackItem, len(entries))
	for _, e := range entries {
		key, err := ParseString(e.Key)
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		result[key] = e.Value
	}
	return result, nil
}

// ParseString parses a UTF-8 string from a ByteString or Buffer item.
func ParseString(item StackItem) (string, error) {
	return ParseStringFromItem(item)
}

// ParseStringFromItem parses a UTF-8 string from a stack item. Null parses
// to the empty string.
func ParseStringFromItem(item StackItem) (string, error) {
	switch item.Type {
	case "ByteString", "Buffer":
		var value string
		if err := json.Unmarshal(item.Value, &value); err != nil {
			return "", err
		}
		raw, err := decodeStackBytes(value)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	case "Null":
		return "", nil
	}
	return "", fmt.Errorf("unexpected type for string: %s", item.Type)
}

// ParseHash160 parses a 20-byte script hash into 0x big-endian form.
func ParseHash160(item StackItem) (string, error) {
	if item.Type != "ByteString" && item.Type != "Buffer" {
		return "", fmt.Errorf("unexpected type: %s", item.Type)
	}
	var value string
	if err := json.Unmarshal(item.Value, &value); err != nil {
		return "", err
	}
	raw, err := decodeStackBytes(value)
	if err != nil {
		return "", err
	}
	if len(raw) != 20 {
		return "", fmt.Errorf("unexpected Hash160 length: %d", len(raw))
	}
	// Stack items carry the hash little-endian; display form is reversed.
	reversed := make([]byte, len(raw))
	for i, b := range raw {
		reversed[len(raw)-1-i] = b
	}
	return "0x" + hex.EncodeToString(reversed), nil
}

// ParseByteArray parses raw bytes from a ByteString or Buffer item.
func ParseByteArray(item StackItem) ([]byte, error) {
	switch item.Type {
	case "ByteString", "Buffer":
		var value string
		if err := json.Unmarshal(item.Value, &value); err != nil {
			return nil, err
		}
		return decodeStackBytes(value)
	case "Null":
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected type: %s", item.Type)
}

// ParseInteger parses an Integer stack item.
func ParseInteger(item StackItem) (*big.Int, error) {
	if item.Type != "Integer" {
		return nil, fmt.Errorf("unexpected type: %s", item.Type)
	}
	var value string
	if err := json.Unmarshal(item.Value, &value); err != nil {
		return nil, err
	}
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", value)
	}
	return n, nil
}

// ParseBoolean parses a Boolean stack item.
func ParseBoolean(item StackItem) (bool, error) {
	if item.Type != "Boolean" {
		return false, fmt.Errorf("unexpected type: %s", item.Type)
	}
	var value bool
	if err := json.Unmarshal(item.Value, &value); err != nil {
		return false, err
	}
	return value, nil
}
