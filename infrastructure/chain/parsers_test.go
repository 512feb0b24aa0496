package chain

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"
)

func mustItem(t *testing.T, v map[string]any) StackItem {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal item: %v", err)
	}
	var item StackItem
	if err := json.Unmarshal(raw, &item); err != nil {
		t.Fatalf("unmarshal item: %v", err)
	}
	return item
}

func TestParseString(t *testing.T) {
	item := mustItem(t, strItem("hello"))
	s, err := ParseString(item)
	if err != nil || s != "hello" {
		t.Fatalf("ParseString = %q, %v", s, err)
	}

	null := mustItem(t, map[string]any{"type": "Null"})
	if s, err := ParseString(null); err != nil || s != "" {
		t.Fatalf("null string = %q, %v", s, err)
	}
}

func TestParseInteger(t *testing.T) {
	n, err := ParseInteger(mustItem(t, intItem("-12345678901234567890")))
	if err != nil {
		t.Fatalf("ParseInteger: %v", err)
	}
	if n.String() != "-12345678901234567890" {
		t.Fatalf("value = %s", n)
	}

	if _, err := ParseInteger(mustItem(t, strItem("nope"))); err == nil {
		t.Fatal("expected type error")
	}
}

func TestParseBoolean(t *testing.T) {
	b, err := ParseBoolean(mustItem(t, map[string]any{"type": "Boolean", "value": true}))
	if err != nil || !b {
		t.Fatalf("ParseBoolean = %v, %v", b, err)
	}
}

func TestParseHash160ReversesForDisplay(t *testing.T) {
	le := make([]byte, 20)
	for i := range le {
		le[i] = byte(i + 1)
	}
	item := mustItem(t, map[string]any{
		"type":  "ByteString",
		"value": base64.StdEncoding.EncodeToString(le),
	})
	hash, err := ParseHash160(item)
	if err != nil {
		t.Fatalf("ParseHash160: %v", err)
	}
	want := "0x14131211100f0e0d0c0b0a090807060504030201"
	if hash != want {
		t.Fatalf("hash = %s, want %s", hash, want)
	}
}

func TestParseByteArrayAcceptsHexAndBase64(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}

	b64 := mustItem(t, map[string]any{"type": "ByteString", "value": base64.StdEncoding.EncodeToString(payload)})
	got, err := ParseByteArray(b64)
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("base64 parse = %x, %v", got, err)
	}

	hexItem := mustItem(t, map[string]any{"type": "Buffer", "value": "0xdeadbeef"})
	got, err = ParseByteArray(hexItem)
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("hex parse = %x, %v", got, err)
	}
}

func TestParseArray(t *testing.T) {
	item := mustItem(t, map[string]any{
		"type":  "Struct",
		"value": []any{intItem("1"), strItem("two")},
	})
	items, err := ParseArray(item)
	if err != nil || len(items) != 2 {
		t.Fatalf("ParseArray = %d items, %v", len(items), err)
	}
	if _, err := ParseArray(mustItem(t, intItem("1"))); err == nil {
		t.Fatal("expected type error for non-array")
	}
}

func TestParseMap(t *testing.T) {
	item := mustItem(t, map[string]any{
		"type": "Map",
		"value": []any{
			map[string]any{"key": strItem("size"), "value": intItem("7")},
		},
	})
	m, err := ParseMap(item)
	if err != nil {
		t.Fatalf("ParseMap: %v", err)
	}
	n, err := ParseInteger(m["size"])
	if err != nil || n.Int64() != 7 {
		t.Fatalf("map value = %v, %v", n, err)
	}
}
