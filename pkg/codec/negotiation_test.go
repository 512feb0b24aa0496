package codec

import (
	"strings"
	"testing"
)

func TestGetPreferredMediaType(t *testing.T) {
	cases := []struct {
		candidates []string
		want       string
	}{
		// JSON wins over text regardless of input order.
		{[]string{"text/plain", "application/json"}, "application/json"},
		{[]string{"application/json", "text/plain"}, "application/json"},
		// Empty list defaults to JSON.
		{nil, "application/json"},
		// JSON-like structured syntax beats text.
		{[]string{"text/html", "application/problem+json"}, "application/problem+json"},
		{[]string{"application/octet-stream"}, "application/octet-stream"},
		{[]string{"application/x-www-form-urlencoded"}, "application/x-www-form-urlencoded"},
		// Parameters are stripped and case is normalized.
		{[]string{"Application/JSON; charset=utf-8"}, "application/json"},
	}
	for _, tc := range cases {
		got, err := GetPreferredMediaType(tc.candidates)
		if err != nil {
			t.Fatalf("GetPreferredMediaType(%v): %v", tc.candidates, err)
		}
		if got != tc.want {
			t.Fatalf("GetPreferredMediaType(%v) = %q, want %q", tc.candidates, got, tc.want)
		}
	}
}

func TestGetPreferredMediaTypeNoMatch(t *testing.T) {
	if _, err := GetPreferredMediaType([]string{"application/xml", "image/png"}); err == nil {
		t.Fatal("expected error for unsupported candidates")
	}
}

func TestStringify(t *testing.T) {
	body, err := Stringify(map[string]any{"amount": 1.5}, "application/json")
	if err != nil {
		t.Fatalf("stringify json: %v", err)
	}
	if !strings.Contains(body, `"amount":1.5`) {
		t.Fatalf("unexpected body: %s", body)
	}

	text, err := Stringify("raw text", "text/plain; charset=utf-8")
	if err != nil || text != "raw text" {
		t.Fatalf("stringify text: %q, %v", text, err)
	}

	if _, err := Stringify(map[string]any{}, "application/xml"); err == nil {
		t.Fatal("expected error for unsupported media type")
	}
	if _, err := Stringify(42, "text/plain"); err == nil {
		t.Fatal("expected error for non-string text body")
	}
}

func TestParse(t *testing.T) {
	out, err := Parse(`{"success": true}`, "application/json")
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if m, ok := out.(map[string]any); !ok || m["success"] != true {
		t.Fatalf("unexpected parse result: %v", out)
	}

	out, err = Parse("plain", "text/plain")
	if err != nil || out != "plain" {
		t.Fatalf("parse text: %v, %v", out, err)
	}

	if _, err := Parse("x", ""); err == nil {
		t.Fatal("expected error when Content-Type is missing")
	}
	if _, err := Parse("x", "application/xml"); err == nil {
		t.Fatal("expected error for unsupported media type")
	}
}
