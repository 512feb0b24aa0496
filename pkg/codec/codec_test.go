package codec

import (
	"reflect"
	"testing"
	"time"
)

// Test fixtures mirror the shapes the API client registers: a concrete
// position type with factory defaults and a discriminated event hierarchy.

type testPosition struct {
	Symbol   string
	Size     float64
	Leverage float64
}

type testTradeEvent struct {
	Kind   string
	TxID   string
	Amount float64
}

type testLeaderboardEvent struct {
	Kind string
	Rank float64
}

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.MustRegisterType(TypeDescriptor{
		Name:    "Position",
		Factory: func() any { return &testPosition{Leverage: 1} },
		Attributes: []Attribute{
			{WireName: "symbol", Name: "Symbol", Type: "string",
				Get: func(v any) any { return v.(*testPosition).Symbol },
				Set: func(v, x any) { v.(*testPosition).Symbol = x.(string) }},
			{WireName: "size", Name: "Size", Type: "number",
				Get: func(v any) any { return v.(*testPosition).Size },
				Set: func(v, x any) { v.(*testPosition).Size = x.(float64) }},
			{WireName: "leverage", Name: "Leverage", Type: "number | undefined",
				Get: func(v any) any { return v.(*testPosition).Leverage },
				Set: func(v, x any) { v.(*testPosition).Leverage = x.(float64) }},
		},
	})
	r.MustRegisterType(TypeDescriptor{
		Name:          "StreamEvent",
		Discriminator: "Kind",
		DiscriminatorMap: map[string]string{
			"trade":       "TradeEvent",
			"leaderboard": "LeaderboardEvent",
		},
		Attributes: []Attribute{
			{WireName: "kind", Name: "Kind", Type: "string"},
		},
	})
	r.MustRegisterType(TypeDescriptor{
		Name:    "TradeEvent",
		Factory: func() any { return &testTradeEvent{Kind: "trade"} },
		Attributes: []Attribute{
			{WireName: "kind", Name: "Kind", Type: "string",
				Get: func(v any) any { return v.(*testTradeEvent).Kind },
				Set: func(v, x any) { v.(*testTradeEvent).Kind = x.(string) }},
			{WireName: "tx_id", Name: "TxID", Type: "string",
				Get: func(v any) any { return v.(*testTradeEvent).TxID },
				Set: func(v, x any) { v.(*testTradeEvent).TxID = x.(string) }},
			{WireName: "amount", Name: "Amount", Type: "number",
				Get: func(v any) any { return v.(*testTradeEvent).Amount },
				Set: func(v, x any) { v.(*testTradeEvent).Amount = x.(float64) }},
		},
	})
	r.MustRegisterType(TypeDescriptor{
		Name:    "LeaderboardEvent",
		Factory: func() any { return &testLeaderboardEvent{Kind: "leaderboard"} },
		Attributes: []Attribute{
			{WireName: "kind", Name: "Kind", Type: "string",
				Get: func(v any) any { return v.(*testLeaderboardEvent).Kind },
				Set: func(v, x any) { v.(*testLeaderboardEvent).Kind = x.(string) }},
			{WireName: "rank", Name: "Rank", Type: "number",
				Get: func(v any) any { return v.(*testLeaderboardEvent).Rank },
				Set: func(v, x any) { v.(*testLeaderboardEvent).Rank = x.(float64) }},
		},
	})
	r.RegisterEnum("CompetitionStatus")
	return r
}

func TestPrimitiveRoundTrip(t *testing.T) {
	r := newTestRegistry()
	values := []any{"hello", true, 3.14, float64(42)}
	types := []string{"string", "boolean", "double", "integer", "long", "float", "number", "any", "STRING"}
	for _, typ := range types {
		for _, v := range values {
			wire := r.ToWire(v, typ, "")
			back := r.FromWire(wire, typ, "")
			if back != v {
				t.Fatalf("round trip %v as %s: got %v", v, typ, back)
			}
		}
	}
}

func TestNullableOptionalTransparency(t *testing.T) {
	r := newTestRegistry()
	if got := r.ToWire(nil, "string | null", ""); got != nil {
		t.Fatalf("nil through nullable: got %v", got)
	}
	if got := r.ToWire("x", "string | null", ""); got != "x" {
		t.Fatalf("non-nil through nullable: got %v", got)
	}
	if got := r.FromWire(nil, "Position | undefined", ""); got != nil {
		t.Fatalf("nil through optional: got %v", got)
	}
	pos := r.FromWire(map[string]any{"symbol": "NEO-PERP"}, "Position | null", "").(*testPosition)
	if pos.Symbol != "NEO-PERP" {
		t.Fatalf("nullable recursion lost value: %#v", pos)
	}
}

func TestArrayOrderPreserved(t *testing.T) {
	r := newTestRegistry()
	in := []any{"a", "b", "c"}
	wire := r.ToWire(in, "Array<string>", "").([]any)
	if !reflect.DeepEqual(wire, in) {
		t.Fatalf("array order changed: %v", wire)
	}
	back := r.FromWire(wire, "Array<string>", "").([]any)
	if !reflect.DeepEqual(back, in) {
		t.Fatalf("array round trip changed: %v", back)
	}
}

func TestMapKeysPreserved(t *testing.T) {
	r := newTestRegistry()
	in := map[string]any{"NEO": 12.5, "GAS": 4.2, "FLM": 0.08}
	wire := r.ToWire(in, "{ [key: string]: number }", "").(map[string]any)
	if len(wire) != len(in) {
		t.Fatalf("key count changed: %v", wire)
	}
	for k, v := range in {
		if wire[k] != v {
			t.Fatalf("key %s: got %v want %v", k, wire[k], v)
		}
	}
}

func TestDiscriminatorResolution(t *testing.T) {
	r := newTestRegistry()

	cases := []struct {
		value any
		want  string
	}{
		{map[string]any{"kind": "trade"}, "TradeEvent"},
		{map[string]any{"kind": "leaderboard"}, "LeaderboardEvent"},
		// Unmapped value that itself names a registered type.
		{map[string]any{"kind": "Position"}, "Position"},
		// Unrecognized value falls back to the declared name.
		{map[string]any{"kind": "fish"}, "StreamEvent"},
		// Missing discriminator property.
		{map[string]any{"other": 1}, "StreamEvent"},
		{nil, "StreamEvent"},
	}
	for _, tc := range cases {
		if got := r.ResolveConcreteType(tc.value, "StreamEvent"); got != tc.want {
			t.Fatalf("resolve %v: got %s want %s", tc.value, got, tc.want)
		}
	}

	// Resolution also reads the discriminator off typed instances.
	ev := &testTradeEvent{Kind: "trade"}
	if got := r.ResolveConcreteType(ev, "TradeEvent"); got != "TradeEvent" {
		t.Fatalf("typed instance resolve: got %s", got)
	}
}

func TestDiscriminatedDeserialization(t *testing.T) {
	r := newTestRegistry()
	out := r.FromWire(map[string]any{"kind": "trade", "tx_id": "0xabc", "amount": 5.0}, "StreamEvent", "")
	ev, ok := out.(*testTradeEvent)
	if !ok {
		t.Fatalf("expected *testTradeEvent, got %T", out)
	}
	if ev.TxID != "0xabc" || ev.Amount != 5.0 {
		t.Fatalf("unexpected event: %#v", ev)
	}
}

func TestSparseDeserializationKeepsDefaults(t *testing.T) {
	r := newTestRegistry()
	out := r.FromWire(map[string]any{"symbol": "NEO-PERP", "size": 2.0}, "Position", "")
	pos := out.(*testPosition)
	if pos.Symbol != "NEO-PERP" || pos.Size != 2.0 {
		t.Fatalf("assigned attributes wrong: %#v", pos)
	}
	if pos.Leverage != 1 {
		t.Fatalf("factory default overwritten: %#v", pos)
	}

	// Explicit wire null also leaves the default in place.
	out = r.FromWire(map[string]any{"symbol": "GAS-PERP", "leverage": nil}, "Position", "")
	if pos := out.(*testPosition); pos.Leverage != 1 {
		t.Fatalf("wire null stamped over default: %#v", pos)
	}
}

func TestSerializationDropsUndescribedProperties(t *testing.T) {
	r := newTestRegistry()
	wire := r.ToWire(map[string]any{"Symbol": "NEO-PERP", "Size": 1.0, "Extra": "x"}, "Position", "").(map[string]any)
	if _, ok := wire["Extra"]; ok {
		t.Fatalf("undescribed property leaked: %v", wire)
	}
	if wire["symbol"] != "NEO-PERP" {
		t.Fatalf("wire names not applied: %v", wire)
	}
}

func TestOptionalOmittedNullableEmitted(t *testing.T) {
	r := newTestRegistry()
	r.MustRegisterType(TypeDescriptor{
		Name: "Shape",
		Attributes: []Attribute{
			{WireName: "opt", Name: "Opt", Type: "string | undefined"},
			{WireName: "nul", Name: "Nul", Type: "string | null"},
		},
	})
	wire := r.ToWire(map[string]any{}, "Shape", "").(map[string]any)
	if _, ok := wire["opt"]; ok {
		t.Fatalf("absent optional attribute should be omitted: %v", wire)
	}
	if v, ok := wire["nul"]; !ok || v != nil {
		t.Fatalf("absent nullable attribute should emit explicit null: %v", wire)
	}
}

func TestDateFormatting(t *testing.T) {
	r := newTestRegistry()
	d := time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)

	if got := r.ToWire(d, DateType, "date"); got != "2024-01-05" {
		t.Fatalf("date format: got %v", got)
	}
	if got := r.ToWire(d, DateType, ""); got != "2024-01-05T10:30:00.000Z" {
		t.Fatalf("instant format: got %v", got)
	}
}

func TestDateParsing(t *testing.T) {
	r := newTestRegistry()
	for _, raw := range []string{
		"2024-01-05T10:30:00.000Z",
		"2024-01-05T10:30:00Z",
		"2024-01-05T10:30:00+02:00",
		"2024-01-05",
	} {
		out := r.FromWire(raw, DateType, "")
		if _, ok := out.(time.Time); !ok {
			t.Fatalf("parse %q: got %T", raw, out)
		}
	}
	// Unparseable values pass through unchanged.
	if out := r.FromWire("not-a-date", DateType, ""); out != "not-a-date" {
		t.Fatalf("unparseable date: got %v", out)
	}
}

func TestUnknownTypePassthrough(t *testing.T) {
	r := newTestRegistry()
	payload := map[string]any{"anything": 1}
	if got := r.ToWire(payload, "FutureType", ""); !reflect.DeepEqual(got, payload) {
		t.Fatalf("unknown type not passed through: %v", got)
	}
	if got := r.FromWire(payload, "FutureType", ""); !reflect.DeepEqual(got, payload) {
		t.Fatalf("unknown type not passed through on read: %v", got)
	}
}

func TestEnumIdentity(t *testing.T) {
	r := newTestRegistry()
	if got := r.ToWire("active", "CompetitionStatus", ""); got != "active" {
		t.Fatalf("enum write: got %v", got)
	}
	if got := r.FromWire("ended", "CompetitionStatus", ""); got != "ended" {
		t.Fatalf("enum read: got %v", got)
	}
}

func BenchmarkFromWireStructural(b *testing.B) {
	r := newTestRegistry()
	payload := map[string]any{"kind": "trade", "tx_id": "0xabc", "amount": 5.0}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r.FromWire(payload, "StreamEvent", "")
	}
}
