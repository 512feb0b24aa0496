package codec_test

import (
	"fmt"

	"github.com/ArenaX-Network/arena_layer/pkg/codec"
)

type balance struct {
	Token  string
	Amount float64
}

func ExampleRegistry() {
	r := codec.NewRegistry()
	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "Balance",
		Factory: func() any { return &balance{} },
		Attributes: []codec.Attribute{
			{WireName: "token", Name: "Token", Type: "string",
				Get: func(v any) any { return v.(*balance).Token },
				Set: func(v, x any) { v.(*balance).Token = x.(string) }},
			{WireName: "amount", Name: "Amount", Type: "number",
				Get: func(v any) any { return v.(*balance).Amount },
				Set: func(v, x any) { v.(*balance).Amount = x.(float64) }},
		},
	})

	// Unknown wire attributes are ignored on the way in.
	wire := map[string]any{"token": "NEO", "amount": 12.5, "chain": "neo"}
	b := r.FromWire(wire, "Balance", "").(*balance)
	fmt.Printf("%s %.1f\n", b.Token, b.Amount)

	out, _ := codec.Stringify(r.ToWire(b, "Balance", ""), "application/json")
	fmt.Println(out)
	// Output:
	// NEO 12.5
	// {"amount":12.5,"token":"NEO"}
}
