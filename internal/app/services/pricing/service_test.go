package pricing

import (
	"context"
	"testing"

	"github.com/ArenaX-Network/arena_layer/internal/cache"
)

func TestPriceCaching(t *testing.T) {
	calls := 0
	source := SourceFunc(func(_ context.Context, token, chain string) (float64, error) {
		calls++
		return 12.5, nil
	})
	svc := New(source, cache.NewMemory(), nil)

	for i := 0; i < 3; i++ {
		p, err := svc.Price(context.Background(), "neo", "NEO")
		if err != nil {
			t.Fatalf("price: %v", err)
		}
		if p != 12.5 {
			t.Fatalf("unexpected price: %v", p)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 source call, got %d", calls)
	}
}

func TestQuote(t *testing.T) {
	svc := New(StaticSource(map[string]float64{"USDT/neo": 1, "NEO/neo": 12.5}), nil, nil)

	toAmount, rate, err := svc.Quote(context.Background(), "USDT", "neo", "NEO", "neo", 25)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if toAmount != 2 || rate != 0.08 {
		t.Fatalf("unexpected quote: amount=%v rate=%v", toAmount, rate)
	}

	if _, _, err := svc.Quote(context.Background(), "USDT", "neo", "NEO", "neo", 0); err == nil {
		t.Fatal("expected error for non-positive amount")
	}
	if _, _, err := svc.Quote(context.Background(), "USDT", "neo", "UNKNOWN", "neo", 5); err == nil {
		t.Fatal("expected error for unknown token")
	}
}
