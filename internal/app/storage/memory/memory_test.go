package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/competition"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/perps"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/trade"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/user"
	"github.com/ArenaX-Network/arena_layer/internal/app/storage"
)

func TestUserUniqueness(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.CreateUser(ctx, user.User{WalletAddress: "NWallet1", Email: "a@example.com"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := store.CreateUser(ctx, user.User{WalletAddress: "NWallet1"}); err == nil {
		t.Fatal("expected duplicate wallet error")
	}
	if _, err := store.CreateUser(ctx, user.User{Email: "A@Example.com"}); err == nil {
		t.Fatal("expected duplicate email error (case-insensitive)")
	}

	u, err := store.GetUserByWallet(ctx, "NWallet1")
	if err != nil {
		t.Fatalf("get by wallet: %v", err)
	}
	if u.Email != "a@example.com" {
		t.Fatalf("unexpected user: %#v", u)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store := New()
	_, err := store.GetAgent(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParticipantLifecycle(t *testing.T) {
	store := New()
	ctx := context.Background()

	comp, err := store.CreateCompetition(ctx, competition.Competition{Name: "arena-1"})
	if err != nil {
		t.Fatalf("create competition: %v", err)
	}
	if comp.Status != competition.StatusPending {
		t.Fatalf("expected pending default, got %s", comp.Status)
	}

	if _, err := store.AddParticipant(ctx, competition.Participant{CompetitionID: comp.ID, AgentID: "a1"}); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if _, err := store.AddParticipant(ctx, competition.Participant{CompetitionID: comp.ID, AgentID: "a1"}); err == nil {
		t.Fatal("expected duplicate participant error")
	}

	list, err := store.ListParticipants(ctx, comp.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list participants: %v, %v", list, err)
	}

	if err := store.RemoveParticipant(ctx, comp.ID, "a1"); err != nil {
		t.Fatalf("remove participant: %v", err)
	}
	if err := store.RemoveParticipant(ctx, comp.ID, "a1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after removal, got %v", err)
	}
}

func TestApplyTradeAtomic(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.UpsertBalance(ctx, trade.Balance{
		AgentID: "a1", CompetitionID: "c1", Token: "USDT", Chain: "neo", Amount: 100,
	}); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	executed, err := store.ApplyTrade(ctx, trade.Trade{
		AgentID: "a1", CompetitionID: "c1",
		FromToken: "USDT", FromChain: "neo", FromAmount: 40,
		ToToken: "NEO", ToChain: "neo", ToAmount: 2,
	})
	if err != nil {
		t.Fatalf("apply trade: %v", err)
	}
	if executed.Status != trade.StatusExecuted {
		t.Fatalf("unexpected status: %s", executed.Status)
	}

	usdt, _ := store.GetBalance(ctx, "a1", "c1", "USDT", "neo")
	neo, _ := store.GetBalance(ctx, "a1", "c1", "NEO", "neo")
	if usdt.Amount != 60 || neo.Amount != 2 {
		t.Fatalf("balances wrong after trade: usdt=%v neo=%v", usdt.Amount, neo.Amount)
	}

	// Overdraw leaves balances untouched.
	if _, err := store.ApplyTrade(ctx, trade.Trade{
		AgentID: "a1", CompetitionID: "c1",
		FromToken: "USDT", FromChain: "neo", FromAmount: 1000,
		ToToken: "NEO", ToChain: "neo", ToAmount: 50,
	}); !errors.Is(err, storage.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	usdt, _ = store.GetBalance(ctx, "a1", "c1", "USDT", "neo")
	if usdt.Amount != 60 {
		t.Fatalf("failed trade mutated balance: %v", usdt.Amount)
	}
}

func TestTradeHistoryOrderAndLimit(t *testing.T) {
	store := New()
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		if _, err := store.CreateTrade(ctx, trade.Trade{
			AgentID: "a1", CompetitionID: "c1",
			FromToken: "USDT", ToToken: "NEO",
			ExecutedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("create trade: %v", err)
		}
	}

	trades, err := store.ListTrades(ctx, "a1", "c1", 3)
	if err != nil {
		t.Fatalf("list trades: %v", err)
	}
	if len(trades) != 3 {
		t.Fatalf("limit ignored: got %d", len(trades))
	}
	if !trades[0].ExecutedAt.After(trades[1].ExecutedAt) {
		t.Fatalf("trades not newest-first: %v", trades)
	}

	count, err := store.CountTradesSince(ctx, "a1", "c1", base.Add(3*time.Minute))
	if err != nil || count != 2 {
		t.Fatalf("count since: got %d, %v", count, err)
	}
}

func TestPositionUpsertKeepsIdentity(t *testing.T) {
	store := New()
	ctx := context.Background()

	p1, err := store.UpsertPosition(ctx, positionFixture(1.5))
	if err != nil {
		t.Fatalf("upsert position: %v", err)
	}
	p2, err := store.UpsertPosition(ctx, positionFixture(2.5))
	if err != nil {
		t.Fatalf("re-upsert position: %v", err)
	}
	if p1.ID != p2.ID {
		t.Fatalf("upsert changed identity: %s vs %s", p1.ID, p2.ID)
	}

	list, err := store.ListPositions(ctx, "a1", "c1")
	if err != nil || len(list) != 1 {
		t.Fatalf("list positions: %v, %v", list, err)
	}
	if list[0].Size != 2.5 {
		t.Fatalf("upsert did not replace fields: %#v", list[0])
	}
}

func positionFixture(size float64) perps.Position {
	return perps.Position{
		AgentID:       "a1",
		CompetitionID: "c1",
		Symbol:        "NEO-PERP",
		Side:          perps.SideLong,
		Size:          size,
	}
}
