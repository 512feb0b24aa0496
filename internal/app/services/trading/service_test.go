package trading

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/competition"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/trade"
	"github.com/ArenaX-Network/arena_layer/internal/app/services/pricing"
	"github.com/ArenaX-Network/arena_layer/internal/app/storage/memory"
	"github.com/ArenaX-Network/arena_layer/internal/errors"
)

var testPrices = map[string]float64{
	"USDT": 1,
	"NEO":  12.5,
	"GAS":  4,
	"ETH":  2000,
}

func newTestService(t *testing.T, rules competition.Rules) (*Service, *memory.Store, competition.Competition) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	c, err := store.CreateCompetition(ctx, competition.Competition{
		Name:   "Cup",
		Type:   competition.TypeSpot,
		Status: competition.StatusActive,
		Rules:  rules,
	})
	if err != nil {
		t.Fatalf("create competition: %v", err)
	}
	if _, err := store.AddParticipant(ctx, competition.Participant{
		CompetitionID: c.ID,
		AgentID:       "agent-1",
		JoinedAt:      time.Now(),
	}); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if _, err := store.UpsertBalance(ctx, trade.Balance{
		AgentID:       "agent-1",
		CompetitionID: c.ID,
		Token:         "USDT",
		Chain:         "neo",
		Amount:        10000,
	}); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	quoter := pricing.New(pricing.StaticSource(testPrices), nil, nil)
	return New(store, store, store, quoter, nil), store, c
}

func baseRules() competition.Rules {
	return competition.Rules{
		MinTradeAmount:        10,
		MaxTradePercentage:    25,
		MaxSlippagePercent:    5,
		RateLimitPerMinute:    60,
		CrossChainTradingType: competition.CrossChainDisallowXParent,
		StartingBalance:       10000,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func request(competitionID string) Request {
	return Request{
		AgentID:       "agent-1",
		CompetitionID: competitionID,
		FromToken:     "USDT",
		FromChain:     "neo",
		ToToken:       "NEO",
		ToChain:       "neo",
		Amount:        1000,
	}
}

func TestExecuteTrade(t *testing.T) {
	ctx := context.Background()
	svc, store, c := newTestService(t, baseRules())

	req := request(c.ID)
	req.Slippage = 1

	executed, err := svc.ExecuteTrade(ctx, req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if executed.Status != trade.StatusExecuted {
		t.Fatalf("unexpected status: %s", executed.Status)
	}
	// 1000 USDT at 12.5 USDT/NEO less 1% slippage.
	if !approx(executed.ToAmount, 79.2) {
		t.Fatalf("to amount = %v, want 79.2", executed.ToAmount)
	}

	from, err := store.GetBalance(ctx, "agent-1", c.ID, "USDT", "neo")
	if err != nil {
		t.Fatalf("get from balance: %v", err)
	}
	if from.Amount != 9000 {
		t.Fatalf("from balance = %v, want 9000", from.Amount)
	}
	to, err := store.GetBalance(ctx, "agent-1", c.ID, "NEO", "neo")
	if err != nil {
		t.Fatalf("get to balance: %v", err)
	}
	if !approx(to.Amount, 79.2) {
		t.Fatalf("to balance = %v, want 79.2", to.Amount)
	}

	history, err := svc.Trades(ctx, "agent-1", c.ID, 10)
	if err != nil {
		t.Fatalf("trades: %v", err)
	}
	if len(history) != 1 || history[0].Status != trade.StatusExecuted {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestExecuteTradeConstraints(t *testing.T) {
	ctx := context.Background()

	t.Run("below minimum", func(t *testing.T) {
		svc, _, c := newTestService(t, baseRules())
		req := request(c.ID)
		req.Amount = 5
		if _, err := svc.ExecuteTrade(ctx, req); errors.CodeOf(err) != errors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("exceeds portfolio percentage", func(t *testing.T) {
		svc, _, c := newTestService(t, baseRules())
		req := request(c.ID)
		req.Amount = 3000 // 30% of a 10000 portfolio, limit is 25%
		if _, err := svc.ExecuteTrade(ctx, req); errors.CodeOf(err) != errors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("slippage out of bounds", func(t *testing.T) {
		svc, _, c := newTestService(t, baseRules())
		req := request(c.ID)
		req.Slippage = 7.5
		if _, err := svc.ExecuteTrade(ctx, req); errors.CodeOf(err) != errors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("insufficient balance", func(t *testing.T) {
		rules := baseRules()
		rules.MaxTradePercentage = 0 // lift the percentage cap to reach the ledger check
		svc, store, c := newTestService(t, rules)
		if _, err := store.UpsertBalance(ctx, trade.Balance{
			AgentID: "agent-1", CompetitionID: c.ID, Token: "USDT", Chain: "neo", Amount: 100,
		}); err != nil {
			t.Fatalf("shrink balance: %v", err)
		}
		req := request(c.ID)
		req.Amount = 500
		if _, err := svc.ExecuteTrade(ctx, req); errors.CodeOf(err) != errors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("token not in allowlist", func(t *testing.T) {
		rules := baseRules()
		rules.AllowedTokens = map[string][]string{"neo": {"USDT", "GAS"}}
		svc, _, c := newTestService(t, rules)
		if _, err := svc.ExecuteTrade(ctx, request(c.ID)); errors.CodeOf(err) != errors.CodeForbidden {
			t.Fatalf("expected forbidden for disallowed token, got %v", err)
		}
	})
}

func TestExecuteTradeCrossChainRules(t *testing.T) {
	ctx := context.Background()

	crossChain := func(c competition.Competition) Request {
		req := request(c.ID)
		req.ToChain = "eth"
		req.ToToken = "ETH"
		return req
	}

	t.Run("disallowXParent blocks parent chain", func(t *testing.T) {
		svc, _, c := newTestService(t, baseRules())
		if _, err := svc.ExecuteTrade(ctx, crossChain(c)); errors.CodeOf(err) != errors.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("disallowAll blocks every cross-chain trade", func(t *testing.T) {
		rules := baseRules()
		rules.CrossChainTradingType = competition.CrossChainDisallowAll
		svc, _, c := newTestService(t, rules)
		if _, err := svc.ExecuteTrade(ctx, crossChain(c)); errors.CodeOf(err) != errors.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("allowAll permits cross-chain trades", func(t *testing.T) {
		rules := baseRules()
		rules.CrossChainTradingType = competition.CrossChainAllowAll
		svc, _, c := newTestService(t, rules)
		if _, err := svc.ExecuteTrade(ctx, crossChain(c)); err != nil {
			t.Fatalf("execute cross-chain: %v", err)
		}
	})
}

func TestExecuteTradeRateLimit(t *testing.T) {
	ctx := context.Background()
	rules := baseRules()
	rules.RateLimitPerMinute = 2
	svc, _, c := newTestService(t, rules)

	req := request(c.ID)
	req.Amount = 100
	for i := 0; i < 2; i++ {
		if _, err := svc.ExecuteTrade(ctx, req); err != nil {
			t.Fatalf("trade %d: %v", i+1, err)
		}
	}
	if _, err := svc.ExecuteTrade(ctx, req); errors.CodeOf(err) != errors.CodeRateLimited {
		t.Fatalf("expected rate limited, got %v", err)
	}
}

func TestExecuteTradeGating(t *testing.T) {
	ctx := context.Background()
	svc, store, c := newTestService(t, baseRules())

	t.Run("unknown competition", func(t *testing.T) {
		req := request("no-such-competition")
		if _, err := svc.ExecuteTrade(ctx, req); errors.CodeOf(err) != errors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("not a participant", func(t *testing.T) {
		req := request(c.ID)
		req.AgentID = "agent-2"
		if _, err := svc.ExecuteTrade(ctx, req); errors.CodeOf(err) != errors.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("competition not active", func(t *testing.T) {
		c.Status = competition.StatusEnded
		if _, err := store.UpdateCompetition(ctx, c); err != nil {
			t.Fatalf("end competition: %v", err)
		}
		if _, err := svc.ExecuteTrade(ctx, request(c.ID)); errors.CodeOf(err) != errors.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})
}

func TestRejectedTradesAppearInHistory(t *testing.T) {
	ctx := context.Background()
	svc, _, c := newTestService(t, baseRules())

	req := request(c.ID)
	req.Amount = 5 // below minimum
	if _, err := svc.ExecuteTrade(ctx, req); err == nil {
		t.Fatal("expected rejection")
	}

	history, err := svc.Trades(ctx, "agent-1", c.ID, 10)
	if err != nil {
		t.Fatalf("trades: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 rejected trade in history, got %d", len(history))
	}
	if history[0].Status != trade.StatusRejected || history[0].Error == "" {
		t.Fatalf("unexpected rejected trade: %+v", history[0])
	}
}

func TestPortfolio(t *testing.T) {
	ctx := context.Background()
	svc, store, c := newTestService(t, baseRules())

	if _, err := store.UpsertBalance(ctx, trade.Balance{
		AgentID: "agent-1", CompetitionID: c.ID, Token: "NEO", Chain: "neo", Amount: 40,
	}); err != nil {
		t.Fatalf("upsert balance: %v", err)
	}

	portfolio, err := svc.Portfolio(ctx, "agent-1", c.ID)
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}
	if portfolio.TotalValue != 10500 {
		t.Fatalf("total value = %v, want 10500", portfolio.TotalValue)
	}
	if len(portfolio.Tokens) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(portfolio.Tokens))
	}
}
