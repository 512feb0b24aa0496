package competitions

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/agent"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/competition"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/trade"
	"github.com/ArenaX-Network/arena_layer/internal/app/services/pricing"
	"github.com/ArenaX-Network/arena_layer/internal/app/storage/memory"
	"github.com/ArenaX-Network/arena_layer/internal/cache"
	"github.com/ArenaX-Network/arena_layer/internal/errors"
)

var testRules = competition.Rules{
	MinTradeAmount:        10,
	MaxTradePercentage:    25,
	MaxSlippagePercent:    5,
	RateLimitPerMinute:    60,
	CrossChainTradingType: competition.CrossChainDisallowXParent,
	StartingBalance:       10000,
}

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	pricer := pricing.New(pricing.StaticSource(map[string]float64{
		"USDT/neo": 1,
		"NEO/neo":  12.5,
	}), nil, nil)
	return New(store, store, store, pricer, nil, testRules, nil), store
}

func newActiveAgent(t *testing.T, store *memory.Store, name string) agent.Agent {
	t.Helper()
	a, err := store.CreateAgent(context.Background(), agent.Agent{
		OwnerID: "owner-1",
		Name:    name,
		Status:  agent.StatusActive,
	})
	if err != nil {
		t.Fatalf("create agent: %v", err)
	}
	return a
}

func TestCreateAppliesDefaultRules(t *testing.T) {
	svc, _ := newTestService(t)

	c, err := svc.Create(context.Background(), competition.Competition{Name: "Summer Cup"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != competition.StatusPending {
		t.Fatalf("unexpected status: %s", c.Status)
	}
	if c.Rules.MinTradeAmount != 10 || c.Rules.StartingBalance != 10000 {
		t.Fatalf("defaults not applied: %+v", c.Rules)
	}
	if c.Rules.CrossChainTradingType != competition.CrossChainDisallowXParent {
		t.Fatalf("unexpected cross-chain type: %s", c.Rules.CrossChainTradingType)
	}

	if _, err := svc.Create(context.Background(), competition.Competition{}); errors.CodeOf(err) != errors.CodeValidation {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	c, err := svc.Create(ctx, competition.Competition{Name: "Cup"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.End(ctx, c.ID); errors.CodeOf(err) != errors.CodeConflict {
		t.Fatalf("expected conflict ending a pending competition, got %v", err)
	}

	started, err := svc.Start(ctx, c.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != competition.StatusActive || started.StartAt.IsZero() {
		t.Fatalf("unexpected started state: %+v", started)
	}
	if _, err := svc.Start(ctx, c.ID); errors.CodeOf(err) != errors.CodeConflict {
		t.Fatalf("expected conflict starting twice, got %v", err)
	}

	ended, err := svc.End(ctx, c.ID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Status != competition.StatusEnded || ended.EndAt.IsZero() {
		t.Fatalf("unexpected ended state: %+v", ended)
	}
}

func TestJoinSeedsStartingBalance(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	c, _ := svc.Create(ctx, competition.Competition{Name: "Cup"})
	a := newActiveAgent(t, store, "bot-1")

	if _, err := svc.Join(ctx, c.ID, a.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	b, err := store.GetBalance(ctx, a.ID, c.ID, BaseToken, BaseChain)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if b.Amount != 10000 {
		t.Fatalf("starting balance = %v, want 10000", b.Amount)
	}

	if _, err := svc.Join(ctx, c.ID, a.ID); errors.CodeOf(err) != errors.CodeConflict {
		t.Fatalf("expected conflict joining twice, got %v", err)
	}
}

func TestJoinEligibility(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	c, _ := svc.Create(ctx, competition.Competition{Name: "Cup", MaxParticipants: 1})
	a := newActiveAgent(t, store, "bot-1")

	suspended, _ := store.CreateAgent(ctx, agent.Agent{OwnerID: "owner-1", Name: "bot-2", Status: agent.StatusSuspended})
	if _, err := svc.Join(ctx, c.ID, suspended.ID); errors.CodeOf(err) != errors.CodeForbidden {
		t.Fatalf("expected forbidden for suspended agent, got %v", err)
	}

	if _, err := svc.Join(ctx, c.ID, "no-such-agent"); errors.CodeOf(err) != errors.CodeNotFound {
		t.Fatalf("expected not found for unknown agent, got %v", err)
	}

	if _, err := svc.Join(ctx, c.ID, a.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	overflow := newActiveAgent(t, store, "bot-3")
	if _, err := svc.Join(ctx, c.ID, overflow.ID); errors.CodeOf(err) != errors.CodeConflict {
		t.Fatalf("expected conflict for full competition, got %v", err)
	}
}

func TestJoinClosesAtStartUnlessSandbox(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	closed, _ := svc.Create(ctx, competition.Competition{Name: "Closed"})
	if _, err := svc.Start(ctx, closed.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	a := newActiveAgent(t, store, "bot-1")
	if _, err := svc.Join(ctx, closed.ID, a.ID); errors.CodeOf(err) != errors.CodeForbidden {
		t.Fatalf("expected forbidden joining a running competition, got %v", err)
	}

	sandbox, _ := svc.Create(ctx, competition.Competition{Name: "Sandbox", SandboxMode: true})
	if _, err := svc.Start(ctx, sandbox.ID); err != nil {
		t.Fatalf("start sandbox: %v", err)
	}
	if _, err := svc.Join(ctx, sandbox.ID, a.ID); err != nil {
		t.Fatalf("join sandbox mid-competition: %v", err)
	}
}

func TestLeave(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	c, _ := svc.Create(ctx, competition.Competition{Name: "Cup"})
	a := newActiveAgent(t, store, "bot-1")
	if _, err := svc.Join(ctx, c.ID, a.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := svc.Leave(ctx, c.ID, a.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := svc.Leave(ctx, c.ID, a.ID); errors.CodeOf(err) != errors.CodeNotFound {
		t.Fatalf("expected not found leaving twice, got %v", err)
	}
}

func TestLeaderboardRanksByPortfolioValue(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	c, _ := svc.Create(ctx, competition.Competition{Name: "Cup", SandboxMode: true})
	if _, err := svc.Start(ctx, c.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	leader := newActiveAgent(t, store, "leader")
	trailer := newActiveAgent(t, store, "trailer")
	for _, a := range []agent.Agent{leader, trailer} {
		if _, err := svc.Join(ctx, c.ID, a.ID); err != nil {
			t.Fatalf("join %s: %v", a.Name, err)
		}
	}

	// Give the leader 100 NEO on top of the seeded USDT.
	if _, err := store.UpsertBalance(ctx, trade.Balance{
		AgentID: leader.ID, CompetitionID: c.ID, Token: "NEO", Chain: "neo", Amount: 100,
	}); err != nil {
		t.Fatalf("upsert balance: %v", err)
	}

	entries, err := svc.Leaderboard(ctx, c.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].AgentID != leader.ID || entries[0].Rank != 1 {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[0].PortfolioValue != 11250 {
		t.Fatalf("leader value = %v, want 11250", entries[0].PortfolioValue)
	}
	if entries[0].PnL != 1250 || entries[0].PnLPercent != 12.5 {
		t.Fatalf("unexpected leader pnl: %+v", entries[0])
	}
	if entries[1].AgentID != trailer.ID || entries[1].PnL != 0 {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}

	if err := svc.Disqualify(ctx, c.ID, leader.ID); err != nil {
		t.Fatalf("disqualify: %v", err)
	}
	entries, err = svc.Leaderboard(ctx, c.ID)
	if err != nil {
		t.Fatalf("leaderboard after disqualification: %v", err)
	}
	if len(entries) != 1 || entries[0].AgentID != trailer.ID {
		t.Fatalf("disqualified agent still ranked: %+v", entries)
	}
}

func TestLeaderboardUsesCache(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	calls := 0
	pricer := pricing.SourceFunc(func(_ context.Context, token, chain string) (float64, error) {
		calls++
		return 1, nil
	})
	svc := New(store, store, store, pricer, cache.NewMemory(), testRules, nil)

	c, _ := svc.Create(ctx, competition.Competition{Name: "Cup"})
	a := newActiveAgent(t, store, "bot-1")
	if _, err := svc.Join(ctx, c.ID, a.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := svc.Leaderboard(ctx, c.ID); err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	first := calls
	if _, err := svc.Leaderboard(ctx, c.ID); err != nil {
		t.Fatalf("cached leaderboard: %v", err)
	}
	if calls != first {
		t.Fatalf("expected cached leaderboard, source called %d more times", calls-first)
	}
}

type captureArchiver struct {
	mu            sync.Mutex
	competitionID string
	snapshot      []byte
}

func (a *captureArchiver) ArchiveLeaderboard(_ context.Context, competitionID string, snapshot []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.competitionID = competitionID
	a.snapshot = append([]byte(nil), snapshot...)
	return nil
}

func TestEndArchivesFinalLeaderboard(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	arc := &captureArchiver{}
	svc.SetArchiver(arc)

	c, _ := svc.Create(ctx, competition.Competition{Name: "Cup", SandboxMode: true})
	if _, err := svc.Start(ctx, c.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	a := newActiveAgent(t, store, "bot-1")
	if _, err := svc.Join(ctx, c.ID, a.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := svc.End(ctx, c.ID); err != nil {
		t.Fatalf("end: %v", err)
	}
	svc.archiving.Wait()

	arc.mu.Lock()
	defer arc.mu.Unlock()
	if arc.competitionID != c.ID {
		t.Fatalf("archived competition %q, want %q", arc.competitionID, c.ID)
	}
	var entries []competition.LeaderboardEntry
	if err := json.Unmarshal(arc.snapshot, &entries); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(entries) != 1 || entries[0].AgentID != a.ID {
		t.Fatalf("unexpected snapshot: %+v", entries)
	}
}
