package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/agent"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/competition"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/perps"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/trade"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/user"
)

// ErrNotFound is returned by every store when the requested record does not
// exist. Implementations wrap it so callers can errors.Is against it.
var ErrNotFound = errors.New("record not found")

// ErrInsufficientBalance is returned by ApplyTrade when the debit side would
// go negative.
var ErrInsufficientBalance = errors.New("insufficient balance")

// UserStore persists platform users.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByWallet(ctx context.Context, walletAddress string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}

// SessionStore persists login sessions keyed by token hash.
type SessionStore interface {
	CreateSession(ctx context.Context, s user.Session) (user.Session, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (user.Session, error)
	TouchSession(ctx context.Context, id string, seenAt time.Time) error
	DeleteSession(ctx context.Context, id string) error
}

// AgentStore persists trading agents.
type AgentStore interface {
	CreateAgent(ctx context.Context, a agent.Agent) (agent.Agent, error)
	UpdateAgent(ctx context.Context, a agent.Agent) (agent.Agent, error)
	GetAgent(ctx context.Context, id string) (agent.Agent, error)
	GetAgentByAPIKeyHash(ctx context.Context, keyHash string) (agent.Agent, error)
	ListAgents(ctx context.Context, ownerID string) ([]agent.Agent, error)
}

// CompetitionStore persists competitions and their participant sets.
type CompetitionStore interface {
	CreateCompetition(ctx context.Context, c competition.Competition) (competition.Competition, error)
	UpdateCompetition(ctx context.Context, c competition.Competition) (competition.Competition, error)
	GetCompetition(ctx context.Context, id string) (competition.Competition, error)
	ListCompetitions(ctx context.Context, status competition.Status) ([]competition.Competition, error)

	AddParticipant(ctx context.Context, p competition.Participant) (competition.Participant, error)
	RemoveParticipant(ctx context.Context, competitionID, agentID string) error
	GetParticipant(ctx context.Context, competitionID, agentID string) (competition.Participant, error)
	ListParticipants(ctx context.Context, competitionID string) ([]competition.Participant, error)
}

// TradeStore persists executed trades.
type TradeStore interface {
	CreateTrade(ctx context.Context, t trade.Trade) (trade.Trade, error)
	ListTrades(ctx context.Context, agentID, competitionID string, limit int) ([]trade.Trade, error)
	CountTradesSince(ctx context.Context, agentID, competitionID string, since time.Time) (int, error)
}

// BalanceStore persists competition balances. ApplyTrade must atomically
// debit the from-side, credit the to-side and record the trade.
type BalanceStore interface {
	UpsertBalance(ctx context.Context, b trade.Balance) (trade.Balance, error)
	GetBalance(ctx context.Context, agentID, competitionID, token, chain string) (trade.Balance, error)
	ListBalances(ctx context.Context, agentID, competitionID string) ([]trade.Balance, error)
	ApplyTrade(ctx context.Context, t trade.Trade) (trade.Trade, error)
}

// PerpsStore persists synced positions and account summaries.
type PerpsStore interface {
	UpsertPosition(ctx context.Context, p perps.Position) (perps.Position, error)
	ListPositions(ctx context.Context, agentID, competitionID string) ([]perps.Position, error)
	CreateAccountSummary(ctx context.Context, s perps.AccountSummary) (perps.AccountSummary, error)
	LatestAccountSummary(ctx context.Context, agentID, competitionID string) (perps.AccountSummary, error)
}
