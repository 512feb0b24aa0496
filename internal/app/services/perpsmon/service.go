// Package perpsmon syncs perpetual-futures positions from an external
// provider into the store and schedules periodic monitoring passes over
// active perps competitions.
package perpsmon

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/competition"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/perps"
	"github.com/ArenaX-Network/arena_layer/internal/app/storage"
	"github.com/ArenaX-Network/arena_layer/internal/errors"
	"github.com/ArenaX-Network/arena_layer/pkg/logger"
)

// DefaultSelfFundingAlertThreshold flags accounts whose self-funding rate
// indicates the agent is propping up its own positions.
const DefaultSelfFundingAlertThreshold = 0.5

// Service syncs provider-side perps state into the store.
type Service struct {
	perps        storage.PerpsStore
	competitions storage.CompetitionStore
	agents       storage.AgentStore

	provider       Provider
	schema         Schema
	alertThreshold float64
	log            *logger.Logger
	now            func() time.Time
}

// New constructs a perps sync service.
func New(perpsStore storage.PerpsStore, competitions storage.CompetitionStore, agents storage.AgentStore, provider Provider, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("perps")
	}
	return &Service{
		perps:          perpsStore,
		competitions:   competitions,
		agents:         agents,
		provider:       provider,
		schema:         DefaultSchema(),
		alertThreshold: DefaultSelfFundingAlertThreshold,
		log:            log,
		now:            time.Now,
	}
}

// WithSchema overrides the provider payload schema.
func (s *Service) WithSchema(schema Schema) *Service {
	s.schema = schema
	return s
}

// SyncAgent fetches one agent's account from the provider and upserts its
// positions and account summary.
func (s *Service) SyncAgent(ctx context.Context, agentID, competitionID string) ([]perps.Position, perps.AccountSummary, error) {
	a, err := s.agents.GetAgent(ctx, agentID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, perps.AccountSummary{}, errors.NotFound("agent not found")
		}
		return nil, perps.AccountSummary{}, errors.Internal("get agent").WithCause(err)
	}
	if a.WalletAddress == "" {
		return nil, perps.AccountSummary{}, errors.Validation("agent has no wallet address to sync")
	}

	raw, err := s.provider.FetchAccount(ctx, a.WalletAddress)
	if err != nil {
		return nil, perps.AccountSummary{}, errors.Internal("fetch provider account").WithCause(err)
	}
	positions, summary, err := parseAccount(raw, s.schema)
	if err != nil {
		return nil, perps.AccountSummary{}, errors.Internal("parse provider account").WithCause(err)
	}

	syncedAt := s.now().UTC()
	stored := make([]perps.Position, 0, len(positions))
	for _, p := range positions {
		p.AgentID = agentID
		p.CompetitionID = competitionID
		p.SyncedAt = syncedAt
		upserted, err := s.perps.UpsertPosition(ctx, p)
		if err != nil {
			return nil, perps.AccountSummary{}, errors.Internal("upsert position").WithDetail("symbol %s", p.Symbol).WithCause(err)
		}
		stored = append(stored, upserted)
	}

	summary.AgentID = agentID
	summary.CompetitionID = competitionID
	summary.CapturedAt = syncedAt
	summary, err = s.perps.CreateAccountSummary(ctx, summary)
	if err != nil {
		return nil, perps.AccountSummary{}, errors.Internal("store account summary").WithCause(err)
	}

	if summary.SelfFundingRate > s.alertThreshold {
		s.log.WithFields(map[string]any{
			"agent_id":          agentID,
			"competition_id":    competitionID,
			"self_funding_rate": summary.SelfFundingRate,
		}).Warn("self-funding threshold exceeded")
	}
	return stored, summary, nil
}

// SyncCompetition runs SyncAgent over every non-disqualified participant.
// Per-agent failures are collected, not fatal; one stuck provider account
// must not stall the whole pass.
func (s *Service) SyncCompetition(ctx context.Context, competitionID string) (perps.SyncResult, error) {
	result := perps.SyncResult{
		CompetitionID: competitionID,
		StartedAt:     s.now().UTC(),
	}

	c, err := s.competitions.GetCompetition(ctx, competitionID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return result, errors.NotFound("competition not found")
		}
		return result, errors.Internal("get competition").WithCause(err)
	}
	if c.Type != competition.TypePerps {
		return result, errors.Validation("not a perps competition")
	}

	participants, err := s.competitions.ListParticipants(ctx, competitionID)
	if err != nil {
		return result, errors.Internal("list participants").WithCause(err)
	}

	for _, p := range participants {
		if p.Disqualified {
			continue
		}
		positions, _, err := s.SyncAgent(ctx, p.AgentID, competitionID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("agent %s: %v", p.AgentID, err))
			continue
		}
		result.AgentsSynced++
		result.PositionsUpserted += len(positions)
		result.SummariesCaptured++
	}

	result.FinishedAt = s.now().UTC()
	s.log.WithFields(map[string]any{
		"competition_id": competitionID,
		"agents":         result.AgentsSynced,
		"positions":      result.PositionsUpserted,
		"errors":         len(result.Errors),
	}).Info("perps sync pass complete")
	return result, nil
}

// Positions returns an agent's last-synced positions in a competition.
func (s *Service) Positions(ctx context.Context, agentID, competitionID string) ([]perps.Position, error) {
	list, err := s.perps.ListPositions(ctx, agentID, competitionID)
	if err != nil {
		return nil, errors.Internal("list positions").WithCause(err)
	}
	return list, nil
}

// AccountSummary returns an agent's most recent account snapshot.
func (s *Service) AccountSummary(ctx context.Context, agentID, competitionID string) (perps.AccountSummary, error) {
	summary, err := s.perps.LatestAccountSummary(ctx, agentID, competitionID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return perps.AccountSummary{}, errors.NotFound("no account summary captured yet")
		}
		return perps.AccountSummary{}, errors.Internal("get account summary").WithCause(err)
	}
	return summary, nil
}

// RiskMetrics derives leverage-adjusted risk figures from the latest
// snapshot. Equity-curve metrics over the full summary history are left to
// the analytics pipeline; this is the cheap per-request view.
type RiskMetrics struct {
	MarginUtilization float64 `json:"margin_utilization"`
	PnLToEquity       float64 `json:"pnl_to_equity"`
	SelfFundingRate   float64 `json:"self_funding_rate"`
	SelfFundingAlert  bool    `json:"self_funding_alert"`
}

// Risk computes RiskMetrics for an agent from its latest account summary.
func (s *Service) Risk(ctx context.Context, agentID, competitionID string) (RiskMetrics, error) {
	summary, err := s.AccountSummary(ctx, agentID, competitionID)
	if err != nil {
		return RiskMetrics{}, err
	}
	m := RiskMetrics{
		SelfFundingRate:  summary.SelfFundingRate,
		SelfFundingAlert: summary.SelfFundingRate > s.alertThreshold,
	}
	if summary.Equity > 0 {
		m.MarginUtilization = summary.MarginUsed / summary.Equity
		m.PnLToEquity = summary.UnrealizedPnL / summary.Equity
	}
	return m, nil
}
