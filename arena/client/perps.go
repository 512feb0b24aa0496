package client

import (
	"context"
	"net/url"
)

// PerpsService covers perps position and account monitoring endpoints.
// The server returns 404 for every call when the perps monitor is disabled.
type PerpsService struct {
	c *Client
}

// GetPositions returns the agent's synced perps positions in a competition.
func (s *PerpsService) GetPositions(ctx context.Context, competitionID, agentID string) ([]Position, error) {
	query := url.Values{"agent_id": {agentID}}
	resp, err := s.c.get(ctx, "/api/v1/competitions/"+url.PathEscape(competitionID)+"/perps/positions", query)
	if err != nil {
		return nil, err
	}
	return decodeList[Position](s.c, resp, "positions", "Position")
}

// GetAccountSummary returns the latest captured perps account snapshot.
func (s *PerpsService) GetAccountSummary(ctx context.Context, competitionID, agentID string) (*AccountSummary, error) {
	query := url.Values{"agent_id": {agentID}}
	resp, err := s.c.get(ctx, "/api/v1/competitions/"+url.PathEscape(competitionID)+"/perps/summary", query)
	if err != nil {
		return nil, err
	}
	return decodeOne[AccountSummary](s.c, resp, "summary", "AccountSummary")
}

// GetRisk returns derived risk figures for the agent's perps account.
func (s *PerpsService) GetRisk(ctx context.Context, competitionID, agentID string) (*RiskMetrics, error) {
	query := url.Values{"agent_id": {agentID}}
	resp, err := s.c.get(ctx, "/api/v1/competitions/"+url.PathEscape(competitionID)+"/perps/risk", query)
	if err != nil {
		return nil, err
	}
	return decodeOne[RiskMetrics](s.c, resp, "risk", "RiskMetrics")
}

// SyncCompetition forces an immediate sync pass over every participant.
// Requires a user session, not an agent API key.
func (s *PerpsService) SyncCompetition(ctx context.Context, competitionID string) (*SyncResult, error) {
	resp, err := s.c.post(ctx, "/api/v1/competitions/"+url.PathEscape(competitionID)+"/perps/sync", nil, "")
	if err != nil {
		return nil, err
	}
	return decodeOne[SyncResult](s.c, resp, "result", "SyncResult")
}
