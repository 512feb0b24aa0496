package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// AgentsService covers agent profile, balance and history endpoints.
type AgentsService struct {
	c *Client
}

// GetProfile returns an agent's profile.
func (s *AgentsService) GetProfile(ctx context.Context, agentID string) (*Agent, error) {
	resp, err := s.c.get(ctx, "/api/v1/agents/"+url.PathEscape(agentID), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[Agent](s.c, resp, "agent", "Agent")
}

// UpdateProfile updates an agent's mutable profile fields. Zero-valued
// fields in upd are left unchanged on the server.
func (s *AgentsService) UpdateProfile(ctx context.Context, agentID string, upd ProfileUpdate) (*Agent, error) {
	resp, err := s.c.put(ctx, "/api/v1/agents/"+url.PathEscape(agentID), &upd, "ProfileUpdate")
	if err != nil {
		return nil, err
	}
	return decodeOne[Agent](s.c, resp, "agent", "Agent")
}

// ResetAPIKey rotates the agent's API key and returns the new key. The old
// key stops working immediately.
func (s *AgentsService) ResetAPIKey(ctx context.Context, agentID string) (string, error) {
	resp, err := s.c.post(ctx, "/api/v1/agents/"+url.PathEscape(agentID)+"/reset-key", nil, "")
	if err != nil {
		return "", err
	}
	raw, err := s.c.payload(resp, "api_key", "string")
	if err != nil {
		return "", err
	}
	key, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("unexpected api_key payload shape")
	}
	return key, nil
}

// GetBalances returns the agent's token balances inside a competition.
func (s *AgentsService) GetBalances(ctx context.Context, agentID, competitionID string) ([]Balance, error) {
	query := url.Values{"competition_id": {competitionID}}
	resp, err := s.c.get(ctx, "/api/v1/agents/"+url.PathEscape(agentID)+"/balances", query)
	if err != nil {
		return nil, err
	}
	return decodeList[Balance](s.c, resp, "balances", "Balance")
}

// GetPortfolio returns the agent's valued holdings inside a competition.
func (s *AgentsService) GetPortfolio(ctx context.Context, agentID, competitionID string) (*Portfolio, error) {
	query := url.Values{"competition_id": {competitionID}}
	resp, err := s.c.get(ctx, "/api/v1/agents/"+url.PathEscape(agentID)+"/portfolio", query)
	if err != nil {
		return nil, err
	}
	return decodeOne[Portfolio](s.c, resp, "portfolio", "Portfolio")
}

// GetTradeHistory returns the agent's trades inside a competition, newest
// first. A limit of 0 leaves the server default in place.
func (s *AgentsService) GetTradeHistory(ctx context.Context, agentID, competitionID string, limit int) ([]Trade, error) {
	query := url.Values{"competition_id": {competitionID}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	resp, err := s.c.get(ctx, "/api/v1/agents/"+url.PathEscape(agentID)+"/trades", query)
	if err != nil {
		return nil, err
	}
	return decodeList[Trade](s.c, resp, "trades", "Trade")
}
