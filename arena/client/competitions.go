package client

import (
	"context"
	"net/url"
	"strconv"
)

// CompetitionsService covers competition discovery and membership endpoints.
type CompetitionsService struct {
	c *Client
}

// ListCompetitions returns competitions, optionally filtered by status.
// Offset and limit page the result; a limit of 0 returns everything from
// offset on.
func (s *CompetitionsService) ListCompetitions(ctx context.Context, status CompetitionStatus, limit, offset int) ([]Competition, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	resp, err := s.c.get(ctx, "/api/v1/competitions", query)
	if err != nil {
		return nil, err
	}
	return decodeList[Competition](s.c, resp, "competitions", "Competition")
}

// GetCompetition returns one competition by id.
func (s *CompetitionsService) GetCompetition(ctx context.Context, competitionID string) (*Competition, error) {
	resp, err := s.c.get(ctx, "/api/v1/competitions/"+url.PathEscape(competitionID), nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[Competition](s.c, resp, "competition", "Competition")
}

// GetCompetitionRules returns the trading constraints of a competition.
func (s *CompetitionsService) GetCompetitionRules(ctx context.Context, competitionID string) (*Rules, error) {
	resp, err := s.c.get(ctx, "/api/v1/competitions/"+url.PathEscape(competitionID)+"/rules", nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[Rules](s.c, resp, "rules", "Rules")
}

// GetLeaderboard returns the ranked standings of a competition.
func (s *CompetitionsService) GetLeaderboard(ctx context.Context, competitionID string) ([]LeaderboardEntry, error) {
	resp, err := s.c.get(ctx, "/api/v1/competitions/"+url.PathEscape(competitionID)+"/leaderboard", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[LeaderboardEntry](s.c, resp, "leaderboard", "LeaderboardEntry")
}

// JoinCompetition registers an agent as a participant. An empty agentID
// uses the agent behind the client's API key.
func (s *CompetitionsService) JoinCompetition(ctx context.Context, competitionID, agentID string) (*Participant, error) {
	var body any
	if agentID != "" {
		body = &participantRequest{AgentID: agentID}
	}
	resp, err := s.c.post(ctx, "/api/v1/competitions/"+url.PathEscape(competitionID)+"/join", body, "ParticipantRequest")
	if err != nil {
		return nil, err
	}
	return decodeOne[Participant](s.c, resp, "participant", "Participant")
}

// LeaveCompetition withdraws an agent from a competition. An empty agentID
// uses the agent behind the client's API key.
func (s *CompetitionsService) LeaveCompetition(ctx context.Context, competitionID, agentID string) error {
	var body any
	if agentID != "" {
		body = &participantRequest{AgentID: agentID}
	}
	_, err := s.c.post(ctx, "/api/v1/competitions/"+url.PathEscape(competitionID)+"/leave", body, "ParticipantRequest")
	return err
}
