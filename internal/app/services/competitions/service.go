package competitions

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/agent"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/competition"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/trade"
	"github.com/ArenaX-Network/arena_layer/internal/app/storage"
	"github.com/ArenaX-Network/arena_layer/internal/cache"
	"github.com/ArenaX-Network/arena_layer/internal/errors"
	"github.com/ArenaX-Network/arena_layer/pkg/logger"
)

// Starting balances are seeded in the quote currency on the parent chain.
const (
	BaseToken = "USDT"
	BaseChain = "neo"
)

const leaderboardTTL = 10 * time.Second

// Pricer values a token holding. Satisfied by the pricing service.
type Pricer interface {
	Price(ctx context.Context, token, chain string) (float64, error)
}

// Archiver persists a final leaderboard snapshot when a competition ends.
// Satisfied by the on-chain bucket archiver.
type Archiver interface {
	ArchiveLeaderboard(ctx context.Context, competitionID string, snapshot []byte) error
}

// archiveTimeout bounds the snapshot write; on-chain writes wait for the
// transaction's application log.
const archiveTimeout = 3 * time.Minute

// Service manages the competition lifecycle, participant registration and
// leaderboards.
type Service struct {
	competitions storage.CompetitionStore
	agents       storage.AgentStore
	balances     storage.BalanceStore

	pricer       Pricer
	cache        cache.Cache
	archiver     Archiver
	defaultRules competition.Rules
	log          *logger.Logger
	now          func() time.Time

	archiving sync.WaitGroup
}

// SetArchiver enables leaderboard archival on competition end. Call before
// the service starts handling requests.
func (s *Service) SetArchiver(a Archiver) { s.archiver = a }

// New constructs a competitions service. A nil cache disables leaderboard
// caching.
func New(competitions storage.CompetitionStore, agents storage.AgentStore, balances storage.BalanceStore, pricer Pricer, c cache.Cache, defaultRules competition.Rules, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("competitions")
	}
	return &Service{
		competitions: competitions,
		agents:       agents,
		balances:     balances,
		pricer:       pricer,
		cache:        c,
		defaultRules: defaultRules,
		log:          log,
		now:          time.Now,
	}
}

// Create registers a new competition in pending state. Zero-valued rule
// fields fall back to the platform defaults.
func (s *Service) Create(ctx context.Context, c competition.Competition) (competition.Competition, error) {
	if strings.TrimSpace(c.Name) == "" {
		return competition.Competition{}, errors.Validation("competition name is required")
	}
	if c.Type == "" {
		c.Type = competition.TypeSpot
	}
	if c.Type != competition.TypeSpot && c.Type != competition.TypePerps {
		return competition.Competition{}, errors.Validation("unknown competition type")
	}
	if !c.StartAt.IsZero() && !c.EndAt.IsZero() && !c.EndAt.After(c.StartAt) {
		return competition.Competition{}, errors.Validation("end time must be after start time")
	}

	c.Status = competition.StatusPending
	c.Rules = mergeRules(c.Rules, s.defaultRules)

	created, err := s.competitions.CreateCompetition(ctx, c)
	if err != nil {
		return competition.Competition{}, errors.Internal("create competition").WithCause(err)
	}
	s.log.WithFields(map[string]any{"competition_id": created.ID, "type": created.Type}).Info("competition created")
	return created, nil
}

// Get returns one competition.
func (s *Service) Get(ctx context.Context, id string) (competition.Competition, error) {
	c, err := s.competitions.GetCompetition(ctx, id)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return competition.Competition{}, errors.NotFound("competition not found")
		}
		return competition.Competition{}, errors.Internal("get competition").WithCause(err)
	}
	return c, nil
}

// List returns competitions, optionally filtered by status.
func (s *Service) List(ctx context.Context, status competition.Status) ([]competition.Competition, error) {
	list, err := s.competitions.ListCompetitions(ctx, status)
	if err != nil {
		return nil, errors.Internal("list competitions").WithCause(err)
	}
	return list, nil
}

// Rules returns the constraint rules of one competition.
func (s *Service) Rules(ctx context.Context, id string) (competition.Rules, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return competition.Rules{}, err
	}
	return c.Rules, nil
}

// Start moves a pending competition to active.
func (s *Service) Start(ctx context.Context, id string) (competition.Competition, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return competition.Competition{}, err
	}
	if c.Status != competition.StatusPending {
		return competition.Competition{}, errors.Conflict("competition is not pending")
	}
	c.Status = competition.StatusActive
	if c.StartAt.IsZero() {
		c.StartAt = s.now().UTC()
	}
	updated, err := s.competitions.UpdateCompetition(ctx, c)
	if err != nil {
		return competition.Competition{}, errors.Internal("start competition").WithCause(err)
	}
	s.log.WithField("competition_id", id).Info("competition started")
	return updated, nil
}

// End moves an active competition to ended.
func (s *Service) End(ctx context.Context, id string) (competition.Competition, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return competition.Competition{}, err
	}
	if c.Status != competition.StatusActive {
		return competition.Competition{}, errors.Conflict("competition is not active")
	}
	c.Status = competition.StatusEnded
	c.EndAt = s.now().UTC()
	updated, err := s.competitions.UpdateCompetition(ctx, c)
	if err != nil {
		return competition.Competition{}, errors.Internal("end competition").WithCause(err)
	}
	s.log.WithField("competition_id", id).Info("competition ended")
	if s.archiver != nil {
		s.archiving.Add(1)
		go s.archiveFinalStandings(id)
	}
	return updated, nil
}

// archiveFinalStandings snapshots the final leaderboard after a competition
// ends. Archival is best effort and must not delay the end request.
func (s *Service) archiveFinalStandings(competitionID string) {
	defer s.archiving.Done()
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	entries, err := s.Leaderboard(ctx, competitionID)
	if err != nil {
		s.log.WithError(err).WithField("competition_id", competitionID).Warn("compute final leaderboard")
		return
	}
	snapshot, err := json.Marshal(entries)
	if err != nil {
		s.log.WithError(err).WithField("competition_id", competitionID).Warn("encode final leaderboard")
		return
	}
	if err := s.archiver.ArchiveLeaderboard(ctx, competitionID, snapshot); err != nil {
		s.log.WithError(err).WithField("competition_id", competitionID).Warn("archive final leaderboard")
		return
	}
	s.log.WithField("competition_id", competitionID).Info("final leaderboard archived")
}

// Join registers an agent in a competition and seeds its starting balance.
func (s *Service) Join(ctx context.Context, competitionID, agentID string) (competition.Participant, error) {
	c, err := s.Get(ctx, competitionID)
	if err != nil {
		return competition.Participant{}, err
	}
	if !c.JoinableAt(s.now()) {
		return competition.Participant{}, errors.Forbidden("competition is closed to new participants")
	}

	a, err := s.agents.GetAgent(ctx, agentID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return competition.Participant{}, errors.NotFound("agent not found")
		}
		return competition.Participant{}, errors.Internal("get agent").WithCause(err)
	}
	if a.Status != agent.StatusActive {
		return competition.Participant{}, errors.Forbidden("agent is not active")
	}

	if _, err := s.competitions.GetParticipant(ctx, competitionID, agentID); err == nil {
		return competition.Participant{}, errors.Conflict("agent already registered")
	} else if !stderrors.Is(err, storage.ErrNotFound) {
		return competition.Participant{}, errors.Internal("get participant").WithCause(err)
	}

	if c.MaxParticipants > 0 {
		existing, err := s.competitions.ListParticipants(ctx, competitionID)
		if err != nil {
			return competition.Participant{}, errors.Internal("list participants").WithCause(err)
		}
		if len(existing) >= c.MaxParticipants {
			return competition.Participant{}, errors.Conflict("competition is full")
		}
	}

	p, err := s.competitions.AddParticipant(ctx, competition.Participant{
		CompetitionID: competitionID,
		AgentID:       agentID,
		JoinedAt:      s.now().UTC(),
	})
	if err != nil {
		return competition.Participant{}, errors.Internal("add participant").WithCause(err)
	}

	if c.Rules.StartingBalance > 0 {
		seed := trade.Balance{
			AgentID:       agentID,
			CompetitionID: competitionID,
			Token:         BaseToken,
			Chain:         BaseChain,
			Amount:        c.Rules.StartingBalance,
		}
		if _, err := s.balances.UpsertBalance(ctx, seed); err != nil {
			return competition.Participant{}, errors.Internal("seed starting balance").WithCause(err)
		}
	}

	s.invalidateLeaderboard(ctx, competitionID)
	s.log.WithFields(map[string]any{"competition_id": competitionID, "agent_id": agentID}).Info("agent joined")
	return p, nil
}

// Leave withdraws an agent from a competition that has not ended.
func (s *Service) Leave(ctx context.Context, competitionID, agentID string) error {
	c, err := s.Get(ctx, competitionID)
	if err != nil {
		return err
	}
	if c.Status == competition.StatusEnded {
		return errors.Forbidden("competition has ended")
	}
	if err := s.competitions.RemoveParticipant(ctx, competitionID, agentID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("agent is not registered")
		}
		return errors.Internal("remove participant").WithCause(err)
	}
	s.invalidateLeaderboard(ctx, competitionID)
	return nil
}

// Disqualify marks a participant as disqualified. The agent's trades stop
// counting and it cannot rejoin.
func (s *Service) Disqualify(ctx context.Context, competitionID, agentID string) error {
	p, err := s.competitions.GetParticipant(ctx, competitionID, agentID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("agent is not registered")
		}
		return errors.Internal("get participant").WithCause(err)
	}
	if err := s.competitions.RemoveParticipant(ctx, competitionID, agentID); err != nil {
		return errors.Internal("remove participant").WithCause(err)
	}
	p.Disqualified = true
	if _, err := s.competitions.AddParticipant(ctx, p); err != nil {
		return errors.Internal("update participant").WithCause(err)
	}
	s.invalidateLeaderboard(ctx, competitionID)
	s.log.WithFields(map[string]any{"competition_id": competitionID, "agent_id": agentID}).Warn("agent disqualified")
	return nil
}

// Leaderboard ranks participants by current portfolio value. Results are
// cached briefly because valuation hits the price source per holding.
func (s *Service) Leaderboard(ctx context.Context, competitionID string) ([]competition.LeaderboardEntry, error) {
	cacheKey := "leaderboard:" + competitionID
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []competition.LeaderboardEntry
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}

	c, err := s.Get(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	participants, err := s.competitions.ListParticipants(ctx, competitionID)
	if err != nil {
		return nil, errors.Internal("list participants").WithCause(err)
	}

	entries := make([]competition.LeaderboardEntry, 0, len(participants))
	for _, p := range participants {
		if p.Disqualified {
			continue
		}
		value, err := s.portfolioValue(ctx, p.AgentID, competitionID)
		if err != nil {
			return nil, err
		}
		entry := competition.LeaderboardEntry{
			AgentID:        p.AgentID,
			PortfolioValue: value,
			PnL:            value - c.Rules.StartingBalance,
		}
		if a, err := s.agents.GetAgent(ctx, p.AgentID); err == nil {
			entry.AgentName = a.Name
		}
		if c.Rules.StartingBalance > 0 {
			entry.PnLPercent = entry.PnL / c.Rules.StartingBalance * 100
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PortfolioValue > entries[j].PortfolioValue
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if s.cache != nil {
		if raw, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, leaderboardTTL); err != nil {
				s.log.WithError(err).Warn("cache leaderboard")
			}
		}
	}
	return entries, nil
}

func (s *Service) portfolioValue(ctx context.Context, agentID, competitionID string) (float64, error) {
	balances, err := s.balances.ListBalances(ctx, agentID, competitionID)
	if err != nil {
		return 0, errors.Internal("list balances").WithCause(err)
	}
	total := 0.0
	for _, b := range balances {
		price, err := s.pricer.Price(ctx, b.Token, b.Chain)
		if err != nil {
			return 0, errors.Internal("value holding").WithDetail("%s/%s", b.Token, b.Chain).WithCause(err)
		}
		total += b.Amount * price
	}
	return total, nil
}

func (s *Service) invalidateLeaderboard(ctx context.Context, competitionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, "leaderboard:"+competitionID); err != nil && !stderrors.Is(err, cache.ErrMiss) {
		s.log.WithError(err).Warn("invalidate leaderboard cache")
	}
}

// mergeRules fills zero-valued fields of r from defaults.
func mergeRules(r, defaults competition.Rules) competition.Rules {
	if r.MinTradeAmount <= 0 {
		r.MinTradeAmount = defaults.MinTradeAmount
	}
	if r.MaxTradePercentage <= 0 {
		r.MaxTradePercentage = defaults.MaxTradePercentage
	}
	if r.MaxSlippagePercent <= 0 {
		r.MaxSlippagePercent = defaults.MaxSlippagePercent
	}
	if r.RateLimitPerMinute <= 0 {
		r.RateLimitPerMinute = defaults.RateLimitPerMinute
	}
	if r.CrossChainTradingType == "" {
		r.CrossChainTradingType = defaults.CrossChainTradingType
	}
	if len(r.AllowedTokens) == 0 {
		r.AllowedTokens = defaults.AllowedTokens
	}
	if r.StartingBalance <= 0 {
		r.StartingBalance = defaults.StartingBalance
	}
	return r
}
