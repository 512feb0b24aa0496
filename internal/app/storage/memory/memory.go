package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/agent"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/competition"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/perps"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/trade"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/user"
	"github.com/ArenaX-Network/arena_layer/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	users         map[string]user.User
	usersByWallet map[string]string
	usersByEmail  map[string]string
	sessions      map[string]user.Session
	sessionByHash map[string]string

	agents          map[string]agent.Agent
	agentsByKeyHash map[string]string

	competitions map[string]competition.Competition
	participants map[string]map[string]competition.Participant // competitionID -> agentID

	trades   map[string][]trade.Trade // agentID|competitionID
	balances map[string]trade.Balance // agentID|competitionID|token|chain

	positions map[string]perps.Position             // agentID|competitionID|symbol
	summaries map[string][]perps.AccountSummary     // agentID|competitionID
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)
var _ storage.AgentStore = (*Store)(nil)
var _ storage.CompetitionStore = (*Store)(nil)
var _ storage.TradeStore = (*Store)(nil)
var _ storage.BalanceStore = (*Store)(nil)
var _ storage.PerpsStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:          1,
		users:           make(map[string]user.User),
		usersByWallet:   make(map[string]string),
		usersByEmail:    make(map[string]string),
		sessions:        make(map[string]user.Session),
		sessionByHash:   make(map[string]string),
		agents:          make(map[string]agent.Agent),
		agentsByKeyHash: make(map[string]string),
		competitions:    make(map[string]competition.Competition),
		participants:    make(map[string]map[string]competition.Participant),
		trades:          make(map[string][]trade.Trade),
		balances:        make(map[string]trade.Balance),
		positions:       make(map[string]perps.Position),
		summaries:       make(map[string][]perps.AccountSummary),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

func pairKey(parts ...string) string { return strings.Join(parts, "|") }

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = s.nextIDLocked()
	} else if _, exists := s.users[u.ID]; exists {
		return user.User{}, fmt.Errorf("user %s already exists", u.ID)
	}
	if u.WalletAddress != "" {
		if _, exists := s.usersByWallet[u.WalletAddress]; exists {
			return user.User{}, fmt.Errorf("wallet %s already registered", u.WalletAddress)
		}
	}
	if u.Email != "" {
		if _, exists := s.usersByEmail[strings.ToLower(u.Email)]; exists {
			return user.User{}, fmt.Errorf("email %s already registered", u.Email)
		}
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.Metadata = cloneMap(u.Metadata)

	s.users[u.ID] = u
	if u.WalletAddress != "" {
		s.usersByWallet[u.WalletAddress] = u.ID
	}
	if u.Email != "" {
		s.usersByEmail[strings.ToLower(u.Email)] = u.ID
	}
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", u.ID, storage.ErrNotFound)
	}

	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	u.Metadata = cloneMap(u.Metadata)

	if original.WalletAddress != u.WalletAddress {
		delete(s.usersByWallet, original.WalletAddress)
		if u.WalletAddress != "" {
			s.usersByWallet[u.WalletAddress] = u.ID
		}
	}
	if !strings.EqualFold(original.Email, u.Email) {
		delete(s.usersByEmail, strings.ToLower(original.Email))
		if u.Email != "" {
			s.usersByEmail[strings.ToLower(u.Email)] = u.ID
		}
	}

	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	u.Metadata = cloneMap(u.Metadata)
	return u, nil
}

func (s *Store) GetUserByWallet(ctx context.Context, walletAddress string) (user.User, error) {
	s.mu.RLock()
	id, ok := s.usersByWallet[walletAddress]
	s.mu.RUnlock()
	if !ok {
		return user.User{}, fmt.Errorf("wallet %s: %w", walletAddress, storage.ErrNotFound)
	}
	return s.GetUser(ctx, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	s.mu.RLock()
	id, ok := s.usersByEmail[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return user.User{}, fmt.Errorf("email %s: %w", email, storage.ErrNotFound)
	}
	return s.GetUser(ctx, id)
}

// SessionStore implementation -------------------------------------------------

func (s *Store) CreateSession(_ context.Context, sess user.Session) (user.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.LastSeenAt = now

	s.sessions[sess.ID] = sess
	s.sessionByHash[sess.TokenHash] = sess.ID
	return sess, nil
}

func (s *Store) GetSessionByTokenHash(_ context.Context, tokenHash string) (user.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.sessionByHash[tokenHash]
	if !ok {
		return user.Session{}, fmt.Errorf("session: %w", storage.ErrNotFound)
	}
	return s.sessions[id], nil
}

func (s *Store) TouchSession(_ context.Context, id string, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	sess.LastSeenAt = seenAt.UTC()
	s.sessions[id] = sess
	return nil
}

func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	delete(s.sessionByHash, sess.TokenHash)
	delete(s.sessions, id)
	return nil
}

// AgentStore implementation ---------------------------------------------------

func (s *Store) CreateAgent(_ context.Context, a agent.Agent) (agent.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = s.nextIDLocked()
	} else if _, exists := s.agents[a.ID]; exists {
		return agent.Agent{}, fmt.Errorf("agent %s already exists", a.ID)
	}
	if a.Status == "" {
		a.Status = agent.StatusActive
	}

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.Metadata = cloneMap(a.Metadata)

	s.agents[a.ID] = a
	if a.APIKeyHash != "" {
		s.agentsByKeyHash[a.APIKeyHash] = a.ID
	}
	return a, nil
}

func (s *Store) UpdateAgent(_ context.Context, a agent.Agent) (agent.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.agents[a.ID]
	if !ok {
		return agent.Agent{}, fmt.Errorf("agent %s: %w", a.ID, storage.ErrNotFound)
	}

	a.CreatedAt = original.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	a.Metadata = cloneMap(a.Metadata)

	if original.APIKeyHash != a.APIKeyHash {
		delete(s.agentsByKeyHash, original.APIKeyHash)
		if a.APIKeyHash != "" {
			s.agentsByKeyHash[a.APIKeyHash] = a.ID
		}
	}

	s.agents[a.ID] = a
	return a, nil
}

func (s *Store) GetAgent(_ context.Context, id string) (agent.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.agents[id]
	if !ok {
		return agent.Agent{}, fmt.Errorf("agent %s: %w", id, storage.ErrNotFound)
	}
	a.Metadata = cloneMap(a.Metadata)
	return a, nil
}

func (s *Store) GetAgentByAPIKeyHash(ctx context.Context, keyHash string) (agent.Agent, error) {
	s.mu.RLock()
	id, ok := s.agentsByKeyHash[keyHash]
	s.mu.RUnlock()
	if !ok {
		return agent.Agent{}, fmt.Errorf("api key: %w", storage.ErrNotFound)
	}
	return s.GetAgent(ctx, id)
}

func (s *Store) ListAgents(_ context.Context, ownerID string) ([]agent.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []agent.Agent
	for _, a := range s.agents {
		if ownerID == "" || a.OwnerID == ownerID {
			a.Metadata = cloneMap(a.Metadata)
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CompetitionStore implementation ---------------------------------------------

func (s *Store) CreateCompetition(_ context.Context, c competition.Competition) (competition.Competition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.nextIDLocked()
	} else if _, exists := s.competitions[c.ID]; exists {
		return competition.Competition{}, fmt.Errorf("competition %s already exists", c.ID)
	}
	if c.Status == "" {
		c.Status = competition.StatusPending
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	s.competitions[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCompetition(_ context.Context, c competition.Competition) (competition.Competition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.competitions[c.ID]
	if !ok {
		return competition.Competition{}, fmt.Errorf("competition %s: %w", c.ID, storage.ErrNotFound)
	}

	c.CreatedAt = original.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	s.competitions[c.ID] = c
	return c, nil
}

func (s *Store) GetCompetition(_ context.Context, id string) (competition.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.competitions[id]
	if !ok {
		return competition.Competition{}, fmt.Errorf("competition %s: %w", id, storage.ErrNotFound)
	}
	return c, nil
}

func (s *Store) ListCompetitions(_ context.Context, status competition.Status) ([]competition.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []competition.Competition
	for _, c := range s.competitions {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) AddParticipant(_ context.Context, p competition.Participant) (competition.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.competitions[p.CompetitionID]; !ok {
		return competition.Participant{}, fmt.Errorf("competition %s: %w", p.CompetitionID, storage.ErrNotFound)
	}
	set := s.participants[p.CompetitionID]
	if set == nil {
		set = make(map[string]competition.Participant)
		s.participants[p.CompetitionID] = set
	}
	if _, exists := set[p.AgentID]; exists {
		return competition.Participant{}, fmt.Errorf("agent %s already registered in competition %s", p.AgentID, p.CompetitionID)
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	set[p.AgentID] = p
	return p, nil
}

func (s *Store) RemoveParticipant(_ context.Context, competitionID, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.participants[competitionID]
	if _, ok := set[agentID]; !ok {
		return fmt.Errorf("participant %s/%s: %w", competitionID, agentID, storage.ErrNotFound)
	}
	delete(set, agentID)
	return nil
}

func (s *Store) GetParticipant(_ context.Context, competitionID, agentID string) (competition.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[competitionID][agentID]
	if !ok {
		return competition.Participant{}, fmt.Errorf("participant %s/%s: %w", competitionID, agentID, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) ListParticipants(_ context.Context, competitionID string) ([]competition.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.participants[competitionID]
	out := make([]competition.Participant, 0, len(set))
	for _, p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out, nil
}

// TradeStore implementation ---------------------------------------------------

func (s *Store) CreateTrade(_ context.Context, t trade.Trade) (trade.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createTradeLocked(t), nil
}

func (s *Store) createTradeLocked(t trade.Trade) trade.Trade {
	if t.ID == "" {
		t.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	if t.ExecutedAt.IsZero() {
		t.ExecutedAt = now
	}
	key := pairKey(t.AgentID, t.CompetitionID)
	s.trades[key] = append(s.trades[key], t)
	return t
}

func (s *Store) ListTrades(_ context.Context, agentID, competitionID string, limit int) ([]trade.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.trades[pairKey(agentID, competitionID)]
	out := make([]trade.Trade, len(all))
	copy(out, all)
	// Newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].ExecutedAt.After(out[j].ExecutedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CountTradesSince(_ context.Context, agentID, competitionID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, t := range s.trades[pairKey(agentID, competitionID)] {
		if !t.ExecutedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// BalanceStore implementation -------------------------------------------------

func (s *Store) UpsertBalance(_ context.Context, b trade.Balance) (trade.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.UpdatedAt = time.Now().UTC()
	s.balances[pairKey(b.AgentID, b.CompetitionID, b.Token, b.Chain)] = b
	return b, nil
}

func (s *Store) GetBalance(_ context.Context, agentID, competitionID, token, chain string) (trade.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.balances[pairKey(agentID, competitionID, token, chain)]
	if !ok {
		return trade.Balance{}, fmt.Errorf("balance %s/%s: %w", token, chain, storage.ErrNotFound)
	}
	return b, nil
}

func (s *Store) ListBalances(_ context.Context, agentID, competitionID string) ([]trade.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := pairKey(agentID, competitionID) + "|"
	var out []trade.Balance
	for key, b := range s.balances {
		if strings.HasPrefix(key, prefix) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Token != out[j].Token {
			return out[i].Token < out[j].Token
		}
		return out[i].Chain < out[j].Chain
	})
	return out, nil
}

func (s *Store) ApplyTrade(_ context.Context, t trade.Trade) (trade.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fromKey := pairKey(t.AgentID, t.CompetitionID, t.FromToken, t.FromChain)
	toKey := pairKey(t.AgentID, t.CompetitionID, t.ToToken, t.ToChain)

	from := s.balances[fromKey]
	if from.Amount < t.FromAmount {
		return trade.Trade{}, fmt.Errorf("%s on %s: %w", t.FromToken, t.FromChain, storage.ErrInsufficientBalance)
	}

	now := time.Now().UTC()
	from.AgentID, from.CompetitionID, from.Token, from.Chain = t.AgentID, t.CompetitionID, t.FromToken, t.FromChain
	from.Amount -= t.FromAmount
	from.UpdatedAt = now
	s.balances[fromKey] = from

	to := s.balances[toKey]
	to.AgentID, to.CompetitionID, to.Token, to.Chain = t.AgentID, t.CompetitionID, t.ToToken, t.ToChain
	to.Amount += t.ToAmount
	to.UpdatedAt = now
	s.balances[toKey] = to

	t.Status = trade.StatusExecuted
	return s.createTradeLocked(t), nil
}

// PerpsStore implementation ---------------------------------------------------

func (s *Store) UpsertPosition(_ context.Context, p perps.Position) (perps.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(p.AgentID, p.CompetitionID, p.Symbol)
	if existing, ok := s.positions[key]; ok {
		p.ID = existing.ID
	} else if p.ID == "" {
		p.ID = s.nextIDLocked()
	}
	if p.SyncedAt.IsZero() {
		p.SyncedAt = time.Now().UTC()
	}
	s.positions[key] = p
	return p, nil
}

func (s *Store) ListPositions(_ context.Context, agentID, competitionID string) ([]perps.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := pairKey(agentID, competitionID) + "|"
	var out []perps.Position
	for key, p := range s.positions {
		if strings.HasPrefix(key, prefix) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (s *Store) CreateAccountSummary(_ context.Context, sum perps.AccountSummary) (perps.AccountSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sum.ID == "" {
		sum.ID = s.nextIDLocked()
	}
	if sum.CapturedAt.IsZero() {
		sum.CapturedAt = time.Now().UTC()
	}
	key := pairKey(sum.AgentID, sum.CompetitionID)
	s.summaries[key] = append(s.summaries[key], sum)
	return sum, nil
}

func (s *Store) LatestAccountSummary(_ context.Context, agentID, competitionID string) (perps.AccountSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.summaries[pairKey(agentID, competitionID)]
	if len(all) == 0 {
		return perps.AccountSummary{}, fmt.Errorf("account summary %s/%s: %w", agentID, competitionID, storage.ErrNotFound)
	}
	latest := all[0]
	for _, sum := range all[1:] {
		if sum.CapturedAt.After(latest.CapturedAt) {
			latest = sum
		}
	}
	return latest, nil
}
