// Package postgres implements the storage interfaces on PostgreSQL via sqlx.
// Schema migrations live in internal/database.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/agent"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/competition"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/perps"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/trade"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/user"
	"github.com/ArenaX-Network/arena_layer/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)
var _ storage.AgentStore = (*Store)(nil)
var _ storage.CompetitionStore = (*Store)(nil)
var _ storage.TradeStore = (*Store)(nil)
var _ storage.BalanceStore = (*Store)(nil)
var _ storage.PerpsStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database and verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return New(db), nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return err
}

// --- UserStore ---------------------------------------------------------------

type userRow struct {
	ID            string         `db:"id"`
	Email         sql.NullString `db:"email"`
	WalletAddress sql.NullString `db:"wallet_address"`
	PasswordHash  sql.NullString `db:"password_hash"`
	Nonce         sql.NullString `db:"nonce"`
	VerifyCode    sql.NullString `db:"verify_code"`
	EmailVerified bool           `db:"email_verified"`
	Metadata      []byte         `db:"metadata"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r userRow) toDomain() (user.User, error) {
	u := user.User{
		ID:            r.ID,
		Email:         r.Email.String,
		WalletAddress: r.WalletAddress.String,
		PasswordHash:  r.PasswordHash.String,
		Nonce:         r.Nonce.String,
		VerifyCode:    r.VerifyCode.String,
		EmailVerified: r.EmailVerified,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &u.Metadata); err != nil {
			return user.User{}, fmt.Errorf("decode user metadata: %w", err)
		}
	}
	return u, nil
}

const userColumns = `id, email, wallet_address, password_hash, nonce, verify_code, email_verified, metadata, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	metadataJSON, err := json.Marshal(u.Metadata)
	if err != nil {
		return user.User{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, wallet_address, password_hash, nonce, verify_code, email_verified, metadata, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10)
	`, u.ID, u.Email, u.WalletAddress, u.PasswordHash, u.Nonce, u.VerifyCode, u.EmailVerified, metadataJSON, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	existing, err := s.GetUser(ctx, u.ID)
	if err != nil {
		return user.User{}, err
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	metadataJSON, err := json.Marshal(u.Metadata)
	if err != nil {
		return user.User{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email = NULLIF($2, ''), wallet_address = NULLIF($3, ''), password_hash = NULLIF($4, ''),
		    nonce = NULLIF($5, ''), verify_code = NULLIF($6, ''), email_verified = $7, metadata = $8, updated_at = $9
		WHERE id = $1
	`, u.ID, u.Email, u.WalletAddress, u.PasswordHash, u.Nonce, u.VerifyCode, u.EmailVerified, metadataJSON, u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, fmt.Errorf("user %s: %w", u.ID, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) getUserWhere(ctx context.Context, what, where string, arg any) (user.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	if err != nil {
		return user.User{}, notFound(err, what)
	}
	return row.toDomain()
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	return s.getUserWhere(ctx, "user "+id, "id = $1", id)
}

func (s *Store) GetUserByWallet(ctx context.Context, walletAddress string) (user.User, error) {
	return s.getUserWhere(ctx, "wallet "+walletAddress, "wallet_address = $1", walletAddress)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.getUserWhere(ctx, "email "+email, "lower(email) = lower($1)", email)
}

// --- SessionStore ------------------------------------------------------------

func (s *Store) CreateSession(ctx context.Context, sess user.Session) (user.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.LastSeenAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sess.ID, sess.UserID, sess.TokenHash, sess.ExpiresAt, sess.CreatedAt, sess.LastSeenAt)
	if err != nil {
		return user.Session{}, err
	}
	return sess, nil
}

func (s *Store) GetSessionByTokenHash(ctx context.Context, tokenHash string) (user.Session, error) {
	var sess user.Session
	err := s.db.QueryRowxContext(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at, last_seen_at
		FROM sessions WHERE token_hash = $1
	`, tokenHash).Scan(&sess.ID, &sess.UserID, &sess.TokenHash, &sess.ExpiresAt, &sess.CreatedAt, &sess.LastSeenAt)
	if err != nil {
		return user.Session{}, notFound(err, "session")
	}
	return sess, nil
}

func (s *Store) TouchSession(ctx context.Context, id string, seenAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `UPDATE sessions SET last_seen_at = $2 WHERE id = $1`, id, seenAt.UTC())
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// --- AgentStore --------------------------------------------------------------

type agentRow struct {
	ID            string         `db:"id"`
	OwnerID       string         `db:"owner_id"`
	Name          string         `db:"name"`
	WalletAddress sql.NullString `db:"wallet_address"`
	APIKeyHash    sql.NullString `db:"api_key_hash"`
	Status        string         `db:"status"`
	Description   sql.NullString `db:"description"`
	Metadata      []byte         `db:"metadata"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r agentRow) toDomain() (agent.Agent, error) {
	a := agent.Agent{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		Name:          r.Name,
		WalletAddress: r.WalletAddress.String,
		APIKeyHash:    r.APIKeyHash.String,
		Status:        agent.Status(r.Status),
		Description:   r.Description.String,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &a.Metadata); err != nil {
			return agent.Agent{}, fmt.Errorf("decode agent metadata: %w", err)
		}
	}
	return a, nil
}

const agentColumns = `id, owner_id, name, wallet_address, api_key_hash, status, description, metadata, created_at, updated_at`

func (s *Store) CreateAgent(ctx context.Context, a agent.Agent) (agent.Agent, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = agent.StatusActive
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	metadataJSON, err := json.Marshal(a.Metadata)
	if err != nil {
		return agent.Agent{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agents (id, owner_id, name, wallet_address, api_key_hash, status, description, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''), $8, $9, $10)
	`, a.ID, a.OwnerID, a.Name, a.WalletAddress, a.APIKeyHash, a.Status, a.Description, metadataJSON, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return agent.Agent{}, err
	}
	return a, nil
}

func (s *Store) UpdateAgent(ctx context.Context, a agent.Agent) (agent.Agent, error) {
	existing, err := s.GetAgent(ctx, a.ID)
	if err != nil {
		return agent.Agent{}, err
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now().UTC()

	metadataJSON, err := json.Marshal(a.Metadata)
	if err != nil {
		return agent.Agent{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE agents
		SET name = $2, wallet_address = NULLIF($3, ''), api_key_hash = NULLIF($4, ''),
		    status = $5, description = NULLIF($6, ''), metadata = $7, updated_at = $8
		WHERE id = $1
	`, a.ID, a.Name, a.WalletAddress, a.APIKeyHash, a.Status, a.Description, metadataJSON, a.UpdatedAt)
	if err != nil {
		return agent.Agent{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return agent.Agent{}, fmt.Errorf("agent %s: %w", a.ID, storage.ErrNotFound)
	}
	return a, nil
}

func (s *Store) GetAgent(ctx context.Context, id string) (agent.Agent, error) {
	var row agentRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id); err != nil {
		return agent.Agent{}, notFound(err, "agent "+id)
	}
	return row.toDomain()
}

func (s *Store) GetAgentByAPIKeyHash(ctx context.Context, keyHash string) (agent.Agent, error) {
	var row agentRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+agentColumns+` FROM agents WHERE api_key_hash = $1`, keyHash); err != nil {
		return agent.Agent{}, notFound(err, "api key")
	}
	return row.toDomain()
}

func (s *Store) ListAgents(ctx context.Context, ownerID string) ([]agent.Agent, error) {
	var rows []agentRow
	var err error
	if ownerID == "" {
		err = s.db.SelectContext(ctx, &rows, `SELECT `+agentColumns+` FROM agents ORDER BY created_at`)
	} else {
		err = s.db.SelectContext(ctx, &rows, `SELECT `+agentColumns+` FROM agents WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	}
	if err != nil {
		return nil, err
	}
	out := make([]agent.Agent, 0, len(rows))
	for _, r := range rows {
		a, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// --- CompetitionStore --------------------------------------------------------

type competitionRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	Description     sql.NullString `db:"description"`
	Type            string         `db:"type"`
	Status          string         `db:"status"`
	SandboxMode     bool           `db:"sandbox_mode"`
	Rules           []byte         `db:"rules"`
	MaxParticipants int            `db:"max_participants"`
	StartAt         sql.NullTime   `db:"start_at"`
	EndAt           sql.NullTime   `db:"end_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r competitionRow) toDomain() (competition.Competition, error) {
	c := competition.Competition{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description.String,
		Type:            competition.Type(r.Type),
		Status:          competition.Status(r.Status),
		SandboxMode:     r.SandboxMode,
		MaxParticipants: r.MaxParticipants,
		StartAt:         r.StartAt.Time,
		EndAt:           r.EndAt.Time,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if len(r.Rules) > 0 {
		if err := json.Unmarshal(r.Rules, &c.Rules); err != nil {
			return competition.Competition{}, fmt.Errorf("decode competition rules: %w", err)
		}
	}
	return c, nil
}

const competitionColumns = `id, name, description, type, status, sandbox_mode, rules, max_participants, start_at, end_at, created_at, updated_at`

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func (s *Store) CreateCompetition(ctx context.Context, c competition.Competition) (competition.Competition, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = competition.StatusPending
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	rulesJSON, err := json.Marshal(c.Rules)
	if err != nil {
		return competition.Competition{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO competitions (id, name, description, type, status, sandbox_mode, rules, max_participants, start_at, end_at, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, c.ID, c.Name, c.Description, c.Type, c.Status, c.SandboxMode, rulesJSON, c.MaxParticipants,
		nullTime(c.StartAt), nullTime(c.EndAt), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return competition.Competition{}, err
	}
	return c, nil
}

func (s *Store) UpdateCompetition(ctx context.Context, c competition.Competition) (competition.Competition, error) {
	existing, err := s.GetCompetition(ctx, c.ID)
	if err != nil {
		return competition.Competition{}, err
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	rulesJSON, err := json.Marshal(c.Rules)
	if err != nil {
		return competition.Competition{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE competitions
		SET name = $2, description = NULLIF($3, ''), type = $4, status = $5, sandbox_mode = $6,
		    rules = $7, max_participants = $8, start_at = $9, end_at = $10, updated_at = $11
		WHERE id = $1
	`, c.ID, c.Name, c.Description, c.Type, c.Status, c.SandboxMode, rulesJSON, c.MaxParticipants,
		nullTime(c.StartAt), nullTime(c.EndAt), c.UpdatedAt)
	if err != nil {
		return competition.Competition{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return competition.Competition{}, fmt.Errorf("competition %s: %w", c.ID, storage.ErrNotFound)
	}
	return c, nil
}

func (s *Store) GetCompetition(ctx context.Context, id string) (competition.Competition, error) {
	var row competitionRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+competitionColumns+` FROM competitions WHERE id = $1`, id); err != nil {
		return competition.Competition{}, notFound(err, "competition "+id)
	}
	return row.toDomain()
}

func (s *Store) ListCompetitions(ctx context.Context, status competition.Status) ([]competition.Competition, error) {
	var rows []competitionRow
	var err error
	if status == "" {
		err = s.db.SelectContext(ctx, &rows, `SELECT `+competitionColumns+` FROM competitions ORDER BY created_at`)
	} else {
		err = s.db.SelectContext(ctx, &rows, `SELECT `+competitionColumns+` FROM competitions WHERE status = $1 ORDER BY created_at`, status)
	}
	if err != nil {
		return nil, err
	}
	out := make([]competition.Competition, 0, len(rows))
	for _, r := range rows {
		c, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) AddParticipant(ctx context.Context, p competition.Participant) (competition.Participant, error) {
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO competition_participants (competition_id, agent_id, joined_at, disqualified)
		VALUES ($1, $2, $3, $4)
	`, p.CompetitionID, p.AgentID, p.JoinedAt, p.Disqualified)
	if err != nil {
		return competition.Participant{}, err
	}
	return p, nil
}

func (s *Store) RemoveParticipant(ctx context.Context, competitionID, agentID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM competition_participants WHERE competition_id = $1 AND agent_id = $2
	`, competitionID, agentID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("participant %s/%s: %w", competitionID, agentID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) GetParticipant(ctx context.Context, competitionID, agentID string) (competition.Participant, error) {
	var p competition.Participant
	err := s.db.QueryRowxContext(ctx, `
		SELECT competition_id, agent_id, joined_at, disqualified
		FROM competition_participants WHERE competition_id = $1 AND agent_id = $2
	`, competitionID, agentID).Scan(&p.CompetitionID, &p.AgentID, &p.JoinedAt, &p.Disqualified)
	if err != nil {
		return competition.Participant{}, notFound(err, fmt.Sprintf("participant %s/%s", competitionID, agentID))
	}
	return p, nil
}

func (s *Store) ListParticipants(ctx context.Context, competitionID string) ([]competition.Participant, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT competition_id, agent_id, joined_at, disqualified
		FROM competition_participants WHERE competition_id = $1 ORDER BY joined_at
	`, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []competition.Participant
	for rows.Next() {
		var p competition.Participant
		if err := rows.Scan(&p.CompetitionID, &p.AgentID, &p.JoinedAt, &p.Disqualified); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- TradeStore --------------------------------------------------------------

const tradeColumns = `id, agent_id, competition_id, from_token, from_chain, to_token, to_chain,
	from_amount, to_amount, price, slippage, reason, status, error, executed_at, created_at`

func (s *Store) CreateTrade(ctx context.Context, t trade.Trade) (trade.Trade, error) {
	return s.insertTrade(ctx, s.db, t)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertTrade(ctx context.Context, db execer, t trade.Trade) (trade.Trade, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	if t.ExecutedAt.IsZero() {
		t.ExecutedAt = now
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO trades (`+tradeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, NULLIF($14, ''), $15, $16)
	`, t.ID, t.AgentID, t.CompetitionID, t.FromToken, t.FromChain, t.ToToken, t.ToChain,
		t.FromAmount, t.ToAmount, t.Price, t.Slippage, t.Reason, t.Status, t.Error, t.ExecutedAt, t.CreatedAt)
	if err != nil {
		return trade.Trade{}, err
	}
	return t, nil
}

type tradeRow struct {
	ID            string         `db:"id"`
	AgentID       string         `db:"agent_id"`
	CompetitionID string         `db:"competition_id"`
	FromToken     string         `db:"from_token"`
	FromChain     string         `db:"from_chain"`
	ToToken       string         `db:"to_token"`
	ToChain       string         `db:"to_chain"`
	FromAmount    float64        `db:"from_amount"`
	ToAmount      float64        `db:"to_amount"`
	Price         float64        `db:"price"`
	Slippage      float64        `db:"slippage"`
	Reason        sql.NullString `db:"reason"`
	Status        string         `db:"status"`
	Error         sql.NullString `db:"error"`
	ExecutedAt    time.Time      `db:"executed_at"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (r tradeRow) toDomain() trade.Trade {
	return trade.Trade{
		ID:            r.ID,
		AgentID:       r.AgentID,
		CompetitionID: r.CompetitionID,
		FromToken:     r.FromToken,
		FromChain:     r.FromChain,
		ToToken:       r.ToToken,
		ToChain:       r.ToChain,
		FromAmount:    r.FromAmount,
		ToAmount:      r.ToAmount,
		Price:         r.Price,
		Slippage:      r.Slippage,
		Reason:        r.Reason.String,
		Status:        trade.Status(r.Status),
		Error:         r.Error.String,
		ExecutedAt:    r.ExecutedAt,
		CreatedAt:     r.CreatedAt,
	}
}

func (s *Store) ListTrades(ctx context.Context, agentID, competitionID string, limit int) ([]trade.Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []tradeRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+tradeColumns+` FROM trades
		WHERE agent_id = $1 AND competition_id = $2
		ORDER BY executed_at DESC
		LIMIT $3
	`, agentID, competitionID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]trade.Trade, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) CountTradesSince(ctx context.Context, agentID, competitionID string, since time.Time) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM trades
		WHERE agent_id = $1 AND competition_id = $2 AND executed_at >= $3
	`, agentID, competitionID, since.UTC())
	return count, err
}

// --- BalanceStore ------------------------------------------------------------

func (s *Store) UpsertBalance(ctx context.Context, b trade.Balance) (trade.Balance, error) {
	b.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balances (agent_id, competition_id, token, chain, amount, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (agent_id, competition_id, token, chain)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`, b.AgentID, b.CompetitionID, b.Token, b.Chain, b.Amount, b.UpdatedAt)
	if err != nil {
		return trade.Balance{}, err
	}
	return b, nil
}

func (s *Store) GetBalance(ctx context.Context, agentID, competitionID, token, chain string) (trade.Balance, error) {
	var b trade.Balance
	err := s.db.QueryRowxContext(ctx, `
		SELECT agent_id, competition_id, token, chain, amount, updated_at
		FROM balances
		WHERE agent_id = $1 AND competition_id = $2 AND token = $3 AND chain = $4
	`, agentID, competitionID, token, chain).Scan(&b.AgentID, &b.CompetitionID, &b.Token, &b.Chain, &b.Amount, &b.UpdatedAt)
	if err != nil {
		return trade.Balance{}, notFound(err, fmt.Sprintf("balance %s/%s", token, chain))
	}
	return b, nil
}

func (s *Store) ListBalances(ctx context.Context, agentID, competitionID string) ([]trade.Balance, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT agent_id, competition_id, token, chain, amount, updated_at
		FROM balances
		WHERE agent_id = $1 AND competition_id = $2
		ORDER BY token, chain
	`, agentID, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []trade.Balance
	for rows.Next() {
		var b trade.Balance
		if err := rows.Scan(&b.AgentID, &b.CompetitionID, &b.Token, &b.Chain, &b.Amount, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ApplyTrade debits, credits and records the trade inside one transaction.
// The debit row is locked to serialize concurrent trades on the same balance.
func (s *Store) ApplyTrade(ctx context.Context, t trade.Trade) (trade.Trade, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return trade.Trade{}, err
	}
	defer tx.Rollback()

	var available float64
	err = tx.QueryRowxContext(ctx, `
		SELECT amount FROM balances
		WHERE agent_id = $1 AND competition_id = $2 AND token = $3 AND chain = $4
		FOR UPDATE
	`, t.AgentID, t.CompetitionID, t.FromToken, t.FromChain).Scan(&available)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return trade.Trade{}, err
	}
	if available < t.FromAmount {
		return trade.Trade{}, fmt.Errorf("%s on %s: %w", t.FromToken, t.FromChain, storage.ErrInsufficientBalance)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE balances SET amount = amount - $5, updated_at = $6
		WHERE agent_id = $1 AND competition_id = $2 AND token = $3 AND chain = $4
	`, t.AgentID, t.CompetitionID, t.FromToken, t.FromChain, t.FromAmount, now)
	if err != nil {
		return trade.Trade{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO balances (agent_id, competition_id, token, chain, amount, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (agent_id, competition_id, token, chain)
		DO UPDATE SET amount = balances.amount + EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`, t.AgentID, t.CompetitionID, t.ToToken, t.ToChain, t.ToAmount, now)
	if err != nil {
		return trade.Trade{}, err
	}

	t.Status = trade.StatusExecuted
	t, err = s.insertTrade(ctx, tx, t)
	if err != nil {
		return trade.Trade{}, err
	}

	if err := tx.Commit(); err != nil {
		return trade.Trade{}, err
	}
	return t, nil
}

// --- PerpsStore --------------------------------------------------------------

func (s *Store) UpsertPosition(ctx context.Context, p perps.Position) (perps.Position, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.SyncedAt.IsZero() {
		p.SyncedAt = time.Now().UTC()
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO perps_positions (id, agent_id, competition_id, symbol, side, size, entry_price, mark_price, unrealized_pnl, leverage, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (agent_id, competition_id, symbol)
		DO UPDATE SET side = EXCLUDED.side, size = EXCLUDED.size, entry_price = EXCLUDED.entry_price,
		              mark_price = EXCLUDED.mark_price, unrealized_pnl = EXCLUDED.unrealized_pnl,
		              leverage = EXCLUDED.leverage, synced_at = EXCLUDED.synced_at
		RETURNING id
	`, p.ID, p.AgentID, p.CompetitionID, p.Symbol, p.Side, p.Size, p.EntryPrice, p.MarkPrice,
		p.UnrealizedPnL, p.Leverage, p.SyncedAt).Scan(&p.ID)
	if err != nil {
		return perps.Position{}, err
	}
	return p, nil
}

func (s *Store) ListPositions(ctx context.Context, agentID, competitionID string) ([]perps.Position, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, agent_id, competition_id, symbol, side, size, entry_price, mark_price, unrealized_pnl, leverage, synced_at
		FROM perps_positions
		WHERE agent_id = $1 AND competition_id = $2
		ORDER BY symbol
	`, agentID, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []perps.Position
	for rows.Next() {
		var p perps.Position
		if err := rows.Scan(&p.ID, &p.AgentID, &p.CompetitionID, &p.Symbol, &p.Side, &p.Size,
			&p.EntryPrice, &p.MarkPrice, &p.UnrealizedPnL, &p.Leverage, &p.SyncedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) CreateAccountSummary(ctx context.Context, sum perps.AccountSummary) (perps.AccountSummary, error) {
	if sum.ID == "" {
		sum.ID = uuid.NewString()
	}
	if sum.CapturedAt.IsZero() {
		sum.CapturedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO perps_account_summaries (id, agent_id, competition_id, equity, available_balance, margin_used, unrealized_pnl, self_funding_rate, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, sum.ID, sum.AgentID, sum.CompetitionID, sum.Equity, sum.AvailableBalance, sum.MarginUsed,
		sum.UnrealizedPnL, sum.SelfFundingRate, sum.CapturedAt)
	if err != nil {
		return perps.AccountSummary{}, err
	}
	return sum, nil
}

func (s *Store) LatestAccountSummary(ctx context.Context, agentID, competitionID string) (perps.AccountSummary, error) {
	var sum perps.AccountSummary
	err := s.db.QueryRowxContext(ctx, `
		SELECT id, agent_id, competition_id, equity, available_balance, margin_used, unrealized_pnl, self_funding_rate, captured_at
		FROM perps_account_summaries
		WHERE agent_id = $1 AND competition_id = $2
		ORDER BY captured_at DESC
		LIMIT 1
	`, agentID, competitionID).Scan(&sum.ID, &sum.AgentID, &sum.CompetitionID, &sum.Equity,
		&sum.AvailableBalance, &sum.MarginUsed, &sum.UnrealizedPnL, &sum.SelfFundingRate, &sum.CapturedAt)
	if err != nil {
		return perps.AccountSummary{}, notFound(err, fmt.Sprintf("account summary %s/%s", agentID, competitionID))
	}
	return sum, nil
}
