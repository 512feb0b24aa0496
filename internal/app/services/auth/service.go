package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"golang.org/x/crypto/bcrypt"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/agent"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/user"
	"github.com/ArenaX-Network/arena_layer/internal/app/storage"
	"github.com/ArenaX-Network/arena_layer/internal/errors"
	"github.com/ArenaX-Network/arena_layer/pkg/logger"
)

const tokenIssuer = "arena_layer"

// Service handles registration, wallet and password login, and session
// management. Wallet login is a two-step flow: the client requests a nonce
// for its address, signs it, and exchanges the signature for a JWT.
type Service struct {
	users    storage.UserStore
	sessions storage.SessionStore
	agents   storage.AgentStore

	jwtSecret  []byte
	sessionTTL time.Duration
	log        *logger.Logger
	now        func() time.Time
}

// New constructs an auth service.
func New(users storage.UserStore, sessions storage.SessionStore, agents storage.AgentStore, jwtSecret string, sessionTTL time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		agents:     agents,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		log:        log,
		now:        time.Now,
	}
}

// IssueNonce creates (or refreshes) the login nonce for a wallet address.
// Unknown addresses are registered on first contact so the nonce flow also
// serves as wallet signup.
func (s *Service) IssueNonce(ctx context.Context, walletAddress string) (string, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return "", errors.Validation("wallet address is required")
	}

	nonce, err := randomHex(16)
	if err != nil {
		return "", errors.Internal("generate nonce").WithCause(err)
	}

	u, err := s.users.GetUserByWallet(ctx, walletAddress)
	switch {
	case err == nil:
		u.Nonce = nonce
		if _, err := s.users.UpdateUser(ctx, u); err != nil {
			return "", errors.Internal("store nonce").WithCause(err)
		}
	case stderrors.Is(err, storage.ErrNotFound):
		if _, err := s.users.CreateUser(ctx, user.User{WalletAddress: walletAddress, Nonce: nonce}); err != nil {
			return "", errors.Internal("register wallet").WithCause(err)
		}
	default:
		return "", errors.Internal("look up wallet").WithCause(err)
	}

	return nonce, nil
}

// VerifySignature checks that signature is a valid secp256r1 signature over
// message by the key whose address is walletAddress.
func (s *Service) VerifySignature(walletAddress, publicKeyHex, signatureHex, message string) error {
	pub, err := keys.NewPublicKeyFromString(publicKeyHex)
	if err != nil {
		return errors.Validation("malformed public key").WithCause(err)
	}
	if pub.Address() != walletAddress {
		return errors.Unauthorized("public key does not match wallet address")
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return errors.Validation("malformed signature").WithCause(err)
	}
	digest := sha256.Sum256([]byte(message))
	if !pub.Verify(sig, digest[:]) {
		return errors.Unauthorized("signature verification failed")
	}
	return nil
}

// Login exchanges a signed nonce for a bearer token. The nonce is rotated on
// every attempt, successful or not, so a captured signature cannot be
// replayed.
func (s *Service) Login(ctx context.Context, walletAddress, publicKeyHex, signatureHex string) (string, user.User, error) {
	u, err := s.users.GetUserByWallet(ctx, walletAddress)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return "", user.User{}, errors.Unauthorized("unknown wallet address")
		}
		return "", user.User{}, errors.Internal("look up wallet").WithCause(err)
	}
	if u.Nonce == "" {
		return "", user.User{}, errors.Unauthorized("no login nonce issued")
	}

	verifyErr := s.VerifySignature(walletAddress, publicKeyHex, signatureHex, u.Nonce)

	if nonce, nerr := randomHex(16); nerr == nil {
		u.Nonce = nonce
		if updated, uerr := s.users.UpdateUser(ctx, u); uerr == nil {
			u = updated
		}
	}

	if verifyErr != nil {
		return "", user.User{}, verifyErr
	}
	token, err := s.issueSession(ctx, u.ID)
	if err != nil {
		return "", user.User{}, err
	}
	s.log.WithField("user_id", u.ID).Info("wallet login")
	return token, u, nil
}

// RegisterUser creates an email/password account.
func (s *Service) RegisterUser(ctx context.Context, email, password string) (user.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return user.User{}, errors.Validation("a valid email is required")
	}
	if len(password) < 8 {
		return user.User{}, errors.Validation("password must be at least 8 characters")
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return user.User{}, errors.Conflict("email already registered")
	} else if !stderrors.Is(err, storage.ErrNotFound) {
		return user.User{}, errors.Internal("look up email").WithCause(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, errors.Internal("hash password").WithCause(err)
	}
	code, err := randomHex(8)
	if err != nil {
		return user.User{}, errors.Internal("generate verification code").WithCause(err)
	}
	u, err := s.users.CreateUser(ctx, user.User{Email: email, PasswordHash: string(hash), VerifyCode: code})
	if err != nil {
		return user.User{}, errors.Internal("create user").WithCause(err)
	}
	s.log.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

// VerifyEmail marks an account as verified given the code delivered to the
// address out of band. The code is single-use.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) (user.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return user.User{}, errors.NotFound("unknown email")
		}
		return user.User{}, errors.Internal("look up email").WithCause(err)
	}
	if u.EmailVerified {
		return u, nil
	}
	if code == "" || u.VerifyCode == "" || code != u.VerifyCode {
		return user.User{}, errors.Unauthorized("invalid verification code")
	}
	u.EmailVerified = true
	u.VerifyCode = ""
	updated, err := s.users.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, errors.Internal("update user").WithCause(err)
	}
	s.log.WithField("user_id", u.ID).Info("email verified")
	return updated, nil
}

// LoginWithPassword authenticates an email/password account and issues a
// bearer token.
func (s *Service) LoginWithPassword(ctx context.Context, email, password string) (string, user.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return "", user.User{}, errors.Unauthorized("invalid credentials")
		}
		return "", user.User{}, errors.Internal("look up email").WithCause(err)
	}
	if u.PasswordHash == "" {
		return "", user.User{}, errors.Unauthorized("account has no password login")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", user.User{}, errors.Unauthorized("invalid credentials")
	}
	token, err := s.issueSession(ctx, u.ID)
	if err != nil {
		return "", user.User{}, err
	}
	s.log.WithField("user_id", u.ID).Info("password login")
	return token, u, nil
}

// RegisterAgent creates a trading agent for a user and returns it together
// with the agent's API key. The key is shown exactly once; only its hash is
// stored.
func (s *Service) RegisterAgent(ctx context.Context, ownerID, name, walletAddress, description string) (agent.Agent, string, error) {
	if strings.TrimSpace(name) == "" {
		return agent.Agent{}, "", errors.Validation("agent name is required")
	}
	if _, err := s.users.GetUser(ctx, ownerID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return agent.Agent{}, "", errors.NotFound("owner not found")
		}
		return agent.Agent{}, "", errors.Internal("look up owner").WithCause(err)
	}

	apiKey, err := randomHex(24)
	if err != nil {
		return agent.Agent{}, "", errors.Internal("generate api key").WithCause(err)
	}
	a, err := s.agents.CreateAgent(ctx, agent.Agent{
		OwnerID:       ownerID,
		Name:          strings.TrimSpace(name),
		WalletAddress: strings.TrimSpace(walletAddress),
		APIKeyHash:    hashToken(apiKey),
		Status:        agent.StatusActive,
		Description:   description,
	})
	if err != nil {
		return agent.Agent{}, "", errors.Internal("create agent").WithCause(err)
	}
	s.log.WithFields(map[string]any{"agent_id": a.ID, "owner_id": ownerID}).Info("agent registered")
	return a, apiKey, nil
}

// AuthenticateAgent resolves an API key to its agent. Suspended and
// disqualified agents cannot authenticate.
func (s *Service) AuthenticateAgent(ctx context.Context, apiKey string) (agent.Agent, error) {
	a, err := s.agents.GetAgentByAPIKeyHash(ctx, hashToken(apiKey))
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return agent.Agent{}, errors.Unauthorized("invalid api key")
		}
		return agent.Agent{}, errors.Internal("look up api key").WithCause(err)
	}
	if a.Status != agent.StatusActive {
		return agent.Agent{}, errors.Forbidden(fmt.Sprintf("agent is %s", a.Status))
	}
	return a, nil
}

// Agent returns an agent by ID.
func (s *Service) Agent(ctx context.Context, agentID string) (agent.Agent, error) {
	a, err := s.agents.GetAgent(ctx, agentID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return agent.Agent{}, errors.NotFound("agent not found")
		}
		return agent.Agent{}, errors.Internal("look up agent").WithCause(err)
	}
	return a, nil
}

// Agents lists the agents owned by a user.
func (s *Service) Agents(ctx context.Context, ownerID string) ([]agent.Agent, error) {
	list, err := s.agents.ListAgents(ctx, ownerID)
	if err != nil {
		return nil, errors.Internal("list agents").WithCause(err)
	}
	return list, nil
}

// UpdateAgent changes an agent's mutable profile fields. Empty inputs leave
// the current value in place.
func (s *Service) UpdateAgent(ctx context.Context, agentID, name, description string, metadata map[string]string) (agent.Agent, error) {
	a, err := s.Agent(ctx, agentID)
	if err != nil {
		return agent.Agent{}, err
	}
	if name = strings.TrimSpace(name); name != "" {
		a.Name = name
	}
	if description != "" {
		a.Description = description
	}
	if metadata != nil {
		a.Metadata = metadata
	}
	updated, err := s.agents.UpdateAgent(ctx, a)
	if err != nil {
		return agent.Agent{}, errors.Internal("update agent").WithCause(err)
	}
	return updated, nil
}

// ResetAPIKey replaces an agent's API key and returns the new key. The old
// key stops authenticating immediately.
func (s *Service) ResetAPIKey(ctx context.Context, agentID string) (string, error) {
	a, err := s.Agent(ctx, agentID)
	if err != nil {
		return "", err
	}
	apiKey, err := randomHex(24)
	if err != nil {
		return "", errors.Internal("generate api key").WithCause(err)
	}
	a.APIKeyHash = hashToken(apiKey)
	if _, err := s.agents.UpdateAgent(ctx, a); err != nil {
		return "", errors.Internal("update agent").WithCause(err)
	}
	s.log.WithField("agent_id", agentID).Info("api key reset")
	return apiKey, nil
}

// AgentIDFromAPIKey resolves an API key to an agent ID. Used by the HTTP
// auth middleware.
func (s *Service) AgentIDFromAPIKey(ctx context.Context, apiKey string) (string, error) {
	a, err := s.AuthenticateAgent(ctx, apiKey)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

// Me resolves a bearer token to its user, refreshing the session's
// last-seen timestamp.
func (s *Service) Me(ctx context.Context, token string) (user.User, error) {
	sess, err := s.validateToken(ctx, token)
	if err != nil {
		return user.User{}, err
	}
	u, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		return user.User{}, errors.Unauthorized("session user no longer exists")
	}
	if err := s.sessions.TouchSession(ctx, sess.ID, s.now().UTC()); err != nil {
		s.log.WithError(err).Warn("touch session")
	}
	return u, nil
}

// Logout revokes the session behind a bearer token. Revoking an unknown or
// already-expired token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	sess, err := s.sessions.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return errors.Internal("look up session").WithCause(err)
	}
	if err := s.sessions.DeleteSession(ctx, sess.ID); err != nil && !stderrors.Is(err, storage.ErrNotFound) {
		return errors.Internal("delete session").WithCause(err)
	}
	return nil
}

// UserIDFromToken validates a bearer token and returns the user it belongs
// to. Used by the HTTP auth middleware.
func (s *Service) UserIDFromToken(ctx context.Context, token string) (string, error) {
	sess, err := s.validateToken(ctx, token)
	if err != nil {
		return "", err
	}
	return sess.UserID, nil
}

func (s *Service) issueSession(ctx context.Context, userID string) (string, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.sessionTTL)
	sessionID := uuid.NewString()

	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   userID,
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.Internal("sign token").WithCause(err)
	}

	if _, err := s.sessions.CreateSession(ctx, user.Session{
		ID:        sessionID,
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt,
	}); err != nil {
		return "", errors.Internal("create session").WithCause(err)
	}
	return token, nil
}

// validateToken checks the JWT signature and claims, then requires a live
// session so that logout actually revokes the token.
func (s *Service) validateToken(ctx context.Context, token string) (user.Session, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return user.Session{}, errors.Unauthorized("invalid token")
	}

	sess, err := s.sessions.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return user.Session{}, errors.Unauthorized("session revoked")
		}
		return user.Session{}, errors.Internal("look up session").WithCause(err)
	}
	if sess.Expired(s.now()) {
		return user.Session{}, errors.Unauthorized("session expired")
	}
	return sess, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
