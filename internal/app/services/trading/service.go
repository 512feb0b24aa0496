package trading

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/competition"
	"github.com/ArenaX-Network/arena_layer/internal/app/domain/trade"
	"github.com/ArenaX-Network/arena_layer/internal/app/metrics"
	"github.com/ArenaX-Network/arena_layer/internal/app/storage"
	"github.com/ArenaX-Network/arena_layer/internal/errors"
	"github.com/ArenaX-Network/arena_layer/pkg/logger"
)

// ParentChain is the chain the disallowXParent rule fences off.
const ParentChain = "neo"

// Quoter converts token amounts at current prices. Satisfied by the pricing
// service.
type Quoter interface {
	Price(ctx context.Context, token, chain string) (float64, error)
	Quote(ctx context.Context, fromToken, fromChain, toToken, toChain string, amount float64) (float64, float64, error)
}

// Request describes one trade an agent wants to execute.
type Request struct {
	AgentID       string  `json:"agent_id"`
	CompetitionID string  `json:"competition_id"`
	FromToken     string  `json:"from_token"`
	FromChain     string  `json:"from_chain"`
	ToToken       string  `json:"to_token"`
	ToChain       string  `json:"to_chain"`
	Amount        float64 `json:"amount"`
	Slippage      float64 `json:"slippage"`
	Reason        string  `json:"reason"`
}

// Service executes simulated trades under per-competition constraint rules.
type Service struct {
	competitions storage.CompetitionStore
	trades       storage.TradeStore
	balances     storage.BalanceStore

	quoter Quoter
	log    *logger.Logger
	now    func() time.Time
}

// New constructs a trading service.
func New(competitions storage.CompetitionStore, trades storage.TradeStore, balances storage.BalanceStore, quoter Quoter, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("trading")
	}
	return &Service{
		competitions: competitions,
		trades:       trades,
		balances:     balances,
		quoter:       quoter,
		log:          log,
		now:          time.Now,
	}
}

// ExecuteTrade validates a trade against the competition's rules, prices it
// and atomically applies it to the agent's balances. Constraint violations
// are recorded as rejected trades so the history shows what an agent
// attempted.
func (s *Service) ExecuteTrade(ctx context.Context, req Request) (trade.Trade, error) {
	req.FromToken = strings.ToUpper(strings.TrimSpace(req.FromToken))
	req.ToToken = strings.ToUpper(strings.TrimSpace(req.ToToken))
	req.FromChain = strings.ToLower(strings.TrimSpace(req.FromChain))
	req.ToChain = strings.ToLower(strings.TrimSpace(req.ToChain))

	if req.AgentID == "" || req.CompetitionID == "" {
		return trade.Trade{}, errors.Validation("agent and competition are required")
	}
	if req.FromToken == "" || req.ToToken == "" {
		return trade.Trade{}, errors.Validation("both tokens are required")
	}
	if req.FromToken == req.ToToken && req.FromChain == req.ToChain {
		return trade.Trade{}, errors.Validation("cannot trade a token for itself")
	}
	if req.Amount <= 0 {
		return trade.Trade{}, errors.Validation("amount must be positive")
	}

	c, err := s.competitions.GetCompetition(ctx, req.CompetitionID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return trade.Trade{}, errors.NotFound("competition not found")
		}
		return trade.Trade{}, errors.Internal("get competition").WithCause(err)
	}
	if c.Status != competition.StatusActive {
		return trade.Trade{}, errors.Forbidden("competition is not active")
	}

	p, err := s.competitions.GetParticipant(ctx, req.CompetitionID, req.AgentID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return trade.Trade{}, errors.Forbidden("agent is not registered in this competition")
		}
		return trade.Trade{}, errors.Internal("get participant").WithCause(err)
	}
	if p.Disqualified {
		return trade.Trade{}, errors.Forbidden("agent is disqualified")
	}

	if err := s.checkRateLimit(ctx, req, c.Rules); err != nil {
		return trade.Trade{}, err
	}
	if err := s.checkConstraints(ctx, req, c.Rules); err != nil {
		s.recordRejection(ctx, req, err)
		return trade.Trade{}, err
	}

	toAmount, rate, err := s.quoter.Quote(ctx, req.FromToken, req.FromChain, req.ToToken, req.ToChain, req.Amount)
	if err != nil {
		return trade.Trade{}, errors.Validation("no price available for this pair").WithCause(err)
	}
	toAmount *= 1 - req.Slippage/100

	executedAt := s.now().UTC()
	executed, err := s.balances.ApplyTrade(ctx, trade.Trade{
		AgentID:       req.AgentID,
		CompetitionID: req.CompetitionID,
		FromToken:     req.FromToken,
		FromChain:     req.FromChain,
		ToToken:       req.ToToken,
		ToChain:       req.ToChain,
		FromAmount:    req.Amount,
		ToAmount:      toAmount,
		Price:         rate,
		Slippage:      req.Slippage,
		Reason:        req.Reason,
		Status:        trade.StatusExecuted,
		ExecutedAt:    executedAt,
	})
	if err != nil {
		if stderrors.Is(err, storage.ErrInsufficientBalance) {
			verr := errors.Validation("insufficient balance")
			s.recordRejection(ctx, req, verr)
			return trade.Trade{}, verr
		}
		return trade.Trade{}, errors.Internal("apply trade").WithCause(err)
	}

	metrics.RecordTradeExecution(string(trade.StatusExecuted), s.now().Sub(executedAt))
	s.log.WithFields(map[string]any{
		"agent_id":       req.AgentID,
		"competition_id": req.CompetitionID,
		"pair":           fmt.Sprintf("%s/%s->%s/%s", req.FromToken, req.FromChain, req.ToToken, req.ToChain),
		"amount":         req.Amount,
	}).Info("trade executed")
	return executed, nil
}

// Trades returns an agent's most recent trades in a competition.
func (s *Service) Trades(ctx context.Context, agentID, competitionID string, limit int) ([]trade.Trade, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	list, err := s.trades.ListTrades(ctx, agentID, competitionID, limit)
	if err != nil {
		return nil, errors.Internal("list trades").WithCause(err)
	}
	return list, nil
}

// Balances returns an agent's current holdings in a competition.
func (s *Service) Balances(ctx context.Context, agentID, competitionID string) ([]trade.Balance, error) {
	list, err := s.balances.ListBalances(ctx, agentID, competitionID)
	if err != nil {
		return nil, errors.Internal("list balances").WithCause(err)
	}
	return list, nil
}

// Portfolio values an agent's holdings at current prices.
func (s *Service) Portfolio(ctx context.Context, agentID, competitionID string) (trade.Portfolio, error) {
	balances, err := s.balances.ListBalances(ctx, agentID, competitionID)
	if err != nil {
		return trade.Portfolio{}, errors.Internal("list balances").WithCause(err)
	}

	portfolio := trade.Portfolio{
		AgentID:       agentID,
		CompetitionID: competitionID,
		ValuedAt:      s.now().UTC(),
	}
	for _, b := range balances {
		price, err := s.quoter.Price(ctx, b.Token, b.Chain)
		if err != nil {
			return trade.Portfolio{}, errors.Internal("value holding").WithDetail("%s/%s", b.Token, b.Chain).WithCause(err)
		}
		value := b.Amount * price
		portfolio.Tokens = append(portfolio.Tokens, trade.PortfolioToken{
			Token:  b.Token,
			Chain:  b.Chain,
			Amount: b.Amount,
			Price:  price,
			Value:  value,
		})
		portfolio.TotalValue += value
	}
	return portfolio, nil
}

func (s *Service) checkRateLimit(ctx context.Context, req Request, rules competition.Rules) error {
	if rules.RateLimitPerMinute <= 0 {
		return nil
	}
	count, err := s.trades.CountTradesSince(ctx, req.AgentID, req.CompetitionID, s.now().Add(-time.Minute))
	if err != nil {
		return errors.Internal("count trades").WithCause(err)
	}
	if count >= rules.RateLimitPerMinute {
		return errors.RateLimited(fmt.Sprintf("limit is %d trades per minute", rules.RateLimitPerMinute))
	}
	return nil
}

func (s *Service) checkConstraints(ctx context.Context, req Request, rules competition.Rules) error {
	if req.Slippage < 0 || (rules.MaxSlippagePercent > 0 && req.Slippage > rules.MaxSlippagePercent) {
		return errors.Validation(fmt.Sprintf("slippage must be between 0 and %g percent", rules.MaxSlippagePercent))
	}
	if err := checkCrossChain(req, rules.CrossChainTradingType); err != nil {
		return err
	}
	if err := checkAllowedTokens(req, rules.AllowedTokens); err != nil {
		return err
	}

	// Amount constraints are expressed in quote-currency value, so the
	// from-side has to be priced first.
	fromPrice, err := s.quoter.Price(ctx, req.FromToken, req.FromChain)
	if err != nil {
		return errors.Validation("no price available for the sold token").WithCause(err)
	}
	tradeValue := req.Amount * fromPrice
	if rules.MinTradeAmount > 0 && tradeValue < rules.MinTradeAmount {
		return errors.Validation(fmt.Sprintf("trade value %.2f is below the minimum of %.2f", tradeValue, rules.MinTradeAmount))
	}

	if rules.MaxTradePercentage > 0 {
		portfolio, err := s.Portfolio(ctx, req.AgentID, req.CompetitionID)
		if err != nil {
			return err
		}
		if portfolio.TotalValue > 0 && tradeValue > portfolio.TotalValue*rules.MaxTradePercentage/100 {
			return errors.Validation(fmt.Sprintf("trade exceeds %g%% of portfolio value", rules.MaxTradePercentage))
		}
	}
	return nil
}

func checkCrossChain(req Request, typ competition.CrossChainTradingType) error {
	if req.FromChain == req.ToChain {
		return nil
	}
	switch typ {
	case competition.CrossChainAllowAll:
		return nil
	case competition.CrossChainDisallowXParent:
		if req.FromChain == ParentChain || req.ToChain == ParentChain {
			return errors.Forbidden("cross-chain trades to or from the parent chain are not allowed")
		}
		return nil
	default:
		return errors.Forbidden("cross-chain trading is not allowed in this competition")
	}
}

func checkAllowedTokens(req Request, allowed map[string][]string) error {
	if len(allowed) == 0 {
		return nil
	}
	for _, side := range []struct{ token, chain string }{
		{req.FromToken, req.FromChain},
		{req.ToToken, req.ToChain},
	} {
		tokens, ok := allowed[side.chain]
		if !ok {
			return errors.Forbidden(fmt.Sprintf("chain %s is not allowed in this competition", side.chain))
		}
		found := false
		for _, t := range tokens {
			if strings.EqualFold(t, side.token) {
				found = true
				break
			}
		}
		if !found {
			return errors.Forbidden(fmt.Sprintf("token %s is not allowed on %s", side.token, side.chain))
		}
	}
	return nil
}

// recordRejection stores a rejected trade so history reflects the attempt.
// Failures are logged and swallowed; the caller's error is the one that
// matters.
func (s *Service) recordRejection(ctx context.Context, req Request, cause error) {
	_, err := s.trades.CreateTrade(ctx, trade.Trade{
		AgentID:       req.AgentID,
		CompetitionID: req.CompetitionID,
		FromToken:     req.FromToken,
		FromChain:     req.FromChain,
		ToToken:       req.ToToken,
		ToChain:       req.ToChain,
		FromAmount:    req.Amount,
		Slippage:      req.Slippage,
		Reason:        req.Reason,
		Status:        trade.StatusRejected,
		Error:         cause.Error(),
		ExecutedAt:    s.now().UTC(),
	})
	if err != nil {
		s.log.WithError(err).Warn("record rejected trade")
	}
	metrics.RecordTradeExecution(string(trade.StatusRejected), 0)
}
