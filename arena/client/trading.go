package client

import (
	"context"
	"net/url"
	"strconv"
)

// TradingService covers trade execution, quotes and prices.
type TradingService struct {
	c *Client
}

// ExecuteTrade submits a trade. AgentID may be left empty when the client
// authenticates with an agent API key; the server fills it in.
func (s *TradingService) ExecuteTrade(ctx context.Context, req TradeRequest) (*Trade, error) {
	resp, err := s.c.post(ctx, "/api/v1/trade/execute", &req, "TradeRequest")
	if err != nil {
		return nil, err
	}
	return decodeOne[Trade](s.c, resp, "trade", "Trade")
}

// GetQuote returns an indicative conversion quote without executing. Chains
// may be empty for same-chain tokens.
func (s *TradingService) GetQuote(ctx context.Context, fromToken, fromChain, toToken, toChain string, amount float64) (*Quote, error) {
	query := url.Values{
		"from_token": {fromToken},
		"to_token":   {toToken},
		"amount":     {strconv.FormatFloat(amount, 'f', -1, 64)},
	}
	if fromChain != "" {
		query.Set("from_chain", fromChain)
	}
	if toChain != "" {
		query.Set("to_chain", toChain)
	}
	resp, err := s.c.get(ctx, "/api/v1/trade/quote", query)
	if err != nil {
		return nil, err
	}
	return decodeInline[Quote](s.c, resp, "Quote")
}

// GetPrice returns the current price of a token.
func (s *TradingService) GetPrice(ctx context.Context, token, chain string) (*Price, error) {
	query := url.Values{"token": {token}}
	if chain != "" {
		query.Set("chain", chain)
	}
	resp, err := s.c.get(ctx, "/api/v1/price", query)
	if err != nil {
		return nil, err
	}
	return decodeInline[Price](s.c, resp, "Price")
}
