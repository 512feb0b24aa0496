package perpsmon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/tidwall/gjson"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/perps"
)

// Provider fetches an agent's raw perps account payload from an external
// data source. Implementations return the provider's JSON untouched; the
// schema-driven parser below normalizes it.
type Provider interface {
	FetchAccount(ctx context.Context, walletAddress string) ([]byte, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, walletAddress string) ([]byte, error)

func (f ProviderFunc) FetchAccount(ctx context.Context, walletAddress string) ([]byte, error) {
	return f(ctx, walletAddress)
}

// HTTPProvider reads accounts from a REST endpoint. The wallet address is
// passed as a query parameter; the API key, when set, as a bearer token.
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func (p *HTTPProvider) FetchAccount(ctx context.Context, walletAddress string) ([]byte, error) {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse provider url: %w", err)
	}
	q := u.Query()
	q.Set("wallet", walletAddress)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, gjson.GetBytes(body, "error").String())
	}
	return body, nil
}

// Schema locates the interesting parts of a provider payload. Providers
// disagree on envelope shape, so the array and object locations are
// JSONPath expressions while leaf fields are resolved by candidate name.
type Schema struct {
	PositionsPath string
	SummaryPath   string
}

// DefaultSchema matches the common {positions: [...], account: {...}} shape.
func DefaultSchema() Schema {
	return Schema{
		PositionsPath: "$.positions[*]",
		SummaryPath:   "$.account",
	}
}

// parseAccount normalizes one provider payload into positions and an
// account summary.
func parseAccount(raw []byte, schema Schema) ([]perps.Position, perps.AccountSummary, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, perps.AccountSummary{}, fmt.Errorf("decode provider payload: %w", err)
	}

	var positions []perps.Position
	if nodes, err := jsonpath.Get(schema.PositionsPath, doc); err == nil {
		list, ok := nodes.([]any)
		if !ok {
			list = []any{nodes}
		}
		for _, node := range list {
			encoded, err := json.Marshal(node)
			if err != nil {
				continue
			}
			positions = append(positions, parsePosition(gjson.ParseBytes(encoded)))
		}
	}

	var summary perps.AccountSummary
	node, err := jsonpath.Get(schema.SummaryPath, doc)
	if err != nil {
		return positions, summary, fmt.Errorf("locate account summary: %w", err)
	}
	encoded, err := json.Marshal(node)
	if err != nil {
		return positions, summary, fmt.Errorf("re-encode account summary: %w", err)
	}
	summary = parseSummary(gjson.ParseBytes(encoded))
	return positions, summary, nil
}

func parsePosition(g gjson.Result) perps.Position {
	side := perps.SideLong
	if s := firstString(g, "side", "positionSide", "direction"); s == "short" || s == "SHORT" || s == "sell" {
		side = perps.SideShort
	}
	return perps.Position{
		Symbol:        firstString(g, "symbol", "market", "pair"),
		Side:          side,
		Size:          firstFloat(g, "size", "positionSize", "quantity"),
		EntryPrice:    firstFloat(g, "entryPrice", "avgEntryPrice", "entry_price"),
		MarkPrice:     firstFloat(g, "markPrice", "mark_price", "indexPrice"),
		UnrealizedPnL: firstFloat(g, "unrealizedPnl", "unrealizedPnL", "unrealized_pnl", "uPnl"),
		Leverage:      firstFloat(g, "leverage", "effectiveLeverage"),
	}
}

func parseSummary(g gjson.Result) perps.AccountSummary {
	return perps.AccountSummary{
		Equity:           firstFloat(g, "equity", "accountValue", "totalEquity"),
		AvailableBalance: firstFloat(g, "availableBalance", "available_balance", "freeCollateral"),
		MarginUsed:       firstFloat(g, "marginUsed", "margin_used", "totalMarginUsed"),
		UnrealizedPnL:    firstFloat(g, "unrealizedPnl", "unrealizedPnL", "unrealized_pnl"),
		SelfFundingRate:  firstFloat(g, "selfFundingRate", "self_funding_rate", "fundingRate"),
	}
}

func firstFloat(g gjson.Result, keys ...string) float64 {
	for _, k := range keys {
		if v := g.Get(k); v.Exists() {
			return v.Float()
		}
	}
	return 0
}

func firstString(g gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := g.Get(k); v.Exists() {
			return v.String()
		}
	}
	return ""
}
