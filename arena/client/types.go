package client

import (
	"time"

	"github.com/ArenaX-Network/arena_layer/pkg/codec"
)

// AgentStatus is an agent lifecycle state.
type AgentStatus string

const (
	AgentActive       AgentStatus = "active"
	AgentSuspended    AgentStatus = "suspended"
	AgentDisqualified AgentStatus = "disqualified"
)

// CompetitionStatus is a competition lifecycle state.
type CompetitionStatus string

const (
	CompetitionPending CompetitionStatus = "pending"
	CompetitionActive  CompetitionStatus = "active"
	CompetitionEnded   CompetitionStatus = "ended"
)

// CompetitionType selects the market a competition trades.
type CompetitionType string

const (
	CompetitionSpot  CompetitionType = "spot"
	CompetitionPerps CompetitionType = "perps"
)

// CrossChainTradingType restricts which cross-chain trades a competition
// permits.
type CrossChainTradingType string

const (
	CrossChainDisallowAll     CrossChainTradingType = "disallowAll"
	CrossChainDisallowXParent CrossChainTradingType = "disallowXParent"
	CrossChainAllowAll        CrossChainTradingType = "allowAll"
)

// TradeStatus is the outcome of a trade request.
type TradeStatus string

const (
	TradeExecuted TradeStatus = "executed"
	TradeRejected TradeStatus = "rejected"
)

// PositionSide is the direction of a perps position.
type PositionSide string

const (
	PositionLong  PositionSide = "long"
	PositionShort PositionSide = "short"
)

// User is a platform account.
type User struct {
	ID            string
	Email         string
	WalletAddress string
	EmailVerified bool
	Metadata      map[string]string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Agent is a trading agent profile.
type Agent struct {
	ID            string
	OwnerID       string
	Name          string
	WalletAddress string
	Status        AgentStatus
	Description   string
	Metadata      map[string]string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Rules are the trading constraints of a competition.
type Rules struct {
	MinTradeAmount        float64
	MaxTradePercentage    float64
	MaxSlippagePercent    float64
	RateLimitPerMinute    int
	CrossChainTradingType CrossChainTradingType
	AllowedTokens         map[string][]string
	StartingBalance       float64
}

// Competition is a trading competition.
type Competition struct {
	ID              string
	Name            string
	Description     string
	Type            CompetitionType
	Status          CompetitionStatus
	SandboxMode     bool
	Rules           *Rules
	MaxParticipants int
	StartAt         time.Time
	EndAt           time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Participant records an agent's membership in a competition.
type Participant struct {
	CompetitionID string
	AgentID       string
	JoinedAt      time.Time
	Disqualified  bool
}

// LeaderboardEntry is one ranked row of a competition leaderboard.
type LeaderboardEntry struct {
	Rank           int
	AgentID        string
	AgentName      string
	PortfolioValue float64
	PnL            float64
	PnLPercent     float64
}

// Trade is an executed or rejected trade.
type Trade struct {
	ID            string
	AgentID       string
	CompetitionID string
	FromToken     string
	FromChain     string
	ToToken       string
	ToChain       string
	FromAmount    float64
	ToAmount      float64
	Price         float64
	Slippage      float64
	Reason        string
	Status        TradeStatus
	Error         string
	ExecutedAt    time.Time
	CreatedAt     time.Time
}

// Balance is one token balance inside a competition.
type Balance struct {
	AgentID       string
	CompetitionID string
	Token         string
	Chain         string
	Amount        float64
	UpdatedAt     time.Time
}

// PortfolioToken is one valued holding of a portfolio.
type PortfolioToken struct {
	Token  string
	Chain  string
	Amount float64
	Price  float64
	Value  float64
}

// Portfolio is an agent's valued holdings inside a competition.
type Portfolio struct {
	AgentID       string
	CompetitionID string
	TotalValue    float64
	Tokens        []PortfolioToken
	ValuedAt      time.Time
}

// Position is a synced perps position.
type Position struct {
	ID            string
	AgentID       string
	CompetitionID string
	Symbol        string
	Side          PositionSide
	Size          float64
	EntryPrice    float64
	MarkPrice     float64
	UnrealizedPnL float64
	Leverage      float64
	SyncedAt      time.Time
}

// AccountSummary is a captured perps account snapshot.
type AccountSummary struct {
	ID               string
	AgentID          string
	CompetitionID    string
	Equity           float64
	AvailableBalance float64
	MarginUsed       float64
	UnrealizedPnL    float64
	SelfFundingRate  float64
	CapturedAt       time.Time
}

// RiskMetrics are derived risk figures for an agent's perps account.
type RiskMetrics struct {
	MarginUtilization float64
	PnLToEquity       float64
	SelfFundingRate   float64
	SelfFundingAlert  bool
}

// SyncResult summarizes one perps sync pass across a competition.
type SyncResult struct {
	CompetitionID     string
	AgentsSynced      int
	PositionsUpserted int
	SummariesCaptured int
	Errors            []string
	StartedAt         time.Time
	FinishedAt        time.Time
}

// TradeRequest asks the API to execute a trade.
type TradeRequest struct {
	AgentID       string
	CompetitionID string
	FromToken     string
	FromChain     string
	ToToken       string
	ToChain       string
	Amount        float64
	Slippage      float64
	Reason        string
}

// Quote is an indicative conversion quote.
type Quote struct {
	FromToken  string
	FromChain  string
	ToToken    string
	ToChain    string
	FromAmount float64
	ToAmount   float64
	Rate       float64
}

// Price is a spot price for a token.
type Price struct {
	Token string
	Chain string
	Price float64
}

// ProfileUpdate carries the mutable agent profile fields. Zero-valued
// fields are omitted, leaving the server value unchanged.
type ProfileUpdate struct {
	Name        string
	Description string
	Metadata    map[string]string
}

type nonceRequest struct {
	WalletAddress string
}

type registerRequest struct {
	Email    string
	Password string
}

type loginRequest struct {
	WalletAddress string
	PublicKey     string
	Signature     string
	Email         string
	Password      string
}

type verifyEmailRequest struct {
	Email string
	Code  string
}

type participantRequest struct {
	AgentID string
}

// Wire-value coercions for the Set closures below. JSON numbers arrive as
// float64 regardless of the declared primitive.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func asInt(v any) int {
	return int(asFloat(v))
}

func asTime(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}

func asStringMap(v any) map[string]string {
	entries, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(entries))
	for k, item := range entries {
		out[k] = asString(item)
	}
	return out
}

func asStringListMap(v any) map[string][]string {
	entries, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(entries))
	for k, item := range entries {
		items, ok := item.([]any)
		if !ok {
			continue
		}
		list := make([]string, 0, len(items))
		for _, s := range items {
			list = append(list, asString(s))
		}
		out[k] = list
	}
	return out
}

// optString returns nil for empty strings so optional attributes are
// omitted on the wire rather than sent as "".
func optString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func wireStringMap(m map[string]string) any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func wireStringListMap(m map[string][]string) any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, list := range m {
		items := make([]any, len(list))
		for i, s := range list {
			items[i] = s
		}
		out[k] = items
	}
	return out
}

// newRegistry builds the descriptor table for every payload type the API
// exchanges. The table is the single source of truth for wire names; the
// structs above carry no serialization tags.
func newRegistry() *codec.Registry {
	r := codec.NewRegistry()
	r.RegisterEnum(
		"AgentStatus",
		"CompetitionStatus",
		"CompetitionType",
		"CrossChainTradingType",
		"TradeStatus",
		"PositionSide",
	)

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "User",
		Factory: func() any { return &User{} },
		Attributes: []codec.Attribute{
			{WireName: "id", Name: "ID", Type: "string",
				Get: func(in any) any { return in.(*User).ID },
				Set: func(in, v any) { in.(*User).ID = asString(v) }},
			{WireName: "email", Name: "Email", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*User).Email) },
				Set: func(in, v any) { in.(*User).Email = asString(v) }},
			{WireName: "wallet_address", Name: "WalletAddress", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*User).WalletAddress) },
				Set: func(in, v any) { in.(*User).WalletAddress = asString(v) }},
			{WireName: "email_verified", Name: "EmailVerified", Type: "boolean",
				Get: func(in any) any { return in.(*User).EmailVerified },
				Set: func(in, v any) { in.(*User).EmailVerified = asBool(v) }},
			{WireName: "metadata", Name: "Metadata", Type: "{ [key: string]: string } | undefined",
				Get: func(in any) any { return wireStringMap(in.(*User).Metadata) },
				Set: func(in, v any) { in.(*User).Metadata = asStringMap(v) }},
			{WireName: "created_at", Name: "CreatedAt", Type: "Date",
				Get: func(in any) any { return in.(*User).CreatedAt },
				Set: func(in, v any) { in.(*User).CreatedAt = asTime(v) }},
			{WireName: "updated_at", Name: "UpdatedAt", Type: "Date",
				Get: func(in any) any { return in.(*User).UpdatedAt },
				Set: func(in, v any) { in.(*User).UpdatedAt = asTime(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "Agent",
		Factory: func() any { return &Agent{} },
		Attributes: []codec.Attribute{
			{WireName: "id", Name: "ID", Type: "string",
				Get: func(in any) any { return in.(*Agent).ID },
				Set: func(in, v any) { in.(*Agent).ID = asString(v) }},
			{WireName: "owner_id", Name: "OwnerID", Type: "string",
				Get: func(in any) any { return in.(*Agent).OwnerID },
				Set: func(in, v any) { in.(*Agent).OwnerID = asString(v) }},
			{WireName: "name", Name: "Name", Type: "string",
				Get: func(in any) any { return in.(*Agent).Name },
				Set: func(in, v any) { in.(*Agent).Name = asString(v) }},
			{WireName: "wallet_address", Name: "WalletAddress", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*Agent).WalletAddress) },
				Set: func(in, v any) { in.(*Agent).WalletAddress = asString(v) }},
			{WireName: "status", Name: "Status", Type: "AgentStatus",
				Get: func(in any) any { return string(in.(*Agent).Status) },
				Set: func(in, v any) { in.(*Agent).Status = AgentStatus(asString(v)) }},
			{WireName: "description", Name: "Description", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*Agent).Description) },
				Set: func(in, v any) { in.(*Agent).Description = asString(v) }},
			{WireName: "metadata", Name: "Metadata", Type: "{ [key: string]: string } | undefined",
				Get: func(in any) any { return wireStringMap(in.(*Agent).Metadata) },
				Set: func(in, v any) { in.(*Agent).Metadata = asStringMap(v) }},
			{WireName: "created_at", Name: "CreatedAt", Type: "Date",
				Get: func(in any) any { return in.(*Agent).CreatedAt },
				Set: func(in, v any) { in.(*Agent).CreatedAt = asTime(v) }},
			{WireName: "updated_at", Name: "UpdatedAt", Type: "Date",
				Get: func(in any) any { return in.(*Agent).UpdatedAt },
				Set: func(in, v any) { in.(*Agent).UpdatedAt = asTime(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "Rules",
		Factory: func() any { return &Rules{} },
		Attributes: []codec.Attribute{
			{WireName: "min_trade_amount", Name: "MinTradeAmount", Type: "double",
				Get: func(in any) any { return in.(*Rules).MinTradeAmount },
				Set: func(in, v any) { in.(*Rules).MinTradeAmount = asFloat(v) }},
			{WireName: "max_trade_percentage", Name: "MaxTradePercentage", Type: "double",
				Get: func(in any) any { return in.(*Rules).MaxTradePercentage },
				Set: func(in, v any) { in.(*Rules).MaxTradePercentage = asFloat(v) }},
			{WireName: "max_slippage_percent", Name: "MaxSlippagePercent", Type: "double",
				Get: func(in any) any { return in.(*Rules).MaxSlippagePercent },
				Set: func(in, v any) { in.(*Rules).MaxSlippagePercent = asFloat(v) }},
			{WireName: "rate_limit_per_minute", Name: "RateLimitPerMinute", Type: "integer",
				Get: func(in any) any { return in.(*Rules).RateLimitPerMinute },
				Set: func(in, v any) { in.(*Rules).RateLimitPerMinute = asInt(v) }},
			{WireName: "cross_chain_trading_type", Name: "CrossChainTradingType", Type: "CrossChainTradingType",
				Get: func(in any) any { return string(in.(*Rules).CrossChainTradingType) },
				Set: func(in, v any) { in.(*Rules).CrossChainTradingType = CrossChainTradingType(asString(v)) }},
			{WireName: "allowed_tokens", Name: "AllowedTokens", Type: "{ [key: string]: Array<string> } | undefined",
				Get: func(in any) any { return wireStringListMap(in.(*Rules).AllowedTokens) },
				Set: func(in, v any) { in.(*Rules).AllowedTokens = asStringListMap(v) }},
			{WireName: "starting_balance", Name: "StartingBalance", Type: "double",
				Get: func(in any) any { return in.(*Rules).StartingBalance },
				Set: func(in, v any) { in.(*Rules).StartingBalance = asFloat(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "Competition",
		Factory: func() any { return &Competition{} },
		Attributes: []codec.Attribute{
			{WireName: "id", Name: "ID", Type: "string",
				Get: func(in any) any { return in.(*Competition).ID },
				Set: func(in, v any) { in.(*Competition).ID = asString(v) }},
			{WireName: "name", Name: "Name", Type: "string",
				Get: func(in any) any { return in.(*Competition).Name },
				Set: func(in, v any) { in.(*Competition).Name = asString(v) }},
			{WireName: "description", Name: "Description", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*Competition).Description) },
				Set: func(in, v any) { in.(*Competition).Description = asString(v) }},
			{WireName: "type", Name: "Type", Type: "CompetitionType",
				Get: func(in any) any { return string(in.(*Competition).Type) },
				Set: func(in, v any) { in.(*Competition).Type = CompetitionType(asString(v)) }},
			{WireName: "status", Name: "Status", Type: "CompetitionStatus",
				Get: func(in any) any { return string(in.(*Competition).Status) },
				Set: func(in, v any) { in.(*Competition).Status = CompetitionStatus(asString(v)) }},
			{WireName: "sandbox_mode", Name: "SandboxMode", Type: "boolean",
				Get: func(in any) any { return in.(*Competition).SandboxMode },
				Set: func(in, v any) { in.(*Competition).SandboxMode = asBool(v) }},
			{WireName: "rules", Name: "Rules", Type: "Rules | undefined",
				Get: func(in any) any {
					if in.(*Competition).Rules == nil {
						return nil
					}
					return in.(*Competition).Rules
				},
				Set: func(in, v any) {
					if rules, ok := v.(*Rules); ok {
						in.(*Competition).Rules = rules
					}
				}},
			{WireName: "max_participants", Name: "MaxParticipants", Type: "integer | undefined",
				Get: func(in any) any {
					if in.(*Competition).MaxParticipants == 0 {
						return nil
					}
					return in.(*Competition).MaxParticipants
				},
				Set: func(in, v any) { in.(*Competition).MaxParticipants = asInt(v) }},
			{WireName: "start_at", Name: "StartAt", Type: "Date",
				Get: func(in any) any { return in.(*Competition).StartAt },
				Set: func(in, v any) { in.(*Competition).StartAt = asTime(v) }},
			{WireName: "end_at", Name: "EndAt", Type: "Date",
				Get: func(in any) any { return in.(*Competition).EndAt },
				Set: func(in, v any) { in.(*Competition).EndAt = asTime(v) }},
			{WireName: "created_at", Name: "CreatedAt", Type: "Date",
				Get: func(in any) any { return in.(*Competition).CreatedAt },
				Set: func(in, v any) { in.(*Competition).CreatedAt = asTime(v) }},
			{WireName: "updated_at", Name: "UpdatedAt", Type: "Date",
				Get: func(in any) any { return in.(*Competition).UpdatedAt },
				Set: func(in, v any) { in.(*Competition).UpdatedAt = asTime(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "Participant",
		Factory: func() any { return &Participant{} },
		Attributes: []codec.Attribute{
			{WireName: "competition_id", Name: "CompetitionID", Type: "string",
				Get: func(in any) any { return in.(*Participant).CompetitionID },
				Set: func(in, v any) { in.(*Participant).CompetitionID = asString(v) }},
			{WireName: "agent_id", Name: "AgentID", Type: "string",
				Get: func(in any) any { return in.(*Participant).AgentID },
				Set: func(in, v any) { in.(*Participant).AgentID = asString(v) }},
			{WireName: "joined_at", Name: "JoinedAt", Type: "Date",
				Get: func(in any) any { return in.(*Participant).JoinedAt },
				Set: func(in, v any) { in.(*Participant).JoinedAt = asTime(v) }},
			{WireName: "disqualified", Name: "Disqualified", Type: "boolean",
				Get: func(in any) any { return in.(*Participant).Disqualified },
				Set: func(in, v any) { in.(*Participant).Disqualified = asBool(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "LeaderboardEntry",
		Factory: func() any { return &LeaderboardEntry{} },
		Attributes: []codec.Attribute{
			{WireName: "rank", Name: "Rank", Type: "integer",
				Get: func(in any) any { return in.(*LeaderboardEntry).Rank },
				Set: func(in, v any) { in.(*LeaderboardEntry).Rank = asInt(v) }},
			{WireName: "agent_id", Name: "AgentID", Type: "string",
				Get: func(in any) any { return in.(*LeaderboardEntry).AgentID },
				Set: func(in, v any) { in.(*LeaderboardEntry).AgentID = asString(v) }},
			{WireName: "agent_name", Name: "AgentName", Type: "string",
				Get: func(in any) any { return in.(*LeaderboardEntry).AgentName },
				Set: func(in, v any) { in.(*LeaderboardEntry).AgentName = asString(v) }},
			{WireName: "portfolio_value", Name: "PortfolioValue", Type: "double",
				Get: func(in any) any { return in.(*LeaderboardEntry).PortfolioValue },
				Set: func(in, v any) { in.(*LeaderboardEntry).PortfolioValue = asFloat(v) }},
			{WireName: "pnl", Name: "PnL", Type: "double",
				Get: func(in any) any { return in.(*LeaderboardEntry).PnL },
				Set: func(in, v any) { in.(*LeaderboardEntry).PnL = asFloat(v) }},
			{WireName: "pnl_percent", Name: "PnLPercent", Type: "double",
				Get: func(in any) any { return in.(*LeaderboardEntry).PnLPercent },
				Set: func(in, v any) { in.(*LeaderboardEntry).PnLPercent = asFloat(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "Trade",
		Factory: func() any { return &Trade{} },
		Attributes: []codec.Attribute{
			{WireName: "id", Name: "ID", Type: "string",
				Get: func(in any) any { return in.(*Trade).ID },
				Set: func(in, v any) { in.(*Trade).ID = asString(v) }},
			{WireName: "agent_id", Name: "AgentID", Type: "string",
				Get: func(in any) any { return in.(*Trade).AgentID },
				Set: func(in, v any) { in.(*Trade).AgentID = asString(v) }},
			{WireName: "competition_id", Name: "CompetitionID", Type: "string",
				Get: func(in any) any { return in.(*Trade).CompetitionID },
				Set: func(in, v any) { in.(*Trade).CompetitionID = asString(v) }},
			{WireName: "from_token", Name: "FromToken", Type: "string",
				Get: func(in any) any { return in.(*Trade).FromToken },
				Set: func(in, v any) { in.(*Trade).FromToken = asString(v) }},
			{WireName: "from_chain", Name: "FromChain", Type: "string",
				Get: func(in any) any { return in.(*Trade).FromChain },
				Set: func(in, v any) { in.(*Trade).FromChain = asString(v) }},
			{WireName: "to_token", Name: "ToToken", Type: "string",
				Get: func(in any) any { return in.(*Trade).ToToken },
				Set: func(in, v any) { in.(*Trade).ToToken = asString(v) }},
			{WireName: "to_chain", Name: "ToChain", Type: "string",
				Get: func(in any) any { return in.(*Trade).ToChain },
				Set: func(in, v any) { in.(*Trade).ToChain = asString(v) }},
			{WireName: "from_amount", Name: "FromAmount", Type: "double",
				Get: func(in any) any { return in.(*Trade).FromAmount },
				Set: func(in, v any) { in.(*Trade).FromAmount = asFloat(v) }},
			{WireName: "to_amount", Name: "ToAmount", Type: "double",
				Get: func(in any) any { return in.(*Trade).ToAmount },
				Set: func(in, v any) { in.(*Trade).ToAmount = asFloat(v) }},
			{WireName: "price", Name: "Price", Type: "double",
				Get: func(in any) any { return in.(*Trade).Price },
				Set: func(in, v any) { in.(*Trade).Price = asFloat(v) }},
			{WireName: "slippage", Name: "Slippage", Type: "double",
				Get: func(in any) any { return in.(*Trade).Slippage },
				Set: func(in, v any) { in.(*Trade).Slippage = asFloat(v) }},
			{WireName: "reason", Name: "Reason", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*Trade).Reason) },
				Set: func(in, v any) { in.(*Trade).Reason = asString(v) }},
			{WireName: "status", Name: "Status", Type: "TradeStatus",
				Get: func(in any) any { return string(in.(*Trade).Status) },
				Set: func(in, v any) { in.(*Trade).Status = TradeStatus(asString(v)) }},
			{WireName: "error", Name: "Error", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*Trade).Error) },
				Set: func(in, v any) { in.(*Trade).Error = asString(v) }},
			{WireName: "executed_at", Name: "ExecutedAt", Type: "Date",
				Get: func(in any) any { return in.(*Trade).ExecutedAt },
				Set: func(in, v any) { in.(*Trade).ExecutedAt = asTime(v) }},
			{WireName: "created_at", Name: "CreatedAt", Type: "Date",
				Get: func(in any) any { return in.(*Trade).CreatedAt },
				Set: func(in, v any) { in.(*Trade).CreatedAt = asTime(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "Balance",
		Factory: func() any { return &Balance{} },
		Attributes: []codec.Attribute{
			{WireName: "agent_id", Name: "AgentID", Type: "string",
				Get: func(in any) any { return in.(*Balance).AgentID },
				Set: func(in, v any) { in.(*Balance).AgentID = asString(v) }},
			{WireName: "competition_id", Name: "CompetitionID", Type: "string",
				Get: func(in any) any { return in.(*Balance).CompetitionID },
				Set: func(in, v any) { in.(*Balance).CompetitionID = asString(v) }},
			{WireName: "token", Name: "Token", Type: "string",
				Get: func(in any) any { return in.(*Balance).Token },
				Set: func(in, v any) { in.(*Balance).Token = asString(v) }},
			{WireName: "chain", Name: "Chain", Type: "string",
				Get: func(in any) any { return in.(*Balance).Chain },
				Set: func(in, v any) { in.(*Balance).Chain = asString(v) }},
			{WireName: "amount", Name: "Amount", Type: "double",
				Get: func(in any) any { return in.(*Balance).Amount },
				Set: func(in, v any) { in.(*Balance).Amount = asFloat(v) }},
			{WireName: "updated_at", Name: "UpdatedAt", Type: "Date",
				Get: func(in any) any { return in.(*Balance).UpdatedAt },
				Set: func(in, v any) { in.(*Balance).UpdatedAt = asTime(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "PortfolioToken",
		Factory: func() any { return &PortfolioToken{} },
		Attributes: []codec.Attribute{
			{WireName: "token", Name: "Token", Type: "string",
				Get: func(in any) any { return in.(*PortfolioToken).Token },
				Set: func(in, v any) { in.(*PortfolioToken).Token = asString(v) }},
			{WireName: "chain", Name: "Chain", Type: "string",
				Get: func(in any) any { return in.(*PortfolioToken).Chain },
				Set: func(in, v any) { in.(*PortfolioToken).Chain = asString(v) }},
			{WireName: "amount", Name: "Amount", Type: "double",
				Get: func(in any) any { return in.(*PortfolioToken).Amount },
				Set: func(in, v any) { in.(*PortfolioToken).Amount = asFloat(v) }},
			{WireName: "price", Name: "Price", Type: "double",
				Get: func(in any) any { return in.(*PortfolioToken).Price },
				Set: func(in, v any) { in.(*PortfolioToken).Price = asFloat(v) }},
			{WireName: "value", Name: "Value", Type: "double",
				Get: func(in any) any { return in.(*PortfolioToken).Value },
				Set: func(in, v any) { in.(*PortfolioToken).Value = asFloat(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "Portfolio",
		Factory: func() any { return &Portfolio{} },
		Attributes: []codec.Attribute{
			{WireName: "agent_id", Name: "AgentID", Type: "string",
				Get: func(in any) any { return in.(*Portfolio).AgentID },
				Set: func(in, v any) { in.(*Portfolio).AgentID = asString(v) }},
			{WireName: "competition_id", Name: "CompetitionID", Type: "string",
				Get: func(in any) any { return in.(*Portfolio).CompetitionID },
				Set: func(in, v any) { in.(*Portfolio).CompetitionID = asString(v) }},
			{WireName: "total_value", Name: "TotalValue", Type: "double",
				Get: func(in any) any { return in.(*Portfolio).TotalValue },
				Set: func(in, v any) { in.(*Portfolio).TotalValue = asFloat(v) }},
			{WireName: "tokens", Name: "Tokens", Type: "Array<PortfolioToken>",
				Get: func(in any) any {
					tokens := in.(*Portfolio).Tokens
					out := make([]any, len(tokens))
					for i := range tokens {
						out[i] = &tokens[i]
					}
					return out
				},
				Set: func(in, v any) {
					items, ok := v.([]any)
					if !ok {
						return
					}
					tokens := make([]PortfolioToken, 0, len(items))
					for _, item := range items {
						if t, ok := item.(*PortfolioToken); ok {
							tokens = append(tokens, *t)
						}
					}
					in.(*Portfolio).Tokens = tokens
				}},
			{WireName: "valued_at", Name: "ValuedAt", Type: "Date",
				Get: func(in any) any { return in.(*Portfolio).ValuedAt },
				Set: func(in, v any) { in.(*Portfolio).ValuedAt = asTime(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "Position",
		Factory: func() any { return &Position{} },
		Attributes: []codec.Attribute{
			{WireName: "id", Name: "ID", Type: "string",
				Get: func(in any) any { return in.(*Position).ID },
				Set: func(in, v any) { in.(*Position).ID = asString(v) }},
			{WireName: "agent_id", Name: "AgentID", Type: "string",
				Get: func(in any) any { return in.(*Position).AgentID },
				Set: func(in, v any) { in.(*Position).AgentID = asString(v) }},
			{WireName: "competition_id", Name: "CompetitionID", Type: "string",
				Get: func(in any) any { return in.(*Position).CompetitionID },
				Set: func(in, v any) { in.(*Position).CompetitionID = asString(v) }},
			{WireName: "symbol", Name: "Symbol", Type: "string",
				Get: func(in any) any { return in.(*Position).Symbol },
				Set: func(in, v any) { in.(*Position).Symbol = asString(v) }},
			{WireName: "side", Name: "Side", Type: "PositionSide",
				Get: func(in any) any { return string(in.(*Position).Side) },
				Set: func(in, v any) { in.(*Position).Side = PositionSide(asString(v)) }},
			{WireName: "size", Name: "Size", Type: "double",
				Get: func(in any) any { return in.(*Position).Size },
				Set: func(in, v any) { in.(*Position).Size = asFloat(v) }},
			{WireName: "entry_price", Name: "EntryPrice", Type: "double",
				Get: func(in any) any { return in.(*Position).EntryPrice },
				Set: func(in, v any) { in.(*Position).EntryPrice = asFloat(v) }},
			{WireName: "mark_price", Name: "MarkPrice", Type: "double",
				Get: func(in any) any { return in.(*Position).MarkPrice },
				Set: func(in, v any) { in.(*Position).MarkPrice = asFloat(v) }},
			{WireName: "unrealized_pnl", Name: "UnrealizedPnL", Type: "double",
				Get: func(in any) any { return in.(*Position).UnrealizedPnL },
				Set: func(in, v any) { in.(*Position).UnrealizedPnL = asFloat(v) }},
			{WireName: "leverage", Name: "Leverage", Type: "double | undefined",
				Get: func(in any) any {
					if in.(*Position).Leverage == 0 {
						return nil
					}
					return in.(*Position).Leverage
				},
				Set: func(in, v any) { in.(*Position).Leverage = asFloat(v) }},
			{WireName: "synced_at", Name: "SyncedAt", Type: "Date",
				Get: func(in any) any { return in.(*Position).SyncedAt },
				Set: func(in, v any) { in.(*Position).SyncedAt = asTime(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "AccountSummary",
		Factory: func() any { return &AccountSummary{} },
		Attributes: []codec.Attribute{
			{WireName: "id", Name: "ID", Type: "string",
				Get: func(in any) any { return in.(*AccountSummary).ID },
				Set: func(in, v any) { in.(*AccountSummary).ID = asString(v) }},
			{WireName: "agent_id", Name: "AgentID", Type: "string",
				Get: func(in any) any { return in.(*AccountSummary).AgentID },
				Set: func(in, v any) { in.(*AccountSummary).AgentID = asString(v) }},
			{WireName: "competition_id", Name: "CompetitionID", Type: "string",
				Get: func(in any) any { return in.(*AccountSummary).CompetitionID },
				Set: func(in, v any) { in.(*AccountSummary).CompetitionID = asString(v) }},
			{WireName: "equity", Name: "Equity", Type: "double",
				Get: func(in any) any { return in.(*AccountSummary).Equity },
				Set: func(in, v any) { in.(*AccountSummary).Equity = asFloat(v) }},
			{WireName: "available_balance", Name: "AvailableBalance", Type: "double",
				Get: func(in any) any { return in.(*AccountSummary).AvailableBalance },
				Set: func(in, v any) { in.(*AccountSummary).AvailableBalance = asFloat(v) }},
			{WireName: "margin_used", Name: "MarginUsed", Type: "double",
				Get: func(in any) any { return in.(*AccountSummary).MarginUsed },
				Set: func(in, v any) { in.(*AccountSummary).MarginUsed = asFloat(v) }},
			{WireName: "unrealized_pnl", Name: "UnrealizedPnL", Type: "double",
				Get: func(in any) any { return in.(*AccountSummary).UnrealizedPnL },
				Set: func(in, v any) { in.(*AccountSummary).UnrealizedPnL = asFloat(v) }},
			{WireName: "self_funding_rate", Name: "SelfFundingRate", Type: "double",
				Get: func(in any) any { return in.(*AccountSummary).SelfFundingRate },
				Set: func(in, v any) { in.(*AccountSummary).SelfFundingRate = asFloat(v) }},
			{WireName: "captured_at", Name: "CapturedAt", Type: "Date",
				Get: func(in any) any { return in.(*AccountSummary).CapturedAt },
				Set: func(in, v any) { in.(*AccountSummary).CapturedAt = asTime(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "RiskMetrics",
		Factory: func() any { return &RiskMetrics{} },
		Attributes: []codec.Attribute{
			{WireName: "margin_utilization", Name: "MarginUtilization", Type: "double",
				Get: func(in any) any { return in.(*RiskMetrics).MarginUtilization },
				Set: func(in, v any) { in.(*RiskMetrics).MarginUtilization = asFloat(v) }},
			{WireName: "pnl_to_equity", Name: "PnLToEquity", Type: "double",
				Get: func(in any) any { return in.(*RiskMetrics).PnLToEquity },
				Set: func(in, v any) { in.(*RiskMetrics).PnLToEquity = asFloat(v) }},
			{WireName: "self_funding_rate", Name: "SelfFundingRate", Type: "double",
				Get: func(in any) any { return in.(*RiskMetrics).SelfFundingRate },
				Set: func(in, v any) { in.(*RiskMetrics).SelfFundingRate = asFloat(v) }},
			{WireName: "self_funding_alert", Name: "SelfFundingAlert", Type: "boolean",
				Get: func(in any) any { return in.(*RiskMetrics).SelfFundingAlert },
				Set: func(in, v any) { in.(*RiskMetrics).SelfFundingAlert = asBool(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "SyncResult",
		Factory: func() any { return &SyncResult{} },
		Attributes: []codec.Attribute{
			{WireName: "competition_id", Name: "CompetitionID", Type: "string",
				Get: func(in any) any { return in.(*SyncResult).CompetitionID },
				Set: func(in, v any) { in.(*SyncResult).CompetitionID = asString(v) }},
			{WireName: "agents_synced", Name: "AgentsSynced", Type: "integer",
				Get: func(in any) any { return in.(*SyncResult).AgentsSynced },
				Set: func(in, v any) { in.(*SyncResult).AgentsSynced = asInt(v) }},
			{WireName: "positions_upserted", Name: "PositionsUpserted", Type: "integer",
				Get: func(in any) any { return in.(*SyncResult).PositionsUpserted },
				Set: func(in, v any) { in.(*SyncResult).PositionsUpserted = asInt(v) }},
			{WireName: "summaries_captured", Name: "SummariesCaptured", Type: "integer",
				Get: func(in any) any { return in.(*SyncResult).SummariesCaptured },
				Set: func(in, v any) { in.(*SyncResult).SummariesCaptured = asInt(v) }},
			{WireName: "errors", Name: "Errors", Type: "Array<string> | undefined",
				Get: func(in any) any {
					errs := in.(*SyncResult).Errors
					if errs == nil {
						return nil
					}
					out := make([]any, len(errs))
					for i, e := range errs {
						out[i] = e
					}
					return out
				},
				Set: func(in, v any) {
					items, ok := v.([]any)
					if !ok {
						return
					}
					errs := make([]string, 0, len(items))
					for _, item := range items {
						errs = append(errs, asString(item))
					}
					in.(*SyncResult).Errors = errs
				}},
			{WireName: "started_at", Name: "StartedAt", Type: "Date",
				Get: func(in any) any { return in.(*SyncResult).StartedAt },
				Set: func(in, v any) { in.(*SyncResult).StartedAt = asTime(v) }},
			{WireName: "finished_at", Name: "FinishedAt", Type: "Date",
				Get: func(in any) any { return in.(*SyncResult).FinishedAt },
				Set: func(in, v any) { in.(*SyncResult).FinishedAt = asTime(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "TradeRequest",
		Factory: func() any { return &TradeRequest{} },
		Attributes: []codec.Attribute{
			{WireName: "agent_id", Name: "AgentID", Type: "string",
				Get: func(in any) any { return in.(*TradeRequest).AgentID },
				Set: func(in, v any) { in.(*TradeRequest).AgentID = asString(v) }},
			{WireName: "competition_id", Name: "CompetitionID", Type: "string",
				Get: func(in any) any { return in.(*TradeRequest).CompetitionID },
				Set: func(in, v any) { in.(*TradeRequest).CompetitionID = asString(v) }},
			{WireName: "from_token", Name: "FromToken", Type: "string",
				Get: func(in any) any { return in.(*TradeRequest).FromToken },
				Set: func(in, v any) { in.(*TradeRequest).FromToken = asString(v) }},
			{WireName: "from_chain", Name: "FromChain", Type: "string",
				Get: func(in any) any { return in.(*TradeRequest).FromChain },
				Set: func(in, v any) { in.(*TradeRequest).FromChain = asString(v) }},
			{WireName: "to_token", Name: "ToToken", Type: "string",
				Get: func(in any) any { return in.(*TradeRequest).ToToken },
				Set: func(in, v any) { in.(*TradeRequest).ToToken = asString(v) }},
			{WireName: "to_chain", Name: "ToChain", Type: "string",
				Get: func(in any) any { return in.(*TradeRequest).ToChain },
				Set: func(in, v any) { in.(*TradeRequest).ToChain = asString(v) }},
			{WireName: "amount", Name: "Amount", Type: "double",
				Get: func(in any) any { return in.(*TradeRequest).Amount },
				Set: func(in, v any) { in.(*TradeRequest).Amount = asFloat(v) }},
			{WireName: "slippage", Name: "Slippage", Type: "double",
				Get: func(in any) any { return in.(*TradeRequest).Slippage },
				Set: func(in, v any) { in.(*TradeRequest).Slippage = asFloat(v) }},
			{WireName: "reason", Name: "Reason", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*TradeRequest).Reason) },
				Set: func(in, v any) { in.(*TradeRequest).Reason = asString(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "Quote",
		Factory: func() any { return &Quote{} },
		Attributes: []codec.Attribute{
			{WireName: "from_token", Name: "FromToken", Type: "string",
				Get: func(in any) any { return in.(*Quote).FromToken },
				Set: func(in, v any) { in.(*Quote).FromToken = asString(v) }},
			{WireName: "from_chain", Name: "FromChain", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*Quote).FromChain) },
				Set: func(in, v any) { in.(*Quote).FromChain = asString(v) }},
			{WireName: "to_token", Name: "ToToken", Type: "string",
				Get: func(in any) any { return in.(*Quote).ToToken },
				Set: func(in, v any) { in.(*Quote).ToToken = asString(v) }},
			{WireName: "to_chain", Name: "ToChain", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*Quote).ToChain) },
				Set: func(in, v any) { in.(*Quote).ToChain = asString(v) }},
			{WireName: "from_amount", Name: "FromAmount", Type: "double",
				Get: func(in any) any { return in.(*Quote).FromAmount },
				Set: func(in, v any) { in.(*Quote).FromAmount = asFloat(v) }},
			{WireName: "to_amount", Name: "ToAmount", Type: "double",
				Get: func(in any) any { return in.(*Quote).ToAmount },
				Set: func(in, v any) { in.(*Quote).ToAmount = asFloat(v) }},
			{WireName: "rate", Name: "Rate", Type: "double",
				Get: func(in any) any { return in.(*Quote).Rate },
				Set: func(in, v any) { in.(*Quote).Rate = asFloat(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "Price",
		Factory: func() any { return &Price{} },
		Attributes: []codec.Attribute{
			{WireName: "token", Name: "Token", Type: "string",
				Get: func(in any) any { return in.(*Price).Token },
				Set: func(in, v any) { in.(*Price).Token = asString(v) }},
			{WireName: "chain", Name: "Chain", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*Price).Chain) },
				Set: func(in, v any) { in.(*Price).Chain = asString(v) }},
			{WireName: "price", Name: "Price", Type: "double",
				Get: func(in any) any { return in.(*Price).Price },
				Set: func(in, v any) { in.(*Price).Price = asFloat(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "ProfileUpdate",
		Factory: func() any { return &ProfileUpdate{} },
		Attributes: []codec.Attribute{
			{WireName: "name", Name: "Name", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*ProfileUpdate).Name) },
				Set: func(in, v any) { in.(*ProfileUpdate).Name = asString(v) }},
			{WireName: "description", Name: "Description", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*ProfileUpdate).Description) },
				Set: func(in, v any) { in.(*ProfileUpdate).Description = asString(v) }},
			{WireName: "metadata", Name: "Metadata", Type: "{ [key: string]: string } | undefined",
				Get: func(in any) any { return wireStringMap(in.(*ProfileUpdate).Metadata) },
				Set: func(in, v any) { in.(*ProfileUpdate).Metadata = asStringMap(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "NonceRequest",
		Factory: func() any { return &nonceRequest{} },
		Attributes: []codec.Attribute{
			{WireName: "wallet_address", Name: "WalletAddress", Type: "string",
				Get: func(in any) any { return in.(*nonceRequest).WalletAddress },
				Set: func(in, v any) { in.(*nonceRequest).WalletAddress = asString(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "RegisterRequest",
		Factory: func() any { return &registerRequest{} },
		Attributes: []codec.Attribute{
			{WireName: "email", Name: "Email", Type: "string",
				Get: func(in any) any { return in.(*registerRequest).Email },
				Set: func(in, v any) { in.(*registerRequest).Email = asString(v) }},
			{WireName: "password", Name: "Password", Type: "string",
				Get: func(in any) any { return in.(*registerRequest).Password },
				Set: func(in, v any) { in.(*registerRequest).Password = asString(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "LoginRequest",
		Factory: func() any { return &loginRequest{} },
		Attributes: []codec.Attribute{
			{WireName: "wallet_address", Name: "WalletAddress", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*loginRequest).WalletAddress) },
				Set: func(in, v any) { in.(*loginRequest).WalletAddress = asString(v) }},
			{WireName: "public_key", Name: "PublicKey", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*loginRequest).PublicKey) },
				Set: func(in, v any) { in.(*loginRequest).PublicKey = asString(v) }},
			{WireName: "signature", Name: "Signature", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*loginRequest).Signature) },
				Set: func(in, v any) { in.(*loginRequest).Signature = asString(v) }},
			{WireName: "email", Name: "Email", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*loginRequest).Email) },
				Set: func(in, v any) { in.(*loginRequest).Email = asString(v) }},
			{WireName: "password", Name: "Password", Type: "string | undefined",
				Get: func(in any) any { return optString(in.(*loginRequest).Password) },
				Set: func(in, v any) { in.(*loginRequest).Password = asString(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "VerifyEmailRequest",
		Factory: func() any { return &verifyEmailRequest{} },
		Attributes: []codec.Attribute{
			{WireName: "email", Name: "Email", Type: "string",
				Get: func(in any) any { return in.(*verifyEmailRequest).Email },
				Set: func(in, v any) { in.(*verifyEmailRequest).Email = asString(v) }},
			{WireName: "code", Name: "Code", Type: "string",
				Get: func(in any) any { return in.(*verifyEmailRequest).Code },
				Set: func(in, v any) { in.(*verifyEmailRequest).Code = asString(v) }},
		},
	})

	r.MustRegisterType(codec.TypeDescriptor{
		Name:    "ParticipantRequest",
		Factory: func() any { return &participantRequest{} },
		Attributes: []codec.Attribute{
			{WireName: "agent_id", Name: "AgentID", Type: "string",
				Get: func(in any) any { return in.(*participantRequest).AgentID },
				Set: func(in, v any) { in.(*participantRequest).AgentID = asString(v) }},
		},
	})

	return r
}
