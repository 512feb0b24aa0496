package competition

import "time"

// Status is the lifecycle state of a competition.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

// Type distinguishes spot-trading competitions from perpetual-futures ones.
type Type string

const (
	TypeSpot  Type = "spot"
	TypePerps Type = "perps"
)

// CrossChainTradingType controls which cross-chain trades the constraint
// validator accepts.
type CrossChainTradingType string

const (
	// CrossChainDisallowAll restricts trades to a single chain.
	CrossChainDisallowAll CrossChainTradingType = "disallowAll"
	// CrossChainDisallowXParent allows cross-chain trades except to or
	// from the parent chain.
	CrossChainDisallowXParent CrossChainTradingType = "disallowXParent"
	// CrossChainAllowAll places no chain restrictions on trades.
	CrossChainAllowAll CrossChainTradingType = "allowAll"
)

// Rules are the per-competition trading constraints.
type Rules struct {
	MinTradeAmount        float64               `json:"min_trade_amount" yaml:"min_trade_amount"`
	MaxTradePercentage    float64               `json:"max_trade_percentage" yaml:"max_trade_percentage"`
	MaxSlippagePercent    float64               `json:"max_slippage_percent" yaml:"max_slippage_percent"`
	RateLimitPerMinute    int                   `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	CrossChainTradingType CrossChainTradingType `json:"cross_chain_trading_type" yaml:"cross_chain_trading_type"`
	// AllowedTokens maps a chain identifier to the tokens tradeable on
	// it. An empty map allows every token.
	AllowedTokens   map[string][]string `json:"allowed_tokens,omitempty" yaml:"allowed_tokens"`
	StartingBalance float64             `json:"starting_balance" yaml:"starting_balance"`
}

// Competition is a trading contest agents can join.
type Competition struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Type            Type      `json:"type"`
	Status          Status    `json:"status"`
	SandboxMode     bool      `json:"sandbox_mode"`
	Rules           Rules     `json:"rules"`
	MaxParticipants int       `json:"max_participants,omitempty"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// JoinableAt reports whether new agents may register at the given time.
// Joining closes at the start of a non-sandbox competition; sandbox
// competitions accept joins mid-competition.
func (c Competition) JoinableAt(now time.Time) bool {
	switch c.Status {
	case StatusEnded:
		return false
	case StatusActive:
		return c.SandboxMode
	default:
		if c.SandboxMode || c.StartAt.IsZero() {
			return true
		}
		return now.Before(c.StartAt)
	}
}

// Participant records an agent's registration in a competition.
type Participant struct {
	CompetitionID string    `json:"competition_id"`
	AgentID       string    `json:"agent_id"`
	JoinedAt      time.Time `json:"joined_at"`
	Disqualified  bool      `json:"disqualified"`
}

// LeaderboardEntry is one ranked row of a competition leaderboard.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	AgentID        string  `json:"agent_id"`
	AgentName      string  `json:"agent_name"`
	PortfolioValue float64 `json:"portfolio_value"`
	PnL            float64 `json:"pnl"`
	PnLPercent     float64 `json:"pnl_percent"`
}
