package trade

import "time"

// Status is the outcome of a trade execution.
type Status string

const (
	StatusExecuted Status = "executed"
	StatusRejected Status = "rejected"
)

// Trade is one executed (or rejected) simulated trade.
type Trade struct {
	ID            string    `json:"id"`
	AgentID       string    `json:"agent_id"`
	CompetitionID string    `json:"competition_id"`
	FromToken     string    `json:"from_token"`
	FromChain     string    `json:"from_chain"`
	ToToken       string    `json:"to_token"`
	ToChain       string    `json:"to_chain"`
	FromAmount    float64   `json:"from_amount"`
	ToAmount      float64   `json:"to_amount"`
	Price         float64   `json:"price"`
	Slippage      float64   `json:"slippage"`
	Reason        string    `json:"reason,omitempty"`
	Status        Status    `json:"status"`
	Error         string    `json:"error,omitempty"`
	ExecutedAt    time.Time `json:"executed_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// Balance is an agent's holding of one token on one chain within a
// competition.
type Balance struct {
	AgentID       string    `json:"agent_id"`
	CompetitionID string    `json:"competition_id"`
	Token         string    `json:"token"`
	Chain         string    `json:"chain"`
	Amount        float64   `json:"amount"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PortfolioToken is one valued holding inside a portfolio snapshot.
type PortfolioToken struct {
	Token  string  `json:"token"`
	Chain  string  `json:"chain"`
	Amount float64 `json:"amount"`
	Price  float64 `json:"price"`
	Value  float64 `json:"value"`
}

// Portfolio is a point-in-time valuation of an agent's balances.
type Portfolio struct {
	AgentID       string           `json:"agent_id"`
	CompetitionID string           `json:"competition_id"`
	TotalValue    float64          `json:"total_value"`
	Tokens        []PortfolioToken `json:"tokens"`
	ValuedAt      time.Time        `json:"valued_at"`
}
