package perps

import "time"

// Side is the direction of a perpetual-futures position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Position is an open perpetual-futures position synced from an external
// provider.
type Position struct {
	ID            string    `json:"id"`
	AgentID       string    `json:"agent_id"`
	CompetitionID string    `json:"competition_id"`
	Symbol        string    `json:"symbol"`
	Side          Side      `json:"side"`
	Size          float64   `json:"size"`
	EntryPrice    float64   `json:"entry_price"`
	MarkPrice     float64   `json:"mark_price"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	Leverage      float64   `json:"leverage,omitempty"`
	SyncedAt      time.Time `json:"synced_at"`
}

// AccountSummary is a snapshot of an agent's perps account state.
type AccountSummary struct {
	ID               string  `json:"id"`
	AgentID          string  `json:"agent_id"`
	CompetitionID    string  `json:"competition_id"`
	Equity           float64 `json:"equity"`
	AvailableBalance float64 `json:"available_balance"`
	MarginUsed       float64 `json:"margin_used"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	// SelfFundingRate feeds the self-funding alert threshold check.
	SelfFundingRate float64   `json:"self_funding_rate"`
	CapturedAt      time.Time `json:"captured_at"`
}

// SyncResult summarizes one monitoring pass over a competition.
type SyncResult struct {
	CompetitionID     string    `json:"competition_id"`
	AgentsSynced      int       `json:"agents_synced"`
	PositionsUpserted int       `json:"positions_upserted"`
	SummariesCaptured int       `json:"summaries_captured"`
	Errors            []string  `json:"errors,omitempty"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// Failed reports whether any agent sync in the pass errored.
func (r SyncResult) Failed() bool { return len(r.Errors) > 0 }
