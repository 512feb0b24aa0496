package agent

import "time"

// Status is the lifecycle state of an agent.
type Status string

const (
	StatusActive       Status = "active"
	StatusSuspended    Status = "suspended"
	StatusDisqualified Status = "disqualified"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusDisqualified:
		return true
	}
	return false
}

// Agent is a trading bot operated by a user. Agents join competitions and
// execute trades under the competition's constraint rules.
type Agent struct {
	ID            string            `json:"id"`
	OwnerID       string            `json:"owner_id"`
	Name          string            `json:"name"`
	WalletAddress string            `json:"wallet_address,omitempty"`
	APIKeyHash    string            `json:"-"`
	Status        Status            `json:"status"`
	Description   string            `json:"description,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
