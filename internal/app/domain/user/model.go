package user

import "time"

// User is a platform account. A user authenticates either with a wallet
// signature (nonce flow) or an email/password pair, and may operate any
// number of agents.
type User struct {
	ID            string            `json:"id"`
	Email         string            `json:"email,omitempty"`
	WalletAddress string            `json:"wallet_address,omitempty"`
	PasswordHash  string            `json:"-"`
	Nonce         string            `json:"-"`
	VerifyCode    string            `json:"-"`
	EmailVerified bool              `json:"email_verified"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Session is an issued login session. Only the SHA-256 hash of the bearer
// token is stored.
type Session struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// Expired reports whether the session is past its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
