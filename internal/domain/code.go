package domain

import "time"

// EmailCode is a single-use numeric code scoped by (email, purpose). There
// is deliberately no foreign key to an account: codes are matched by email
// value, so they may precede or outlive the account itself. Among rows
// sharing a scope only the most recently created one is authoritative.
type EmailCode struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	Purpose   string    `json:"purpose"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

const (
	// CodeLength is fixed at 6 decimal digits; leading zeros are significant.
	CodeLength = 6

	// DefaultCodeTTL bounds how long an issued code stays consumable.
	DefaultCodeTTL = 5 * time.Minute
)

func (c *EmailCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
