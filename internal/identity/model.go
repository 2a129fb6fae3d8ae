package identity

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a registered player and the cached view of their balances.
type User struct {
	ID             string
	Name           string
	Phone          string
	Email          string
	TopUpBalance   decimal.Decimal
	WinningBalance decimal.Decimal
	OTP            *OTP
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OTP is a pending login challenge. Only the bcrypt hash of the code is kept.
type OTP struct {
	CodeHash []byte
	Expiry   time.Time
}

// Expired reports whether the challenge can no longer be used at now.
func (o *OTP) Expired(now time.Time) bool {
	return o == nil || len(o.CodeHash) == 0 || o.Expiry.Before(now)
}

// Registration request structure.
type Registration struct {
	Name  string
	Phone string
	Email string
}
