package models

import "time"

// User represents an authenticated client of the navigation service
type User struct {
	// From JWT claims
	ID          string `json:"id"`          // Converted from int64 user_id
	Username    string `json:"username"`    // JWT claim
	Email       string `json:"email"`       // JWT claim
	Permissions int64  `json:"permissions"` // JWT claim: bitwise permission flags
	Activated   int64  `json:"activated"`   // JWT claim: activation timestamp or ban status
	AuthMethod  string `json:"auth_method"` // JWT claim: "password" or "oauth"

	// Connection state
	Connected   bool      `json:"connected"`
	ConnectedAt time.Time `json:"connected_at"`

	// Session state
	SessionID string `json:"session_id"`
}

// Anonymous is the identity used when authentication is disabled
func Anonymous() *User {
	return &User{ID: "anonymous", Username: "anonymous", Activated: 1, AuthMethod: "none"}
}

// IsActive checks if the account is activated and not banned
func (u *User) IsActive() bool {
	// activated > 0 means activated
	// activated == 0 means not activated
	// activated == -1 means banned
	return u.Activated > 0
}

// IsBanned checks if the user is banned
func (u *User) IsBanned() bool {
	return u.Activated == -1
}
