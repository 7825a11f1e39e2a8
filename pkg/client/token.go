package client

import "time"

// TokenState is derived from a Token and the current time.
type TokenState string

const (
	TokenAbsent  TokenState = "absent"
	TokenValid   TokenState = "valid"
	TokenExpired TokenState = "expired"
)

// Token is an access token with its absolute expiry. The zero value is the
// absent token. Tokens are replaced, never modified.
type Token struct {
	Value     string    `json:"value,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	Type      string    `json:"type,omitempty"`
}

// NewToken creates a token granted at now that lives expiresIn seconds.
func NewToken(value string, expiresIn int, tokenType string, now time.Time) Token {
	return Token{
		Value:     value,
		ExpiresAt: now.Add(time.Duration(expiresIn) * time.Second),
		Type:      tokenType,
	}
}

// IsValid reports whether the token is present and now is before its expiry.
func (t Token) IsValid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// State classifies the token at now.
func (t Token) State(now time.Time) TokenState {
	switch {
	case t.Value == "":
		return TokenAbsent
	case t.IsValid(now):
		return TokenValid
	default:
		return TokenExpired
	}
}

// Remaining is the time left before expiry, or zero.
func (t Token) Remaining(now time.Time) time.Duration {
	if !t.IsValid(now) {
		return 0
	}
	return t.ExpiresAt.Sub(now)
}
