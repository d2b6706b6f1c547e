package models

import "github.com/golang-jwt/jwt/v5"

// SupabaseClaims represents the JWT claims issued by Supabase Auth.
// See: https://supabase.com/docs/guides/auth/jwts
type SupabaseClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	Role        string `json:"role"` // "authenticated" or "anon"
	SessionID   string `json:"session_id"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *SupabaseClaims) GetUserID() string {
	return c.Subject
}

// UserProfile is the caller's identity as exposed by GET /auth/me.
type UserProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// TokenPair is the session material returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}
