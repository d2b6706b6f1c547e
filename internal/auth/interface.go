package auth

import (
	"context"

	"moment/internal/domain/models"
)

// JWTVerifier validates Supabase access tokens. The abstraction keeps the
// middleware agnostic to where the signing keys come from, which also makes
// it trivial to stub in tests.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	Close() error
}

// CredentialClient talks to the Supabase GoTrue API for the password flows
// the mobile app uses: signup, login, and refresh. Token verification does
// not go through here; that is the JWTVerifier's job.
type CredentialClient interface {
	SignUp(ctx context.Context, email, password string) (*models.TokenPair, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.TokenPair, error)
	RefreshSession(ctx context.Context, refreshToken string) (*models.TokenPair, error)
}
