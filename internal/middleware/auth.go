package middleware

import (
	"net/http"
	"strings"

	"moment/internal/auth"
	"moment/internal/httputil"
)

// publicPaths are reachable without a bearer token: the health probe and
// the credential flows that exist to obtain a token in the first place.
var publicPaths = map[string]bool{
	"/health":        true,
	"/auth/register": true,
	"/auth/login":    true,
	"/auth/refresh":  true,
}

// Auth validates the Supabase bearer token on every request and stashes the
// caller's identity in the request context. CORS pre-flights pass through
// untouched; the cors handler upstream answers them.
func Auth(verifier auth.JWTVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithUser(r, claims.GetUserID(), claims.Email))
		})
	}
}
