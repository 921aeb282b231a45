package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/ariefcatur/warung-market.git/internal/market"
)

// UserVerifier is the credential-verification hook. Token issuance belongs
// to the auth collaborator; handlers only ever see the resolved user.
type UserVerifier interface {
	VerifyToken(ctx context.Context, token string) (market.User, error)
}

type ctxKey int

const userKey ctxKey = iota

// Authenticate guards a route group with bearer-token verification and puts
// the authenticated user on the request context.
func Authenticate(v UserVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token is missing!"})
				return
			}
			u, err := v.VerifyToken(r.Context(), parts[1])
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token is invalid!"})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
		})
	}
}

// UserFrom returns the authenticated user stored by Authenticate.
func UserFrom(ctx context.Context) (market.User, bool) {
	u, ok := ctx.Value(userKey).(market.User)
	return u, ok
}
