package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/server/auth"
)

type contextKey string

const accountContextKey contextKey = "account"

// AccountFromContext returns the authenticated account set by the auth
// middleware, or the empty string.
func AccountFromContext(ctx context.Context) string {
	account, _ := ctx.Value(accountContextKey).(string)
	return account
}

// withAuth validates the caller's token and stores the account name in the
// request context. Tokens arrive either in the Access-Token header or as an
// Authorization bearer token.
func withAuth(secretKey []byte, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get(common.AccessTokenHeaderName)
		if tokenString == "" {
			if bearer := r.Header.Get("Authorization"); strings.HasPrefix(bearer, "Bearer ") {
				tokenString = strings.TrimPrefix(bearer, "Bearer ")
			}
		}
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, common.ErrInvalidToken)
			return
		}

		account, err := auth.GetAccountFromToken(tokenString, secretKey)
		if err != nil {
			writeError(w, http.StatusUnauthorized, common.ErrInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), accountContextKey, account)
		next(w, r.WithContext(ctx))
	}
}
