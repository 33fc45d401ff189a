// Package api implements the tally REST API using chi.
package api

import (
	"context"
	"net/http"

	"github.com/tallyhq/tally/internal/apperr"
	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/models"
)

type ctxKey int

const userKey ctxKey = iota

// SessionMiddleware resolves the session cookie to a user and injects it
// into the request context. Requests without a valid session get the
// UNAUTHENTICATED envelope.
func SessionMiddleware(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				writeError(w, r, apperr.New(apperr.CodeUnauthenticated, "missing session"))
				return
			}
			user, err := authSvc.Verify(r.Context(), cookie.Value)
			if err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
		})
	}
}

// userFrom returns the authenticated user stored by SessionMiddleware.
func userFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}
