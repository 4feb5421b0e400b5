package middleware

import (
	"context"
	"net/http"
	"strings"
)

// Identity issuance lives outside this service; the edge proxy terminates the
// session token and forwards who the caller is in trusted headers.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserPlan = "X-User-Plan"

	planPlus = "plus"
)

type ctxKey string

const ctxUser ctxKey = "user"

// User is the authenticated shopper as seen by the handlers.
type User struct {
	ID       string
	IsMember bool
}

// WithUser stores an identity on the request context. Exposed for handler
// tests.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

// GetUser returns the identity stored by RequireUser, or the zero User.
func GetUser(ctx context.Context) User {
	if v := ctx.Value(ctxUser); v != nil {
		if u, ok := v.(User); ok {
			return u
		}
	}
	return User{}
}

// RequireUser rejects requests without an identity header and stores the
// parsed identity in context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if uid == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}

		u := User{
			ID:       uid,
			IsMember: strings.EqualFold(strings.TrimSpace(r.Header.Get(HeaderUserPlan)), planPlus),
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}
