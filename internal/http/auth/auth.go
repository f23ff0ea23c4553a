// Package auth scopes every request to a user. Authentication itself is an
// upstream concern (gateway or reverse proxy); this layer only trusts the
// user id header that upstream injects.
package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header carries the authenticated user's id, set by the upstream proxy.
const Header = "X-User-ID"

type ctxKey struct{}

// Middleware rejects requests without a valid user id and stores the id in
// the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(Header))
		if err != nil {
			http.Error(w, "missing or invalid user id", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// UserID returns the id stored by Middleware. Zero when the middleware did
// not run, which only happens on unrouted paths.
func UserID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxKey{}).(uuid.UUID)

	return id
}
