package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

type contextKey string

const UserIdentityKey contextKey = "userIdentity"

// UserIdentity is who is making the request: the reverse proxy in front of
// the app authenticates and forwards identity headers.
type UserIdentity struct {
	ID    string
	Name  string
	Admin bool
}

// GetUserIdentity extracts the caller's identity from the request context.
func GetUserIdentity(r *http.Request) UserIdentity {
	if val, ok := r.Context().Value(UserIdentityKey).(UserIdentity); ok {
		return val
	}
	return UserIdentity{ID: "anonymous"}
}

// UserIdentityMiddleware reads the X-User-Id / X-User-Name / X-User-Role
// headers set by the proxy and stores the identity in the request context.
// Requests without an id run as "anonymous".
func UserIdentityMiddleware(app *pocketbase.PocketBase) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		identity := UserIdentity{
			ID:    e.Request.Header.Get("X-User-Id"),
			Name:  e.Request.Header.Get("X-User-Name"),
			Admin: e.Request.Header.Get("X-User-Role") == "admin",
		}
		if identity.ID == "" {
			identity.ID = "anonymous"
		}
		if identity.Name == "" {
			identity.Name = identity.ID
		}

		ctx := context.WithValue(e.Request.Context(), UserIdentityKey, identity)
		e.Request = e.Request.WithContext(ctx)
		return e.Next()
	}
}
