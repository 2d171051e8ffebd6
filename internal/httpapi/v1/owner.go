package v1

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type ownerKey struct{}

func ownerFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ownerKey{}).(uuid.UUID)
	return id
}

// ownerScope resolves the owner every data route works on: the token subject
// when auth is on, otherwise the owner_id query parameter. An owner_id that
// disagrees with the token is forbidden.
func ownerScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("owner_id")
		var fromQuery uuid.UUID
		if raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				badRequest(w, "invalid owner_id")
				return
			}
			fromQuery = id
		}
		owner := fromQuery
		if sub, ok := subjectFrom(r.Context()); ok {
			if fromQuery != uuid.Nil && fromQuery != sub {
				forbidden(w, "owner_id does not match token")
				return
			}
			owner = sub
		}
		if owner == uuid.Nil {
			badRequest(w, "owner_id is required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)))
	})
}
