package v1

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthConfig enables HS256 bearer tokens when Secret is set. The token
// subject is the owner id.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type subjectKey struct{}

func withSubject(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, subjectKey{}, id)
}

func subjectFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(subjectKey{}).(uuid.UUID)
	return id, ok
}

func parseBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(h[len("Bearer "):]), true
}

// validateToken verifies signature, expiry, and the optional issuer and
// audience, then returns the subject as an owner id.
func (c AuthConfig) validateToken(tokenString string) (uuid.UUID, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if c.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.Issuer))
	}
	if c.Audience != "" {
		opts = append(opts, jwt.WithAudience(c.Audience))
	}
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(c.Secret), nil
	}, opts...)
	if err != nil {
		return uuid.Nil, fmt.Errorf("validateToken: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, fmt.Errorf("validateToken: invalid token")
	}
	owner, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("validateToken: invalid subject: %w", err)
	}
	return owner, nil
}

// authJWT rejects requests without a valid bearer token and stores the
// subject in the request context. It returns nil when auth is disabled.
func (s *Server) authJWT(c AuthConfig) func(http.Handler) http.Handler {
	if strings.TrimSpace(c.Secret) == "" {
		return nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := parseBearerToken(r)
			if !ok {
				writeErr(w, http.StatusUnauthorized, "missing bearer token", "unauthorized")
				return
			}
			owner, err := c.validateToken(tok)
			if err != nil {
				s.log.DebugContext(r.Context(), "token rejected", "err", err)
				writeErr(w, http.StatusUnauthorized, "invalid token", "unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(withSubject(r.Context(), owner)))
		})
	}
}
