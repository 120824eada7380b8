package server

import (
	"context"
	"net/http"
	"strings"

	"tunebox/core/auth"
	"tunebox/logger"
)

type identityKey struct{}

// TokenVerifier turns a raw bearer token into a caller identity.
type TokenVerifier interface {
	Verify(raw string) (*auth.Identity, error)
}

// WithIdentity stores a verified identity on ctx.
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity set by AuthMiddleware, or nil.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(identityKey{}).(*auth.Identity)
	return id
}

// bearerToken 从 Authorization 头中取出令牌；允许 WebSocket 通过 ?token= 传递
func bearerToken(r *http.Request, allowQuery bool) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if allowQuery {
		return r.URL.Query().Get("token")
	}
	return ""
}

// AuthMiddleware verifies the caller's bearer token and attaches the identity
// to the request context. Requests without a valid token get 401.
func AuthMiddleware(v TokenVerifier, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r, allowQuery)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "authorization header is required")
				return
			}

			id, err := v.Verify(raw)
			if err != nil {
				logger.Debug("[Auth] token rejected", logger.String("path", r.URL.Path), logger.ErrorField(err))
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
