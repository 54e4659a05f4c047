package jwt

import (
	"context"
	"net/http"
	"strings"

	"aqimonitor/internal/pkg/errs"
	"aqimonitor/internal/pkg/logx"
	"aqimonitor/internal/pkg/resp"
)

type contextKey string

// ContextIdentityKey stores the verified *Identity in the request context.
const ContextIdentityKey contextKey = "auth_identity"

// RequireIdentity rejects requests without a valid "Authorization: Bearer <token>" header
// with 401 and otherwise stores the verified identity in the request context.
func RequireIdentity(issuer *Issuer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			identity, err := issuer.Verify(tokenString)
			if err != nil {
				logx.Debug("Rejected access token", "error", err, "path", r.URL.Path)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, ContextIdentityKey, identity)
}

// IdentityFromContext returns the identity stored by RequireIdentity, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, ok := ctx.Value(ContextIdentityKey).(*Identity)
	if !ok {
		return nil
	}
	return identity
}
