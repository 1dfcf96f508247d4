package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/supplierhq/suppliers-backend/api/responses"
	pkgauth "github.com/supplierhq/suppliers-backend/pkg/auth"
	"github.com/supplierhq/suppliers-backend/pkg/config"
	pkgerrors "github.com/supplierhq/suppliers-backend/pkg/errors"
	"github.com/supplierhq/suppliers-backend/pkg/logger"
)

type ctxKey string

const (
	ctxSubject ctxKey = "subject"
	ctxRole    ctxKey = "role"
)

// Auth validates the host-issued bearer token and seeds the request
// context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAndValidate(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxSubject, claims.Subject)
			ctx = context.WithValue(ctx, ctxRole, claims.Role)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"subject":    claims.Subject,
					"actor_role": claims.Role,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose token does not carry the given role.
func RequireRole(role string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actual, _ := r.Context().Value(ctxRole).(string)
			if !strings.EqualFold(actual, role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Subject returns the authenticated subject stored by Auth.
func Subject(ctx context.Context) string {
	subject, _ := ctx.Value(ctxSubject).(string)
	return subject
}
