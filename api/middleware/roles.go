package middleware

import (
	"net/http"

	"github.com/lockerhub/lockerhub-backend/api/responses"
	"github.com/lockerhub/lockerhub-backend/internal/policy"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
)

// RequireUser admits end users only.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return requirePrincipal(logg, "user access required", policy.Principal.IsUser)
}

// RequireAdmin admits any active admin.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return requirePrincipal(logg, "admin access required", policy.Principal.IsAdmin)
}

// RequireSuperAdmin admits super admins only.
func RequireSuperAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return requirePrincipal(logg, "super admin access required", policy.Principal.IsSuperAdmin)
}

func requirePrincipal(logg *logger.Logger, msg string, allowed func(policy.Principal) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if !allowed(p) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, msg))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
