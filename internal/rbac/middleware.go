package rbac

import (
	"net/http"
)

var defaultChecker = NewChecker(nil)

// guard lets a request through when the role in its context passes allow.
func guard(allow func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !allow(role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return defaultChecker.Has(role, perm) })
}

// RequireAny enforces that the role has at least one of the permissions.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return defaultChecker.Any(role, perms...) })
}
