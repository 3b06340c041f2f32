package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/handler/http/response"
)

// RequireApprover requires hr, dept_head or admin role
func RequireApprover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok || !caller.Role.IsApprover() {
			response.HandleError(w, user.ErrApproverAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequirePermission checks if user has specific permission
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromContext(r.Context())
			if !ok {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s'", permission))
				return
			}

			if !user.HasPermission(caller.Role, permission) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", permission, caller.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
