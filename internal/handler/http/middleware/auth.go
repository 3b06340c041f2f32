package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/cmlabs-hris/leave-approval-go/internal/domain/auth"
	"github.com/cmlabs-hris/leave-approval-go/internal/domain/user"
	"github.com/cmlabs-hris/leave-approval-go/internal/handler/http/response"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type callerKey struct{}

// Caller is the authenticated user behind a request.
type Caller struct {
	UserID     string
	EmployeeID string
	Role       user.Role
}

// CallerFromContext returns the caller stored by AuthRequired.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if errors.Is(err, jwtauth.ErrExpired) {
				response.HandleError(w, auth.ErrTokenExpired)
				return
			}
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			tokenType, ok := claims["type"].(string)
			if tokenType != jwt.TokenTypeAccess || !ok {
				response.HandleError(w, auth.ErrInvalidTokenType)
				return
			}

			userID, _ := claims["user_id"].(string)
			roleStr, _ := claims["role"].(string)
			role := user.Role(roleStr)
			if userID == "" || !role.IsValid() {
				response.HandleError(w, auth.ErrMissingClaims)
				return
			}

			caller := Caller{UserID: userID, Role: role}
			caller.EmployeeID, _ = claims["employee_id"].(string)

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
		}
		return http.HandlerFunc(hfn)
	}
}
