// Package auth resolves bearer tokens into the acting user identity.
package auth

import (
	"net/http"
	"strings"

	"github.com/healthstock/healthstock-backend/internal/auth/jwt"
	"github.com/healthstock/healthstock-backend/pkg/actor"
	"github.com/healthstock/healthstock-backend/pkg/errors"
	"github.com/healthstock/healthstock-backend/pkg/httputil"
)

// Middleware validates the Authorization header and attaches the resulting
// Actor to the request context. Requests without a valid token get 401.
func Middleware(manager *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				httputil.Error(w, errors.Unauthorized("invalid authorization header"))
				return
			}

			claims, err := manager.ValidateAccessToken(parts[1])
			if err != nil {
				httputil.Error(w, err)
				return
			}

			a := &actor.Actor{
				ID:           claims.UserID,
				Username:     claims.Username,
				Email:        claims.Email,
				Role:         claims.Role,
				HospitalName: claims.HospitalName,
			}

			next.ServeHTTP(w, r.WithContext(actor.WithActor(r.Context(), a)))
		})
	}
}
