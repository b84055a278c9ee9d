package api

import (
	"context"
	"net/http"

	"github.com/ukane-philemon/srms/internal/auth"
	customerror "github.com/ukane-philemon/srms/internal/errors"
)

const jwtHeader = "SRMS-Authentication-Token"

type ctxKey string

const adminCtxKey ctxKey = "adminID"

// AuthMiddleware ensures the the correct and valid auth token is provided in
// this request. Requests without a token pass through unauthenticated.
func AuthMiddleware(authRepo auth.Repository) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			authToken := req.Header.Get(jwtHeader)
			if authToken == "" {
				next.ServeHTTP(res, req)
				return
			}

			adminID, validToken := authRepo.IsValid(authToken)
			if !validToken {
				writeError(res, http.StatusForbidden, &customerror.ErrorUnauthorized{})
				return
			}

			// Set the adminCtxKey for use by subsequent handlers.
			req = req.WithContext(context.WithValue(req.Context(), adminCtxKey, adminID))
			next.ServeHTTP(res, req)
		})
	}
}

// requireAdmin rejects requests that were not authenticated by
// AuthMiddleware.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if !reqAuthenticated(req.Context()) {
			writeError(res, http.StatusUnauthorized, &customerror.ErrorUnauthorized{})
			return
		}
		next.ServeHTTP(res, req)
	})
}

// reqAuthenticated checks that the request is authenticated.
func reqAuthenticated(ctx context.Context) bool {
	adminID, _ := ctx.Value(adminCtxKey).(string)
	return adminID != ""
}
