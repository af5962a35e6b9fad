package controllers

import (
	"net/http"

	"github.com/inkwell-tcg/inkwell-backend/api/middleware"
	"github.com/inkwell-tcg/inkwell-backend/api/responses"
	"github.com/inkwell-tcg/inkwell-backend/api/validators"
	authsvc "github.com/inkwell-tcg/inkwell-backend/internal/auth"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
)

// AdminLogin exchanges admin credentials for an access token.
func AdminLogin(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload authsvc.LoginInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.ClientIP = middleware.ClientIP(r)

		result, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminLogout revokes the current session. Must run behind the auth
// middleware so the session id is on the context.
func AdminLogout(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		auth, ok := middleware.AuthFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		if err := svc.Logout(r.Context(), auth.SessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
