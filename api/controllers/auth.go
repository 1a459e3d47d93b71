package controllers

import (
	"context"
	"net/http"

	"github.com/lockerhub/lockerhub-backend/api/responses"
	"github.com/lockerhub/lockerhub-backend/api/validators"
	"github.com/lockerhub/lockerhub-backend/internal/auth"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
)

// AuthLogin exchanges a user's phone and password for a token pair.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return credentialLogin[*auth.UserLoginResponse](nil, logg, nil)
	}
	return credentialLogin(svc, logg, func(ctx context.Context, req auth.LoginRequest) (*auth.UserLoginResponse, string, error) {
		result, err := svc.LoginUser(ctx, req)
		if err != nil {
			return nil, "", err
		}
		return result, result.AccessToken, nil
	})
}

// AdminAuthLogin is the back-office counterpart of AuthLogin.
func AdminAuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return credentialLogin[*auth.AdminLoginResponse](nil, logg, nil)
	}
	return credentialLogin(svc, logg, func(ctx context.Context, req auth.LoginRequest) (*auth.AdminLoginResponse, string, error) {
		result, err := svc.LoginAdmin(ctx, req)
		if err != nil {
			return nil, "", err
		}
		return result, result.AccessToken, nil
	})
}

type loginFunc[T any] func(ctx context.Context, req auth.LoginRequest) (T, string, error)

func credentialLogin[T any](svc auth.Service, logg *logger.Logger, login loginFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || login == nil {
			responses.WriteError(ctx, logg, w, unavailable("auth"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, accessToken, err := login(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, accessToken)
		responses.WriteSuccess(w, result)
	}
}
