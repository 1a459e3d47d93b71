package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/internal/auth"
	pkgAuth "github.com/lockerhub/lockerhub-backend/pkg/auth"
	"github.com/lockerhub/lockerhub-backend/pkg/auth/session"
	"github.com/lockerhub/lockerhub-backend/pkg/config"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "lockerhub-test", ExpirationMinutes: 10}

type stubRevoker struct {
	lastRevoked string
	err         error
}

func (s *stubRevoker) Revoke(ctx context.Context, accessID string) error {
	s.lastRevoked = accessID
	return s.err
}

func mintTestToken(t *testing.T, issuedAt time.Time) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(testJWT, issuedAt, pkgAuth.AccessTokenPayload{
		SubjectID: uuid.New(),
		Kind:      enums.PrincipalKindUser,
		JTI:       accessID,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	return token, accessID
}

func TestAuthLogout(t *testing.T) {
	revoker := &stubRevoker{}
	token, jti := mintTestToken(t, time.Now())

	req := newRequest(http.MethodPost, "/api/v1/auth/logout", "")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := serve(AuthLogout(revoker, testJWT, nil), req)

	expectStatus(t, rec, http.StatusOK)
	if revoker.lastRevoked != jti {
		t.Fatalf("expected revoked %s got %s", jti, revoker.lastRevoked)
	}
}

func TestAuthLogoutRedisFailure(t *testing.T) {
	revoker := &stubRevoker{err: errors.New("redis down")}
	token, _ := mintTestToken(t, time.Now())

	req := newRequest(http.MethodPost, "/api/v1/auth/logout", "")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := serve(AuthLogout(revoker, testJWT, nil), req)

	expectStatus(t, rec, http.StatusServiceUnavailable)
}

func TestAuthLogoutMissingToken(t *testing.T) {
	rec := serve(AuthLogout(&stubRevoker{}, testJWT, nil), newRequest(http.MethodPost, "/api/v1/auth/logout", ""))
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestAuthRefreshAcceptsExpiredAccessToken(t *testing.T) {
	svc := &stubAuthService{pair: &auth.TokenPair{AccessToken: "rotated", RefreshToken: "next-refresh"}}
	token, jti := mintTestToken(t, time.Now().Add(-time.Hour))

	req := newRequest(http.MethodPost, "/api/v1/auth/refresh", `{"refresh_token":"old-refresh"}`)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := serve(AuthRefresh(svc, testJWT, nil), req)

	expectStatus(t, rec, http.StatusOK)
	if svc.lastAccessID != jti || svc.lastRefreshed != "old-refresh" {
		t.Fatalf("unexpected refresh args %s %s", svc.lastAccessID, svc.lastRefreshed)
	}
	if got := rec.Header().Get(tokenHeader); got != "rotated" {
		t.Fatalf("expected rotated token header, got %q", got)
	}
	var pair auth.TokenPair
	decodeData(t, rec, &pair)
	if pair.RefreshToken != "next-refresh" {
		t.Fatalf("unexpected refresh token %q", pair.RefreshToken)
	}
}

func TestAuthRefreshInvalidRefreshToken(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")}
	token, _ := mintTestToken(t, time.Now())

	req := newRequest(http.MethodPost, "/api/v1/auth/refresh", `{"refresh_token":"stolen"}`)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := serve(AuthRefresh(svc, testJWT, nil), req)

	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestAuthRefreshRejectsForgedToken(t *testing.T) {
	svc := &stubAuthService{}
	req := newRequest(http.MethodPost, "/api/v1/auth/refresh", `{"refresh_token":"r"}`)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := serve(AuthRefresh(svc, testJWT, nil), req)

	expectStatus(t, rec, http.StatusUnauthorized)
	if svc.lastAccessID != "" {
		t.Fatal("refresh should not reach the service")
	}
}
