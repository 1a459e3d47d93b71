package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/pkg/config"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "lockerhub", ExpirationMinutes: 30}
}

func TestMintAndParseAdminToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	adminID := uuid.New()
	storeID := uuid.New()
	role := enums.AdminRoleStoreAdmin

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		SubjectID: adminID,
		Kind:      enums.PrincipalKindAdmin,
		AdminRole: &role,
		StoreID:   &storeID,
		JTI:       "jti-123",
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.SubjectID != adminID {
		t.Fatalf("expected subject %s, got %s", adminID, claims.SubjectID)
	}
	if claims.Kind != enums.PrincipalKindAdmin {
		t.Fatalf("unexpected kind %s", claims.Kind)
	}
	if claims.AdminRole == nil || *claims.AdminRole != role {
		t.Fatalf("admin role not preserved")
	}
	if claims.StoreID == nil || *claims.StoreID != storeID {
		t.Fatalf("store id not preserved")
	}
	if claims.ID != "jti-123" {
		t.Fatalf("expected jti to be preserved, got %q", claims.ID)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestMintRejectsInvalidPayloads(t *testing.T) {
	cfg := testJWTConfig()
	super := enums.AdminRoleSuperAdmin
	storeAdmin := enums.AdminRoleStoreAdmin

	cases := map[string]AccessTokenPayload{
		"missing subject":      {Kind: enums.PrincipalKindUser},
		"unknown kind":         {SubjectID: uuid.New(), Kind: "robot"},
		"user with admin role": {SubjectID: uuid.New(), Kind: enums.PrincipalKindUser, AdminRole: &super},
		"admin without role":   {SubjectID: uuid.New(), Kind: enums.PrincipalKindAdmin},
		"store admin no store": {SubjectID: uuid.New(), Kind: enums.PrincipalKindAdmin, AdminRole: &storeAdmin},
	}
	for name, payload := range cases {
		if _, err := MintAccessToken(cfg, time.Now(), payload); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestParseRejectsExpiredUnlessAllowed(t *testing.T) {
	cfg := testJWTConfig()
	issued := time.Now().Add(-2 * time.Hour)

	token, err := MintAccessToken(cfg, issued, AccessTokenPayload{SubjectID: uuid.New(), Kind: enums.PrincipalKindUser})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to fail validation")
	}
	claims, err := ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		t.Fatalf("allow-expired parse failed: %v", err)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{SubjectID: uuid.New(), Kind: enums.PrincipalKindUser})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := cfg
	other.Secret = "different"
	if _, err := ParseAccessToken(other, token); err == nil || !strings.Contains(err.Error(), "signature") {
		t.Fatalf("expected signature error, got %v", err)
	}
}
