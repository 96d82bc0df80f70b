package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/Prem931993/buytown-sub000/pkg/config"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "buytown", ExpirationMinutes: 30}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testConfig()
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: userID, Role: enums.RoleDeliveryPerson})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Role != enums.RoleDeliveryPerson {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("issuer mismatch %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}
	if got := claims.ExpiresAt.Time.Sub(now); got < 29*time.Minute || got > 31*time.Minute {
		t.Fatalf("unexpected ttl %s", got)
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	cases := []struct {
		name    string
		cfg     config.JWTConfig
		payload AccessTokenPayload
		want    string
	}{
		{"secret", config.JWTConfig{Issuer: "x", ExpirationMinutes: 1}, AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleAdmin}, "secret"},
		{"issuer", config.JWTConfig{Secret: "s", ExpirationMinutes: 1}, AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleAdmin}, "issuer"},
		{"ttl", config.JWTConfig{Secret: "s", Issuer: "x"}, AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleAdmin}, "expiration"},
		{"user", testConfig(), AccessTokenPayload{Role: enums.RoleAdmin}, "user id"},
		{"role", testConfig(), AccessTokenPayload{UserID: uuid.New(), Role: "owner"}, "invalid role"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MintAccessToken(tc.cfg, time.Now(), tc.payload)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleCustomer})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseAccessTokenRejectsWrongSecretAndIssuer(t *testing.T) {
	cfg := testConfig()
	token, _ := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleCustomer})

	wrongSecret := cfg
	wrongSecret.Secret = "other"
	if _, err := ParseAccessToken(wrongSecret, token); err == nil {
		t.Fatal("expected signature mismatch")
	}
	wrongIssuer := cfg
	wrongIssuer.Issuer = "someone-else"
	if _, err := ParseAccessToken(wrongIssuer, token); err == nil {
		t.Fatal("expected issuer mismatch")
	}
}

func TestParseAccessTokenRejectsUnknownRole(t *testing.T) {
	cfg := testConfig()
	claims := AccessTokenClaims{
		UserID: uuid.New(),
		Role:   "vendor",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
}

func TestVerifierAcceptsSubjectAndLeeway(t *testing.T) {
	cfg := testConfig()
	cfg.LeewaySeconds = 60
	userID := uuid.New()
	claims := AccessTokenClaims{
		Role: enums.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-30 * time.Second)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	v, err := NewVerifier(cfg)
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	got, err := v.Verify(signed)
	if err != nil {
		t.Fatalf("expected token within leeway to pass: %v", err)
	}
	if got.UserID != userID {
		t.Fatalf("expected subject as user id, got %s", got.UserID)
	}
}

func TestVerifierRequiresExpiry(t *testing.T) {
	cfg := testConfig()
	claims := AccessTokenClaims{UserID: uuid.New(), Role: enums.RoleCustomer, RegisteredClaims: jwt.RegisteredClaims{Issuer: cfg.Issuer}}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected token without exp to be rejected")
	}
}
