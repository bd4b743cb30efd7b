package auth

import (
	"testing"
	"time"
)

func TestTokenIssuerTokensPassValidation(t *testing.T) {
	clockNow := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return clockNow }
	issuer, err := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte(testSessionSigningSecret),
		Issuer:        testSessionIssuer,
		TokenTTL:      30 * time.Minute,
		Clock:         clock,
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	tokenString, expiresIn, err := issuer.IssueSessionToken(Identity{
		UserID: "user-321",
		Email:  " artist@example.com ",
		Roles:  []string{RoleArtist},
	})
	if err != nil {
		t.Fatalf("expected successful issuance: %v", err)
	}
	if expiresIn != 1800 {
		t.Fatalf("expected 1800 seconds, got %d", expiresIn)
	}

	claims, err := newTestValidator(t, clock).ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("expected validation success: %v", err)
	}
	if claims.Subject != "user-321" || claims.UserEmail != "artist@example.com" || claims.Role() != RoleArtist {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokenIssuerTokensExpire(t *testing.T) {
	issuedAt := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	issuer, err := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte(testSessionSigningSecret),
		Issuer:        testSessionIssuer,
		TokenTTL:      time.Minute,
		Clock:         func() time.Time { return issuedAt },
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	tokenString, _, err := issuer.IssueSessionToken(Identity{UserID: "user-1"})
	if err != nil {
		t.Fatalf("unexpected issuance error: %v", err)
	}

	later := newTestValidator(t, func() time.Time { return issuedAt.Add(2 * time.Minute) })
	if _, err := later.ValidateToken(tokenString); err != ErrExpiredSessionToken {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestNewTokenIssuerValidatesConfiguration(t *testing.T) {
	testCases := []struct {
		name   string
		config TokenIssuerConfig
	}{
		{name: "missing secret", config: TokenIssuerConfig{Issuer: "tunedesk-auth"}},
		{name: "missing issuer", config: TokenIssuerConfig{SigningSecret: []byte("secret"), Issuer: " "}},
		{name: "negative ttl", config: TokenIssuerConfig{SigningSecret: []byte("secret"), Issuer: "tunedesk-auth", TokenTTL: -time.Minute}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := NewTokenIssuer(testCase.config); err == nil {
				t.Fatalf("expected constructor error")
			}
		})
	}
}

func TestTokenIssuerRequiresUserID(t *testing.T) {
	issuer, err := NewTokenIssuer(TokenIssuerConfig{SigningSecret: []byte("secret"), Issuer: "tunedesk-auth"})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	if _, _, err := issuer.IssueSessionToken(Identity{UserID: "  "}); err == nil {
		t.Fatalf("expected error for blank user id")
	}
}
