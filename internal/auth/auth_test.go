package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/laimu/erptracker/internal/apperr"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	token, issued, err := GenerateToken("p-1", "ana@example.com", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if issued.ID == "" {
		t.Fatal("token id should be set")
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.PrincipalID != "p-1" || claims.Email != "ana@example.com" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID != issued.ID {
		t.Errorf("jti = %q, want %q", claims.ID, issued.ID)
	}
}

func TestTokenIDsAreUnique(t *testing.T) {
	_, a, _ := GenerateToken("p-1", "a@example.com", testSecret, time.Hour)
	_, b, _ := GenerateToken("p-1", "a@example.com", testSecret, time.Hour)
	if a.ID == b.ID {
		t.Error("two sessions share a token id")
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, _, _ := GenerateToken("p-1", "a@example.com", testSecret, time.Hour)
	_, err := ParseToken(token, "other")
	if err == nil {
		t.Fatal("expected signature error")
	}
	if apperr.CategoryOf(err) == apperr.CategoryAuthExpired {
		t.Errorf("signature failure should not read as expiry: %v", err)
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, issued, err := GenerateToken("p-1", "a@example.com", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(token, testSecret)
	if apperr.CategoryOf(err) != apperr.CategoryAuthExpired {
		t.Fatalf("err = %v, want auth expired", err)
	}
	if claims == nil || claims.ID != issued.ID {
		t.Error("expired token should still yield its claims")
	}
}

func TestParseTokenRejectsNone(t *testing.T) {
	claims := Claims{PrincipalID: "p-1", RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(token, testSecret); err == nil {
		t.Fatal("unsigned token accepted")
	}
}

func TestMemorySessionsRevocation(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemorySessions(func() time.Time { return now })
	ctx := context.Background()

	if err := m.Revoke(ctx, "jti-1", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if revoked, _ := m.IsRevoked(ctx, "jti-1"); !revoked {
		t.Error("jti-1 should be revoked")
	}
	if revoked, _ := m.IsRevoked(ctx, "jti-2"); revoked {
		t.Error("jti-2 was never revoked")
	}

	now = now.Add(2 * time.Hour)
	if revoked, _ := m.IsRevoked(ctx, "jti-1"); revoked {
		t.Error("revocation should lapse with the token")
	}
}

func TestMemorySessionsSelections(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemorySessions(func() time.Time { return now })
	ctx := context.Background()

	_ = m.Select(ctx, "jti", "ticket", "t-1", time.Minute)
	_ = m.Select(ctx, "jti", "ticket", "t-2", time.Minute)
	if id, _ := m.Selected(ctx, "jti", "ticket"); id != "t-2" {
		t.Errorf("selection should hold the latest id, got %q", id)
	}
	if id, _ := m.Selected(ctx, "jti", "action"); id != "" {
		t.Errorf("kinds are separate, got %q", id)
	}

	if id, _ := m.Selected(ctx, "jti", "ticket"); id != "t-2" {
		t.Errorf("reading a selection should not clear it, got %q", id)
	}
	_ = m.Clear(ctx, "jti", "ticket")
	if id, _ := m.Selected(ctx, "jti", "ticket"); id != "" {
		t.Errorf("Clear should drop the selection, got %q", id)
	}

	_ = m.Select(ctx, "jti", "ticket", "t-3", time.Minute)
	now = now.Add(2 * time.Minute)
	if id, _ := m.Selected(ctx, "jti", "ticket"); id != "" {
		t.Errorf("selection should expire, got %q", id)
	}
}
