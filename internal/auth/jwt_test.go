package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateSessionToken(t *testing.T) {
	ts := NewTokenService("test-secret-key")

	token, err := ts.GenerateSessionToken("sid-1", "moderator", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("GenerateSessionToken() error: %v", err)
	}
	if token == "" {
		t.Fatal("GenerateSessionToken() returned empty token")
	}

	claims, err := ts.ValidateSessionToken(token)
	if err != nil {
		t.Fatalf("ValidateSessionToken() error: %v", err)
	}
	if claims.SessionID != "sid-1" || claims.Role != "moderator" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestExpiredTokenKeepsSessionID(t *testing.T) {
	ts := NewTokenService("test-secret-key")

	token, err := ts.GenerateSessionToken("sid-old", "admin", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("GenerateSessionToken() error: %v", err)
	}

	claims, err := ts.ValidateSessionToken(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
	if claims == nil || claims.SessionID != "sid-old" {
		t.Errorf("expired token should still name its session, got %+v", claims)
	}
}

func TestRejectTamperedToken(t *testing.T) {
	ts := NewTokenService("test-secret-key")

	token, err := ts.GenerateSessionToken("sid", "admin", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("GenerateSessionToken() error: %v", err)
	}

	// Change a character in the middle of the signature; the last base64url
	// character carries padding bits the decoder may ignore.
	sigStart := strings.LastIndex(token, ".") + 1
	mid := sigStart + (len(token)-sigStart)/2
	b := token[mid]
	if b == 'A' {
		b = 'B'
	} else {
		b = 'A'
	}
	tampered := token[:mid] + string(b) + token[mid+1:]

	if _, err := ts.ValidateSessionToken(tampered); err == nil {
		t.Error("ValidateSessionToken() should reject tampered token")
	}
}

func TestRejectOtherSecret(t *testing.T) {
	token, _ := NewTokenService("one").GenerateSessionToken("sid", "admin", time.Now().Add(time.Hour))
	if _, err := NewTokenService("two").ValidateSessionToken(token); err == nil {
		t.Error("token signed with another secret must be rejected")
	}
}

func TestRejectWrongSigningMethod(t *testing.T) {
	claims := Claims{
		SessionID: "sid",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing with none: %v", err)
	}

	ts := NewTokenService("test-secret-key")
	if _, err := ts.ValidateSessionToken(tokenString); err == nil {
		t.Error("ValidateSessionToken() should reject token with 'none' signing method")
	}
}

func TestRejectTokenWithoutSession(t *testing.T) {
	ts := NewTokenService("test-secret-key")
	token, _ := ts.GenerateSessionToken("", "admin", time.Now().Add(time.Hour))
	if _, err := ts.ValidateSessionToken(token); err == nil {
		t.Error("token without a session id must be rejected")
	}
}
