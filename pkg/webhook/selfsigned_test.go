package webhook

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignBearerTokenProducesVerifiableRS256JWT(t *testing.T) {
	signer, err := NewSelfSignedSigner("https://agent.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tokenString, err := signer.SignBearerToken()
	if err != nil {
		t.Fatalf("unexpected error signing token: %v", err)
	}

	parsed, err := jwt.Parse(tokenString, func(tok *jwt.Token) (any, error) {
		return &signer.key.PublicKey, nil
	})
	if err != nil {
		t.Fatalf("unexpected error parsing token: %v", err)
	}
	if !parsed.Valid {
		t.Fatal("expected token to validate against its own public key")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("expected MapClaims")
	}
	if claims["iss"] != "https://agent.example.com" {
		t.Fatalf("unexpected issuer claim: %v", claims["iss"])
	}
}

func TestJWKSHandlerServesPublicKey(t *testing.T) {
	signer, err := NewSelfSignedSigner("https://agent.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/.well-known/jwks.json", nil)
	signer.JWKSHandler()(rec, req)

	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "json") {
		t.Fatalf("expected json content type, got %q", ct)
	}

	var set jwkSet
	if err := json.Unmarshal(rec.Body.Bytes(), &set); err != nil {
		t.Fatalf("failed to decode jwks body: %v", err)
	}
	if len(set.Keys) != 1 {
		t.Fatalf("expected exactly one key, got %d", len(set.Keys))
	}
	if set.Keys[0].Kty != "RSA" {
		t.Fatalf("expected RSA key type, got %s", set.Keys[0].Kty)
	}
}
