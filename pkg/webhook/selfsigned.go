package webhook

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type jwkKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []jwkKey `json:"keys"`
}

/*
SelfSignedSigner is an optional alternative to caller-supplied Bearer
tokens: the engine mints a short-lived RS256 JWT per delivery attempt and
publishes its public key as a JWKS document the receiver can fetch to
verify it, instead of requiring an out-of-band shared secret.
*/
type SelfSignedSigner struct {
	key      *rsa.PrivateKey
	kid      string
	jwksJSON []byte
	issuer   string
	ttl      time.Duration
}

func NewSelfSignedSigner(issuer string) (*SelfSignedSigner, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	kid := randomKid()
	pub := key.PublicKey

	set := jwkSet{Keys: []jwkKey{{
		Kty: "RSA",
		Kid: kid,
		Alg: "RS256",
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}

	jwksJSON, err := json.Marshal(set)
	if err != nil {
		return nil, err
	}

	return &SelfSignedSigner{
		key:      key,
		kid:      kid,
		jwksJSON: jwksJSON,
		issuer:   issuer,
		ttl:      10 * time.Minute,
	}, nil
}

// JWKSHandler serves the public key set at a well-known path
// (conventionally /.well-known/jwks.json).
func (s *SelfSignedSigner) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(s.jwksJSON)
	}
}

// SignBearerToken mints a fresh short-lived RS256 JWT for one delivery
// attempt's Authorization header.
func (s *SelfSignedSigner) SignBearerToken() (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss": s.issuer,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	})
	token.Header["kid"] = s.kid

	return token.SignedString(s.key)
}

func randomKid() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
