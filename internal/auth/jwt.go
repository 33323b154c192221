// Package auth is the thin adapter at the external identity provider
// boundary: it verifies a signed token and resolves it to the
// identity.Principal the core consumes. It never mints tokens and
// never stores credentials -- that belongs to the identity provider.
package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukepan/multi-rooms-chat-back/internal/identity"
)

// Claims is the subset of the identity provider's JWT this adapter
// consumes: the subject plus the scope list the wire contract maps to
// roles (see identity.RoleFromScope).
type Claims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// Verifier validates a bearer token and resolves it to a Principal.
// Production wiring is JWTVerifier (static RSA key) or JWKSVerifier
// (identity-provider JWKS endpoint); tests can substitute a fake.
type Verifier interface {
	Verify(tokenString string) (identity.Principal, error)
}

// JWTVerifier validates RS256 tokens against a single configured
// public key -- useful for a self-hosted identity provider that
// publishes a fixed signing key rather than a JWKS endpoint.
type JWTVerifier struct {
	publicKey *rsa.PublicKey
}

// NewJWTVerifier parses a PEM-encoded RSA public key.
func NewJWTVerifier(publicKeyPEM string) (*JWTVerifier, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("failed to parse PEM encoded public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not of type RSA")
	}
	return &JWTVerifier{publicKey: rsaPub}, nil
}

// Verify validates tokenString and resolves its claims to a Principal.
func (v *JWTVerifier) Verify(tokenString string) (identity.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	})
	if err != nil {
		return identity.Principal{}, err
	}
	if !token.Valid {
		return identity.Principal{}, fmt.Errorf("invalid token")
	}
	return principalFromClaims(claims), nil
}

func principalFromClaims(claims *Claims) identity.Principal {
	return identity.Principal{
		Subject: claims.Subject,
		Roles:   identity.RolesFromScopes(claims.Scopes),
	}
}

// ExtractBearer extracts a token from an "Authorization: Bearer ..."
// header value.
func ExtractBearer(authHeader string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return "", fmt.Errorf("invalid authorization header")
	}
	return strings.TrimPrefix(authHeader, prefix), nil
}
