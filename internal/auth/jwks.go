package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/dukepan/multi-rooms-chat-back/internal/identity"
)

// JWKSVerifier validates tokens against a remote identity provider's
// JWKS endpoint, refreshing keys on a background interval. This is
// the adapter a realm/audience-scoped identity provider resolves to.
type JWKSVerifier struct {
	cache    *jwk.Cache
	jwksURL  string
	issuer   string
	audience string
}

// NewJWKSVerifier registers realmURL's JWKS document with a
// refreshing cache and confirms connectivity by fetching it once.
func NewJWKSVerifier(ctx context.Context, realmURL, audience string) (*JWKSVerifier, error) {
	issuerURL, err := url.Parse(realmURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse issuer URL: %w", err)
	}
	jwksURL := issuerURL.JoinPath(".well-known/jwks.json").String()

	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithRefreshInterval(1*time.Hour)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}
	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("failed to fetch initial JWKS: %w", err)
	}

	return &JWKSVerifier{cache: cache, jwksURL: jwksURL, issuer: issuerURL.String(), audience: audience}, nil
}

func (v *JWKSVerifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("kid header not found")
		}
		keys, err := v.cache.Get(ctx, v.jwksURL)
		if err != nil {
			return nil, fmt.Errorf("failed to get keys from cache: %w", err)
		}
		key, found := keys.LookupKeyID(kid)
		if !found {
			return nil, fmt.Errorf("key with kid %s not found", kid)
		}
		var pubKey interface{}
		if err := key.Raw(&pubKey); err != nil {
			return nil, fmt.Errorf("failed to get raw public key: %w", err)
		}
		return pubKey, nil
	}
}

// Verify validates tokenString against the JWKS-published keys,
// issuer and audience, and resolves it to a Principal.
func (v *JWKSVerifier) Verify(tokenString string) (identity.Principal, error) {
	ctx := context.Background()
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.keyFunc(ctx),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
	)
	if err != nil {
		return identity.Principal{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return identity.Principal{}, errors.New("token is invalid")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return identity.Principal{}, errors.New("failed to cast claims")
	}
	return principalFromClaims(claims), nil
}
