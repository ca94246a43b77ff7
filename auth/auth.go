// Package auth issues and verifies scoped JWT access tokens, hashes
// passwords and enforces bearer tokens on HTTP handlers.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fizzify/fizzify/config"
	"github.com/fizzify/fizzify/hash"
)

const defaultTokenTTL = 15 * time.Minute

var ErrUnknownAlgorithm = errors.New("auth: unknown signing algorithm")

// Claims represents the payload of an access token.
type Claims struct {
	Subject   string
	Scopes    []string
	ExpiresAt time.Time
}

// Token is the response shape handed to clients.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// customClaims carries the scopes alongside the registered claims.
type customClaims struct {
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// Auth signs and verifies access tokens and hashes passwords per its
// config.
type Auth struct {
	cfg    Config
	method jwt.SigningMethod
	hasher hash.Hasher
}

func New(cfg Config) (*Auth, error) {
	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}

	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, cfg.Algorithm)
	}

	hasher, err := hash.New(cfg.passwordAlgorithm())
	if err != nil {
		return nil, err
	}

	return &Auth{cfg: cfg, method: method, hasher: hasher}, nil
}

// HashPassword hashes the password with the configured algorithm.
func (a *Auth) HashPassword(password string) (string, error) {
	return a.hasher.Hash(password)
}

// VerifyPassword checks the password against a stored hash.
func (a *Auth) VerifyPassword(password, hashedPassword string) (bool, error) {
	return a.hasher.Verify(password, hashedPassword)
}

// Sign generates a signed token for the claims. A zero ExpiresAt falls
// back to the configured TTL.
func (a *Auth) Sign(claims Claims) (string, error) {
	expiresAt := claims.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(a.tokenTTL())
	}

	tokenClaims := &customClaims{
		Scopes: claims.Scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    a.cfg.Issuer,
			Subject:   claims.Subject,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(a.method, tokenClaims)
	signedToken, err := token.SignedString([]byte(a.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signedToken, nil
}

// Verify parses and validates a token string. Only the configured signing
// method is accepted and expired tokens fail.
func (a *Auth) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{a.method.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &customClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(a.cfg.SecretKey), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse with claims: %w", err)
	}

	tokenClaims, ok := token.Claims.(*customClaims)
	if !ok {
		return nil, fmt.Errorf("unknown claims type: %T", token.Claims)
	}

	claims := &Claims{
		Subject: tokenClaims.Subject,
		Scopes:  tokenClaims.Scopes,
	}
	if tokenClaims.ExpiresAt != nil {
		claims.ExpiresAt = tokenClaims.ExpiresAt.Time
	}

	return claims, nil
}

// CreateAccessToken signs a bearer token for the subject. A zero ttl
// falls back to the configured TTL.
func (a *Auth) CreateAccessToken(subject string, scopes []string, ttl time.Duration) (Token, error) {
	if ttl == 0 {
		ttl = a.tokenTTL()
	}

	signed, err := a.Sign(Claims{
		Subject:   subject,
		Scopes:    scopes,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return Token{}, err
	}

	return Token{AccessToken: signed, TokenType: "bearer"}, nil
}

// HasRequiredScopes reports whether the user's scopes cover every
// required scope.
func (a *Auth) HasRequiredScopes(userScopes, requiredScopes []string) bool {
	userSet := make(map[string]struct{}, len(userScopes))
	for _, s := range userScopes {
		userSet[s] = struct{}{}
	}

	for _, s := range requiredScopes {
		if _, ok := userSet[s]; !ok {
			return false
		}
	}
	return true
}

func (a *Auth) tokenTTL() time.Duration {
	if ttl := a.cfg.AccessTokenTTL.Duration; ttl > 0 {
		return ttl
	}
	return defaultTokenTTL
}
