package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "roombook"

// TokenClaims is the decoded content of a session token.
type TokenClaims struct {
	SessionID string
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies HS256 session tokens. The token carries the
// stored session id; the jti must match the session's current token.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec returns a codec keyed by secret.
func NewTokenCodec(secret []byte, now func() time.Time) (*TokenCodec, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("token secret must be at least 16 bytes")
	}
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{secret: secret, now: now}, nil
}

// Sign encodes a token for the given session.
func (c *TokenCodec) Sign(sessionID, userID, tokenID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry of raw.
func (c *TokenCodec) Parse(raw string) (TokenClaims, error) {
	return c.parse(raw, jwt.WithTimeFunc(c.now))
}

// ParseIgnoringExpiry verifies only the signature. Used when revoking.
func (c *TokenCodec) ParseIgnoringExpiry(raw string) (TokenClaims, error) {
	return c.parse(raw, jwt.WithoutClaimsValidation())
}

func (c *TokenCodec) parse(raw string, opts ...jwt.ParserOption) (TokenClaims, error) {
	if c == nil || raw == "" {
		return TokenClaims{}, ErrInvalidCredentials
	}
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, ErrSessionExpired
		}
		return TokenClaims{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if claims.SessionID == "" || claims.ID == "" {
		return TokenClaims{}, ErrInvalidCredentials
	}

	out := TokenClaims{SessionID: claims.SessionID, UserID: claims.Subject, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
