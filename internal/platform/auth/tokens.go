package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// GenerateAccessToken mints a short-lived HS256 access token for the user.
func GenerateAccessToken(cfg JWTConfig, userID, role string, ttl time.Duration) (string, error) {
	return generateToken(cfg, userID, role, TokenTypeAccess, ttl)
}

// GenerateRefreshToken mints a long-lived HS256 refresh token. Only its
// SHA-256 hash is ever persisted; see HashToken.
func GenerateRefreshToken(cfg JWTConfig, userID, role string, ttl time.Duration) (string, error) {
	return generateToken(cfg, userID, role, TokenTypeRefresh, ttl)
}

func generateToken(cfg JWTConfig, userID, role, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:      role,
		TokenType: tokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry of a carelink token and returns
// its claims. Callers must still check TokenType for the operation at hand.
func ParseToken(cfg JWTConfig, tokenStr string) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return cfg.Secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// HashToken returns the hex-encoded SHA-256 digest of a token. Refresh tokens
// are stored hashed so a database leak does not leak usable credentials.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
