package serverutils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid stream token")

const streamIssuer = "dashsum"

// StreamClaims authorize one client to open summarization streams.
type StreamClaims struct {
	jwt.RegisteredClaims
}

// MintStreamToken issues an HS256 token for subject valid for ttl.
func MintStreamToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: empty signing secret", ErrInvalidToken)
	}
	now := time.Now()
	claims := StreamClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    streamIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseStreamToken validates tokenStr and returns its claims.
func ParseStreamToken(secret, tokenStr string) (*StreamClaims, error) {
	claims := &StreamClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		// Ensure Signing Method is HMAC
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(streamIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken reads the token from the "token" query parameter (browsers
// cannot set headers on websocket handshakes) or the Authorization header.
func BearerToken(c *fiber.Ctx) string {
	if tokenStr := c.Query("token"); tokenStr != "" {
		return tokenStr
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[len("Bearer "):]
	}
	return ""
}
