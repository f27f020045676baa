package serverutils

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamTokenRoundTrip(t *testing.T) {
	token, err := MintStreamToken("s3cret", "tile-42", time.Minute)
	require.NoError(t, err)

	claims, err := ParseStreamToken("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, "tile-42", claims.Subject)
	assert.Equal(t, "dashsum", claims.Issuer)
}

func TestParseStreamTokenRejects(t *testing.T) {
	expired, err := MintStreamToken("s3cret", "tile", -time.Minute)
	require.NoError(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "dashsum"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	good, err := MintStreamToken("s3cret", "tile", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{name: "expired", secret: "s3cret", token: expired},
		{name: "wrong secret", secret: "other", token: good},
		{name: "wrong issuer", secret: "s3cret", token: foreign},
		{name: "no expiry", secret: "s3cret", token: noExpiry},
		{name: "garbage", secret: "s3cret", token: "not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStreamToken(tt.secret, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = MintStreamToken("", "tile", time.Minute)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(BearerToken(c))
	})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return fiber.ErrUpgradeRequired
	})

	tests := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{name: "query", target: "/?token=q", header: "Bearer h", want: "q"},
		{name: "header", target: "/", header: "Bearer h", want: "h"},
		{name: "other scheme", target: "/", header: "Basic abc", want: ""},
		{name: "none", target: "/", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.want, string(body))
		})
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
