package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func newPrivateApp() *fiber.App {
	app := fiber.New()
	app.Get("/private", JWTMiddleware("secret"), func(c *fiber.Ctx) error {
		if UserID(c) == "" {
			return fiber.NewError(fiber.StatusUnauthorized)
		}
		return c.SendString(UserID(c))
	})
	return app
}

func TestJWTMiddleware(t *testing.T) {
	app := newPrivateApp()

	// missing token
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized")
	}

	// valid token
	token, err := SignToken("secret", "user-1", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok")
	}
}

func TestJWTMiddlewareQueryToken(t *testing.T) {
	app := newPrivateApp()
	token, _ := SignToken("secret", "user-2", time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/private?access_token="+token, nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok for query token")
	}
}

func TestJWTMiddlewareRejectsWrongSecretAndExpired(t *testing.T) {
	app := newPrivateApp()

	wrong, _ := SignToken("other", "user-1", time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+wrong)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for wrong secret")
	}

	expired, _ := SignToken("secret", "user-1", -time.Minute)
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for expired token")
	}
}

func TestClaimsIdentityPrefersUserID(t *testing.T) {
	c := &Claims{UserID: "legacy", RegisteredClaims: jwt.RegisteredClaims{Subject: "sub"}}
	if c.Identity() != "legacy" {
		t.Fatalf("expected user_id claim to win")
	}
	c.UserID = ""
	if c.Identity() != "sub" {
		t.Fatalf("expected subject fallback")
	}
}

func TestParseTokenError(t *testing.T) {
	old := parseClaimsFn
	parseClaimsFn = func(string, jwt.Claims, jwt.Keyfunc) (*jwt.Token, error) {
		return nil, errors.New("parse failed")
	}
	defer func() { parseClaimsFn = old }()

	if _, err := ParseToken("secret", "anything"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestBearerFromHeader(t *testing.T) {
	if bearerFromHeader("Bearer abc") != "abc" {
		t.Fatalf("expected token")
	}
	if bearerFromHeader("Basic abc") != "" || bearerFromHeader("") != "" {
		t.Fatalf("expected empty token")
	}
}
