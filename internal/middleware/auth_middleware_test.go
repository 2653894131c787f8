package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver map[string]string

func (s stubResolver) Resolve(_ context.Context, authHeader string) string {
	return s[authHeader]
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(Session(stubResolver{"Bearer good": "u1"}))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})
	app.Get("/private", RequireAuth(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestSession_AttachesUser(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "u1", string(body))

	resp, err = app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode, "anonymous requests pass through")
	body, _ = io.ReadAll(resp.Body)
	assert.Empty(t, body)
}

func TestRequireAuth(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
