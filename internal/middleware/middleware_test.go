package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludosixer/ludo_wallet/internal/apperr"
	"github.com/ludosixer/ludo_wallet/internal/auth"
	"github.com/ludosixer/ludo_wallet/internal/identity"
	"github.com/ludosixer/ludo_wallet/internal/logging"
	"github.com/ludosixer/ludo_wallet/internal/metrics"
	"github.com/ludosixer/ludo_wallet/internal/notification"
)

func decode(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestErrorHandlerEnvelope(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	app.Get("/short", func(c *fiber.Ctx) error {
		return apperr.InsufficientBalance(fiber.Map{"currentBalance": 1, "requiredAmount": 5})
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("database exploded")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/short", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, "insufficient_balance", body["error"])
	assert.Equal(t, map[string]any{"msg": "Insufficient balance", "status": false}, body["meta"])
	assert.Equal(t, map[string]any{"currentBalance": 1.0, "requiredAmount": 5.0}, body["data"])

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body = decode(t, resp.Body)
	assert.Equal(t, "internal", body["error"])
	assert.NotContains(t, body["meta"].(map[string]any)["msg"], "database")

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decode(t, resp.Body)["error"])
}

type nopNotifier struct{}

func (nopNotifier) Send(_ context.Context, _ notification.Message) error { return nil }

func TestJWTAuthAttachesUser(t *testing.T) {
	ids := identity.NewService(identity.NewMemoryRepository(), nil)
	tokens := auth.NewTokens("secret", time.Hour, nil)
	svc := auth.NewService(ids, tokens, nopNotifier{}, auth.Options{Logger: logging.Discard()})

	token, err := svc.Signup(context.Background(), identity.Registration{Name: "Dev", Phone: "9000000001"})
	require.NoError(t, err)
	orphan, _, err := tokens.Issue("3f1d7a40-0000-4000-8000-000000000000")
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	app.Get("/me", JWTAuth(svc), func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		return c.SendString(user.Phone)
	})

	call := func(header string) (int, string) {
		req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set(fiber.HeaderAuthorization, header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		raw, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(raw)
	}

	status, body := call("Bearer " + token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "9000000001", body)

	for _, header := range []string{"", "Token " + token, "bearer " + token, "BEARER " + token, "Bearer ", "Bearer " + orphan} {
		status, body = call(header)
		assert.Equal(t, fiber.StatusUnauthorized, status, header)
		assert.True(t, strings.Contains(body, `"unauthorized"`), body)
	}
}

func TestRequestIDAndAudit(t *testing.T) {
	m := metrics.New()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	app.Use(RequestID(), Audit(logging.Discard(), m))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString(RequestIDFrom(c)) })
	app.Get("/denied", func(c *fiber.Ctx) error { return apperr.Unauthorized("no") })

	req := httptest.NewRequest(fiber.MethodGet, "/ok", nil)
	req.Header.Set(requestIDHeader, "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "req-42", string(raw))
	assert.Equal(t, "req-42", resp.Header.Get(requestIDHeader))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(requestIDHeader), 36)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/denied", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var statuses []string
	for _, f := range families {
		if f.GetName() != "ludo_wallet_http_request_duration_seconds" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "status" {
					statuses = append(statuses, l.GetValue())
				}
			}
		}
	}
	assert.ElementsMatch(t, []string{"200", "401"}, statuses)
}
