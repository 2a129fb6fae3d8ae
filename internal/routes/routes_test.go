package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludosixer/ludo_wallet/internal/config"
	"github.com/ludosixer/ludo_wallet/internal/logging"
	"github.com/ludosixer/ludo_wallet/internal/metrics"
	"github.com/ludosixer/ludo_wallet/internal/middleware"
	"github.com/ludosixer/ludo_wallet/internal/notification"
)

type smsOutbox struct {
	mu   sync.Mutex
	last notification.Message
}

func (o *smsOutbox) Send(_ context.Context, msg notification.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.last = msg
	return nil
}

func (o *smsOutbox) code() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last.Body[strings.LastIndex(o.last.Body, " ")+1:]
}

type apiClient struct {
	t   *testing.T
	app *fiber.App
}

func (a apiClient) do(method, path, token, body string) (int, map[string]any) {
	a.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := a.app.Test(req, int((5 * time.Second).Milliseconds()))
	require.NoError(a.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(a.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func newTestAPI(t *testing.T, tweaks ...func(*config.Config)) (apiClient, *smsOutbox) {
	t.Helper()
	cfg := config.Config{
		AppName:            "LudoWalletTest",
		AppEnv:             "test",
		LogFormat:          "json",
		JWTSecret:          "integration-secret",
		TokenTTL:           7 * 24 * time.Hour,
		OTPTTL:             10 * time.Minute,
		LoginRateLimit:     5,
		LockTTL:            5 * time.Second,
		IdempotencyTTL:     time.Hour,
		MerchantID:         "INDIANPAY10053",
		GatewayBaseURL:     "https://indianpay.co.in/admin/paynow",
		RechargeSettlement: config.SettlementImmediate,
	}
	for _, tweak := range tweaks {
		tweak(&cfg)
	}
	logger := logging.Discard()
	box := &smsOutbox{}
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	require.NoError(t, Setup(app, Deps{Cfg: cfg, Logger: logger, Metrics: metrics.New(), Notifier: box}))
	return apiClient{t: t, app: app}, box
}

func data(body map[string]any) map[string]any {
	d, _ := body["data"].(map[string]any)
	return d
}

func TestWalletLifecycle(t *testing.T) {
	api, _ := newTestAPI(t)

	status, body := api.do(http.MethodPost, "/api/player/signup", "", `{"name":"Asha","phone_number":"9876543210"}`)
	require.Equal(t, http.StatusOK, status, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	status, body = api.do(http.MethodGet, "/api/player/profile", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, data(body)["topUpBalance"])
	assert.NotContains(t, data(body), "lastTransactionId")

	status, body = api.do(http.MethodPost, "/api/player/recharge", token, `{"amount":100,"transactionId":"TX1"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "SUCCESS", body["status"])
	assert.Equal(t, "100", body["amount"])
	assert.Equal(t, "TX1", body["order_id"])
	assert.Contains(t, body["payment_link"], "orderId=TX1")

	status, _ = api.do(http.MethodPost, "/api/player/recharge", token, `{"amount":"50","transactionId":"TX2"}`)
	require.Equal(t, http.StatusOK, status)

	status, body = api.do(http.MethodPost, "/api/player/recharge", token, `{"amount":10,"transactionId":"TX2"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "duplicate_error", body["error"])

	status, body = api.do(http.MethodGet, "/api/player/profile", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 150.0, data(body)["topUpBalance"])
	assert.Equal(t, "TX2", data(body)["lastTransactionId"])

	status, body = api.do(http.MethodPost, "/api/player/spend", token, `{"amount":50,"type":"topup","gameId":"g1"}`)
	require.Equal(t, http.StatusOK, status, body)
	after, _ := data(body)["balanceAfterTransaction"].(map[string]any)
	assert.Equal(t, 100.0, after["topUpBalance"])
	assert.True(t, strings.HasPrefix(data(body)["transactionId"].(string), "SP"))

	status, body = api.do(http.MethodPost, "/api/player/spend", token, `{"amount":500}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "insufficient_balance", body["error"])
	assert.Equal(t, map[string]any{"currentBalance": 100.0, "requiredAmount": 500.0}, body["data"])
	meta, _ := body["meta"].(map[string]any)
	assert.Equal(t, false, meta["status"])

	status, body = api.do(http.MethodGet, "/api/player/recharge-history", token, "")
	require.Equal(t, http.StatusOK, status)
	history, _ := body["data"].([]any)
	require.Len(t, history, 2)
	newest, _ := history[0].(map[string]any)
	assert.Equal(t, "TX2", newest["transactionId"])
	assert.Equal(t, "50", newest["amount"])

	status, body = api.do(http.MethodPost, "/api/player/reset-balance", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, data(body)["topUpBalance"])

	status, body = api.do(http.MethodGet, "/api/player/profile", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, data(body)["topUpBalance"])
	assert.Equal(t, 0.0, data(body)["winningBalance"])
}

func TestOTPLoginOverHTTP(t *testing.T) {
	api, box := newTestAPI(t)

	status, _ := api.do(http.MethodPost, "/api/player/signup", "", `{"name":"Asha","phone_number":"9876543210"}`)
	require.Equal(t, http.StatusOK, status)

	status, body := api.do(http.MethodPost, "/api/player/login", "", `{"phone_number":"9876543210"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OTP sent successfully", body["message"])

	status, body = api.do(http.MethodPost, "/api/player/verifyOtp", "", `{"phone_number":"9876543210","verify_otp":"`+box.code()+`"}`)
	require.Equal(t, http.StatusOK, status, body)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)

	status, _ = api.do(http.MethodGet, "/api/player/profile", token, "")
	assert.Equal(t, http.StatusOK, status)

	status, body = api.do(http.MethodPost, "/api/player/login", "", `{"phone_number":"1111111111"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["error"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api, _ := newTestAPI(t)

	status, body := api.do(http.MethodGet, "/api/player/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["error"])

	status, _ = api.do(http.MethodGet, "/api/player/profile", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPaymentCallbackUnknownOrder(t *testing.T) {
	api, _ := newTestAPI(t)

	status, body := api.do(http.MethodPost, "/api/player/payment-callback", "", `{"orderId":"missing","status":"SUCCESS","amount":20}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["error"])
}

func TestOperationalRoutes(t *testing.T) {
	api, _ := newTestAPI(t)

	status, body := api.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"postgres": "memory", "redis": "disabled"}, body["status"])

	status, body = api.do(http.MethodGet, "/api/player/ping", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	status, _ = api.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestCORSPreflight(t *testing.T) {
	api, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/player/profile", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://game.example")
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, http.MethodGet)
	req.Header.Set(fiber.HeaderAccessControlRequestHeaders, "Authorization")
	resp, err := api.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowMethods), "POST")
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowHeaders), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/api/player/ping", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://game.example")
	resp, err = api.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestCORSRestrictedOrigins(t *testing.T) {
	api, _ := newTestAPI(t, func(cfg *config.Config) {
		cfg.CORSAllowOrigins = "https://game.example"
	})

	req := httptest.NewRequest(http.MethodGet, "/api/player/ping", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://game.example")
	resp, err := api.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "https://game.example", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))

	req = httptest.NewRequest(http.MethodGet, "/api/player/ping", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://elsewhere.example")
	resp, err = api.app.Test(req)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}
