package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ludosixer/ludo_wallet/internal/funding"
)

// RegisterFundingRoutes wires the authenticated recharge endpoint.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler, idempotency fiber.Handler) {
	r.Post("/recharge", idempotency, h.Recharge)
}

// RegisterCallbackRoutes wires the unauthenticated gateway webhook.
func RegisterCallbackRoutes(r fiber.Router, h *funding.Handler) {
	r.Post("/payment-callback", h.PaymentCallback)
}
