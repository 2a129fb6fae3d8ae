package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ludosixer/ludo_wallet/internal/payments"
)

// RegisterPaymentRoutes wires in-game spending.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler, idempotency fiber.Handler) {
	r.Post("/spend", idempotency, h.Spend)
}
