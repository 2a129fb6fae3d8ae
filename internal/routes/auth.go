package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ludosixer/ludo_wallet/internal/auth"
)

// RegisterAuthRoutes wires signup and the OTP login flow.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	r.Post("/signup", h.Signup)
	r.Post("/login", rateLimiter, h.Login)
	r.Post("/verifyOtp", rateLimiter, h.VerifyOTP)
}
