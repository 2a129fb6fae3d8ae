package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ludosixer/ludo_wallet/internal/wallet"
)

// RegisterWalletRoutes wires balance and history endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/profile", h.Profile)
	r.Get("/recharge-history", h.RechargeHistory)
	r.Post("/reset-balance", h.ResetBalance)
}
