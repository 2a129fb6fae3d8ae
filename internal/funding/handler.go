package funding

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ludosixer/ludo_wallet/internal/middleware"
)

// Handler exposes the recharge and payment callback endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Recharge records a top-up order for the authenticated player.
func (h *Handler) Recharge(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	var req RechargeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Recharge(c.UserContext(), RechargeInput{
		UserID:        userID,
		Amount:        req.Amount,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(RechargeResponse{
		Status:      "SUCCESS",
		Amount:      result.Amount.String(),
		OrderID:     result.OrderID,
		PaymentLink: result.PaymentLink,
		GatewayTxn:  result.GatewayTxn,
	})
}

// PaymentCallback receives settlement notifications from the provider.
func (h *Handler) PaymentCallback(c *fiber.Ctx) error {
	var req CallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.PaymentCallback(c.UserContext(), CallbackInput{
		OrderID: req.OrderID,
		Status:  req.Status,
		Amount:  req.Amount,
	}); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "OK"})
}
