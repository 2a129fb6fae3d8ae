package payments

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ludosixer/ludo_wallet/internal/middleware"
	"github.com/ludosixer/ludo_wallet/internal/wallet"
)

// Handler exposes payment endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type spendRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"type"`
	GameID string          `json:"gameId"`
}

type spendResponse struct {
	TransactionID           string                  `json:"transactionId"`
	Amount                  float64                 `json:"amount"`
	BalanceAfterTransaction wallet.BalancesResponse `json:"balanceAfterTransaction"`
	Timestamp               int64                   `json:"timestamp"`
}

// Spend debits the authenticated player's balance for in-game use.
func (h *Handler) Spend(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	var req spendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Spend(c.UserContext(), SpendInput{
		UserID: userID,
		Amount: req.Amount,
		Type:   req.Type,
		GameID: req.GameID,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"meta": wallet.Meta{Msg: "Amount spent successfully", Status: true},
		"data": spendResponse{
			TransactionID:           res.TransactionID,
			Amount:                  res.Amount.InexactFloat64(),
			BalanceAfterTransaction: wallet.RenderBalances(res.BalanceAfter),
			Timestamp:               res.Timestamp.UnixMilli(),
		},
	})
}
