package wallet

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ludosixer/ludo_wallet/internal/ledger"
	"github.com/ludosixer/ludo_wallet/internal/middleware"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Meta is the success envelope header shared by wallet responses.
type Meta struct {
	Msg    string `json:"msg"`
	Status bool   `json:"status"`
}

type profileResponse struct {
	WinningBalance    float64 `json:"winningBalance"`
	TopUpBalance      float64 `json:"topUpBalance"`
	LastTransactionID string  `json:"lastTransactionId,omitempty"`
}

// BalancesResponse renders a balance pair.
type BalancesResponse struct {
	TopUpBalance   float64 `json:"topUpBalance"`
	WinningBalance float64 `json:"winningBalance"`
}

// RenderBalances converts balances to their JSON form.
func RenderBalances(b ledger.Balances) BalancesResponse {
	return BalancesResponse{TopUpBalance: b.TopUp.InexactFloat64(), WinningBalance: b.Winning.InexactFloat64()}
}

type historyEntry struct {
	Amount                  string           `json:"amount"`
	TransactionID           string           `json:"transactionId"`
	CreatedAt               int64            `json:"createdAt"`
	Status                  string           `json:"status"`
	BalanceAfterTransaction BalancesResponse `json:"balanceAfterTransaction"`
}

// Profile returns the reconciled balances of the authenticated player.
func (h *Handler) Profile(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	profile, err := h.service.Profile(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"meta": Meta{Msg: "Profile fetched successfully", Status: true},
		"data": profileResponse{
			WinningBalance:    profile.Winning.InexactFloat64(),
			TopUpBalance:      profile.TopUp.InexactFloat64(),
			LastTransactionID: profile.LastTransactionID,
		},
	})
}

// RechargeHistory lists recent recharges, newest first.
func (h *Handler) RechargeHistory(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	txns, err := h.service.RechargeHistory(c.UserContext(), userID)
	if err != nil {
		return err
	}
	entries := make([]historyEntry, 0, len(txns))
	for _, t := range txns {
		entries = append(entries, historyEntry{
			Amount:                  t.Amount.String(),
			TransactionID:           t.TransactionID,
			CreatedAt:               t.CreatedAt.UnixMilli(),
			Status:                  string(t.Status),
			BalanceAfterTransaction: RenderBalances(t.Snapshot()),
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"meta": Meta{Msg: "Recharge history fetched successfully", Status: true},
		"data": entries,
	})
}

// ResetBalance zeroes the player's balances and archives their history.
func (h *Handler) ResetBalance(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	balances, err := h.service.ResetBalance(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"meta": Meta{Msg: "Balance reset successfully", Status: true},
		"data": RenderBalances(balances),
	})
}
