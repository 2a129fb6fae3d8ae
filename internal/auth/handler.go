package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ludosixer/ludo_wallet/internal/identity"
)

// Handler exposes the signup and OTP login endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type signupRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone_number"`
	Email string `json:"email"`
}

type loginRequest struct {
	Phone string `json:"phone_number"`
}

type verifyRequest struct {
	Phone string `json:"phone_number"`
	OTP   string `json:"verify_otp"`
}

// Signup registers a player and returns a bearer token.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, err := h.svc.Signup(c.UserContext(), identity.Registration{Name: req.Name, Phone: req.Phone, Email: req.Email})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"token": token})
}

// Login sends a one-time code to a registered phone number.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Login(c.UserContext(), req.Phone); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "OTP sent successfully"})
}

// VerifyOTP exchanges a valid code for a bearer token.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, err := h.svc.VerifyOTP(c.UserContext(), req.Phone, req.OTP)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"access_token": token})
}
