package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ludosixer/ludo_wallet/internal/apperr"
	"github.com/ludosixer/ludo_wallet/internal/auth"
	"github.com/ludosixer/ludo_wallet/internal/identity"
)

const (
	bearerPrefix = "Bearer "
	userLocal    = "user"
	userIDLocal  = "user_id"
)

// JWTAuth validates an "Authorization: Bearer <token>" header, scheme
// matched case-sensitively, and stores the resolved user in the request
// locals.
func JWTAuth(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(authz, bearerPrefix) {
			return apperr.Unauthorized("Missing bearer token")
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, bearerPrefix))
		if tokenStr == "" {
			return apperr.Unauthorized("Missing bearer token")
		}

		user, err := svc.Authenticate(c.UserContext(), tokenStr)
		if err != nil {
			return err
		}

		c.Locals(userLocal, user)
		c.Locals(userIDLocal, user.ID)
		return c.Next()
	}
}

// CurrentUser returns the user attached by JWTAuth.
func CurrentUser(c *fiber.Ctx) (identity.User, bool) {
	user, ok := c.Locals(userLocal).(identity.User)
	return user, ok
}

// UserID returns the authenticated user id or an Unauthorized error.
func UserID(c *fiber.Ctx) (string, error) {
	id, _ := c.Locals(userIDLocal).(string)
	if id == "" {
		return "", apperr.Unauthorized("Unauthorized")
	}
	return id, nil
}
