package middleware

import (
	"context"
	"strings"

	"todoapp/internal/apperrors"
	"todoapp/internal/logging"
	"todoapp/internal/models"
	"todoapp/internal/services"

	"github.com/gofiber/fiber/v2"
)

// localsUserKey is the c.Locals key holding the authenticated *models.User.
const localsUserKey = "user"

// TokenValidator resolves an access token to its user.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.User, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token. On
// success the user is available to later handlers through CurrentUser.
func AuthRequired(validator TokenValidator, logger logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "") {
			return unauthorized(c, "Authorization header format must be 'Bearer <token>'")
		}

		user, err := validator.ValidateToken(c.UserContext(), strings.TrimSpace(parts[1]))
		if err != nil {
			if !apperrors.IsUnauthorized(err) {
				logger.Error(c.UserContext(), "token validation failed", "error", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"message": "Could not validate token",
				})
			}
			logger.Info(c.UserContext(), "JWT validation failed", "error", err)
			message := apperrors.MessageOf(err, "Invalid or expired token")
			if services.IsTokenExpired(err) {
				message = "Token has expired"
			}
			return unauthorized(c, message)
		}

		c.Locals(localsUserKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by AuthRequired, or nil when the
// route is not protected.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localsUserKey).(*models.User)
	return user
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": message,
	})
}
