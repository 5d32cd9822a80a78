package server

import (
	"errors"
	"strings"

	"picfeed/internal/cache"
	"picfeed/internal/middleware"
	"picfeed/internal/models"
	"picfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *fiber.Ctx) string {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func setUserID(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
}

// wsPath is the only route that accepts a ticket instead of a bearer token.
const wsPath = "/api/ws"

func isWebsocketPath(path string) bool {
	return strings.TrimSuffix(path, "/") == wsPath
}

// AuthRequired returns the authentication middleware. It accepts a bearer
// access token and, on the websocket route only, a single-use ticket query parameter.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ticket := c.Query("ticket"); ticket != "" && isWebsocketPath(c.Path()) {
			userID, err := s.wsTickets.Redeem(c.UserContext(), ticket)
			if err != nil {
				if !errors.Is(err, cache.ErrTicketNotFound) && !errors.Is(err, cache.ErrNoStore) {
					middleware.Logger.WarnContext(c.UserContext(), "ticket redemption failed", "error", err)
				}
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			setUserID(c, userID)
			return c.Next()
		}

		raw := bearerToken(c)
		if raw == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication credentials were not provided."))
		}

		claims, err := s.authService.Authenticate(c.UserContext(), raw)
		if err != nil {
			return s.respondError(c, err)
		}

		c.Locals("claims", claims)
		setUserID(c, claims.UserID)
		return c.Next()
	}
}

// ActiveUser loads the authenticated account and rejects deactivated ones.
// Must be placed after AuthRequired.
func (s *Server) ActiveUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("userID").(uint)
		user, err := s.userService.GetMe(c.UserContext(), userID)
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("User not found"))
			}
			return s.respondError(c, err)
		}
		if !user.IsActive() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewBusinessError(models.CodeAccountDeactivated, "Your account is deactivated."))
		}
		c.Locals("user", user)
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after ActiveUser.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user := currentUser(c); user == nil || !user.IsAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

func currentUserID(c *fiber.Ctx) uint {
	userID, _ := c.Locals("userID").(uint)
	return userID
}

func currentClaims(c *fiber.Ctx) *service.TokenClaims {
	claims, _ := c.Locals("claims").(*service.TokenClaims)
	return claims
}
