package server

import (
	"picfeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns configured feature flags and their state for the caller
// @Summary Feature flags
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response
// @Failure 403 {object} models.Response
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	raw, evaluated := map[string]string{}, map[string]bool{}
	if s.featureFlags != nil {
		raw = s.featureFlags.Raw()
		evaluated = s.featureFlags.Snapshot(currentUserID(c))
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Feature flags retrieved successfully", fiber.Map{
		"raw":       raw,
		"evaluated": evaluated,
	})
}
