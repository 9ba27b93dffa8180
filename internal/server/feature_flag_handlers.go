package server

import (
	"cinelog/internal/featureflags"
	"cinelog/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns configured feature flags evaluated for the current admin.
// @Summary Feature flags
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{flags=[]featureflags.State}
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	states := []featureflags.State{}
	if s.featureFlags != nil {
		states = append(states, s.featureFlags.States(middleware.ViewerID(c))...)
	}
	return c.JSON(fiber.Map{"flags": states})
}
