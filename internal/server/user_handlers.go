package server

import (
	"cinelog/internal/middleware"
	"cinelog/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// GetLikedReviews handles GET /api/users/me/liked-reviews
// @Summary Reviews the current user liked
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size 1-50 (default 10)"
// @Success 200 {object} models.ReviewList
// @Router /users/me/liked-reviews [get]
func (s *Server) GetLikedReviews(c *fiber.Ctx) error {
	params, err := parseListQuery(c, repository.ReviewSortKeys)
	if err != nil {
		return respondServiceError(c, err)
	}
	list, err := s.reviewService.Liked(c.UserContext(), middleware.ViewerID(c), params)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(list)
}

// GetUserProfile handles GET /api/users/:id
// @Summary Public profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.userService.Profile(c.UserContext(), id, middleware.ViewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// GetUserReviews handles GET /api/users/:id/reviews
// @Summary A user's reviews
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.ReviewList
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/reviews [get]
func (s *Server) GetUserReviews(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.listReviews(c, 0, id)
}

// GetUserStats handles GET /api/users/:id/stats
// @Summary Reviewing statistics
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserStats
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/stats [get]
func (s *Server) GetUserStats(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	stats, err := s.userService.Stats(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}
