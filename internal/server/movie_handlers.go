package server

import (
	"cinelog/internal/middleware"
	"cinelog/internal/models"
	"cinelog/internal/repository"
	"cinelog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListMovies handles GET /api/movies
// @Summary List movies
// @Tags movies
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size 1-50 (default 20)"
// @Param sortBy query string false "rating, release_date, title, review_count"
// @Param sortOrder query string false "asc or desc"
// @Param search query string false "Title, director or actor substring"
// @Param genre query string false "Exact genre"
// @Success 200 {object} models.MovieList
// @Failure 400 {object} models.ErrorResponse
// @Router /movies [get]
func (s *Server) ListMovies(c *fiber.Ctx) error {
	params, err := parseListQuery(c, repository.MovieSortKeys)
	if err != nil {
		return respondServiceError(c, err)
	}

	list, err := s.movieService.List(c.UserContext(), service.ListMoviesInput{
		ListParams: params,
		Search:     c.Query("search"),
		Genre:      c.Query("genre"),
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(list)
}

// GetMovie handles GET /api/movies/:id
// @Summary Movie detail
// @Tags movies
// @Produce json
// @Param id path int true "Movie ID"
// @Success 200 {object} object{movie=models.MovieDetail}
// @Failure 404 {object} models.ErrorResponse
// @Router /movies/{id} [get]
func (s *Server) GetMovie(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.movieService.Detail(c.UserContext(), id, middleware.ViewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"movie": detail})
}

// CreateMovie handles POST /api/movies (admin)
// @Summary Create movie
// @Tags movies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.MovieInput true "Movie"
// @Success 201 {object} object{message=string,movie=models.Movie}
// @Failure 400 {object} models.ErrorResponse
// @Router /movies [post]
func (s *Server) CreateMovie(c *fiber.Ctx) error {
	var in service.MovieInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	movie, err := s.movieService.Create(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Movie created",
		"movie":   movie,
	})
}

// UpdateMovie handles PUT /api/movies/:id (admin)
// @Summary Update movie
// @Tags movies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Movie ID"
// @Param request body service.MovieInput true "Fields to change"
// @Success 200 {object} object{message=string,movie=models.Movie}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /movies/{id} [put]
func (s *Server) UpdateMovie(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.MovieInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	movie, err := s.movieService.Update(c.UserContext(), id, in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Movie updated",
		"movie":   movie,
	})
}

// DeleteMovie handles DELETE /api/movies/:id (admin)
// @Summary Delete movie
// @Tags movies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Movie ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /movies/{id} [delete]
func (s *Server) DeleteMovie(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.movieService.Delete(c.UserContext(), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Movie deleted"})
}
