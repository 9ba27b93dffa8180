package server

import (
	"encoding/json"
	"strings"

	"cinelog/internal/middleware"
	"cinelog/internal/models"
	"cinelog/internal/repository"
	"cinelog/internal/service"
	"cinelog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// reviewForm is the review payload shared by create and update. Both
// multipart forms and JSON bodies are accepted.
type reviewForm struct {
	MovieID    uint
	Rating     *float64
	Content    *string
	KeepImages bool
	Images     []service.UploadFile
}

func parseReviewForm(c *fiber.Ctx) (reviewForm, error) {
	form := reviewForm{KeepImages: true}

	if !isMultipart(c) {
		if len(c.Body()) == 0 {
			return form, nil
		}
		var req struct {
			MovieID    uint            `json:"movieId"`
			Rating     *float64        `json:"rating"`
			Content    *string         `json:"content"`
			KeepImages json.RawMessage `json:"keepImages"`
		}
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return form, models.NewValidationError("Invalid request body")
		}
		form.MovieID = req.MovieID
		form.Rating = req.Rating
		form.Content = req.Content
		form.KeepImages = strings.Trim(string(req.KeepImages), `"`) != "false"
		return form, nil
	}

	var errs validation.FieldErrors
	if raw := optionalFormValue(c, "movieId"); raw != nil {
		id, err := validation.ParseID("movieId", *raw)
		if err != nil {
			errs.Add("movieId", "movieId must be a positive integer")
		}
		form.MovieID = id
	}
	if raw := optionalFormValue(c, "rating"); raw != nil {
		rating, err := validation.ParseRating(*raw)
		if err != nil {
			errs.Add("rating", "Rating must be between 0.5 and 5.0 in steps of 0.5")
		}
		form.Rating = &rating
	}
	form.Content = optionalFormValue(c, "content")
	if raw := optionalFormValue(c, "keepImages"); raw != nil {
		form.KeepImages = strings.TrimSpace(*raw) != "false"
	}
	if err := errs.Err(); err != nil {
		return form, err
	}

	images, err := formFiles(c, "reviewImages", models.MaxReviewImages)
	if err != nil {
		return form, err
	}
	form.Images = images
	return form, nil
}

// ListReviews handles GET /api/reviews
// @Summary List reviews
// @Tags reviews
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size 1-50 (default 10)"
// @Param sortBy query string false "rating, created_at, likes_count"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} models.ReviewList
// @Router /reviews [get]
func (s *Server) ListReviews(c *fiber.Ctx) error {
	return s.listReviews(c, 0, 0)
}

// ListMovieReviews handles GET /api/reviews/movie/:movieId
// @Summary List a movie's reviews
// @Tags reviews
// @Produce json
// @Param movieId path int true "Movie ID"
// @Success 200 {object} models.ReviewList
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/movie/{movieId} [get]
func (s *Server) ListMovieReviews(c *fiber.Ctx) error {
	movieID, err := s.parseID(c, "movieId")
	if err != nil {
		return nil
	}
	return s.listReviews(c, movieID, 0)
}

func (s *Server) listReviews(c *fiber.Ctx, movieID, userID uint) error {
	params, err := parseListQuery(c, repository.ReviewSortKeys)
	if err != nil {
		return respondServiceError(c, err)
	}
	list, err := s.reviewService.List(c.UserContext(), service.ListReviewsInput{
		ListParams: params,
		MovieID:    movieID,
		UserID:     userID,
		ViewerID:   middleware.ViewerID(c),
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(list)
}

// GetReview handles GET /api/reviews/:id
// @Summary Review detail with comments
// @Tags reviews
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} models.ReviewDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [get]
func (s *Server) GetReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.reviewService.Detail(c.UserContext(), id, middleware.ViewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(detail)
}

// CreateReview handles POST /api/reviews
// @Summary Create review
// @Tags reviews
// @Accept mpfd,json
// @Produce json
// @Security BearerAuth
// @Param movieId formData int true "Movie ID"
// @Param rating formData number true "0.5-5.0 in steps of 0.5"
// @Param content formData string false "Review text"
// @Param reviewImages formData file false "Up to 3 images"
// @Success 201 {object} object{message=string,review=models.ReviewView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews [post]
func (s *Server) CreateReview(c *fiber.Ctx) error {
	form, err := parseReviewForm(c)
	if err != nil {
		return respondServiceError(c, err)
	}

	in := service.CreateReviewInput{
		UserID:  middleware.ViewerID(c),
		MovieID: form.MovieID,
		Content: form.Content,
		Images:  form.Images,
	}
	if form.Rating != nil {
		in.Rating = *form.Rating
	}

	review, err := s.reviewService.Create(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	s.publishReviewCreated(c.UserContext(), review)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Review created",
		"review":  review,
	})
}

// UpdateReview handles PUT /api/reviews/:id
// @Summary Update own review
// @Tags reviews
// @Accept mpfd,json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param rating formData number false "New rating"
// @Param content formData string false "New text"
// @Param keepImages formData string false "\"false\" replaces stored images"
// @Param reviewImages formData file false "Images to add"
// @Success 200 {object} object{message=string,review=models.ReviewView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [put]
func (s *Server) UpdateReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	form, err := parseReviewForm(c)
	if err != nil {
		return respondServiceError(c, err)
	}

	review, err := s.reviewService.Update(c.UserContext(), service.UpdateReviewInput{
		UserID:     middleware.ViewerID(c),
		ReviewID:   id,
		Rating:     form.Rating,
		Content:    form.Content,
		Images:     form.Images,
		KeepImages: form.KeepImages,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Review updated",
		"review":  review,
	})
}

// DeleteReview handles DELETE /api/reviews/:id
// @Summary Delete own review
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id} [delete]
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.reviewService.Delete(c.UserContext(), id, middleware.ViewerID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Review deleted"})
}

// ToggleLike handles POST /api/reviews/:id/like
// @Summary Like or unlike a review
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 200 {object} object{message=string,isLiked=bool,likesCount=int}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	viewer, _ := middleware.CurrentUser(c)

	result, err := s.reviewService.ToggleLike(ctx, id, viewer.ID)
	if err != nil {
		return respondServiceError(c, err)
	}

	message := "Like removed"
	if result.IsLiked {
		message = "Review liked"
		if review, err := s.reviewService.Review(ctx, id); err == nil {
			s.publishReviewLiked(ctx, review.UserID, viewer, id, result.LikesCount)
		}
	}
	return c.JSON(fiber.Map{
		"message":    message,
		"isLiked":    result.IsLiked,
		"likesCount": result.LikesCount,
	})
}

// CreateComment handles POST /api/reviews/:id/comments
// @Summary Comment on a review
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} object{message=string,comment=models.CommentView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	reviewID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	ctx := c.UserContext()
	userID := middleware.ViewerID(c)
	comment, err := s.reviewService.AddComment(ctx, service.CreateCommentInput{
		UserID:   userID,
		ReviewID: reviewID,
		Content:  req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	view := models.NewCommentView(comment)
	if review, err := s.reviewService.Review(ctx, reviewID); err == nil && review.UserID != userID {
		s.publishCommentCreated(ctx, review.UserID, &view, reviewID)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Comment created",
		"comment": view,
	})
}

// DeleteComment handles DELETE /api/reviews/:reviewId/comments/:commentId
// @Summary Delete own comment
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param reviewId path int true "Review ID"
// @Param commentId path int true "Comment ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{reviewId}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	reviewID, err := s.parseID(c, "reviewId")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	if err := s.reviewService.DeleteComment(c.UserContext(), reviewID, commentID, middleware.ViewerID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
