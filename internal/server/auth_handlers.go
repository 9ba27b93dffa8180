package server

import (
	"encoding/json"

	"cinelog/internal/middleware"
	"cinelog/internal/models"
	"cinelog/internal/service"
	"cinelog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create a local account and receive an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string,nickname=string,favoriteGenres=[]string} true "Registration"
// @Success 201 {object} object{message=string,token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Email          string              `json:"email"`
		Password       string              `json:"password"`
		Nickname       string              `json:"nickname"`
		FavoriteGenres validation.FlexList `json:"favoriteGenres"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		Nickname:       req.Nickname,
		FavoriteGenres: req.FavoriteGenres,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

// Login handles POST /api/auth/login
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} object{message=string,token=string,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.authService.Login(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{user=models.User}
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.authService.Me(c.UserContext(), middleware.ViewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// UpdateProfile handles PUT /api/auth/profile. It accepts JSON or a
// multipart form carrying a profileImage file.
// @Summary Update profile
// @Tags auth
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param nickname formData string false "Nickname"
// @Param favoriteGenres formData string false "JSON array or comma-separated genres"
// @Param profileImage formData file false "Profile image"
// @Success 200 {object} object{message=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	in := service.UpdateProfileInput{UserID: middleware.ViewerID(c)}

	if isMultipart(c) {
		in.Nickname = optionalFormValue(c, "nickname")
		if raw := optionalFormValue(c, "favoriteGenres"); raw != nil {
			genres, err := validation.ParseGenres(*raw)
			if err != nil {
				return respondServiceError(c, err)
			}
			in.FavoriteGenres = &genres
		}
		files, err := formFiles(c, "profileImage", 1)
		if err != nil {
			return respondServiceError(c, err)
		}
		if len(files) == 1 {
			in.ProfileImage = &files[0]
		}
	} else if len(c.Body()) > 0 {
		var req struct {
			Nickname       *string              `json:"nickname"`
			FavoriteGenres *validation.FlexList `json:"favoriteGenres"`
		}
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Nickname = req.Nickname
		if req.FavoriteGenres != nil {
			genres := models.StringList(*req.FavoriteGenres)
			in.FavoriteGenres = &genres
		}
	}

	user, err := s.authService.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"user":    user,
	})
}

// ChangePassword handles PUT /api/auth/password
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{currentPassword=string,newPassword=string} true "Passwords"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/password [put]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req service.ChangePasswordInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.UserID = middleware.ViewerID(c)

	if err := s.authService.ChangePassword(c.UserContext(), req); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password changed"})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
// @Summary Logout
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals(middleware.LocalClaims).(*middleware.Claims)
	if err := s.authService.Logout(c.UserContext(), claims); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}
