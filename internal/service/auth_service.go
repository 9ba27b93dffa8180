package service

import (
	"context"
	"errors"
	"strings"

	"cinelog/internal/middleware"
	"cinelog/internal/models"
	"cinelog/internal/repository"
	"cinelog/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 12

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *middleware.TokenManager
	uploads  *UploadService
}

type RegisterInput struct {
	Email          string   `json:"email" validate:"required,email,max=255"`
	Password       string   `json:"password" validate:"required,min=6,max=72"`
	Nickname       string   `json:"nickname" validate:"required,notblank,min=2,max=20"`
	FavoriteGenres []string `json:"favoriteGenres"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileInput struct {
	UserID         uint
	Nickname       *string `json:"nickname" validate:"omitempty,notblank,min=2,max=20"`
	FavoriteGenres *models.StringList
	ProfileImage   *UploadFile
}

type ChangePasswordInput struct {
	UserID          uint
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

// AuthResult is a signed token together with the user it was issued for.
type AuthResult struct {
	Token string
	User  *models.User
}

func NewAuthService(userRepo repository.UserRepository, tokens *middleware.TokenManager, uploads *UploadService) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens, uploads: uploads}
}

// HashPassword hashes a plaintext password with BcryptCost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Nickname = strings.TrimSpace(in.Nickname)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email is already registered")
	}
	taken, err := s.userRepo.NicknameTaken(ctx, in.Nickname, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("Nickname is already in use")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Email:          in.Email,
		Password:       hash,
		Nickname:       in.Nickname,
		FavoriteGenres: validation.CleanList(in.FavoriteGenres),
		SocialProvider: models.SocialProviderLocal,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile applies the provided fields. A new profile image replaces the
// stored one, which is removed after the row is saved.
func (s *AuthService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if in.Nickname != nil {
		trimmed := strings.TrimSpace(*in.Nickname)
		in.Nickname = &trimmed
	}
	if in.Nickname == nil && in.FavoriteGenres == nil && in.ProfileImage == nil {
		return nil, models.NewValidationError("No fields to update")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Nickname != nil && *in.Nickname != user.Nickname {
		taken, err := s.userRepo.NicknameTaken(ctx, *in.Nickname, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewConflictError("Nickname is already in use")
		}
		user.Nickname = *in.Nickname
	}
	if in.FavoriteGenres != nil {
		user.FavoriteGenres = validation.CleanList(*in.FavoriteGenres)
	}

	var previous string
	if in.ProfileImage != nil {
		stored, err := s.uploads.Store(ctx, user.ID, UploadKindProfile, *in.ProfileImage)
		if err != nil {
			return nil, err
		}
		if user.ProfileImage != nil {
			previous = *user.ProfileImage
		}
		user.ProfileImage = &stored
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if in.ProfileImage != nil {
			s.uploads.Remove(ctx, *user.ProfileImage)
		}
		return nil, err
	}
	if previous != "" {
		s.uploads.Remove(ctx, previous)
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	user, err := s.userRepo.GetCredentials(ctx, in.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)) != nil {
		return models.NewFieldValidationError([]models.FieldError{{
			Field: "currentPassword", Message: "Current password is incorrect",
		}})
	}
	hash, err := HashPassword(in.NewPassword)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, hash)
}

// Logout revokes the token described by claims.
func (s *AuthService) Logout(ctx context.Context, claims *middleware.Claims) error {
	if claims == nil {
		return models.NewUnauthorizedError("Access token is required")
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// IsAppError reports whether err carries the given AppError code.
func IsAppError(err error, code string) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
