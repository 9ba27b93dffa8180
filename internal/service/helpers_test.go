package service

import (
	"errors"
	"testing"
	"time"

	"cinelog/internal/featureflags"
	"cinelog/internal/middleware"
	"cinelog/internal/models"
	"cinelog/internal/repository"
	"cinelog/internal/storage"
	"cinelog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}

type testEnv struct {
	db       *gorm.DB
	store    *storage.LocalStorage
	uploads  *UploadService
	tokens   *middleware.TokenManager
	auth     *AuthService
	movies   *MovieService
	reviews  *ReviewService
	users    *UserService
	userRepo repository.UserRepository
}

func newTestEnv(t *testing.T, flags string) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	store, err := storage.NewLocalStorage(t.TempDir(), UploadKindProfile, UploadKindReview)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	movieRepo := repository.NewMovieRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	uploads := NewUploadService(store, featureflags.NewManager(flags), nil)
	tokens := middleware.NewTokenManager("test-secret", time.Hour, nil)

	return &testEnv{
		db:       db,
		store:    store,
		uploads:  uploads,
		tokens:   tokens,
		auth:     NewAuthService(userRepo, tokens, uploads),
		movies:   NewMovieService(movieRepo, reviewRepo, uploads),
		reviews:  NewReviewService(reviewRepo, movieRepo, userRepo, commentRepo, uploads),
		users:    NewUserService(userRepo, reviewRepo),
		userRepo: userRepo,
	}
}

func pngUpload(t *testing.T, field string) UploadFile {
	t.Helper()
	return UploadFile{
		Field:       field,
		Filename:    "still.png",
		ContentType: "image/png",
		Content:     testutil.TinyPNG(t, 4, 4),
	}
}

func strPtr(s string) *string { return &s }
