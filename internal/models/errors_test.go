package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), fiber.StatusBadRequest},
		{"conflict", NewConflictError("dup"), fiber.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError("who"), fiber.StatusUnauthorized},
		{"forbidden", NewForbiddenError("no"), fiber.StatusForbidden},
		{"not found", NewNotFoundError("Movie", 7), fiber.StatusNotFound},
		{"internal", NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", NewForbiddenError("no")), fiber.StatusForbidden},
		{"plain", errors.New("plain"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForError(tt.err))
		})
	}
}

func TestNewNotFoundErrorMessage(t *testing.T) {
	err := NewNotFoundError("Review", 12)
	assert.Equal(t, "Review with ID 12 not found", err.Error())
	assert.Equal(t, CodeNotFound, err.Code)
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("db down")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "db down")
}

func respond(t *testing.T, status int, err error) (int, ErrorResponse) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithError(c, status, err)
	})
	resp, reqErr := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, reqErr)
	defer func() { _ = resp.Body.Close() }()
	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return resp.StatusCode, out
}

func TestRespondWithErrorFieldErrors(t *testing.T) {
	err := NewFieldValidationError([]FieldError{
		{Field: "rating", Message: "Rating must be between 0.5 and 5.0"},
		{Field: "movieId", Message: "A valid movie ID is required"},
	})
	status, body := respond(t, fiber.StatusBadRequest, err)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Rating must be between 0.5 and 5.0", body.Message)
	assert.Equal(t, CodeValidation, body.Code)
	assert.Len(t, body.Errors, 2)
}

func TestRespondWithErrorHidesDetailsInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	status, body := respond(t, fiber.StatusInternalServerError, NewInternalError(errors.New("pq: relation missing")))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body.Message)
	assert.Empty(t, body.Details)

	_, plain := respond(t, fiber.StatusInternalServerError, errors.New("stack trace here"))
	assert.Equal(t, "Internal server error", plain.Message)
	assert.Empty(t, plain.Details)
}

func TestRespondWithErrorShowsDetailsOutsideProduction(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	_, body := respond(t, fiber.StatusInternalServerError, NewInternalError(errors.New("pq: relation missing")))
	assert.Equal(t, "pq: relation missing", body.Details)
}
