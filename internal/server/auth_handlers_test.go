package server

import (
	"net/http"
	"strings"
	"testing"

	"cinelog/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Validation(t *testing.T) {
	ts := newTestServer(t, "")

	tests := []struct {
		name   string
		body   fiber.Map
		fields []string
	}{
		{"missing everything", fiber.Map{}, []string{"email", "password", "nickname"}},
		{"bad email", fiber.Map{"email": "nope", "password": "secret123", "nickname": "ok"}, []string{"email"}},
		{"short password", fiber.Map{"email": "a@b.co", "password": "12345", "nickname": "ok"}, []string{"password"}},
		{"long nickname", fiber.Map{"email": "a@b.co", "password": "secret123", "nickname": strings.Repeat("n", 21)}, []string{"nickname"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "VALIDATION_ERROR", body["code"])
			assert.ElementsMatch(t, tt.fields, fieldNames(body))
		})
	}
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t, "")

	status, body := ts.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":          "Critic@Example.com",
		"password":       "secret123",
		"nickname":       "critic",
		"favoriteGenres": "Drama, Thriller",
	})
	require.Equal(t, http.StatusCreated, status, body)
	user := body["user"].(map[string]any)
	assert.Equal(t, "critic@example.com", user["email"])
	assert.Equal(t, []any{"Drama", "Thriller"}, user["favoriteGenres"])
	assert.NotContains(t, user, "password")

	t.Run("duplicates are rejected", func(t *testing.T) {
		status, body := ts.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
			"email": "critic@example.com", "password": "secret123", "nickname": "other",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "CONFLICT", body["code"])

		status, _ = ts.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
			"email": "other@example.com", "password": "secret123", "nickname": "critic",
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	status, body = ts.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "critic@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password", body["message"])

	status, body = ts.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "CRITIC@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)
	token := body["token"].(string)

	status, body = ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "critic", body["user"].(map[string]any)["nickname"])

	status, body = ts.do(t, http.MethodPut, "/api/auth/password", token, fiber.Map{
		"currentPassword": "nope", "newPassword": "another1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"currentPassword"}, fieldNames(body))

	status, _ = ts.do(t, http.MethodPut, "/api/auth/password", token, fiber.Map{
		"currentPassword": "secret123", "newPassword": "another1",
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = ts.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "critic@example.com", "password": "another1",
	})
	assert.Equal(t, http.StatusOK, status)

	status, _ = ts.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	status, body = ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Token has been revoked", body["message"])
}

func TestAuthGuard(t *testing.T) {
	ts := newTestServer(t, "")
	token, userID := ts.register(t, "guarded")

	orphan, err := ts.tokens.Issue(userID + 100)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer not.a.token", http.StatusForbidden},
		{"unknown user", "Bearer " + orphan, http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest(http.MethodGet, "/api/auth/me")
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			status, _ := ts.send(t, req, "")
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	ts := newTestServer(t, "")
	token, _ := ts.register(t, "painter")
	ts.register(t, "taken")

	status, body := ts.do(t, http.MethodPut, "/api/auth/profile", token, fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No fields to update", body["message"])

	status, _ = ts.do(t, http.MethodPut, "/api/auth/profile", token, fiber.Map{"nickname": "taken"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = ts.do(t, http.MethodPut, "/api/auth/profile", token, fiber.Map{
		"nickname": "painter2", "favoriteGenres": []string{"Animation"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "painter2", body["user"].(map[string]any)["nickname"])

	req := multipartRequest(t, http.MethodPut, "/api/auth/profile",
		map[string]string{"favoriteGenres": `["Documentary","Drama"]`},
		formFile{field: "profileImage", filename: "me.png", content: testutil.TinyPNG(t, 4, 4)},
	)
	status, body = ts.send(t, req, token)
	require.Equal(t, http.StatusOK, status, body)
	user := body["user"].(map[string]any)
	assert.Equal(t, []any{"Documentary", "Drama"}, user["favoriteGenres"])
	image, _ := user["profileImage"].(string)
	assert.Regexp(t, `^/uploads/profiles/profileImage-\d+-\d+\.png$`, image)

	status, _ = ts.send(t, testRequest(http.MethodGet, image), "")
	assert.Equal(t, http.StatusOK, status)
}
