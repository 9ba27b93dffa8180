package server

import (
	"fmt"
	"net/http"
	"testing"

	"cinelog/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovieWrites_AdminOnly(t *testing.T) {
	ts := newTestServer(t, "")
	userToken, _ := ts.register(t, "viewer")
	adminToken, adminID := ts.register(t, "curator")
	ts.promote(t, adminID)

	movie := fiber.Map{
		"title":       "Parasite",
		"director":    "Bong Joon-ho",
		"genres":      []string{"Thriller", "Drama"},
		"actors":      "Song Kang-ho, Choi Woo-shik",
		"releaseDate": "2019-05-30",
		"runtime":     132,
	}

	status, _ := ts.do(t, http.MethodPost, "/api/movies", "", movie)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, body := ts.do(t, http.MethodPost, "/api/movies", userToken, movie)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Admin access required", body["message"])

	status, body = ts.do(t, http.MethodPost, "/api/movies", adminToken, movie)
	require.Equal(t, http.StatusCreated, status, body)
	created := body["movie"].(map[string]any)
	assert.Equal(t, []any{"Song Kang-ho", "Choi Woo-shik"}, created["actors"])
	assert.Equal(t, float64(0), created["rating"])
	id := uint(created["id"].(float64))

	status, body = ts.do(t, http.MethodPost, "/api/movies", adminToken, movie)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "CONFLICT", body["code"])

	path := fmt.Sprintf("/api/movies/%d", id)
	status, body = ts.do(t, http.MethodPut, path, adminToken, fiber.Map{"runtime": 0})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"runtime"}, fieldNames(body))

	status, body = ts.do(t, http.MethodPut, path, adminToken, fiber.Map{"description": "A poor family infiltrates a rich one."})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Parasite", body["movie"].(map[string]any)["title"])

	status, _ = ts.do(t, http.MethodPut, "/api/movies/9999", adminToken, fiber.Map{"runtime": 90})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, http.MethodDelete, path, userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = ts.do(t, http.MethodDelete, path, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = ts.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListMovies(t *testing.T) {
	ts := newTestServer(t, "")
	testutil.CreateMovie(t, ts.db, "Alien", "SciFi", "Horror")
	testutil.CreateMovie(t, ts.db, "Aliens", "SciFi", "Action")
	testutil.CreateMovie(t, ts.db, "Heat", "Crime")

	tests := []struct {
		name   string
		query  string
		titles []any
	}{
		{"title ascending", "?sortBy=title&sortOrder=asc", []any{"Alien", "Aliens", "Heat"}},
		{"search", "?search=ALIEN&sortBy=title&sortOrder=asc", []any{"Alien", "Aliens"}},
		{"genre is exact", "?genre=Horror", []any{"Alien"}},
		{"filters are ANDed", "?genre=SciFi&search=heat", []any{}},
		{"deep page", "?page=9", []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(t, http.MethodGet, "/api/movies"+tt.query, "", nil)
			require.Equal(t, http.StatusOK, status)
			titles := []any{}
			for _, m := range body["movies"].([]any) {
				titles = append(titles, m.(map[string]any)["title"])
			}
			assert.Equal(t, tt.titles, titles)
		})
	}

	status, body := ts.do(t, http.MethodGet, "/api/movies?limit=2", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{
		"currentPage": float64(1), "totalPages": float64(2), "totalItems": float64(3),
		"itemsPerPage": float64(2), "hasNext": true, "hasPrev": false,
	}, body["pagination"])

	status, body = ts.do(t, http.MethodGet, "/api/movies?limit=100&sortBy=budget", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.ElementsMatch(t, []string{"limit", "sortBy"}, fieldNames(body))
}
