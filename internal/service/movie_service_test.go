package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cinelog/internal/models"
	"cinelog/internal/repository"
	"cinelog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeMovieInput(t *testing.T, raw string) MovieInput {
	t.Helper()
	var in MovieInput
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	return in
}

func TestApplyMovieInput_Create(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		raw    string
		fields []string
	}{
		{"missing title", `{"director":"Bong","genres":["Drama"]}`, []string{"title"}},
		{"blank director", `{"title":"Okja","director":"  ","genres":["Drama"]}`, []string{"director"}},
		{"no genres", `{"title":"Okja","director":"Bong"}`, []string{"genres"}},
		{"empty genres", `{"title":"Okja","director":"Bong","genres":""}`, []string{"genres"}},
		{"bad date and runtime", `{"title":"Okja","director":"Bong","genres":["Drama"],"releaseDate":"17/06/2017","runtime":0}`, []string{"releaseDate", "runtime"}},
		{"long description", `{"title":"Okja","director":"Bong","genres":["Drama"],"description":"` + strings.Repeat("d", 2001) + `"}`, []string{"description"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := applyMovieInput(&models.Movie{}, decodeMovieInput(t, tt.raw), true)
			require.Error(t, err)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			var got []string
			for _, f := range appErr.Fields {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestApplyMovieInput_Parses(t *testing.T) {
	t.Parallel()
	movie := &models.Movie{}
	fields, err := applyMovieInput(movie, decodeMovieInput(t, `{
		"title": " Okja ", "titleEn": "Okja", "director": "Bong Joon-ho",
		"actors": "Tilda Swinton, Paul Dano", "genres": "Adventure,Drama",
		"releaseDate": "2017-06-28T09:00:00Z", "runtime": 120
	}`), true)
	require.NoError(t, err)

	assert.Equal(t, "Okja", movie.Title)
	assert.Equal(t, models.ActorList{"Tilda Swinton", "Paul Dano"}, movie.Actors)
	assert.Equal(t, models.StringList{"Adventure", "Drama"}, movie.Genres)
	require.NotNil(t, movie.ReleaseDate)
	assert.Equal(t, time.Date(2017, 6, 28, 0, 0, 0, 0, time.UTC), *movie.ReleaseDate)
	assert.Equal(t, 120, *movie.Runtime)
	assert.ElementsMatch(t, []string{"title", "title_en", "director", "actors", "genres", "release_date", "runtime"}, fields)
}

func TestMovieService_CRUD(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	movie, err := env.movies.Create(ctx, decodeMovieInput(t, `{"title":"Burning","director":"Lee Chang-dong","genres":["Mystery"]}`))
	require.NoError(t, err)
	assert.NotZero(t, movie.ID)
	assert.Equal(t, 0.0, movie.Rating)

	_, err = env.movies.Create(ctx, decodeMovieInput(t, `{"title":"Burning","director":"Someone","genres":["Drama"]}`))
	assertAppError(t, err, models.CodeConflict)

	_, err = env.movies.Update(ctx, movie.ID, MovieInput{})
	assertValidationError(t, err)
	_, err = env.movies.Update(ctx, 999, decodeMovieInput(t, `{"runtime":148}`))
	assertAppError(t, err, models.CodeNotFound)

	updated, err := env.movies.Update(ctx, movie.ID, decodeMovieInput(t, `{"runtime":148,"genres":["Mystery","Drama"]}`))
	require.NoError(t, err)
	assert.Equal(t, 148, *updated.Runtime)
	assert.Equal(t, "Burning", updated.Title)

	var stored models.Movie
	require.NoError(t, env.db.First(&stored, movie.ID).Error)
	assert.Equal(t, models.StringList{"Mystery", "Drama"}, stored.Genres)

	require.NoError(t, env.movies.Delete(ctx, movie.ID))
	assertAppError(t, env.movies.Delete(ctx, movie.ID), models.CodeNotFound)
}

func TestMovieService_DeleteCascadesReviewImages(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	user := testutil.CreateUser(t, env.db, "shooter")
	movie := testutil.CreateMovie(t, env.db, "Poetry", "Drama")

	review, err := env.reviews.Create(ctx, CreateReviewInput{
		UserID: user.ID, MovieID: movie.ID, Rating: 4,
		Images: []UploadFile{pngUpload(t, "reviewImages")},
	})
	require.NoError(t, err)
	require.True(t, fileExists(t, env.store, review.Images[0]))

	require.NoError(t, env.movies.Delete(ctx, movie.ID))
	assert.False(t, fileExists(t, env.store, review.Images[0]))

	var count int64
	require.NoError(t, env.db.Model(&models.Review{}).Where("movie_id = ?", movie.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMovieService_ListAndDetail(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	viewer := testutil.CreateUser(t, env.db, "viewer")
	movie := testutil.CreateMovie(t, env.db, "The Handmaiden", "Thriller", "Romance")
	testutil.CreateMovie(t, env.db, "Snowpiercer", "SciFi")

	var liked uint
	for i, rating := range []float64{5, 4, 4, 3, 2, 1} {
		author := testutil.CreateUser(t, env.db, "author"+string(rune('a'+i)))
		r := testutil.CreateReview(t, env.db, author.ID, movie.ID, rating)
		liked = r.ID
	}
	_, err := env.reviews.ToggleLike(ctx, liked, viewer.ID)
	require.NoError(t, err)

	list, err := env.movies.List(ctx, ListMoviesInput{Genre: "Romance"})
	require.NoError(t, err)
	require.Len(t, list.Movies, 1)
	assert.Equal(t, movie.ID, list.Movies[0].ID)
	assert.Equal(t, 20, list.Pagination.ItemsPerPage)

	list, err = env.movies.List(ctx, ListMoviesInput{Search: "PIERCER", ListParams: repository.ListParams{SortBy: "title", SortOrder: "asc"}})
	require.NoError(t, err)
	require.Len(t, list.Movies, 1)
	assert.Equal(t, "Snowpiercer", list.Movies[0].Title)

	detail, err := env.movies.Detail(ctx, movie.ID, viewer.ID)
	require.NoError(t, err)
	assert.Len(t, detail.RecentReviews, 5)
	assert.Equal(t, liked, detail.RecentReviews[0].ID)
	assert.True(t, detail.RecentReviews[0].IsLiked)
	assert.Nil(t, detail.RecentReviews[0].Movie)
	require.Len(t, detail.RatingDistribution, 5)
	assert.Equal(t, models.RatingBucket{Rating: 5, Count: 1}, detail.RatingDistribution[0])
	assert.Equal(t, models.RatingBucket{Rating: 4, Count: 2}, detail.RatingDistribution[1])

	_, err = env.movies.Detail(ctx, 999, 0)
	assertAppError(t, err, models.CodeNotFound)
}
