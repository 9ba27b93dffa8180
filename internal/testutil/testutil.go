// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"
	"time"

	"cinelog/internal/database"
	"cinelog/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewTestDB opens an isolated in-memory SQLite database with foreign keys
// enforced and the persistent models migrated.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:cinelog_test_%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user. The password column holds the plain value
// given, so callers that exercise login should hash it first.
func CreateUser(t testing.TB, db *gorm.DB, nickname string) *models.User {
	t.Helper()
	user := &models.User{
		Email:          nickname + "@example.com",
		Password:       "not-a-hash",
		Nickname:       nickname,
		FavoriteGenres: models.StringList{},
		SocialProvider: models.SocialProviderLocal,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateMovie inserts a movie with the given genres.
func CreateMovie(t testing.TB, db *gorm.DB, title string, genres ...string) *models.Movie {
	t.Helper()
	if genres == nil {
		genres = []string{}
	}
	release := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	movie := &models.Movie{
		Title:       title,
		Director:    "Director of " + title,
		Genres:      models.StringList(genres),
		Actors:      models.ActorList{},
		ReleaseDate: &release,
	}
	require.NoError(t, db.Create(movie).Error)
	return movie
}

// CreateReview inserts a review directly, without touching movie aggregates.
func CreateReview(t testing.TB, db *gorm.DB, userID, movieID uint, rating float64) *models.Review {
	t.Helper()
	content := fmt.Sprintf("review by %d of %d", userID, movieID)
	review := &models.Review{
		UserID:  userID,
		MovieID: movieID,
		Rating:  rating,
		Content: &content,
		Images:  models.StringList{},
	}
	require.NoError(t, db.Create(review).Error)
	return review
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}
