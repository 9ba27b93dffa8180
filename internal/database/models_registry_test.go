package database

import (
	"testing"

	"cinelog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistentModels_ParentsBeforeChildren(t *testing.T) {
	all := PersistentModels()
	require.Len(t, all, 5)

	index := func(target any) int {
		for i, m := range all {
			if assert.ObjectsAreEqual(m, target) {
				return i
			}
		}
		return -1
	}
	users := index(&models.User{})
	movies := index(&models.Movie{})
	reviews := index(&models.Review{})

	require.NotEqual(t, -1, users)
	require.NotEqual(t, -1, movies)
	require.NotEqual(t, -1, reviews)
	assert.Less(t, users, reviews)
	assert.Less(t, movies, reviews)
	assert.Less(t, reviews, index(&models.ReviewLike{}))
	assert.Less(t, reviews, index(&models.Comment{}))
}
