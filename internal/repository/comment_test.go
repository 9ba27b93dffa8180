package repository

import (
	"context"
	"regexp"
	"testing"

	"cinelog/internal/models"
	"cinelog/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_ListByReview(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "comments" WHERE review_id = $1 ORDER BY created_at ASC,id ASC`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "user_id", "review_id"}).
			AddRow(1, "First!", 101, 1).
			AddRow(2, "Agreed", 102, 1))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" IN ($1,$2)`)).
		WithArgs(101, 102).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nickname"}).
			AddRow(101, "user101").
			AddRow(102, "user102"))

	comments, err := repo.ListByReview(ctx, 1)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "First!", comments[0].Content)
	assert.Equal(t, "user102", comments[1].User.Nickname)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewCommentRepository(db)

	author := testutil.CreateUser(t, db, "author")
	reader := testutil.CreateUser(t, db, "reader")
	movie := testutil.CreateMovie(t, db, "Heat", "Crime")
	review := testutil.CreateReview(t, db, author.ID, movie.ID, 4.5)

	comment := &models.Comment{UserID: reader.ID, ReviewID: review.ID, Content: "Great take"}
	require.NoError(t, repo.Create(ctx, comment))
	require.NotNil(t, comment.User)
	assert.Equal(t, "reader", comment.User.Nickname)

	got, err := repo.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, review.ID, got.ReviewID)

	require.NoError(t, repo.Delete(ctx, comment.ID))

	var appErr *models.AppError
	_, err = repo.GetByID(ctx, comment.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	require.ErrorAs(t, repo.Delete(ctx, comment.ID), &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}
