package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"cinelog/internal/models"
	"cinelog/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		userID       uint
		mockBehavior func()
		wantNickname string
		wantCode     string
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "nickname", "email"}).
					AddRow(1, "critic", "critic@example.com")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			wantNickname: "critic",
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			wantCode: models.CodeNotFound,
		},
		{
			name:   "Database Error",
			userID: 2,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WithArgs(2, 1).
					WillReturnError(errors.New("connection timeout"))
			},
			wantCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.wantCode != "" {
				var appErr *models.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.wantCode, appErr.Code)
				assert.Nil(t, user)
			} else if assert.NoError(t, err) {
				assert.Equal(t, tt.wantNickname, user.Nickname)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		email := "test@example.com"
		rows := sqlmock.NewRows([]string{"id", "email"}).AddRow(1, email)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1 ORDER BY "users"."id" LIMIT $2`)).
			WithArgs(email, 1).
			WillReturnRows(rows)

		user, err := repo.GetByEmail(ctx, "Test@Example.com")
		assert.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, email, user.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		email := "ghost@example.com"
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)).
			WithArgs(email, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		user, err := repo.GetByEmail(ctx, email)
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewUserRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		user := &models.User{Nickname: "newbie", Email: "new@example.com", Password: "hash"}
		assert.NoError(t, repo.Create(ctx, user))
		assert.Equal(t, uint(1), user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	conflicts := []struct {
		name       string
		constraint string
		want       string
	}{
		{name: "nickname", constraint: "idx_users_nickname", want: "Nickname is already in use"},
		{name: "email", constraint: "idx_users_email", want: "Email is already registered"},
	}
	for _, tt := range conflicts {
		t.Run("Conflict "+tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewUserRepository(db)

			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})
			mock.ExpectRollback()

			err := repo.Create(ctx, &models.User{Nickname: "dup", Email: "dup@example.com"})
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeConflict, appErr.Code)
			assert.Equal(t, tt.want, appErr.Message)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	t.Run("duplicate nickname is a conflict", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{Email: "other@example.com", Nickname: "alice", Password: "x"})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeConflict, appErr.Code)
		assert.Contains(t, appErr.Message, "Nickname")
	})

	t.Run("nickname taken excludes self", func(t *testing.T) {
		taken, err := repo.NicknameTaken(ctx, "alice", alice.ID)
		require.NoError(t, err)
		assert.False(t, taken)

		taken, err = repo.NicknameTaken(ctx, "alice", bob.ID)
		require.NoError(t, err)
		assert.True(t, taken)
	})

	t.Run("update profile fields", func(t *testing.T) {
		image := "/uploads/profiles/profileImage-1-123456789.png"
		alice.Nickname = "alice2"
		alice.ProfileImage = &image
		alice.FavoriteGenres = models.StringList{"Drama", "Comedy"}
		require.NoError(t, repo.Update(ctx, alice))

		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice2", got.Nickname)
		assert.Equal(t, image, *got.ProfileImage)
		assert.Equal(t, models.StringList{"Drama", "Comedy"}, got.FavoriteGenres)
	})

	t.Run("password and admin flag", func(t *testing.T) {
		require.NoError(t, repo.UpdatePassword(ctx, bob.ID, "new-hash"))
		creds, err := repo.GetCredentials(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", creds.Password)

		require.NoError(t, repo.SetAdmin(ctx, bob.ID, true))
		admins, err := repo.ListAdmins(ctx)
		require.NoError(t, err)
		require.Len(t, admins, 1)
		assert.Equal(t, bob.ID, admins[0].ID)

		var appErr *models.AppError
		require.ErrorAs(t, repo.SetAdmin(ctx, 9999, true), &appErr)
		assert.Equal(t, models.CodeNotFound, appErr.Code)
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := repo.Exists(ctx, alice.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = repo.Exists(ctx, 9999)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
