package repository

import (
	"context"
	"encoding/json"
	"errors"

	"cinelog/internal/cache"
	"cinelog/internal/models"
	"cinelog/internal/observability"

	"gorm.io/gorm"
)

var movieSortColumns = map[string]string{
	"created_at":   "movies.created_at",
	"rating":       "movies.rating",
	"release_date": "movies.release_date",
	"title":        "movies.title",
	"review_count": "movies.review_count",
}

// MovieSortKeys lists the sortBy values accepted by movie listings.
var MovieSortKeys = []string{"rating", "release_date", "title", "review_count", "created_at"}

// MovieFilter narrows a movie listing. Filters are ANDed.
type MovieFilter struct {
	ListParams
	Search string
	Genre  string
}

// MovieRepository defines persistence operations for movies.
type MovieRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Movie, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, filter MovieFilter) ([]models.Movie, int64, error)
	Create(ctx context.Context, movie *models.Movie) error
	Update(ctx context.Context, movie *models.Movie, fields []string) error
	Delete(ctx context.Context, id uint) error
	IDs(ctx context.Context) ([]uint, error)
}

type movieRepository struct {
	db *gorm.DB
}

// NewMovieRepository returns a new MovieRepository implementation.
func NewMovieRepository(db *gorm.DB) MovieRepository {
	return &movieRepository{db: db}
}

func (r *movieRepository) GetByID(ctx context.Context, id uint) (*models.Movie, error) {
	var movie models.Movie
	err := cache.Aside(ctx, cache.MovieKey(id), &movie, cache.MovieTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&movie, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Movie", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *movieRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Movie{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *movieRepository) List(ctx context.Context, filter MovieFilter) ([]models.Movie, int64, error) {
	defer observability.TrackQuery("list", "movies")()

	params := filter.ListParams.Normalize(DefaultMovieLimit)
	db := readDB(r.db).WithContext(ctx)
	q := db.Model(&models.Movie{})

	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		q = q.Where(
			"(LOWER(movies.title) LIKE ? ESCAPE '!' OR LOWER(movies.title_en) LIKE ? ESCAPE '!' OR "+
				"LOWER(movies.director) LIKE ? ESCAPE '!' OR LOWER(movies.actors) LIKE ? ESCAPE '!')",
			pattern, pattern, pattern, pattern,
		)
	}
	if filter.Genre != "" {
		q = genreFilter(q, filter.Genre)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	movies := []models.Movie{}
	err := q.Order(orderClause(movieSortColumns, params.SortBy, "created_at", params.SortOrder)).
		Order("movies.id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&movies).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return movies, total, nil
}

// genreFilter matches movies whose genres array contains genre exactly.
func genreFilter(q *gorm.DB, genre string) *gorm.DB {
	if isPostgres(q) {
		needle, _ := json.Marshal([]string{genre})
		return q.Where("movies.genres @> ?::jsonb", string(needle))
	}
	return q.Where("EXISTS (SELECT 1 FROM json_each(movies.genres) WHERE json_each.value = ?)", genre)
}

func (r *movieRepository) Create(ctx context.Context, movie *models.Movie) error {
	if err := r.db.WithContext(ctx).Create(movie).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A movie with this title already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update writes only the named columns of movie.
func (r *movieRepository) Update(ctx context.Context, movie *models.Movie, fields []string) error {
	cols := append([]string{"updated_at"}, fields...)
	res := r.db.WithContext(ctx).Model(movie).Select(cols).Updates(movie)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewConflictError("A movie with this title already exists")
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Movie", movie.ID)
	}
	cache.InvalidateMovie(ctx, movie.ID)
	return nil
}

// Delete removes the movie; its reviews, likes and comments cascade.
func (r *movieRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Movie{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Movie", id)
	}
	cache.InvalidateMovie(ctx, id)
	return nil
}

func (r *movieRepository) IDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Movie{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
