package service

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"cinelog/internal/middleware"
	"cinelog/internal/models"
	"cinelog/internal/repository"
	"cinelog/internal/validation"
)

// recentReviewCount is the number of newest reviews shown on a movie page.
const recentReviewCount = 5

const maxDescriptionLen = 2000

type MovieService struct {
	movieRepo  repository.MovieRepository
	reviewRepo repository.ReviewRepository
	uploads    *UploadService
}

type ListMoviesInput struct {
	repository.ListParams
	Search string
	Genre  string
}

// MovieInput carries create and update fields. Nil means "not provided".
type MovieInput struct {
	Title       *string              `json:"title"`
	TitleEn     *string              `json:"titleEn"`
	Description *string              `json:"description"`
	PosterURL   *string              `json:"posterUrl"`
	Director    *string              `json:"director"`
	Actors      *validation.FlexList `json:"actors"`
	Genres      *validation.FlexList `json:"genres"`
	ReleaseDate *string              `json:"releaseDate"`
	Runtime     *int                 `json:"runtime"`
}

func NewMovieService(movieRepo repository.MovieRepository, reviewRepo repository.ReviewRepository, uploads *UploadService) *MovieService {
	return &MovieService{movieRepo: movieRepo, reviewRepo: reviewRepo, uploads: uploads}
}

func (s *MovieService) List(ctx context.Context, in ListMoviesInput) (*models.MovieList, error) {
	params := in.ListParams.Normalize(repository.DefaultMovieLimit)
	movies, total, err := s.movieRepo.List(ctx, repository.MovieFilter{
		ListParams: params,
		Search:     strings.TrimSpace(in.Search),
		Genre:      strings.TrimSpace(in.Genre),
	})
	if err != nil {
		return nil, err
	}
	return &models.MovieList{
		Movies:     movies,
		Pagination: models.NewPagination(params.Page, params.Limit, total),
	}, nil
}

// Detail returns the movie with its newest reviews and rating histogram.
func (s *MovieService) Detail(ctx context.Context, id, viewerID uint) (*models.MovieDetail, error) {
	movie, err := s.movieRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	filter := repository.ReviewFilter{
		ListParams: repository.ListParams{Page: 1, Limit: recentReviewCount, SortBy: "created_at", SortOrder: repository.SortDesc},
		MovieID:    id,
	}
	reviews, _, err := s.reviewRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	views, err := reviewViews(ctx, s.reviewRepo, viewerID, reviews)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Movie = nil
	}
	distribution, err := s.reviewRepo.RatingDistribution(ctx, repository.ReviewFilter{MovieID: id})
	if err != nil {
		return nil, err
	}

	return &models.MovieDetail{
		Movie:              *movie,
		RecentReviews:      views,
		RatingDistribution: distribution,
	}, nil
}

func (s *MovieService) Create(ctx context.Context, in MovieInput) (*models.Movie, error) {
	movie := &models.Movie{Actors: models.ActorList{}, Genres: models.StringList{}}
	if _, err := applyMovieInput(movie, in, true); err != nil {
		return nil, err
	}
	if err := s.movieRepo.Create(ctx, movie); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "movie created", "movie_id", movie.ID, "title", movie.Title)
	return movie, nil
}

func (s *MovieService) Update(ctx context.Context, id uint, in MovieInput) (*models.Movie, error) {
	movie, err := s.movieRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fields, err := applyMovieInput(movie, in, false)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, models.NewValidationError("No fields to update")
	}
	if err := s.movieRepo.Update(ctx, movie, fields); err != nil {
		return nil, err
	}
	return movie, nil
}

// Delete removes the movie and the image files of its cascaded reviews.
func (s *MovieService) Delete(ctx context.Context, id uint) error {
	images, err := s.reviewRepo.ImagesForMovie(ctx, id)
	if err != nil {
		return err
	}
	if err := s.movieRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.uploads.Remove(ctx, images...)
	middleware.Logger.InfoContext(ctx, "movie deleted", "movie_id", id, "images_removed", len(images))
	return nil
}

// applyMovieInput validates the provided fields, copies them onto movie and
// returns the column names that changed. create makes title, director and
// genres mandatory.
func applyMovieInput(movie *models.Movie, in MovieInput, create bool) ([]string, error) {
	var errs validation.FieldErrors
	var fields []string

	text := func(field, column string, value *string, required bool, maxLen int, dst *string) {
		if value == nil {
			if required {
				errs.Add(field, field+" is required")
			}
			return
		}
		v := strings.TrimSpace(*value)
		switch {
		case required && v == "":
			errs.Add(field, field+" is required")
		case utf8.RuneCountInString(v) > maxLen:
			errs.Add(field, field+" must be at most "+strconv.Itoa(maxLen)+" characters")
		default:
			*dst = v
			fields = append(fields, column)
		}
	}

	text("title", "title", in.Title, create || in.Title != nil, 255, &movie.Title)
	text("titleEn", "title_en", in.TitleEn, false, 255, &movie.TitleEn)
	text("description", "description", in.Description, false, maxDescriptionLen, &movie.Description)
	text("posterUrl", "poster_url", in.PosterURL, false, 500, &movie.PosterURL)
	text("director", "director", in.Director, create || in.Director != nil, 255, &movie.Director)

	if in.Actors != nil {
		movie.Actors = models.ActorList(*in.Actors)
		fields = append(fields, "actors")
	}
	switch {
	case in.Genres != nil && len(*in.Genres) == 0:
		errs.Add("genres", "genres must contain at least one genre")
	case in.Genres != nil:
		movie.Genres = models.StringList(*in.Genres)
		fields = append(fields, "genres")
	case create:
		errs.Add("genres", "genres must contain at least one genre")
	}

	if in.ReleaseDate != nil {
		date, err := validation.ParseReleaseDate(*in.ReleaseDate)
		if err != nil {
			errs.Add("releaseDate", "releaseDate must be YYYY-MM-DD")
		} else {
			movie.ReleaseDate = date
			fields = append(fields, "release_date")
		}
	}
	if in.Runtime != nil {
		if *in.Runtime < 1 {
			errs.Add("runtime", "runtime must be at least 1")
		} else {
			runtime := *in.Runtime
			movie.Runtime = &runtime
			fields = append(fields, "runtime")
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return fields, nil
}
