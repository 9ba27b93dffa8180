package repository

import (
	"context"
	"errors"
	"time"

	"cinelog/internal/cache"
	"cinelog/internal/models"
	"cinelog/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var reviewSortColumns = map[string]string{
	"created_at":  "reviews.created_at",
	"rating":      "reviews.rating",
	"likes_count": "reviews.likes_count",
}

// ReviewSortKeys lists the sortBy values accepted by review listings.
var ReviewSortKeys = []string{"rating", "created_at", "likes_count"}

// ReviewFilter scopes a review listing to a movie and/or an author.
type ReviewFilter struct {
	ListParams
	MovieID uint
	UserID  uint
}

// LikedReview is a review together with the time the viewer liked it.
type LikedReview struct {
	models.Review
	LikedAt time.Time
}

// ReviewStatRow is the per-review input to user statistics.
type ReviewStatRow struct {
	Rating     float64
	LikesCount int64
	CreatedAt  time.Time
	Genres     models.StringList
}

// ReviewRepository defines persistence operations for reviews and their likes.
// Every write recomputes the derived counters in the same transaction.
type ReviewRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	List(ctx context.Context, filter ReviewFilter) ([]models.Review, int64, error)
	ListLikedBy(ctx context.Context, userID uint, params ListParams) ([]LikedReview, int64, error)
	LikedSet(ctx context.Context, userID uint, reviewIDs []uint) (map[uint]bool, error)
	CommentCounts(ctx context.Context, reviewIDs []uint) (map[uint]int64, error)
	RatingDistribution(ctx context.Context, filter ReviewFilter) ([]models.RatingBucket, error)
	StatRows(ctx context.Context, userID uint) ([]ReviewStatRow, error)
	ImagesForMovie(ctx context.Context, movieID uint) ([]string, error)
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review, fields []string, ratingChanged bool) error
	Delete(ctx context.Context, review *models.Review) error
	ToggleLike(ctx context.Context, reviewID, userID uint) (bool, int, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository returns a new ReviewRepository implementation.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).Preload("User").Preload("Movie").First(&review, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Review", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &review, nil
}

func (r *reviewRepository) scoped(ctx context.Context, filter ReviewFilter) *gorm.DB {
	q := readDB(r.db).WithContext(ctx).Model(&models.Review{})
	if filter.MovieID != 0 {
		q = q.Where("reviews.movie_id = ?", filter.MovieID)
	}
	if filter.UserID != 0 {
		q = q.Where("reviews.user_id = ?", filter.UserID)
	}
	return q.Session(&gorm.Session{})
}

func (r *reviewRepository) List(ctx context.Context, filter ReviewFilter) ([]models.Review, int64, error) {
	defer observability.TrackQuery("list", "reviews")()

	params := filter.ListParams.Normalize(DefaultReviewLimit)
	q := r.scoped(ctx, filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	reviews := []models.Review{}
	err := q.Preload("User").Preload("Movie").
		Order(orderClause(reviewSortColumns, params.SortBy, "created_at", params.SortOrder)).
		Order("reviews.id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return reviews, total, nil
}

func (r *reviewRepository) ListLikedBy(ctx context.Context, userID uint, params ListParams) ([]LikedReview, int64, error) {
	defer observability.TrackQuery("list_liked", "review_likes")()

	params = params.Normalize(DefaultReviewLimit)
	db := readDB(r.db).WithContext(ctx)
	q := db.Model(&models.ReviewLike{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var likes []models.ReviewLike
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&likes).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if len(likes) == 0 {
		return []LikedReview{}, total, nil
	}

	ids := make([]uint, len(likes))
	for i, l := range likes {
		ids[i] = l.ReviewID
	}
	var reviews []models.Review
	if err := db.Preload("User").Preload("Movie").Where("id IN ?", ids).Find(&reviews).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	byID := make(map[uint]models.Review, len(reviews))
	for _, rv := range reviews {
		byID[rv.ID] = rv
	}

	out := make([]LikedReview, 0, len(likes))
	for _, l := range likes {
		if rv, ok := byID[l.ReviewID]; ok {
			out = append(out, LikedReview{Review: rv, LikedAt: l.CreatedAt})
		}
	}
	return out, total, nil
}

// LikedSet reports which of reviewIDs the user has liked, in one query.
func (r *reviewRepository) LikedSet(ctx context.Context, userID uint, reviewIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(reviewIDs))
	if userID == 0 || len(reviewIDs) == 0 {
		return set, nil
	}
	var liked []uint
	err := readDB(r.db).WithContext(ctx).Model(&models.ReviewLike{}).
		Where("user_id = ? AND review_id IN ?", userID, reviewIDs).
		Pluck("review_id", &liked).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, id := range liked {
		set[id] = true
	}
	return set, nil
}

// CommentCounts counts comments per review for reviewIDs, in one query.
func (r *reviewRepository) CommentCounts(ctx context.Context, reviewIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ReviewID uint
		Count    int64
	}
	err := readDB(r.db).WithContext(ctx).Model(&models.Comment{}).
		Select("review_id, COUNT(*) AS count").
		Where("review_id IN ?", reviewIDs).
		Group("review_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		counts[row.ReviewID] = row.Count
	}
	return counts, nil
}

// RatingDistribution counts reviews per rating value, highest rating first.
func (r *reviewRepository) RatingDistribution(ctx context.Context, filter ReviewFilter) ([]models.RatingBucket, error) {
	buckets := []models.RatingBucket{}
	err := r.scoped(ctx, filter).
		Select("reviews.rating AS rating, COUNT(*) AS count").
		Group("reviews.rating").
		Order("reviews.rating DESC").
		Scan(&buckets).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return buckets, nil
}

func (r *reviewRepository) StatRows(ctx context.Context, userID uint) ([]ReviewStatRow, error) {
	defer observability.TrackQuery("stats", "reviews")()

	var rows []ReviewStatRow
	err := readDB(r.db).WithContext(ctx).Table("reviews").
		Select("reviews.rating, reviews.likes_count, reviews.created_at, movies.genres").
		Joins("JOIN movies ON movies.id = reviews.movie_id").
		Where("reviews.user_id = ?", userID).
		Order("reviews.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (r *reviewRepository) ImagesForMovie(ctx context.Context, movieID uint) ([]string, error) {
	var lists []models.StringList
	err := r.db.WithContext(ctx).Model(&models.Review{}).Where("movie_id = ?", movieID).Pluck("images", &lists).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out, nil
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(review).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError("You have already reviewed this movie")
			}
			return models.NewInternalError(err)
		}
		return RecomputeMovieAggregate(ctx, tx, review.MovieID)
	})
	if err != nil {
		return err
	}
	cache.InvalidateMovie(ctx, review.MovieID)
	return nil
}

// Update writes the named columns and recomputes the movie aggregate only
// when the rating changed.
func (r *reviewRepository) Update(ctx context.Context, review *models.Review, fields []string, ratingChanged bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cols := append([]string{"updated_at"}, fields...)
		res := tx.Model(review).Omit(clause.Associations).Select(cols).Updates(review)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Review", review.ID)
		}
		if !ratingChanged {
			return nil
		}
		return RecomputeMovieAggregate(ctx, tx, review.MovieID)
	})
	if err != nil {
		return err
	}
	if ratingChanged {
		cache.InvalidateMovie(ctx, review.MovieID)
	}
	return nil
}

// Delete removes the review with its likes and comments and recomputes the
// movie aggregate.
func (r *reviewRepository) Delete(ctx context.Context, review *models.Review) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Review{}, review.ID)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Review", review.ID)
		}
		return RecomputeMovieAggregate(ctx, tx, review.MovieID)
	})
	if err != nil {
		return err
	}
	cache.InvalidateMovie(ctx, review.MovieID)
	return nil
}

// ToggleLike flips the user's like on a review and returns the new state and
// count. Authors cannot like their own reviews.
func (r *reviewRepository) ToggleLike(ctx context.Context, reviewID, userID uint) (bool, int, error) {
	var (
		liked bool
		count int
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.Select("id", "user_id").First(&review, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Review", reviewID)
			}
			return models.NewInternalError(err)
		}
		if review.UserID == userID {
			return models.NewForbiddenError("You cannot like your own review")
		}

		res := tx.Where("user_id = ? AND review_id = ?", userID, reviewID).Delete(&models.ReviewLike{})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			like := &models.ReviewLike{UserID: userID, ReviewID: reviewID}
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(like).Error
			if err != nil && !isUniqueConstraintError(err) {
				return models.NewInternalError(err)
			}
			liked = true
		}

		var err error
		count, err = RecomputeReviewLikes(ctx, tx, reviewID)
		return err
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}
