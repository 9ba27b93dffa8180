package repository

import (
	"context"

	"cinelog/internal/cache"
	"cinelog/internal/models"
	"cinelog/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const recomputeMovieSQL = `
UPDATE movies SET
	rating = COALESCE((SELECT ROUND(AVG(r.rating), 1) FROM reviews r WHERE r.movie_id = ?), 0),
	review_count = (SELECT COUNT(*) FROM reviews r WHERE r.movie_id = ?)
WHERE id = ?`

const recomputeLikesSQL = `
UPDATE reviews SET
	likes_count = (SELECT COUNT(*) FROM review_likes l WHERE l.review_id = ?)
WHERE id = ?`

// RecomputeMovieAggregate rewrites a movie's rating and review_count from its
// reviews. It is idempotent and must run on the same transaction as the
// review write that triggered it.
func RecomputeMovieAggregate(ctx context.Context, tx *gorm.DB, movieID uint) error {
	span, ctx := observability.NewSpan(ctx, "aggregate.recompute_movie",
		attribute.Int64("movie.id", int64(movieID)))
	defer span.End()

	err := tx.WithContext(ctx).Exec(recomputeMovieSQL, movieID, movieID, movieID).Error
	observability.AggregateRecomputes.WithLabelValues("movie", observability.ResultLabel(err)).Inc()
	if err != nil {
		span.SetError(err)
		return models.NewInternalError(err)
	}
	return nil
}

// RecomputeReviewLikes rewrites a review's likes_count from review_likes and
// returns the new value.
func RecomputeReviewLikes(ctx context.Context, tx *gorm.DB, reviewID uint) (int, error) {
	span, ctx := observability.NewSpan(ctx, "aggregate.recompute_likes",
		attribute.Int64("review.id", int64(reviewID)))
	defer span.End()

	db := tx.WithContext(ctx)
	err := db.Exec(recomputeLikesSQL, reviewID, reviewID).Error
	var count int
	if err == nil {
		err = db.Model(&models.Review{}).Where("id = ?", reviewID).Pluck("likes_count", &count).Error
	}
	observability.AggregateRecomputes.WithLabelValues("likes", observability.ResultLabel(err)).Inc()
	if err != nil {
		span.SetError(err)
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// RecomputeAll repairs the aggregates of every movie and review. Used by the
// admin CLI after manual data fixes.
func RecomputeAll(ctx context.Context, db *gorm.DB) (movies int, reviews int, err error) {
	var movieIDs, reviewIDs []uint
	if err := db.WithContext(ctx).Model(&models.Movie{}).Order("id").Pluck("id", &movieIDs).Error; err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	if err := db.WithContext(ctx).Model(&models.Review{}).Order("id").Pluck("id", &reviewIDs).Error; err != nil {
		return 0, 0, models.NewInternalError(err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range reviewIDs {
			if _, err := RecomputeReviewLikes(ctx, tx, id); err != nil {
				return err
			}
		}
		for _, id := range movieIDs {
			if err := RecomputeMovieAggregate(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	for _, id := range movieIDs {
		cache.InvalidateMovie(ctx, id)
	}
	return len(movieIDs), len(reviewIDs), nil
}
