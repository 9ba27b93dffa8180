package seed

import (
	"context"
	"fmt"
	"log"

	"cinelog/internal/database"
	"cinelog/internal/models"
	"cinelog/internal/repository"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	ReviewsPerUser int
	// LikeChance and CommentChance are per review and per other user.
	LikeChance    float64
	CommentChance float64
	MaxDays       int
	RandSeed      int64
	ShouldClean   bool
	SkipBcrypt    bool
}

// DefaultOptions is a small but lively data set.
func DefaultOptions() Options {
	return Options{
		NumUsers:       20,
		ReviewsPerUser: 5,
		LikeChance:     0.3,
		CommentChance:  0.1,
		MaxDays:        365,
	}
}

// Summary counts the rows written by a run.
type Summary struct {
	Users    int
	Movies   int
	Reviews  int
	Likes    int
	Comments int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d movies, %d reviews, %d likes, %d comments",
		s.Users, s.Movies, s.Reviews, s.Likes, s.Comments)
}

// Seed populates the database with demo data.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	log.Printf("🌱 Seeding %d users with %d reviews each...", opts.NumUsers, opts.ReviewsPerUser)

	if opts.ShouldClean {
		if err := Clean(db); err != nil {
			return nil, fmt.Errorf("clean: %w", err)
		}
	}

	catalog, err := LoadCatalog()
	if err != nil {
		return nil, err
	}
	f, err := NewFactory(db.WithContext(ctx), opts)
	if err != nil {
		return nil, err
	}
	var sum Summary

	movies := make([]*models.Movie, 0, len(catalog))
	genreSet := map[string]struct{}{}
	var genres []string
	for _, entry := range catalog {
		movie, err := f.UpsertMovie(entry)
		if err != nil {
			return nil, fmt.Errorf("movie %q: %w", entry.Title, err)
		}
		movies = append(movies, movie)
		for _, g := range movie.Genres {
			if _, ok := genreSet[g]; !ok {
				genreSet[g] = struct{}{}
				genres = append(genres, g)
			}
		}
	}
	sum.Movies = len(movies)
	log.Printf("✓ %d catalog movies available", sum.Movies)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser(genres)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	sum.Users = len(users)
	log.Printf("✓ %d users created (password %q)", sum.Users, DefaultPassword)

	perUser := min(opts.ReviewsPerUser, len(movies))
	var reviews []*models.Review
	for _, user := range users {
		for _, i := range f.rng.Perm(len(movies))[:perUser] {
			review, err := f.CreateReview(user, movies[i])
			if err != nil {
				return nil, fmt.Errorf("create review: %w", err)
			}
			reviews = append(reviews, review)
		}
	}
	sum.Reviews = len(reviews)

	for _, review := range reviews {
		for _, user := range users {
			if user.ID == review.UserID {
				continue
			}
			if f.chance(opts.LikeChance) {
				if err := f.CreateLike(user, review); err != nil {
					return nil, fmt.Errorf("create like: %w", err)
				}
				sum.Likes++
			}
			if f.chance(opts.CommentChance) {
				if _, err := f.CreateComment(user, review); err != nil {
					return nil, fmt.Errorf("create comment: %w", err)
				}
				sum.Comments++
			}
		}
	}

	if err := RecomputeAggregates(ctx, db); err != nil {
		return nil, err
	}

	log.Printf("🎉 Seeding complete: %s", sum)
	return &sum, nil
}

// RecomputeAggregates rewrites every review's likes_count and every movie's
// rating and review_count.
func RecomputeAggregates(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reviewIDs []uint
		if err := tx.Model(&models.Review{}).Pluck("id", &reviewIDs).Error; err != nil {
			return err
		}
		for _, id := range reviewIDs {
			if _, err := repository.RecomputeReviewLikes(ctx, tx, id); err != nil {
				return err
			}
		}

		var movieIDs []uint
		if err := tx.Model(&models.Movie{}).Pluck("id", &movieIDs).Error; err != nil {
			return err
		}
		for _, id := range movieIDs {
			if err := repository.RecomputeMovieAggregate(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clean deletes every row of the schema-managed tables, children first.
func Clean(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	all := database.PersistentModels()
	tx := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for i := len(all) - 1; i >= 0; i-- {
		if err := tx.Delete(all[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
