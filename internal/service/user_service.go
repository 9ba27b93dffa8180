package service

import (
	"context"
	"math"
	"sort"
	"time"

	"cinelog/internal/models"
	"cinelog/internal/repository"
)

const (
	profileRecentReviews = 3
	profileGenreLimit    = 5
	statsGenreLimit      = 10
	statsMonths          = 12
	unknownGenre         = "Unknown"
)

type UserService struct {
	userRepo   repository.UserRepository
	reviewRepo repository.ReviewRepository
	now        func() time.Time
}

func NewUserService(userRepo repository.UserRepository, reviewRepo repository.ReviewRepository) *UserService {
	return &UserService{userRepo: userRepo, reviewRepo: reviewRepo, now: time.Now}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// SetAdmin grants or revokes admin rights.
func (s *UserService) SetAdmin(ctx context.Context, targetID uint, isAdmin bool) (*models.User, error) {
	if err := s.userRepo.SetAdmin(ctx, targetID, isAdmin); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, targetID)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListAdmins(ctx)
}

// Profile is the public page for a user: totals, the newest reviews and the
// genres they review most.
func (s *UserService) Profile(ctx context.Context, id, viewerID uint) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.reviewRepo.StatRows(ctx, id)
	if err != nil {
		return nil, err
	}
	recent, _, err := s.reviewRepo.List(ctx, repository.ReviewFilter{
		ListParams: repository.ListParams{Page: 1, Limit: profileRecentReviews, SortBy: "created_at", SortOrder: repository.SortDesc},
		UserID:     id,
	})
	if err != nil {
		return nil, err
	}
	views, err := reviewViews(ctx, s.reviewRepo, viewerID, recent)
	if err != nil {
		return nil, err
	}

	return &models.UserProfile{
		User:          user.Profile(),
		Stats:         basicStats(rows).ProfileStats,
		RecentReviews: views,
		GenreStats:    genreStats(rows, profileGenreLimit),
	}, nil
}

// Stats is the full statistics payload for a user.
func (s *UserService) Stats(ctx context.Context, id uint) (*models.UserStats, error) {
	ok, err := s.userRepo.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	rows, err := s.reviewRepo.StatRows(ctx, id)
	if err != nil {
		return nil, err
	}
	distribution, err := s.reviewRepo.RatingDistribution(ctx, repository.ReviewFilter{UserID: id})
	if err != nil {
		return nil, err
	}

	return &models.UserStats{
		BasicStats:         basicStats(rows),
		MonthlyStats:       monthlyStats(rows, s.now()),
		RatingDistribution: distribution,
		GenreStats:         genreStats(rows, statsGenreLimit),
	}, nil
}

func basicStats(rows []repository.ReviewStatRow) models.BasicStats {
	var out models.BasicStats
	if len(rows) == 0 {
		return out
	}
	var sum float64
	out.MinRating = rows[0].Rating
	out.MaxRating = rows[0].Rating
	for _, r := range rows {
		sum += r.Rating
		out.TotalLikesReceived += r.LikesCount
		out.MinRating = math.Min(out.MinRating, r.Rating)
		out.MaxRating = math.Max(out.MaxRating, r.Rating)
	}
	out.TotalReviews = int64(len(rows))
	out.AverageRating = round2(sum / float64(len(rows)))
	return out
}

// monthlyStats buckets reviews from the last twelve months by "YYYY-MM",
// newest month first.
func monthlyStats(rows []repository.ReviewStatRow, now time.Time) []models.MonthlyStat {
	since := now.AddDate(0, -statsMonths, 0)
	type acc struct {
		count int64
		sum   float64
	}
	buckets := make(map[string]*acc)
	for _, r := range rows {
		if r.CreatedAt.Before(since) {
			continue
		}
		key := r.CreatedAt.UTC().Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &acc{}
			buckets[key] = b
		}
		b.count++
		b.sum += r.Rating
	}

	out := make([]models.MonthlyStat, 0, len(buckets))
	for month, b := range buckets {
		out = append(out, models.MonthlyStat{
			Month:         month,
			ReviewCount:   b.count,
			AverageRating: round2(b.sum / float64(b.count)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out
}

// genreStats groups reviews by the reviewed movie's first genre, most
// reviewed first, keeping at most limit entries.
func genreStats(rows []repository.ReviewStatRow, limit int) []models.GenreStat {
	type acc struct {
		count int64
		sum   float64
		likes int64
	}
	buckets := make(map[string]*acc)
	for _, r := range rows {
		genre := unknownGenre
		if len(r.Genres) > 0 && r.Genres[0] != "" {
			genre = r.Genres[0]
		}
		b, ok := buckets[genre]
		if !ok {
			b = &acc{}
			buckets[genre] = b
		}
		b.count++
		b.sum += r.Rating
		b.likes += r.LikesCount
	}

	out := make([]models.GenreStat, 0, len(buckets))
	for genre, b := range buckets {
		out = append(out, models.GenreStat{
			Genre:         genre,
			ReviewCount:   b.count,
			AverageRating: round2(b.sum / float64(b.count)),
			TotalLikes:    b.likes,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReviewCount != out[j].ReviewCount {
			return out[i].ReviewCount > out[j].ReviewCount
		}
		return out[i].Genre < out[j].Genre
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
