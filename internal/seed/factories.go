// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"cinelog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password given to every seeded user.
const DefaultPassword = "password123"

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db       *gorm.DB
	opts     Options
	faker    *gofakeit.Faker
	rng      *rand.Rand
	password string
	seq      int
}

// NewFactory creates a Factory bound to db. The same RandSeed yields the same
// generated content.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	f := &Factory{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(seed),
		//nolint:gosec // Weak random number generator is fine for seeding
		rng: rand.New(rand.NewSource(seed)),
	}

	if opts.SkipBcrypt {
		f.password = DefaultPassword
	} else {
		hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		f.password = string(hash)
	}
	return f, nil
}

// pastTime returns a moment within the last MaxDays days.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// nickname returns a unique nickname of at most 20 characters.
func (f *Factory) nickname() string {
	f.seq++
	base := nonSlug.ReplaceAllString(strings.ToLower(f.faker.Username()), "")
	suffix := fmt.Sprintf("%d", f.seq)
	if limit := 20 - len(suffix); len(base) > limit {
		base = base[:limit]
	}
	if len(base) < 2 {
		base = "user"
	}
	return base + suffix
}

// CreateUser constructs and persists a sample user. Overrides run before saving.
func (f *Factory) CreateUser(genres []string, overrides ...func(*models.User)) (*models.User, error) {
	nick := f.nickname()
	favorites := models.StringList{}
	for _, i := range f.rng.Perm(len(genres)) {
		if len(favorites) == 3 {
			break
		}
		favorites = append(favorites, genres[i])
	}
	user := &models.User{
		Email:          nick + "@example.com",
		Password:       f.password,
		Nickname:       nick,
		FavoriteGenres: favorites,
		SocialProvider: models.SocialProviderLocal,
		IsVerified:     true,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// UpsertMovie inserts a catalog movie, or loads the existing row with the same
// title.
func (f *Factory) UpsertMovie(entry CatalogMovie) (*models.Movie, error) {
	movie, err := entry.Model()
	if err != nil {
		return nil, err
	}
	err = f.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title"}},
		DoNothing: true,
	}).Create(movie).Error
	if err != nil {
		return nil, err
	}
	var stored models.Movie
	if err := f.db.Where("title = ?", entry.Title).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// Rating returns a random half-step rating between 0.5 and 5.0.
func (f *Factory) Rating() float64 {
	return float64(f.rng.Intn(10)+1) / 2
}

// CreateReview constructs and persists a review by user of movie.
func (f *Factory) CreateReview(user *models.User, movie *models.Movie, overrides ...func(*models.Review)) (*models.Review, error) {
	content := f.faker.Paragraph(1, f.rng.Intn(3)+1, 12, " ")
	created := f.pastTime()
	review := &models.Review{
		UserID:    user.ID,
		MovieID:   movie.ID,
		Content:   &content,
		Rating:    f.Rating(),
		Images:    models.StringList{},
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, override := range overrides {
		override(review)
	}
	if err := f.db.Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// CreateLike persists a like from user on review.
func (f *Factory) CreateLike(user *models.User, review *models.Review) error {
	return f.db.Create(&models.ReviewLike{UserID: user.ID, ReviewID: review.ID}).Error
}

// CreateComment persists a short comment from user on review.
func (f *Factory) CreateComment(user *models.User, review *models.Review) (*models.Comment, error) {
	comment := &models.Comment{
		UserID:   user.ID,
		ReviewID: review.ID,
		Content:  f.faker.Sentence(f.rng.Intn(10) + 3),
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// chance reports true with probability p.
func (f *Factory) chance(p float64) bool {
	return f.rng.Float64() < p
}
