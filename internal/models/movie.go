package models

import (
	"time"
)

// Movie is a catalog entry. Rating and ReviewCount are derived from the
// movie's reviews and are only written by the aggregate recompute.
type Movie struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;uniqueIndex;not null" json:"title"`
	TitleEn     string     `gorm:"size:255" json:"titleEn"`
	Description string     `gorm:"type:text" json:"description"`
	PosterURL   string     `gorm:"size:500" json:"posterUrl"`
	Director    string     `gorm:"size:255" json:"director"`
	Actors      ActorList  `gorm:"type:text" json:"actors"`
	Genres      StringList `json:"genres"`
	ReleaseDate *time.Time `gorm:"type:date;index" json:"releaseDate"`
	Runtime     *int       `json:"runtime"`
	Rating      float64    `gorm:"type:numeric(3,1);not null;default:0;index" json:"rating"`
	ReviewCount int        `gorm:"not null;default:0" json:"reviewCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Summary returns the movie block attached to review listings.
func (m *Movie) Summary() *MovieSummary {
	return &MovieSummary{ID: m.ID, Title: m.Title, PosterURL: m.PosterURL}
}

// MovieSummary is the minimal movie block embedded in reviews.
type MovieSummary struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	PosterURL string `json:"posterUrl,omitempty"`
}

// RatingBucket counts reviews that share a rating value.
type RatingBucket struct {
	Rating float64 `json:"rating"`
	Count  int64   `json:"count"`
}

// MovieDetail is a movie with its newest reviews and rating histogram.
type MovieDetail struct {
	Movie
	RecentReviews      []ReviewView   `json:"recentReviews"`
	RatingDistribution []RatingBucket `json:"ratingDistribution"`
}
