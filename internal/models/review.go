package models

import (
	"time"
)

// Rating bounds for a review. Ratings move in half-point steps.
const (
	MinRating  = 0.5
	MaxRating  = 5.0
	RatingStep = 0.5
)

// MaxReviewImages caps the images attached to a single review.
const MaxReviewImages = 3

// Review is one user's review of one movie. LikesCount is derived from
// review_likes and is only written by the like toggle.
type Review struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_reviews_user_movie;index" json:"userId"`
	MovieID    uint       `gorm:"not null;uniqueIndex:idx_reviews_user_movie;index" json:"movieId"`
	Content    *string    `gorm:"type:text" json:"content"`
	Rating     float64    `gorm:"type:numeric(2,1);not null;check:chk_reviews_rating,rating >= 0.5 AND rating <= 5.0" json:"rating"`
	Images     StringList `json:"images"`
	LikesCount int        `gorm:"not null;default:0" json:"likesCount"`
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	User       *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Movie      *Movie     `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE" json:"-"`
}

// ReviewLike records that a user liked a review.
type ReviewLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_review_likes_user_review" json:"userId"`
	ReviewID  uint      `gorm:"not null;uniqueIndex:idx_review_likes_user_review;index" json:"reviewId"`
	CreatedAt time.Time `json:"createdAt"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Review    *Review   `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the database table name for ReviewLike.
func (ReviewLike) TableName() string {
	return "review_likes"
}

// ReviewView is the API representation of a review in listings and detail pages.
type ReviewView struct {
	ID            uint          `json:"id"`
	Content       *string       `json:"content"`
	Rating        float64       `json:"rating"`
	Images        StringList    `json:"images"`
	LikesCount    int           `json:"likesCount"`
	CommentsCount int64         `json:"commentsCount"`
	IsLiked       bool          `json:"isLiked"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	LikedAt       *time.Time    `json:"likedAt,omitempty"`
	User          UserSummary   `json:"user"`
	Movie         *MovieSummary `json:"movie,omitempty"`
}

// NewReviewView builds the view from a review whose User and Movie are preloaded.
func NewReviewView(r *Review) ReviewView {
	v := ReviewView{
		ID:         r.ID,
		Content:    r.Content,
		Rating:     r.Rating,
		Images:     r.Images,
		LikesCount: r.LikesCount,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if v.Images == nil {
		v.Images = StringList{}
	}
	if r.User != nil {
		v.User = r.User.Summary()
	} else {
		v.User = UserSummary{ID: r.UserID}
	}
	if r.Movie != nil {
		v.Movie = r.Movie.Summary()
	}
	return v
}
