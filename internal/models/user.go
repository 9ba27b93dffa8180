// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Social login providers recorded on a user.
const (
	SocialProviderLocal  = "local"
	SocialProviderGoogle = "google"
	SocialProviderKakao  = "kakao"
)

// User represents a registered reviewer.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Email          string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password       string     `gorm:"size:255;not null" json:"-"`
	Nickname       string     `gorm:"size:50;uniqueIndex;not null" json:"nickname"`
	ProfileImage   *string    `gorm:"size:500" json:"profileImage"`
	FavoriteGenres StringList `json:"favoriteGenres"`
	SocialProvider string     `gorm:"size:20;not null;default:local" json:"socialProvider"`
	SocialID       *string    `gorm:"size:255" json:"socialId,omitempty"`
	IsVerified     bool       `gorm:"not null;default:false" json:"isVerified"`
	IsAdmin        bool       `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Summary returns the public identity embedded in reviews and comments.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Nickname: u.Nickname, ProfileImage: u.ProfileImage}
}

// PublicProfile is the user shape shown to other visitors (no email).
type PublicProfile struct {
	ID             uint       `json:"id"`
	Nickname       string     `json:"nickname"`
	ProfileImage   *string    `json:"profileImage"`
	FavoriteGenres StringList `json:"favoriteGenres"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Profile converts the user into its public profile.
func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		Nickname:       u.Nickname,
		ProfileImage:   u.ProfileImage,
		FavoriteGenres: u.FavoriteGenres,
		CreatedAt:      u.CreatedAt,
	}
}

// UserSummary is the minimal author block attached to reviews and comments.
type UserSummary struct {
	ID           uint    `json:"id"`
	Nickname     string  `json:"nickname"`
	ProfileImage *string `json:"profileImage"`
}
