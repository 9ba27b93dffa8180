package models

import (
	"time"
)

// Comment is a reply left on a review.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	ReviewID  uint      `gorm:"not null;index" json:"reviewId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Review    *Review   `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"-"`
}

// CommentView is the API representation of a comment.
type CommentView struct {
	ID        uint        `json:"id"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	User      UserSummary `json:"user"`
}

// NewCommentView builds the view from a comment whose User is preloaded.
func NewCommentView(c *Comment) CommentView {
	v := CommentView{
		ID:        c.ID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		User:      UserSummary{ID: c.UserID},
	}
	if c.User != nil {
		v.User = c.User.Summary()
	}
	return v
}

// ReviewDetail is a single review with its comment thread.
type ReviewDetail struct {
	Review   ReviewView    `json:"review"`
	Comments []CommentView `json:"comments"`
}
