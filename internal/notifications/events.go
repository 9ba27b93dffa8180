package notifications

import (
	"encoding/json"
	"time"
)

// Activity event types delivered over the websocket stream.
const (
	EventReviewCreated  = "review_created"
	EventReviewLiked    = "review_liked"
	EventCommentCreated = "comment_created"
	EventDropped        = "events_dropped"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ReviewCreatedData announces a new review to every connected user.
type ReviewCreatedData struct {
	ReviewID   uint      `json:"reviewId"`
	MovieID    uint      `json:"movieId"`
	MovieTitle string    `json:"movieTitle"`
	UserID     uint      `json:"userId"`
	Nickname   string    `json:"nickname"`
	Rating     float64   `json:"rating"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ReviewLikedData tells a review's author that someone liked it.
type ReviewLikedData struct {
	ReviewID   uint   `json:"reviewId"`
	LikedBy    uint   `json:"likedBy"`
	Nickname   string `json:"nickname"`
	LikesCount int    `json:"likesCount"`
}

// CommentCreatedData tells a review's author about a new comment.
type CommentCreatedData struct {
	ReviewID  uint   `json:"reviewId"`
	CommentID uint   `json:"commentId"`
	UserID    uint   `json:"userId"`
	Nickname  string `json:"nickname"`
	Content   string `json:"content"`
}

// Encode renders the event as the JSON text frame sent to clients.
func (e Event) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func eventType(payload string) string {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(payload), &probe); err != nil || probe.Type == "" {
		return "unknown"
	}
	return probe.Type
}
