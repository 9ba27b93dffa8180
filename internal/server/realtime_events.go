package server

import (
	"context"

	"cinelog/internal/featureflags"
	"cinelog/internal/middleware"
	"cinelog/internal/models"
	"cinelog/internal/notifications"
)

// activityEnabled reports whether the activity stream is on for userID.
func (s *Server) activityEnabled(userID uint) bool {
	return s.notifier != nil && s.featureFlags.Enabled(featureflags.ActivityStream, userID)
}

// publishUserEvent delivers ev to every connection of userID. Failures are
// logged only; the triggering request has already succeeded.
func (s *Server) publishUserEvent(ctx context.Context, userID uint, ev notifications.Event) {
	if !s.activityEnabled(userID) {
		return
	}
	if err := s.notifier.Notify(context.WithoutCancel(ctx), userID, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish event",
			"type", ev.Type, "user_id", userID, "error", err)
	}
}

// publishBroadcastEvent delivers ev to every connected user.
func (s *Server) publishBroadcastEvent(ctx context.Context, actorID uint, ev notifications.Event) {
	if !s.activityEnabled(actorID) {
		return
	}
	if err := s.notifier.NotifyAll(context.WithoutCancel(ctx), ev); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish broadcast event", "type", ev.Type, "error", err)
	}
}

func (s *Server) publishReviewCreated(ctx context.Context, review *models.ReviewView) {
	data := notifications.ReviewCreatedData{
		ReviewID:  review.ID,
		UserID:    review.User.ID,
		Nickname:  review.User.Nickname,
		Rating:    review.Rating,
		CreatedAt: review.CreatedAt,
	}
	if review.Movie != nil {
		data.MovieID = review.Movie.ID
		data.MovieTitle = review.Movie.Title
	}
	s.publishBroadcastEvent(ctx, review.User.ID, notifications.Event{
		Type: notifications.EventReviewCreated,
		Data: data,
	})
}

func (s *Server) publishReviewLiked(ctx context.Context, ownerID uint, liker *models.User, reviewID uint, likes int) {
	s.publishUserEvent(ctx, ownerID, notifications.Event{
		Type: notifications.EventReviewLiked,
		Data: notifications.ReviewLikedData{
			ReviewID:   reviewID,
			LikedBy:    liker.ID,
			Nickname:   liker.Nickname,
			LikesCount: likes,
		},
	})
}

func (s *Server) publishCommentCreated(ctx context.Context, ownerID uint, comment *models.CommentView, reviewID uint) {
	s.publishUserEvent(ctx, ownerID, notifications.Event{
		Type: notifications.EventCommentCreated,
		Data: notifications.CommentCreatedData{
			ReviewID:  reviewID,
			CommentID: comment.ID,
			UserID:    comment.User.ID,
			Nickname:  comment.User.Nickname,
			Content:   comment.Content,
		},
	})
}
