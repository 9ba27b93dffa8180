package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"cinelog/internal/middleware"
	"cinelog/internal/models"
	"cinelog/internal/observability"
	"cinelog/internal/repository"
	"cinelog/internal/validation"
)

const (
	maxReviewContentLen  = 1000
	maxCommentContentLen = 500
)

type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	movieRepo   repository.MovieRepository
	userRepo    repository.UserRepository
	commentRepo repository.CommentRepository
	uploads     *UploadService
}

type ListReviewsInput struct {
	repository.ListParams
	MovieID  uint
	UserID   uint
	ViewerID uint
}

type CreateReviewInput struct {
	UserID  uint
	MovieID uint    `json:"movieId" validate:"required,min=1"`
	Rating  float64 `json:"rating" validate:"rating"`
	Content *string
	Images  []UploadFile
}

type UpdateReviewInput struct {
	UserID   uint
	ReviewID uint
	Rating   *float64
	Content  *string
	Images   []UploadFile
	// KeepImages false replaces the stored images with Images instead of appending.
	KeepImages bool
}

type CreateCommentInput struct {
	UserID   uint
	ReviewID uint
	Content  string
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	movieRepo repository.MovieRepository,
	userRepo repository.UserRepository,
	commentRepo repository.CommentRepository,
	uploads *UploadService,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		movieRepo:   movieRepo,
		userRepo:    userRepo,
		commentRepo: commentRepo,
		uploads:     uploads,
	}
}

// List returns a page of reviews, optionally scoped to a movie or author.
// A scope that does not exist is NotFound.
func (s *ReviewService) List(ctx context.Context, in ListReviewsInput) (*models.ReviewList, error) {
	if in.MovieID != 0 {
		ok, err := s.movieRepo.Exists(ctx, in.MovieID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, models.NewNotFoundError("Movie", in.MovieID)
		}
	}
	if in.UserID != 0 {
		ok, err := s.userRepo.Exists(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, models.NewNotFoundError("User", in.UserID)
		}
	}

	params := in.ListParams.Normalize(repository.DefaultReviewLimit)
	reviews, total, err := s.reviewRepo.List(ctx, repository.ReviewFilter{
		ListParams: params,
		MovieID:    in.MovieID,
		UserID:     in.UserID,
	})
	if err != nil {
		return nil, err
	}
	views, err := reviewViews(ctx, s.reviewRepo, in.ViewerID, reviews)
	if err != nil {
		return nil, err
	}
	return &models.ReviewList{
		Reviews:    views,
		Pagination: models.NewPagination(params.Page, params.Limit, total),
	}, nil
}

// Liked lists the reviews a user liked, newest like first.
func (s *ReviewService) Liked(ctx context.Context, userID uint, params repository.ListParams) (*models.ReviewList, error) {
	params = params.Normalize(repository.DefaultReviewLimit)
	liked, total, err := s.reviewRepo.ListLikedBy(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	reviews := make([]models.Review, len(liked))
	for i := range liked {
		reviews[i] = liked[i].Review
	}
	counts, err := s.reviewRepo.CommentCounts(ctx, reviewIDs(reviews))
	if err != nil {
		return nil, err
	}

	views := make([]models.ReviewView, len(liked))
	for i := range liked {
		v := models.NewReviewView(&liked[i].Review)
		v.IsLiked = true
		v.CommentsCount = counts[v.ID]
		likedAt := liked[i].LikedAt
		v.LikedAt = &likedAt
		views[i] = v
	}
	return &models.ReviewList{
		Reviews:    views,
		Pagination: models.NewPagination(params.Page, params.Limit, total),
	}, nil
}

func (s *ReviewService) Detail(ctx context.Context, id, viewerID uint) (*models.ReviewDetail, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := reviewViews(ctx, s.reviewRepo, viewerID, []models.Review{*review})
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByReview(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &models.ReviewDetail{Review: views[0], Comments: make([]models.CommentView, len(comments))}
	for i := range comments {
		out.Comments[i] = models.NewCommentView(&comments[i])
	}
	return out, nil
}

// Create stores the uploaded images, inserts the review and refreshes the
// movie aggregate. Stored images are removed again if the insert fails.
func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (*models.ReviewView, error) {
	content, err := normalizeReviewContent(in.Content)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if len(in.Images) > models.MaxReviewImages {
		return nil, tooManyImages()
	}

	ok, err := s.movieRepo.Exists(ctx, in.MovieID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("Movie", in.MovieID)
	}

	images, err := s.uploads.StoreAll(ctx, in.UserID, UploadKindReview, in.Images)
	if err != nil {
		return nil, err
	}
	review := &models.Review{
		UserID:  in.UserID,
		MovieID: in.MovieID,
		Rating:  in.Rating,
		Content: content,
		Images:  models.StringList(images),
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		s.uploads.Remove(ctx, images...)
		return nil, err
	}
	observability.ReviewsWritten.WithLabelValues("create").Inc()
	middleware.Logger.InfoContext(ctx, "review created",
		"review_id", review.ID, "movie_id", review.MovieID, "user_id", review.UserID)

	return s.view(ctx, review.ID, in.UserID)
}

// Update changes the owner's review. The movie aggregate is recomputed only
// when the rating actually changed.
func (s *ReviewService) Update(ctx context.Context, in UpdateReviewInput) (*models.ReviewView, error) {
	content, err := normalizeReviewContent(in.Content)
	if err != nil {
		return nil, err
	}
	if in.Rating != nil && !validation.ValidRating(*in.Rating) {
		return nil, models.NewFieldValidationError([]models.FieldError{{
			Field: "rating", Message: "Rating must be between 0.5 and 5.0 in steps of 0.5",
		}})
	}
	if in.Rating == nil && in.Content == nil && len(in.Images) == 0 {
		return nil, models.NewValidationError("No fields to update")
	}

	review, err := s.owned(ctx, in.ReviewID, in.UserID)
	if err != nil {
		return nil, err
	}

	var fields []string
	ratingChanged := false
	if in.Rating != nil {
		fields = append(fields, "rating")
		ratingChanged = *in.Rating != review.Rating
		review.Rating = *in.Rating
	}
	if in.Content != nil {
		fields = append(fields, "content")
		review.Content = content
	}

	var added, replaced []string
	if len(in.Images) > 0 {
		kept := review.Images
		if !in.KeepImages {
			replaced = kept
			kept = nil
		}
		if len(kept)+len(in.Images) > models.MaxReviewImages {
			return nil, tooManyImages()
		}
		added, err = s.uploads.StoreAll(ctx, in.UserID, UploadKindReview, in.Images)
		if err != nil {
			return nil, err
		}
		review.Images = append(append(models.StringList{}, kept...), added...)
		fields = append(fields, "images")
	}

	if err := s.reviewRepo.Update(ctx, review, fields, ratingChanged); err != nil {
		s.uploads.Remove(ctx, added...)
		return nil, err
	}
	s.uploads.Remove(ctx, replaced...)
	observability.ReviewsWritten.WithLabelValues("update").Inc()

	return s.view(ctx, review.ID, in.UserID)
}

// Delete removes the owner's review with its likes, comments and images.
func (s *ReviewService) Delete(ctx context.Context, reviewID, userID uint) error {
	review, err := s.owned(ctx, reviewID, userID)
	if err != nil {
		return err
	}
	if err := s.reviewRepo.Delete(ctx, review); err != nil {
		return err
	}
	s.uploads.Remove(ctx, review.Images...)
	observability.ReviewsWritten.WithLabelValues("delete").Inc()
	middleware.Logger.InfoContext(ctx, "review deleted", "review_id", review.ID, "movie_id", review.MovieID)
	return nil
}

// ToggleLike flips the viewer's like on a review.
func (s *ReviewService) ToggleLike(ctx context.Context, reviewID, userID uint) (*models.LikeResult, error) {
	liked, count, err := s.reviewRepo.ToggleLike(ctx, reviewID, userID)
	if err != nil {
		return nil, err
	}
	state := "unliked"
	if liked {
		state = "liked"
	}
	observability.LikeToggles.WithLabelValues(state).Inc()
	return &models.LikeResult{IsLiked: liked, LikesCount: count}, nil
}

// AddComment posts a comment on an existing review.
func (s *ReviewService) AddComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" || utf8.RuneCountInString(content) > maxCommentContentLen {
		return nil, models.NewFieldValidationError([]models.FieldError{{
			Field: "content", Message: "Comment must be between 1 and 500 characters",
		}})
	}
	if _, err := s.reviewRepo.GetByID(ctx, in.ReviewID); err != nil {
		return nil, err
	}

	comment := &models.Comment{UserID: in.UserID, ReviewID: in.ReviewID, Content: content}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.ReviewsWritten.WithLabelValues("comment").Inc()
	return comment, nil
}

// DeleteComment removes the caller's comment. The comment must belong to the
// given review.
func (s *ReviewService) DeleteComment(ctx context.Context, reviewID, commentID, userID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.ReviewID != reviewID {
		return models.NewNotFoundError("Comment", commentID)
	}
	if comment.UserID != userID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.commentRepo.Delete(ctx, commentID)
}

// Review loads a review by id, for callers that need its owner.
func (s *ReviewService) Review(ctx context.Context, id uint) (*models.Review, error) {
	return s.reviewRepo.GetByID(ctx, id)
}

func (s *ReviewService) owned(ctx context.Context, reviewID, userID uint) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, models.NewForbiddenError("You can only modify your own reviews")
	}
	return review, nil
}

func (s *ReviewService) view(ctx context.Context, reviewID, viewerID uint) (*models.ReviewView, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	views, err := reviewViews(ctx, s.reviewRepo, viewerID, []models.Review{*review})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// reviewViews decorates a page of reviews with the viewer's like state and
// comment counts, one query each.
func reviewViews(ctx context.Context, repo repository.ReviewRepository, viewerID uint, reviews []models.Review) ([]models.ReviewView, error) {
	ids := reviewIDs(reviews)
	liked, err := repo.LikedSet(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	counts, err := repo.CommentCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.ReviewView, len(reviews))
	for i := range reviews {
		v := models.NewReviewView(&reviews[i])
		v.IsLiked = liked[v.ID]
		v.CommentsCount = counts[v.ID]
		views[i] = v
	}
	return views, nil
}

func reviewIDs(reviews []models.Review) []uint {
	ids := make([]uint, len(reviews))
	for i := range reviews {
		ids[i] = reviews[i].ID
	}
	return ids
}

// normalizeReviewContent trims content; present content must be 1-1000 characters.
func normalizeReviewContent(content *string) (*string, error) {
	if content == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*content)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxReviewContentLen {
		return nil, models.NewFieldValidationError([]models.FieldError{{
			Field: "content", Message: "Review content must be between 1 and 1000 characters",
		}})
	}
	return &trimmed, nil
}

func tooManyImages() error {
	return models.NewFieldValidationError([]models.FieldError{{
		Field: "reviewImages", Message: "A review can have at most 3 images",
	}})
}
