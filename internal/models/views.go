package models

// Pagination describes a page of results.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNext      bool  `json:"hasNext"`
	HasPrev      bool  `json:"hasPrev"`
}

// NewPagination derives page metadata from the requested page, page size and
// total row count.
func NewPagination(page, limit int, total int64) Pagination {
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNext:      page < totalPages,
		HasPrev:      page > 1,
	}
}

// MovieList is a page of movies.
type MovieList struct {
	Movies     []Movie    `json:"movies"`
	Pagination Pagination `json:"pagination"`
}

// ReviewList is a page of reviews.
type ReviewList struct {
	Reviews    []ReviewView `json:"reviews"`
	Pagination Pagination   `json:"pagination"`
}

// ProfileStats summarises a user's reviewing activity.
type ProfileStats struct {
	TotalReviews       int64   `json:"totalReviews"`
	AverageRating      float64 `json:"averageRating"`
	TotalLikesReceived int64   `json:"totalLikesReceived"`
}

// BasicStats extends ProfileStats with the rating range.
type BasicStats struct {
	ProfileStats
	MinRating float64 `json:"minRating"`
	MaxRating float64 `json:"maxRating"`
}

// GenreStat is one genre's share of a user's reviews.
type GenreStat struct {
	Genre         string  `json:"genre"`
	ReviewCount   int64   `json:"reviewCount"`
	AverageRating float64 `json:"averageRating"`
	TotalLikes    int64   `json:"totalLikes"`
}

// MonthlyStat is one calendar month's review activity, keyed "YYYY-MM".
type MonthlyStat struct {
	Month         string  `json:"month"`
	ReviewCount   int64   `json:"reviewCount"`
	AverageRating float64 `json:"averageRating"`
}

// UserStats is the full statistics payload for a user.
type UserStats struct {
	BasicStats         BasicStats     `json:"basicStats"`
	MonthlyStats       []MonthlyStat  `json:"monthlyStats"`
	RatingDistribution []RatingBucket `json:"ratingDistribution"`
	GenreStats         []GenreStat    `json:"genreStats"`
}

// UserProfile is the public profile page for a user.
type UserProfile struct {
	User          PublicProfile `json:"user"`
	Stats         ProfileStats  `json:"stats"`
	RecentReviews []ReviewView  `json:"recentReviews"`
	GenreStats    []GenreStat   `json:"genreStats"`
}

// LikeResult reports the state of a like after a toggle.
type LikeResult struct {
	IsLiked    bool `json:"isLiked"`
	LikesCount int  `json:"likesCount"`
}
