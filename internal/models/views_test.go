package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		total     int64
		wantPages int
		wantNext  bool
		wantPrev  bool
	}{
		{"empty", 1, 10, 0, 0, false, false},
		{"exact", 1, 5, 10, 2, true, false},
		{"rounds up", 2, 5, 11, 3, true, true},
		{"last page", 3, 5, 11, 3, false, true},
		{"beyond last page", 9, 5, 11, 3, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.limit, tt.total)
			assert.Equal(t, tt.page, p.CurrentPage)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.total, p.TotalItems)
			assert.Equal(t, tt.limit, p.ItemsPerPage)
			assert.Equal(t, tt.wantNext, p.HasNext)
			assert.Equal(t, tt.wantPrev, p.HasPrev)
		})
	}
}

func TestNewReviewViewDefaults(t *testing.T) {
	r := &Review{ID: 3, UserID: 9, Rating: 4.5}
	v := NewReviewView(r)
	assert.Equal(t, uint(9), v.User.ID)
	assert.NotNil(t, v.Images)
	assert.Nil(t, v.Movie)
	assert.False(t, v.IsLiked)

	r.Movie = &Movie{ID: 2, Title: "Inception"}
	r.User = &User{ID: 9, Nickname: "kim"}
	v = NewReviewView(r)
	assert.Equal(t, "Inception", v.Movie.Title)
	assert.Equal(t, "kim", v.User.Nickname)
}
