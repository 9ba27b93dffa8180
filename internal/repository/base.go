// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"math"
	"strings"

	"cinelog/internal/database"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Default and maximum page sizes for listings.
const (
	DefaultMovieLimit  = 20
	DefaultReviewLimit = 10
	MaxLimit           = 50

	maxOffset = math.MaxInt32
)

// Sort directions accepted by listings.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListParams are the paging and ordering inputs shared by every listing.
// SortBy is a public sort key; it is resolved through a per-resource
// whitelist and never reaches SQL text directly.
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Normalize clamps paging into range, using defaultLimit when Limit is unset.
func (p ListParams) Normalize(defaultLimit int) ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.SortOrder != SortAsc {
		p.SortOrder = SortDesc
	}
	return p
}

// Offset is the number of rows skipped before the requested page. It
// saturates at maxOffset so a huge page number cannot wrap negative.
func (p ListParams) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > maxOffset/p.Limit {
		return maxOffset
	}
	return (p.Page - 1) * p.Limit
}

// orderClause resolves sortBy through columns and falls back to fallback when
// the key is unknown.
func orderClause(columns map[string]string, sortBy, fallback, order string) string {
	col, ok := columns[sortBy]
	if !ok {
		col = columns[fallback]
	}
	if order == SortAsc {
		return col + " ASC"
	}
	return col + " DESC"
}

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// violatedConstraint names the constraint or column behind a unique violation.
func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return strings.ToLower(err.Error())
}

// likePattern builds a LIKE pattern matching term anywhere, escaping wildcards
// with '!'.
func likePattern(term string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + strings.ToLower(r.Replace(term)) + "%"
}
