package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"cinelog/internal/models"
)

// MaxPageSize bounds the limit query parameter.
const MaxPageSize = 50

// ListQuery is a parsed listing query. Zero values mean "use the default".
type ListQuery struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// ParseListQuery validates page, limit, sortBy and sortOrder query values.
// sortBy must be one of sortKeys.
func ParseListQuery(page, limit, sortBy, sortOrder string, sortKeys []string) (ListQuery, error) {
	var q ListQuery
	var errs FieldErrors

	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			errs.Add("page", "page must be a positive integer")
		}
		q.Page = n
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > MaxPageSize {
			errs.Add("limit", fmt.Sprintf("limit must be between 1 and %d", MaxPageSize))
		}
		q.Limit = n
	}
	if sortBy != "" {
		if !slices.Contains(sortKeys, sortBy) {
			errs.Add("sortBy", "sortBy must be one of: "+strings.Join(sortKeys, ", "))
		}
		q.SortBy = sortBy
	}
	if sortOrder != "" {
		order := strings.ToLower(sortOrder)
		if order != "asc" && order != "desc" {
			errs.Add("sortOrder", "sortOrder must be asc or desc")
		}
		q.SortOrder = order
	}

	if err := errs.Err(); err != nil {
		return ListQuery{}, err
	}
	return q, nil
}

// ParseGenres accepts a JSON array or a comma-separated list. Entries are
// trimmed, blanks dropped and duplicates removed in order.
func ParseGenres(raw string) (models.StringList, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.StringList{}, nil
	}
	var items []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, models.NewFieldValidationError([]models.FieldError{{
				Field: "favoriteGenres", Message: "Genres must be a JSON array of strings",
			}})
		}
	} else {
		items = strings.Split(raw, ",")
	}
	return CleanList(items), nil
}

// CleanList trims entries, drops blanks and removes duplicates.
func CleanList(items []string) models.StringList {
	out := models.StringList{}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// ParseReleaseDate accepts YYYY-MM-DD or an RFC 3339 timestamp. Only the
// calendar date is kept.
func ParseReleaseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
	}
	if err != nil {
		return nil, models.NewFieldValidationError([]models.FieldError{{
			Field: "releaseDate", Message: "releaseDate must be YYYY-MM-DD",
		}})
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}

// ParseID parses a positive numeric identifier.
func ParseID(field, raw string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || n == 0 {
		return 0, models.NewFieldValidationError([]models.FieldError{{
			Field: field, Message: field + " must be a positive integer",
		}})
	}
	return uint(n), nil
}

// ParseRating parses a rating form value and checks its range and step.
func ParseRating(raw string) (float64, error) {
	r, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !ValidRating(r) {
		return 0, models.NewFieldValidationError([]models.FieldError{{
			Field: "rating", Message: "Rating must be between 0.5 and 5.0 in steps of 0.5",
		}})
	}
	return r, nil
}

// FlexList decodes from either a JSON array of strings or a single
// comma-separated string.
type FlexList []string

func (l *FlexList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*l = nil
		return nil
	}
	var items []string
	if err := json.Unmarshal(b, &items); err == nil {
		*l = FlexList(CleanList(items))
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.New("expected a list of strings or a comma-separated string")
	}
	*l = FlexList(CleanList(strings.Split(raw, ",")))
	return nil
}
