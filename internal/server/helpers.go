package server

import (
	"errors"
	"io"
	"strings"
	"unicode"

	"cinelog/internal/models"
	"cinelog/internal/repository"
	"cinelog/internal/service"
	"cinelog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "movieId" -> "movie ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// mapServiceError picks the HTTP status for an error returned by a service.
func mapServiceError(err error) int {
	return models.StatusForError(err)
}

// respondServiceError renders a service error with its mapped status.
func respondServiceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, mapServiceError(err), err)
}

// parseListQuery reads page, limit, sortBy and sortOrder. sortKeys is the
// whitelist for sortBy.
func parseListQuery(c *fiber.Ctx, sortKeys []string) (repository.ListParams, error) {
	q, err := validation.ParseListQuery(
		c.Query("page"), c.Query("limit"), c.Query("sortBy"), c.Query("sortOrder"), sortKeys,
	)
	if err != nil {
		return repository.ListParams{}, err
	}
	return repository.ListParams{
		Page:      q.Page,
		Limit:     q.Limit,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}, nil
}

// isMultipart reports whether the request body is multipart/form-data.
func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// formFiles reads every file sent under field. At most limit files are accepted.
func formFiles(c *fiber.Ctx, field string, limit int) ([]service.UploadFile, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart form")
	}
	headers := form.File[field]
	if len(headers) > limit {
		return nil, models.NewFieldValidationError([]models.FieldError{{
			Field: field, Message: "Too many files",
		}})
	}

	files := make([]service.UploadFile, 0, len(headers))
	for _, h := range headers {
		src, err := h.Open()
		if err != nil {
			return nil, models.NewValidationError("Unable to read uploaded file")
		}
		content, err := io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			return nil, models.NewValidationError("Unable to read uploaded file")
		}
		files = append(files, service.UploadFile{
			Field:       field,
			Filename:    h.Filename,
			ContentType: h.Header.Get(fiber.HeaderContentType),
			Content:     content,
		})
	}
	return files, nil
}

// optionalFormValue returns nil when the form field was not sent at all.
func optionalFormValue(c *fiber.Ctx, key string) *string {
	if c.Request().PostArgs().Has(key) {
		v := c.FormValue(key)
		return &v
	}
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err == nil {
			if values, ok := form.Value[key]; ok && len(values) > 0 {
				return &values[0]
			}
		}
	}
	return nil
}
