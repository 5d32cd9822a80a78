package server

import (
	"errors"
	"io"
	"strings"
	"unicode"

	"picfeed/internal/middleware"
	"picfeed/internal/models"
	"picfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parsePagination reads the page and page_size query parameters.
func parsePagination(c *fiber.Ctx) service.PageRequest {
	return service.PageRequest{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", service.DefaultPageSize),
	}.Normalize()
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// The message is derived from the parameter name ("id" -> "Invalid ID",
// "commentId" -> "Invalid comment ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(strings.TrimSuffix(param, "Id"))
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return strings.ToLower(strings.Join(splitCamel(param), " "))
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

// respondError renders err with the status its code maps to. Causes of
// server errors are logged and never returned to the client.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			"method", c.Method(), "path", c.Path(), "error", err)
	}
	return models.RespondWithError(c, status, err)
}

// bindJSON parses the body into dest, writing 400 on malformed input.
func bindJSON(c *fiber.Ctx, dest interface{}) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// readUpload returns the content of the multipart file field, or nil when it
// is absent. maxBytes bounds what is read into memory.
func readUpload(c *fiber.Ctx, field string, maxBytes int64) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		// Missing field or a non-multipart body.
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	// One byte past the limit lets the media store reject oversized files.
	return io.ReadAll(io.LimitReader(f, maxBytes+1))
}
