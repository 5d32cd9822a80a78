package models

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Response is the envelope every API response is wrapped in.
type Response struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Data      interface{}       `json:"data"`
	ErrorCode string            `json:"error_code,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// Page is the data payload of paginated list endpoints.
type Page[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}

// NewPage builds a Page, normalizing a nil slice to an empty one.
func NewPage[T any](results []T, count int64, page, pageSize int) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{Count: count, Page: page, PageSize: pageSize, Results: results}
}

// RespondWithSuccess writes a successful envelope.
func RespondWithSuccess(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondWithError creates a standardized error response.
// Internal error details are never echoed to the client.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := Response{Success: false}

	var appErr *AppError
	if errors.As(err, &appErr) {
		response.Message = appErr.Message
		response.ErrorCode = appErr.Code
		response.Errors = appErr.Fields
	} else if status >= fiber.StatusInternalServerError {
		response.Message = "Internal server error"
		response.ErrorCode = CodeInternal
	} else {
		response.Message = err.Error()
	}

	return c.Status(status).JSON(response)
}
