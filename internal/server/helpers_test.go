package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"picfeed/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"id":        "ID",
		"commentId": "comment ID",
		"postId":    "post ID",
		"username":  "username",
	}
	for in, want := range cases {
		assert.Equal(t, want, humanizeParam(in), in)
	}
}

func TestParsePagination(t *testing.T) {
	t.Parallel()
	tests := []struct {
		query string
		want  service.PageRequest
	}{
		{"", service.PageRequest{Page: 1, PageSize: service.DefaultPageSize}},
		{"?page=2&page_size=5", service.PageRequest{Page: 2, PageSize: 5}},
		{"?page=-1&page_size=0", service.PageRequest{Page: 1, PageSize: service.DefaultPageSize}},
		{"?page_size=5000", service.PageRequest{Page: 1, PageSize: service.MaxPageSize}},
	}

	for _, tt := range tests {
		var got service.PageRequest
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error {
			got = parsePagination(c)
			return nil
		})
		_, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.query)
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Token abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		var got string
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error {
			got = bearerToken(c)
			return nil
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		_, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.header)
	}
}
