package server

import (
	"picfeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeed returns the chronological feed
// @Summary Chronological feed
// @Description The caller's posts and the posts of everyone they follow, newest first
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Response{data=models.Page[models.Post]}
// @Router /posts/feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page, err := s.feedService.Feed(c.UserContext(), currentUserID(c), parsePagination(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Feed retrieved successfully", page)
}

// GetTopPosts returns the engagement-ranked feed
// @Summary Top posts
// @Description Posts from the trailing window ranked by likes plus comments, then recency
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Response{data=models.Page[models.Post]}
// @Router /home/feed [get]
func (s *Server) GetTopPosts(c *fiber.Ctx) error {
	page, err := s.feedService.TopPosts(c.UserContext(), currentUserID(c), parsePagination(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Top posts retrieved successfully", page)
}
