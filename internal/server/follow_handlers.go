package server

import (
	"picfeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Follow makes the caller follow a user
// @Summary Follow user
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username to follow"
// @Success 201 {object} models.Response{data=models.UserSummary}
// @Failure 400 {object} models.Response "SELF_FOLLOW or ALREADY_FOLLOWED"
// @Failure 404 {object} models.Response
// @Router /users/{username}/follow [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	result, err := s.followService.Follow(c.UserContext(), currentUser(c), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusCreated, result.Message, result.Target)
}

// Unfollow removes the caller's follow of a user
// @Summary Unfollow user
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username to unfollow"
// @Success 200 {object} models.Response{data=models.UserSummary}
// @Failure 400 {object} models.Response "SELF_FOLLOW or NOT_FOLLOWING"
// @Router /users/{username}/unfollow [post]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	result, err := s.followService.Unfollow(c.UserContext(), currentUser(c), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, result.Message, result.Target)
}

// GetFollowers lists the followers of a user
// @Summary List followers
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Response{data=models.Page[models.UserSummary]}
// @Router /users/{username}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	page, err := s.followService.Followers(c.UserContext(), c.Params("username"), parsePagination(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Followers retrieved successfully", page)
}

// GetFollowing lists the users a user follows
// @Summary List following
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Response{data=models.Page[models.UserSummary]}
// @Router /users/{username}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	page, err := s.followService.Following(c.UserContext(), c.Params("username"), parsePagination(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Following list retrieved successfully", page)
}
