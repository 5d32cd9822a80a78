package server

import (
	"picfeed/internal/models"
	"picfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

// updateMeRequest accepts JSON or multipart; an avatar may only come as multipart.
type updateMeRequest struct {
	Username  *string `json:"username" form:"username"`
	FirstName *string `json:"first_name" form:"first_name"`
	LastName  *string `json:"last_name" form:"last_name"`
	Bio       *string `json:"bio" form:"bio"`
}

type languageRequest struct {
	Language string `json:"language" form:"language"`
}

// GetMe returns the authenticated user's account
// @Summary Get current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response{data=models.User}
// @Router /user/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	return models.RespondWithSuccess(c, fiber.StatusOK, "User retrieved successfully", currentUser(c))
}

// UpdateMe updates profile fields and, for multipart requests, the avatar
// @Summary Update current user
// @Tags users
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body object{username=string,first_name=string,last_name=string,bio=string} false "Profile fields"
// @Param avatar formData file false "Avatar image"
// @Success 200 {object} models.Response{data=models.User}
// @Failure 400 {object} models.Response
// @Router /user/me [patch]
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req updateMeRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	avatar, err := readUpload(c, "avatar", s.config.MaxUploadBytes())
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}

	user, err := s.userService.UpdateMe(c.UserContext(), currentUserID(c), service.UpdateMeInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Avatar:    avatar,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "User updated successfully", user)
}

// DeleteMe soft-deletes the authenticated account
// @Summary Deactivate current user
// @Description The account is hidden everywhere until its owner logs in again.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response
// @Router /user/me [delete]
func (s *Server) DeleteMe(c *fiber.Ctx) error {
	if err := s.userService.DeleteMe(c.UserContext(), currentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "User deleted successfully", nil)
}

// SetLanguage changes the interface language
// @Summary Set language
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{language=string} true "One of en, ru, uz"
// @Success 200 {object} models.Response{data=models.User}
// @Failure 400 {object} models.Response
// @Router /user/me/language [patch]
func (s *Server) SetLanguage(c *fiber.Ctx) error {
	var req languageRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.SetLanguage(c.UserContext(), currentUserID(c), req.Language)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Language updated successfully", user)
}

// SearchUsers lists users, optionally filtered by the search query
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches username, first or last name"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Response{data=models.Page[models.UserSummary]}
// @Router /users [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	page, err := s.userService.Search(c.UserContext(), c.Query("search"), parsePagination(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Users retrieved successfully", page)
}

// SuggestedUsers returns accounts the caller might want to follow
// @Summary Suggested users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response{data=[]models.UserSummary}
// @Router /users/suggested [get]
func (s *Server) SuggestedUsers(c *fiber.Ctx) error {
	users, err := s.userService.Suggested(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Suggested users retrieved successfully", users)
}

// GetProfile returns a public profile
// @Summary Get user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} models.Response{data=models.UserProfile}
// @Failure 404 {object} models.Response
// @Router /users/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.userService.Profile(c.UserContext(), currentUserID(c), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "User profile retrieved successfully", profile)
}

// GetUserPosts lists a user's posts, newest first
// @Summary Get user posts
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Response{data=models.Page[models.Post]}
// @Failure 404 {object} models.Response
// @Router /users/{username}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	author, err := s.userService.ResolveActive(ctx, c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	page, err := s.postService.ListUserPosts(ctx, author.ID, currentUserID(c), parsePagination(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "User posts retrieved successfully", page)
}
