package server

import (
	"picfeed/internal/models"
	"picfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updatePostRequest struct {
	Caption *string `json:"caption" form:"caption"`
}

// CreatePost handles post creation
// @Summary Create post
// @Description Upload an image (jpeg, png, gif or webp, at most 10 MB) with an optional caption
// @Tags posts
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image"
// @Param caption formData string false "Caption"
// @Success 201 {object} models.Response{data=models.Post}
// @Failure 400 {object} models.Response
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	image, err := readUpload(c, "image", s.config.MaxUploadBytes())
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		Author:  currentUser(c),
		Caption: c.FormValue("caption"),
		Image:   image,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusCreated, "Post created successfully", post)
}

// GetPosts lists all posts, newest first
// @Summary List posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Response{data=models.Page[models.Post]}
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListPosts(c.UserContext(), currentUserID(c), parsePagination(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Posts retrieved successfully", page)
}

// GetMyPosts lists the caller's posts
// @Summary List own posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Response{data=models.Page[models.Post]}
// @Router /posts/mine [get]
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	userID := currentUserID(c)
	page, err := s.postService.ListUserPosts(c.UserContext(), userID, userID, parsePagination(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "My posts retrieved successfully", page)
}

// GetPost returns a single post and records the caller's view
// @Summary Get post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Response{data=models.Post}
// @Failure 404 {object} models.Response
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Post retrieved successfully", post)
}

// UpdatePost changes a post's caption
// @Summary Update post
// @Description Owner only. is_edited becomes true when the caption changes.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{caption=string} true "New caption"
// @Success 200 {object} models.Response{data=models.Post}
// @Failure 403 {object} models.Response
// @Router /posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updatePostRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	if req.Caption == nil {
		return s.respondError(c, models.NewFieldValidationError(map[string]string{"caption": "This field is required."}))
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:  currentUserID(c),
		PostID:  id,
		Caption: *req.Caption,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Post updated successfully", post)
}

// DeletePost deletes a post with its likes, comments and views
// @Summary Delete post
// @Description Owner or admin.
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Response
// @Failure 403 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: currentUserID(c),
		PostID: id,
	}); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Post deleted successfully", nil)
}
