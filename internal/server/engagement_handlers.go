package server

import (
	"picfeed/internal/models"
	"picfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createCommentRequest struct {
	Text string `json:"text" form:"text"`
}

// LikePost likes a post
// @Summary Like post
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 201 {object} models.Response{data=models.Like}
// @Failure 400 {object} models.Response "ALREADY_LIKED"
// @Failure 404 {object} models.Response
// @Failure 409 {object} models.Response
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	like, err := s.likeService.Like(c.UserContext(), currentUser(c), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusCreated, "Post liked successfully", like)
}

// UnlikePost removes the caller's like
// @Summary Unlike post
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.Response "NOT_LIKED"
// @Router /posts/{id}/unlike [post]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.likeService.Unlike(c.UserContext(), currentUser(c), id); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Post unliked successfully", nil)
}

// GetLikes lists the likes of a post
// @Summary List likes
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Response{data=models.Page[models.Like]}
// @Router /posts/{id}/likes [get]
func (s *Server) GetLikes(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.likeService.ListLikes(c.UserContext(), id, currentUserID(c), parsePagination(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Post likes retrieved successfully", page)
}

// CreateComment comments on a post
// @Summary Create comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{text=string} true "Comment text, at most 500 characters"
// @Success 201 {object} models.Response{data=models.Comment}
// @Failure 400 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req createCommentRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		Author: currentUser(c),
		PostID: id,
		Text:   req.Text,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusCreated, "Comment created successfully", comment)
}

// GetComments lists the comments of a post, newest first
// @Summary List comments
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Response{data=models.Page[models.Comment]}
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.commentService.ListComments(c.UserContext(), id, currentUserID(c), parsePagination(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Comments retrieved successfully", page)
}

// DeleteComment deletes a comment
// @Summary Delete comment
// @Description Comment owner or admin.
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} models.Response
// @Failure 403 {object} models.Response
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    currentUserID(c),
		CommentID: id,
	}); err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithSuccess(c, fiber.StatusOK, "Comment deleted successfully", nil)
}
