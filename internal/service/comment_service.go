package service

import (
	"context"
	"unicode/utf8"

	"picfeed/internal/models"
	"picfeed/internal/observability"
	"picfeed/internal/repository"
	"picfeed/internal/validation"
)

type CommentService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	notifier    Notifier
	isAdmin     AdminChecker
}

type CreateCommentInput struct {
	Author *models.User
	PostID uint
	Text   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	notifier Notifier,
	isAdmin AdminChecker,
) *CommentService {
	return &CommentService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		notifier:    notifier,
		isAdmin:     isAdmin,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	text, err := validation.ValidateCommentText(in.Text)
	if err != nil {
		return nil, validation.FieldError("text", err)
	}
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.Author.ID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: post.ID, UserID: in.Author.ID, Text: text}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.RecordEngagement(observability.EventComment)
	notify(ctx, s.notifier, post.UserID, in.Author.ID, NotifyComment, map[string]interface{}{
		"post_id":    post.ID,
		"comment_id": comment.ID,
		"user":       in.Author.Summary(),
		"preview":    preview(text, 80),
	})
	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID, viewerID uint, p PageRequest) (models.Page[*models.Comment], error) {
	if _, err := s.postRepo.GetByID(ctx, postID, viewerID); err != nil {
		return models.Page[*models.Comment]{}, err
	}
	p = p.Normalize()
	comments, total, err := s.commentRepo.ListByPost(ctx, postID, p.PageSize, p.Offset())
	if err != nil {
		return models.Page[*models.Comment]{}, models.NewInternalError(err)
	}
	return newPage(comments, total, p), nil
}

// DeleteComment removes a comment. Authors and admins may delete.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if comment.UserID != in.UserID {
		admin, err := s.isAdmin(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !admin {
			return models.NewForbiddenError("You do not have permission to perform this action.")
		}
	}
	return s.commentRepo.Delete(ctx, comment.ID)
}

func preview(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "…"
}
