package service

import (
	"context"

	"picfeed/internal/cache"
	"picfeed/internal/featureflags"
	"picfeed/internal/middleware"
	"picfeed/internal/models"
	"picfeed/internal/observability"
	"picfeed/internal/repository"
	"picfeed/internal/validation"
)

// FlagChecker evaluates feature flags. featureflags.Manager satisfies it.
type FlagChecker interface {
	Enabled(name string, userID uint) bool
}

type PostService struct {
	postRepo repository.PostRepository
	viewRepo repository.PostViewRepository
	images   ImageStore
	flags    FlagChecker
	isAdmin  AdminChecker
}

type CreatePostInput struct {
	Author  *models.User
	Caption string
	Image   []byte
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Caption string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(
	postRepo repository.PostRepository,
	viewRepo repository.PostViewRepository,
	images ImageStore,
	flags FlagChecker,
	isAdmin AdminChecker,
) *PostService {
	return &PostService{
		postRepo: postRepo,
		viewRepo: viewRepo,
		images:   images,
		flags:    flags,
		isAdmin:  isAdmin,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validation.ValidateCaption(in.Caption); err != nil {
		return nil, validation.FieldError("caption", err)
	}

	saved, err := s.images.SaveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:   in.Author.ID,
		Caption:  in.Caption,
		ImageURL: saved.URL,
		ImageKey: saved.Key,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		if delErr := s.images.Delete(saved.Key); delErr != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove orphaned image", "key", saved.Key, "error", delErr)
		}
		return nil, models.NewInternalError(err)
	}

	observability.RecordEngagement(observability.EventPostCreated)
	cache.InvalidateProfiles(ctx, in.Author.Username)

	created, err := s.postRepo.GetByID(ctx, post.ID, in.Author.ID)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdatePost changes the caption. Only the owner may edit, and is_edited flips
// only when the caption actually changes.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("You do not have permission to perform this action.")
	}
	if err := validation.ValidateCaption(in.Caption); err != nil {
		return nil, validation.FieldError("caption", err)
	}
	if in.Caption == post.Caption {
		return post, nil
	}

	if err := s.postRepo.UpdateCaption(ctx, post.ID, in.Caption, true); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// DeletePost removes a post with its likes, comments and views. Owners and admins may delete.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return err
	}
	if post.UserID != in.UserID {
		admin, err := s.isAdmin(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !admin {
			return models.NewForbiddenError("You do not have permission to perform this action.")
		}
	}

	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return err
	}
	if err := s.images.Delete(post.ImageKey); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to delete post image", "post_id", post.ID, "error", err)
	}
	observability.RecordEngagement(observability.EventPostDeleted)
	if post.Author != nil {
		cache.InvalidateProfiles(ctx, post.Author.Username)
	}
	return nil
}

// GetPost returns a post with its view count, recording the viewer's view first.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}

	if viewerID != 0 && s.flags.Enabled(featureflags.RecordPostViews, viewerID) {
		if err := s.viewRepo.Record(ctx, post.ID, viewerID); err != nil {
			return nil, models.NewInternalError(err)
		}
		observability.RecordEngagement(observability.EventView)
	}

	views, err := s.viewRepo.Count(ctx, post.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	post.ViewsCount = &views
	return post, nil
}

// ListPosts returns all posts, newest first.
func (s *PostService) ListPosts(ctx context.Context, viewerID uint, p PageRequest) (models.Page[*models.Post], error) {
	p = p.Normalize()
	posts, total, err := s.postRepo.List(ctx, viewerID, p.PageSize, p.Offset())
	if err != nil {
		return models.Page[*models.Post]{}, models.NewInternalError(err)
	}
	return newPage(posts, total, p), nil
}

// ListUserPosts returns the posts of authorID as seen by viewerID.
func (s *PostService) ListUserPosts(ctx context.Context, authorID, viewerID uint, p PageRequest) (models.Page[*models.Post], error) {
	p = p.Normalize()
	posts, total, err := s.postRepo.ListByUser(ctx, authorID, viewerID, p.PageSize, p.Offset())
	if err != nil {
		return models.Page[*models.Post]{}, models.NewInternalError(err)
	}
	return newPage(posts, total, p), nil
}
