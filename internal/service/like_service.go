package service

import (
	"context"
	"errors"

	"picfeed/internal/models"
	"picfeed/internal/observability"
	"picfeed/internal/repository"
)

type LikeService struct {
	postRepo repository.PostRepository
	likeRepo repository.LikeRepository
	notifier Notifier
}

func NewLikeService(postRepo repository.PostRepository, likeRepo repository.LikeRepository, notifier Notifier) *LikeService {
	return &LikeService{postRepo: postRepo, likeRepo: likeRepo, notifier: notifier}
}

// Like records actor's like of postID. A second like is rejected with ALREADY_LIKED.
func (s *LikeService) Like(ctx context.Context, actor *models.User, postID uint) (*models.Like, error) {
	post, err := s.postRepo.GetByID(ctx, postID, actor.ID)
	if err != nil {
		return nil, err
	}

	liked, err := s.likeRepo.Exists(ctx, post.ID, actor.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if liked {
		return nil, models.NewBusinessError(models.CodeAlreadyLiked, "You have already liked this post")
	}

	like := &models.Like{PostID: post.ID, UserID: actor.ID}
	if err := s.likeRepo.Create(ctx, like); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("like", "You have already liked this post", err)
		}
		return nil, models.NewInternalError(err)
	}
	summary := actor.Summary()
	like.Author = &summary

	observability.RecordEngagement(observability.EventLike)
	notify(ctx, s.notifier, post.UserID, actor.ID, NotifyLike, map[string]interface{}{
		"post_id": post.ID,
		"user":    summary,
	})
	return like, nil
}

// Unlike removes actor's like of postID.
func (s *LikeService) Unlike(ctx context.Context, actor *models.User, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, actor.ID)
	if err != nil {
		return err
	}
	removed, err := s.likeRepo.Delete(ctx, post.ID, actor.ID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !removed {
		return models.NewBusinessError(models.CodeNotLiked, "You have not liked this post")
	}
	observability.RecordEngagement(observability.EventUnlike)
	return nil
}

func (s *LikeService) ListLikes(ctx context.Context, postID, viewerID uint, p PageRequest) (models.Page[*models.Like], error) {
	if _, err := s.postRepo.GetByID(ctx, postID, viewerID); err != nil {
		return models.Page[*models.Like]{}, err
	}
	p = p.Normalize()
	likes, total, err := s.likeRepo.ListByPost(ctx, postID, p.PageSize, p.Offset())
	if err != nil {
		return models.Page[*models.Like]{}, models.NewInternalError(err)
	}
	return newPage(likes, total, p), nil
}
