package service

import (
	"context"
	"time"

	"picfeed/internal/models"
	"picfeed/internal/observability"
	"picfeed/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	feedChronological = "chronological"
	feedTop           = "top"
)

// FeedService composes the chronological and the top feed.
type FeedService struct {
	postRepo repository.PostRepository
	window   time.Duration
	now      func() time.Time
}

func NewFeedService(postRepo repository.PostRepository, window time.Duration) *FeedService {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	return &FeedService{postRepo: postRepo, window: window, now: utcNow}
}

// Feed returns the viewer's own posts and their followees' posts, newest first.
func (s *FeedService) Feed(ctx context.Context, viewerID uint, p PageRequest) (page models.Page[*models.Post], err error) {
	ctx, end := observability.StartServiceSpan(ctx, "FeedService", "Feed",
		attribute.Int64("viewer.id", int64(viewerID)),
	)
	defer func() { end(err) }()
	defer observability.TrackFeedQuery(feedChronological)()

	p = p.Normalize()
	posts, total, err := s.postRepo.Feed(ctx, viewerID, p.PageSize, p.Offset())
	if err != nil {
		return models.Page[*models.Post]{}, models.NewInternalError(err)
	}
	return newPage(posts, total, p), nil
}

// TopPosts ranks posts of the trailing window by likes plus comments, then recency.
func (s *FeedService) TopPosts(ctx context.Context, viewerID uint, p PageRequest) (page models.Page[*models.Post], err error) {
	since := s.now().Add(-s.window)
	ctx, end := observability.StartServiceSpan(ctx, "FeedService", "TopPosts",
		attribute.Int64("viewer.id", int64(viewerID)),
		attribute.String("feed.since", since.Format(time.RFC3339)),
	)
	defer func() { end(err) }()
	defer observability.TrackFeedQuery(feedTop)()

	p = p.Normalize()
	posts, total, err := s.postRepo.TopPosts(ctx, since, viewerID, p.PageSize, p.Offset())
	if err != nil {
		return models.Page[*models.Post]{}, models.NewInternalError(err)
	}
	return newPage(posts, total, p), nil
}
