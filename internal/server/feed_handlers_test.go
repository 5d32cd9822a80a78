package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"picfeed/internal/models"
	"picfeed/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	args := m.Called(ctx, id, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) posts(args mock.Arguments) ([]*models.Post, int64, error) {
	posts, _ := args.Get(0).([]*models.Post)
	return posts, int64(args.Int(1)), args.Error(2)
}

func (m *MockPostRepository) List(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
	return m.posts(m.Called(ctx, viewerID, limit, offset))
}

func (m *MockPostRepository) ListByUser(ctx context.Context, userID, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
	return m.posts(m.Called(ctx, userID, viewerID, limit, offset))
}

func (m *MockPostRepository) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
	return m.posts(m.Called(ctx, viewerID, limit, offset))
}

func (m *MockPostRepository) TopPosts(ctx context.Context, since time.Time, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
	return m.posts(m.Called(ctx, since, viewerID, limit, offset))
}

func (m *MockPostRepository) UpdateCaption(ctx context.Context, id uint, caption string, edited bool) error {
	return m.Called(ctx, id, caption, edited).Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func newFeedApp(repo *MockPostRepository) *fiber.App {
	s := &Server{feedService: service.NewFeedService(repo, 7*24*time.Hour)}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(1))
		return c.Next()
	})
	app.Get("/posts/feed", s.GetFeed)
	app.Get("/home/feed", s.GetTopPosts)
	return app
}

func TestGetFeed(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		setupMock  func(*MockPostRepository)
		wantStatus int
		wantCount  int64
		wantPage   int
	}{
		{
			name: "default page",
			url:  "/posts/feed",
			setupMock: func(m *MockPostRepository) {
				m.On("Feed", mock.Anything, uint(1), service.DefaultPageSize, 0).
					Return([]*models.Post{{ID: 2}, {ID: 1}}, 2, nil)
			},
			wantStatus: http.StatusOK,
			wantCount:  2,
			wantPage:   1,
		},
		{
			name: "page size is clamped",
			url:  "/posts/feed?page=3&page_size=1000",
			setupMock: func(m *MockPostRepository) {
				m.On("Feed", mock.Anything, uint(1), service.MaxPageSize, 2*service.MaxPageSize).
					Return([]*models.Post{}, 0, nil)
			},
			wantStatus: http.StatusOK,
			wantPage:   3,
		},
		{
			name: "store failure",
			url:  "/posts/feed",
			setupMock: func(m *MockPostRepository) {
				m.On("Feed", mock.Anything, uint(1), service.DefaultPageSize, 0).
					Return(nil, 0, errors.New("connection reset"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockPostRepository)
			tt.setupMock(repo)

			resp, err := newFeedApp(repo).Test(httptest.NewRequest(http.MethodGet, tt.url, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body struct {
				Data      models.Page[models.Post] `json:"data"`
				ErrorCode string                   `json:"error_code"`
				Message   string                   `json:"message"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantCount, body.Data.Count)
				assert.Equal(t, tt.wantPage, body.Data.Page)
				assert.NotNil(t, body.Data.Results)
			} else {
				assert.Equal(t, models.CodeInternal, body.ErrorCode)
				assert.NotContains(t, body.Message, "connection reset")
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestGetTopPosts_UsesTrailingWindow(t *testing.T) {
	repo := new(MockPostRepository)
	before := time.Now()
	repo.On("TopPosts", mock.Anything, mock.MatchedBy(func(since time.Time) bool {
		cutoff := before.Add(-7 * 24 * time.Hour)
		return !since.Before(cutoff) && since.Before(cutoff.Add(time.Minute))
	}), uint(1), service.DefaultPageSize, 0).Return([]*models.Post{{ID: 9}}, 1, nil)

	resp, err := newFeedApp(repo).Test(httptest.NewRequest(http.MethodGet, "/home/feed", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	repo.AssertExpectations(t)
}
