package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/deevah-backend/internal/dto"
	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
)

type mockFeed struct {
	mock.Mock
}

func (m *mockFeed) post(args mock.Arguments) (*models.GlowPost, error) {
	if p, ok := args.Get(0).(*models.GlowPost); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFeed) FetchPosts(ctx context.Context, viewer models.Actor, limit, offset int) ([]models.GlowPost, error) {
	args := m.Called(ctx, viewer, limit, offset)
	posts, _ := args.Get(0).([]models.GlowPost)
	return posts, args.Error(1)
}

func (m *mockFeed) CreatePost(ctx context.Context, actor models.Actor, in models.CreatePostInput) (*models.GlowPost, error) {
	return m.post(m.Called(ctx, actor, in))
}

func (m *mockFeed) LikePost(ctx context.Context, actor models.Actor, postID uuid.UUID) (*models.GlowPost, error) {
	return m.post(m.Called(ctx, actor, postID))
}

func (m *mockFeed) UnlikePost(ctx context.Context, actor models.Actor, postID uuid.UUID) (*models.GlowPost, error) {
	return m.post(m.Called(ctx, actor, postID))
}

func (m *mockFeed) AddComment(ctx context.Context, actor models.Actor, postID uuid.UUID, text string) (*models.PostComment, error) {
	args := m.Called(ctx, actor, postID, text)
	if cm, ok := args.Get(0).(*models.PostComment); ok {
		return cm, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFeed) ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]models.PostComment, error) {
	args := m.Called(ctx, postID, limit, offset)
	comments, _ := args.Get(0).([]models.PostComment)
	return comments, args.Error(1)
}

func TestFeedHandler_ListPosts_Anonymous(t *testing.T) {
	feed := new(mockFeed)
	r := newTestRouter(uuid.Nil, "")
	handler := NewFeedHandler(feed)
	r.GET("/feed/posts", handler.ListPosts)

	feed.On("FetchPosts", mock.Anything, models.Actor{}, 20, 0).
		Return([]models.GlowPost{{ID: uuid.New(), LikesCount: 3}}, nil)

	w := doJSON(r, http.MethodGet, "/feed/posts", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	feed.AssertExpectations(t)
}

func TestFeedHandler_ListPosts_PassesViewer(t *testing.T) {
	viewerID := uuid.New()
	feed := new(mockFeed)
	r := newTestRouter(viewerID, "client")
	handler := NewFeedHandler(feed)
	r.GET("/feed/posts", handler.ListPosts)

	feed.On("FetchPosts", mock.Anything, models.Actor{UserID: viewerID, Role: "client"}, 5, 10).
		Return([]models.GlowPost{}, nil)

	w := doJSON(r, http.MethodGet, "/feed/posts?limit=5&offset=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	feed.AssertExpectations(t)
}

func TestFeedHandler_CreatePost_RequiresAuth(t *testing.T) {
	r := newTestRouter(uuid.Nil, "")
	handler := NewFeedHandler(new(mockFeed))
	r.POST("/feed/posts", handler.CreatePost)

	w := doJSON(r, http.MethodPost, "/feed/posts", models.CreatePostInput{ImageURL: "https://cdn.example.com/a.jpg"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFeedHandler_Like_NotFound(t *testing.T) {
	postID := uuid.New()
	feed := new(mockFeed)
	r := newTestRouter(uuid.New(), "client")
	handler := NewFeedHandler(feed)
	r.POST("/feed/posts/:id/like", handler.Like)

	feed.On("LikePost", mock.Anything, mock.Anything, postID).Return(nil, apperror.ErrPostNotFound)

	w := doJSON(r, http.MethodPost, "/feed/posts/"+postID.String()+"/like", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedHandler_Unlike(t *testing.T) {
	postID := uuid.New()
	feed := new(mockFeed)
	r := newTestRouter(uuid.New(), "client")
	handler := NewFeedHandler(feed)
	r.DELETE("/feed/posts/:id/like", handler.Unlike)

	feed.On("UnlikePost", mock.Anything, mock.Anything, postID).
		Return(&models.GlowPost{ID: postID, LikesCount: 0}, nil)

	w := doJSON(r, http.MethodDelete, "/feed/posts/"+postID.String()+"/like", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var post models.GlowPost
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, postID, post.ID)
}

func TestFeedHandler_AddComment(t *testing.T) {
	postID := uuid.New()
	feed := new(mockFeed)
	r := newTestRouter(uuid.New(), "client")
	handler := NewFeedHandler(feed)
	r.POST("/feed/posts/:id/comments", handler.AddComment)

	feed.On("AddComment", mock.Anything, mock.Anything, postID, "so glowy").
		Return(&models.PostComment{ID: uuid.New(), PostID: postID, Text: "so glowy"}, nil)

	w := doJSON(r, http.MethodPost, "/feed/posts/"+postID.String()+"/comments", dto.AddCommentRequest{Text: "so glowy"})

	assert.Equal(t, http.StatusCreated, w.Code)
	feed.AssertExpectations(t)
}

func TestFeedHandler_AddComment_EmptyText(t *testing.T) {
	r := newTestRouter(uuid.New(), "client")
	handler := NewFeedHandler(new(mockFeed))
	r.POST("/feed/posts/:id/comments", handler.AddComment)

	w := doJSON(r, http.MethodPost, "/feed/posts/"+uuid.NewString()+"/comments", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
