package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
	"github.com/ignatzorin/deevah-backend/internal/ws"
)

type mockFeedRepo struct {
	mock.Mock
}

func (m *mockFeedRepo) ListPosts(ctx context.Context, limit, offset int) ([]models.GlowPost, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.GlowPost), args.Error(1)
}

func (m *mockFeedRepo) GetPost(ctx context.Context, id uuid.UUID) (*models.GlowPost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GlowPost), args.Error(1)
}

func (m *mockFeedRepo) LikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	args := m.Called(ctx, userID, postIDs)
	return args.Get(0).(map[uuid.UUID]bool), args.Error(1)
}

func (m *mockFeedRepo) CreatePost(ctx context.Context, post *models.GlowPost) error {
	args := m.Called(ctx, post)
	if args.Error(0) == nil {
		post.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockFeedRepo) Like(ctx context.Context, postID, userID uuid.UUID) (*models.GlowPost, bool, error) {
	args := m.Called(ctx, postID, userID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.GlowPost), args.Bool(1), args.Error(2)
}

func (m *mockFeedRepo) Unlike(ctx context.Context, postID, userID uuid.UUID) (*models.GlowPost, error) {
	args := m.Called(ctx, postID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GlowPost), args.Error(1)
}

func (m *mockFeedRepo) AddComment(ctx context.Context, comment *models.PostComment) error {
	args := m.Called(ctx, comment)
	if args.Error(0) == nil {
		comment.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockFeedRepo) ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]models.PostComment, error) {
	args := m.Called(ctx, postID, limit, offset)
	return args.Get(0).([]models.PostComment), args.Error(1)
}

func TestFeedService_FetchPosts_MarksViewerLikes(t *testing.T) {
	repo := new(mockFeedRepo)
	svc := NewFeedService(repo)
	ctx := context.Background()
	viewer := models.Actor{UserID: uuid.New()}

	posts := []models.GlowPost{{ID: uuid.New()}, {ID: uuid.New()}}
	repo.On("ListPosts", ctx, 20, 0).Return(posts, nil)
	repo.On("LikedPostIDs", ctx, viewer.UserID, []uuid.UUID{posts[0].ID, posts[1].ID}).
		Return(map[uuid.UUID]bool{posts[1].ID: true}, nil)

	result, err := svc.FetchPosts(ctx, viewer, 0, -3)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.False(t, result[0].IsLiked)
	assert.True(t, result[1].IsLiked)
	repo.AssertExpectations(t)
}

func TestFeedService_FetchPosts_AnonymousSkipsLikes(t *testing.T) {
	repo := new(mockFeedRepo)
	svc := NewFeedService(repo)
	ctx := context.Background()

	repo.On("ListPosts", ctx, 100, 40).Return([]models.GlowPost{{ID: uuid.New()}}, nil)

	result, err := svc.FetchPosts(ctx, models.Actor{}, 500, 40)
	require.NoError(t, err)
	assert.Len(t, result, 1)
	repo.AssertNotCalled(t, "LikedPostIDs", mock.Anything, mock.Anything, mock.Anything)
}

func TestFeedService_LikePost_NotifiesOnlyOnFirstLike(t *testing.T) {
	repo := new(mockFeedRepo)
	events := &recordingPublisher{}
	svc := NewFeedService(repo)
	svc.SetEventPublisher(events)
	ctx := context.Background()

	author := uuid.New()
	actor := models.Actor{UserID: uuid.New()}
	postID := uuid.New()

	repo.On("Like", ctx, postID, actor.UserID).Return(&models.GlowPost{ID: postID, AuthorID: author, LikesCount: 1}, true, nil).Once()
	repo.On("Like", ctx, postID, actor.UserID).Return(&models.GlowPost{ID: postID, AuthorID: author, LikesCount: 1}, false, nil).Once()

	first, err := svc.LikePost(ctx, actor, postID)
	require.NoError(t, err)
	second, err := svc.LikePost(ctx, actor, postID)
	require.NoError(t, err)

	assert.Equal(t, 1, first.LikesCount)
	assert.Equal(t, 1, second.LikesCount)
	assert.True(t, second.IsLiked)

	liked := events.byEvent(ws.EventPostLiked)
	require.Len(t, liked, 1)
	assert.Equal(t, author, liked[0].UserID)
}

func TestFeedService_LikePost_SelfLikeNotNotified(t *testing.T) {
	repo := new(mockFeedRepo)
	events := &recordingPublisher{}
	svc := NewFeedService(repo)
	svc.SetEventPublisher(events)
	ctx := context.Background()

	actor := models.Actor{UserID: uuid.New()}
	postID := uuid.New()
	repo.On("Like", ctx, postID, actor.UserID).Return(&models.GlowPost{ID: postID, AuthorID: actor.UserID, LikesCount: 1}, true, nil)

	_, err := svc.LikePost(ctx, actor, postID)
	require.NoError(t, err)
	assert.Empty(t, events.byEvent(ws.EventPostLiked))
}

func TestFeedService_LikePost_Errors(t *testing.T) {
	repo := new(mockFeedRepo)
	svc := NewFeedService(repo)
	ctx := context.Background()

	_, err := svc.LikePost(ctx, models.Actor{}, uuid.New())
	assert.True(t, apperror.IsUnauthorized(err))

	actor := models.Actor{UserID: uuid.New()}
	postID := uuid.New()
	repo.On("Like", ctx, postID, actor.UserID).Return(nil, false, apperror.ErrPostNotFound)
	_, err = svc.LikePost(ctx, actor, postID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestFeedService_UnlikePost(t *testing.T) {
	repo := new(mockFeedRepo)
	svc := NewFeedService(repo)
	ctx := context.Background()

	actor := models.Actor{UserID: uuid.New()}
	postID := uuid.New()
	repo.On("Unlike", ctx, postID, actor.UserID).Return(&models.GlowPost{ID: postID, LikesCount: 0}, nil)

	post, err := svc.UnlikePost(ctx, actor, postID)
	require.NoError(t, err)
	assert.Equal(t, 0, post.LikesCount)
	assert.False(t, post.IsLiked)
}

func TestFeedService_CreatePost_Validation(t *testing.T) {
	repo := new(mockFeedRepo)
	svc := NewFeedService(repo)
	ctx := context.Background()
	actor := models.Actor{UserID: uuid.New()}

	_, err := svc.CreatePost(ctx, actor, models.CreatePostInput{ImageURL: "ftp://host/a.png"})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.CreatePost(ctx, actor, models.CreatePostInput{})
	assert.True(t, apperror.IsValidation(err))

	long := string(make([]rune, 2001))
	_, err = svc.CreatePost(ctx, actor, models.CreatePostInput{ImageURL: "https://cdn.example.com/a.png", Caption: &long})
	assert.True(t, apperror.IsValidation(err))

	repo.On("CreatePost", ctx, mock.MatchedBy(func(p *models.GlowPost) bool {
		return p.AuthorID == actor.UserID && p.ImageURL == "https://cdn.example.com/a.png"
	})).Return(nil)

	post, err := svc.CreatePost(ctx, actor, models.CreatePostInput{ImageURL: " https://cdn.example.com/a.png "})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, post.ID)
}

func TestFeedService_AddComment(t *testing.T) {
	repo := new(mockFeedRepo)
	events := &recordingPublisher{}
	svc := NewFeedService(repo)
	svc.SetEventPublisher(events)
	ctx := context.Background()

	actor := models.Actor{UserID: uuid.New()}
	author := uuid.New()
	postID := uuid.New()

	_, err := svc.AddComment(ctx, actor, postID, "   ")
	assert.True(t, apperror.IsValidation(err))

	repo.On("AddComment", ctx, mock.MatchedBy(func(c *models.PostComment) bool {
		return c.PostID == postID && c.Text == "Красиво!"
	})).Return(nil)
	repo.On("GetPost", ctx, postID).Return(&models.GlowPost{ID: postID, AuthorID: author, CommentsCount: 1}, nil)

	comment, err := svc.AddComment(ctx, actor, postID, " Красиво! ")
	require.NoError(t, err)
	assert.Equal(t, actor.UserID, comment.UserID)

	commented := events.byEvent(ws.EventPostCommented)
	require.Len(t, commented, 1)
	assert.Equal(t, author, commented[0].UserID)
}

func TestFeedService_ListComments_UnknownPost(t *testing.T) {
	repo := new(mockFeedRepo)
	svc := NewFeedService(repo)
	ctx := context.Background()

	postID := uuid.New()
	repo.On("GetPost", ctx, postID).Return(nil, apperror.ErrPostNotFound)

	_, err := svc.ListComments(ctx, postID, 10, 0)
	assert.True(t, apperror.IsNotFound(err))
	repo.AssertNotCalled(t, "ListComments", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
