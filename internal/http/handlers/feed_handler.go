package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/deevah-backend/internal/dto"
	"github.com/ignatzorin/deevah-backend/internal/http/handlers/common"
	"github.com/ignatzorin/deevah-backend/internal/models"
)

// FeedUseCases описывает операции ленты.
type FeedUseCases interface {
	FetchPosts(ctx context.Context, viewer models.Actor, limit, offset int) ([]models.GlowPost, error)
	CreatePost(ctx context.Context, actor models.Actor, in models.CreatePostInput) (*models.GlowPost, error)
	LikePost(ctx context.Context, actor models.Actor, postID uuid.UUID) (*models.GlowPost, error)
	UnlikePost(ctx context.Context, actor models.Actor, postID uuid.UUID) (*models.GlowPost, error)
	AddComment(ctx context.Context, actor models.Actor, postID uuid.UUID, text string) (*models.PostComment, error)
	ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]models.PostComment, error)
}

// FeedHandler обслуживает ленту Glow постов.
type FeedHandler struct {
	feed FeedUseCases
}

// NewFeedHandler создаёт хэндлер.
func NewFeedHandler(feed FeedUseCases) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// ListPosts обрабатывает GET /feed/posts. Авторизация необязательна:
// для анонимного запроса is_liked всегда false.
func (h *FeedHandler) ListPosts(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	posts, err := h.feed.FetchPosts(c.Request.Context(), common.OptionalActor(c), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{Items: posts, Limit: limit, Offset: offset})
}

// CreatePost обрабатывает POST /feed/posts.
func (h *FeedHandler) CreatePost(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	var req models.CreatePostInput
	if !common.BindJSON(c, &req) {
		return
	}

	post, err := h.feed.CreatePost(c.Request.Context(), actor, req)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// Like обрабатывает POST /feed/posts/:id/like.
func (h *FeedHandler) Like(c *gin.Context) {
	h.toggleLike(c, h.feed.LikePost)
}

// Unlike обрабатывает DELETE /feed/posts/:id/like.
func (h *FeedHandler) Unlike(c *gin.Context) {
	h.toggleLike(c, h.feed.UnlikePost)
}

func (h *FeedHandler) toggleLike(c *gin.Context, op func(context.Context, models.Actor, uuid.UUID) (*models.GlowPost, error)) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	postID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	post, err := op(c.Request.Context(), actor, postID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// ListComments обрабатывает GET /feed/posts/:id/comments.
func (h *FeedHandler) ListComments(c *gin.Context) {
	postID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	comments, err := h.feed.ListComments(c.Request.Context(), postID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{Items: comments, Limit: limit, Offset: offset})
}

// AddComment обрабатывает POST /feed/posts/:id/comments.
func (h *FeedHandler) AddComment(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	postID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.AddCommentRequest
	if !common.BindJSON(c, &req) {
		return
	}

	comment, err := h.feed.AddComment(c.Request.Context(), actor, postID, req.Text)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}
