package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/deevah-backend/internal/logger"
	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/repository/common"
	"github.com/ignatzorin/deevah-backend/internal/validation"
	"github.com/ignatzorin/deevah-backend/internal/ws"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// FeedRepository описывает хранилище ленты.
type FeedRepository interface {
	ListPosts(ctx context.Context, limit, offset int) ([]models.GlowPost, error)
	GetPost(ctx context.Context, id uuid.UUID) (*models.GlowPost, error)
	LikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	CreatePost(ctx context.Context, post *models.GlowPost) error
	Like(ctx context.Context, postID, userID uuid.UUID) (*models.GlowPost, bool, error)
	Unlike(ctx context.Context, postID, userID uuid.UUID) (*models.GlowPost, error)
	AddComment(ctx context.Context, comment *models.PostComment) error
	ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]models.PostComment, error)
}

// FeedService обслуживает ленту публикаций.
type FeedService struct {
	repo   FeedRepository
	events EventPublisher
}

// NewFeedService создаёт сервис ленты.
func NewFeedService(repo FeedRepository) *FeedService {
	return &FeedService{repo: repo}
}

// SetEventPublisher подключает уведомления авторов.
func (s *FeedService) SetEventPublisher(events EventPublisher) {
	s.events = events
}

// FetchPosts возвращает страницу ленты. Для авторизованного зрителя
// выставляется признак is_liked.
func (s *FeedService) FetchPosts(ctx context.Context, viewer models.Actor, limit, offset int) ([]models.GlowPost, error) {
	limit, offset = common.Paginate(limit, offset, defaultFeedLimit, maxFeedLimit)

	posts, err := s.repo.ListPosts(ctx, limit, offset)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить ленту")
	}

	if !viewer.IsAuthenticated() || len(posts) == 0 {
		return posts, nil
	}

	ids := make([]uuid.UUID, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}
	liked, err := s.repo.LikedPostIDs(ctx, viewer.UserID, ids)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить отметки")
	}
	for i := range posts {
		posts[i].IsLiked = liked[posts[i].ID]
	}
	return posts, nil
}

// CreatePost публикует пост от имени актора.
func (s *FeedService) CreatePost(ctx context.Context, actor models.Actor, in models.CreatePostInput) (*models.GlowPost, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validationErr(validation.ValidateImageURL(in.ImageURL)); err != nil {
		return nil, err
	}
	if err := validationErr(validation.ValidateCaption(in.Caption)); err != nil {
		return nil, err
	}
	if err := validationErr(validation.ValidateOptional("услуга", in.ServiceUsed, validation.MaxServiceNameLength)); err != nil {
		return nil, err
	}
	if err := validationErr(validation.ValidateOptional("мастер", in.ArtistName, validation.MaxDisplayNameLength)); err != nil {
		return nil, err
	}

	post := &models.GlowPost{
		AuthorID:       actor.UserID,
		ImageURL:       strings.TrimSpace(in.ImageURL),
		Caption:        in.Caption,
		ServiceUsed:    in.ServiceUsed,
		ArtistName:     in.ArtistName,
		IsGroupSession: in.IsGroupSession,
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, storageErr(err, "не удалось создать публикацию")
	}

	logger.ForUser(actor.UserID).WithField("post_id", post.ID).Info("feed service: публикация создана")
	return post, nil
}

// LikePost ставит отметку. Повторная отметка ничего не меняет.
func (s *FeedService) LikePost(ctx context.Context, actor models.Actor, postID uuid.UUID) (*models.GlowPost, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	post, inserted, err := s.repo.Like(ctx, postID, actor.UserID)
	if err != nil {
		return nil, storageErr(err, "не удалось поставить отметку")
	}
	post.IsLiked = true

	if inserted && post.AuthorID != actor.UserID {
		s.publish(post.AuthorID, ws.EventPostLiked, map[string]interface{}{
			"post_id":     post.ID,
			"user_id":     actor.UserID,
			"likes_count": post.LikesCount,
		})
	}
	return post, nil
}

// UnlikePost снимает отметку. Счётчик не уходит ниже нуля.
func (s *FeedService) UnlikePost(ctx context.Context, actor models.Actor, postID uuid.UUID) (*models.GlowPost, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	post, err := s.repo.Unlike(ctx, postID, actor.UserID)
	if err != nil {
		return nil, storageErr(err, "не удалось снять отметку")
	}
	post.IsLiked = false
	return post, nil
}

// AddComment добавляет комментарий и увеличивает счётчик публикации.
func (s *FeedService) AddComment(ctx context.Context, actor models.Actor, postID uuid.UUID, text string) (*models.PostComment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validationErr(validation.ValidateComment(text)); err != nil {
		return nil, err
	}

	comment := &models.PostComment{
		PostID: postID,
		UserID: actor.UserID,
		Text:   strings.TrimSpace(text),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, storageErr(err, "не удалось добавить комментарий")
	}

	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		logger.ForUser(actor.UserID).WithFields(logrus.Fields{
			"post_id": postID,
			"error":   err.Error(),
		}).Warn("feed service: не удалось загрузить публикацию для уведомления")
		return comment, nil
	}
	if post.AuthorID != actor.UserID {
		s.publish(post.AuthorID, ws.EventPostCommented, map[string]interface{}{
			"post_id":    post.ID,
			"comment_id": comment.ID,
			"user_id":    actor.UserID,
		})
	}
	return comment, nil
}

// ListComments возвращает комментарии публикации, старые сначала.
func (s *FeedService) ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]models.PostComment, error) {
	limit, offset = common.Paginate(limit, offset, defaultFeedLimit, maxFeedLimit)

	if _, err := s.repo.GetPost(ctx, postID); err != nil {
		return nil, storageErr(err, "не удалось загрузить публикацию")
	}
	comments, err := s.repo.ListComments(ctx, postID, limit, offset)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить комментарии")
	}
	return comments, nil
}

func (s *FeedService) publish(userID uuid.UUID, event string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.BroadcastToUser(userID, event, data); err != nil {
		logger.ForUser(userID).WithField("error", err.Error()).Warn("feed service: не удалось отправить событие")
	}
}
