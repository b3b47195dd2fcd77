package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
	"github.com/ignatzorin/deevah-backend/internal/repository/common"
)

const postColumns = `id, author_id, image_url, caption, service_used, artist_name, is_group_session,
	likes_count, comments_count, created_at`

// FeedRepository отвечает за публикации, лайки и комментарии ленты.
type FeedRepository struct {
	db *sqlx.DB
}

// NewFeedRepository создаёт экземпляр репозитория.
func NewFeedRepository(db *sqlx.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// ListPosts возвращает публикации, новые сначала.
func (r *FeedRepository) ListPosts(ctx context.Context, limit, offset int) ([]models.GlowPost, error) {
	posts := []models.GlowPost{}
	query := `SELECT ` + postColumns + ` FROM glow_posts ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &posts, query, limit, offset); err != nil {
		return nil, fmt.Errorf("feed repository: list posts %w", err)
	}
	return posts, nil
}

// GetPost возвращает публикацию по идентификатору.
func (r *FeedRepository) GetPost(ctx context.Context, id uuid.UUID) (*models.GlowPost, error) {
	post, err := common.GetOne[models.GlowPost](ctx, r.db, apperror.ErrPostNotFound,
		`SELECT `+postColumns+` FROM glow_posts WHERE id = $1`, id)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("feed repository: get post %w", err)
	}
	return post, err
}

// LikedPostIDs возвращает множество публикаций из postIDs, которые лайкнул пользователь.
func (r *FeedRepository) LikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	liked := make(map[uuid.UUID]bool, len(postIDs))
	if len(postIDs) == 0 {
		return liked, nil
	}

	ids := make([]string, len(postIDs))
	for i, id := range postIDs {
		ids[i] = id.String()
	}

	var rows []uuid.UUID
	query := `SELECT post_id FROM post_likes WHERE user_id = $1 AND post_id = ANY($2::uuid[])`
	if err := r.db.SelectContext(ctx, &rows, query, userID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("feed repository: liked post ids %w", err)
	}
	for _, id := range rows {
		liked[id] = true
	}
	return liked, nil
}

// CreatePost сохраняет публикацию с нулевыми счётчиками.
func (r *FeedRepository) CreatePost(ctx context.Context, post *models.GlowPost) error {
	query := `
		INSERT INTO glow_posts (author_id, image_url, caption, service_used, artist_name, is_group_session)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, likes_count, comments_count, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		post.AuthorID,
		post.ImageURL,
		post.Caption,
		post.ServiceUsed,
		post.ArtistName,
		post.IsGroupSession,
	).Scan(&post.ID, &post.LikesCount, &post.CommentsCount, &post.CreatedAt); err != nil {
		return fmt.Errorf("feed repository: create post %w", err)
	}
	return nil
}

// Like ставит лайк. Счётчик увеличивается только если строка лайка реально вставлена,
// поэтому повторный лайк ничего не меняет. Второе значение сообщает, был ли лайк новым.
func (r *FeedRepository) Like(ctx context.Context, postID, userID uuid.UUID) (*models.GlowPost, bool, error) {
	var (
		post     models.GlowPost
		inserted bool
	)

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockPost(ctx, tx, postID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)
			ON CONFLICT (post_id, user_id) DO NOTHING
		`, postID, userID)
		if err != nil {
			return fmt.Errorf("feed repository: insert like %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("feed repository: like rows affected %w", err)
		}
		inserted = affected > 0

		query := `SELECT ` + postColumns + ` FROM glow_posts WHERE id = $1`
		if inserted {
			query = `UPDATE glow_posts SET likes_count = likes_count + 1 WHERE id = $1 RETURNING ` + postColumns
		}
		if err := tx.GetContext(ctx, &post, query, postID); err != nil {
			return fmt.Errorf("feed repository: like counter %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	post.IsLiked = true
	return &post, inserted, nil
}

// Unlike снимает лайк. Счётчик уменьшается только если строка лайка удалена и не уходит ниже нуля.
func (r *FeedRepository) Unlike(ctx context.Context, postID, userID uuid.UUID) (*models.GlowPost, error) {
	var post models.GlowPost

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockPost(ctx, tx, postID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
		if err != nil {
			return fmt.Errorf("feed repository: delete like %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("feed repository: unlike rows affected %w", err)
		}

		query := `SELECT ` + postColumns + ` FROM glow_posts WHERE id = $1`
		if affected > 0 {
			query = `UPDATE glow_posts SET likes_count = GREATEST(likes_count - 1, 0) WHERE id = $1 RETURNING ` + postColumns
		}
		if err := tx.GetContext(ctx, &post, query, postID); err != nil {
			return fmt.Errorf("feed repository: unlike counter %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &post, nil
}

func lockPost(ctx context.Context, tx *sqlx.Tx, postID uuid.UUID) error {
	_, err := common.GetOne[uuid.UUID](ctx, tx, apperror.ErrPostNotFound,
		`SELECT id FROM glow_posts WHERE id = $1 FOR UPDATE`, postID)
	if err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("feed repository: lock post %w", err)
	}
	return err
}

// AddComment сохраняет комментарий и увеличивает счётчик комментариев.
func (r *FeedRepository) AddComment(ctx context.Context, comment *models.PostComment) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE glow_posts SET comments_count = comments_count + 1 WHERE id = $1`, comment.PostID)
		if err != nil {
			return fmt.Errorf("feed repository: comments counter %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("feed repository: comments counter rows affected %w", err)
		}
		if affected == 0 {
			return apperror.ErrPostNotFound
		}

		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO post_comments (post_id, user_id, text)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, comment.PostID, comment.UserID, comment.Text).Scan(&comment.ID, &comment.CreatedAt); err != nil {
			return fmt.Errorf("feed repository: insert comment %w", err)
		}
		return nil
	})
}

// ListComments возвращает комментарии публикации, старые сначала.
func (r *FeedRepository) ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]models.PostComment, error) {
	comments := []models.PostComment{}
	query := `
		SELECT id, post_id, user_id, text, created_at FROM post_comments
		WHERE post_id = $1 ORDER BY created_at ASC, id ASC LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &comments, query, postID, limit, offset); err != nil {
		return nil, fmt.Errorf("feed repository: list comments %w", err)
	}
	return comments, nil
}
