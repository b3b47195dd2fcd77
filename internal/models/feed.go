package models

import (
	"time"

	"github.com/google/uuid"
)

// GlowPost публикация ленты.
type GlowPost struct {
	ID             uuid.UUID `db:"id" json:"id"`
	AuthorID       uuid.UUID `db:"author_id" json:"author_id"`
	ImageURL       string    `db:"image_url" json:"image_url"`
	Caption        *string   `db:"caption" json:"caption,omitempty"`
	ServiceUsed    *string   `db:"service_used" json:"service_used,omitempty"`
	ArtistName     *string   `db:"artist_name" json:"artist_name,omitempty"`
	IsGroupSession bool      `db:"is_group_session" json:"is_group_session"`
	LikesCount     int       `db:"likes_count" json:"likes_count"`
	CommentsCount  int       `db:"comments_count" json:"comments_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	// IsLiked вычисляется для конкретного зрителя.
	IsLiked bool `db:"-" json:"is_liked"`
}

// PostComment комментарий к публикации.
type PostComment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PostID    uuid.UUID `db:"post_id" json:"post_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreatePostInput поля новой публикации.
type CreatePostInput struct {
	ImageURL       string  `json:"image_url"`
	Caption        *string `json:"caption"`
	ServiceUsed    *string `json:"service_used"`
	ArtistName     *string `json:"artist_name"`
	IsGroupSession bool    `json:"is_group_session"`
}
