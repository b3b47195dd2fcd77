package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей платформы.
const (
	RoleClient    = "client"
	RoleArtist    = "artist"
	RoleBusiness  = "business"
	RoleTransport = "transport"
)

// ValidRoles список допустимых ролей.
var ValidRoles = map[string]struct{}{
	RoleClient:    {},
	RoleArtist:    {},
	RoleBusiness:  {},
	RoleTransport: {},
}

// IsProviderRole сообщает, может ли роль оказывать услуги.
func IsProviderRole(role string) bool {
	return role == RoleArtist || role == RoleBusiness
}

// Actor текущий пользователь, от имени которого выполняется операция.
// Передаётся в сервисы явно, вместо глобального состояния сессии.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// IsAuthenticated сообщает, что актор идентифицирован.
func (a Actor) IsAuthenticated() bool {
	return a.UserID != uuid.Nil
}

// User описывает учётную запись.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Profile описывает публичный профиль пользователя.
type Profile struct {
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Bio         *string   `db:"bio" json:"bio,omitempty"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Location    *string   `db:"location" json:"location,omitempty"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
