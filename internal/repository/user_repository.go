package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
	"github.com/ignatzorin/deevah-backend/internal/repository/common"
)

const userColumns = `id, email, username, password_hash, role, is_active, last_login_at, created_at, updated_at`

// ErrUserExists возвращается при повторной регистрации email или username.
var ErrUserExists = apperror.New(apperror.ErrCodeConflict, "пользователь с таким email или username уже существует")

// ErrSessionNotFound возвращается, когда refresh токен не привязан к сессии.
var ErrSessionNotFound = apperror.New(apperror.ErrCodeUnauthorized, "сессия не найдена")

// UserRepository отвечает за работу с таблицами users, profiles, user_sessions и referrals.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт пользователя, его профиль и, если указан пригласивший, ожидающее приглашение.
func (r *UserRepository) Create(ctx context.Context, user *models.User, profile *models.Profile, referrerID *uuid.UUID, reward decimal.Decimal) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO users (email, username, password_hash, role, is_active)
			VALUES ($1, $2, $3, $4, TRUE)
			RETURNING id, is_active, created_at, updated_at
		`, user.Email, user.Username, user.PasswordHash, user.Role,
		).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			if common.IsUniqueViolation(err) {
				return ErrUserExists
			}
			return fmt.Errorf("user repository: create %w", err)
		}

		profile.UserID = user.ID
		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO profiles (user_id, display_name)
			VALUES ($1, $2)
			RETURNING updated_at
		`, profile.UserID, profile.DisplayName).Scan(&profile.UpdatedAt); err != nil {
			return fmt.Errorf("user repository: create profile %w", err)
		}

		if referrerID != nil {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO referrals (referrer_id, referred_id, status, reward_amount)
				VALUES ($1, $2, 'pending', $3)
			`, *referrerID, user.ID, reward); err != nil {
				return fmt.Errorf("user repository: create referral %w", err)
			}
		}
		return nil
	})
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByUsername возвращает пользователя по username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username", username)
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) getBy(ctx context.Context, field string, value interface{}) (*models.User, error) {
	user, err := common.GetOne[models.User](ctx, r.db, apperror.ErrUserNotFound,
		`SELECT `+userColumns+` FROM users WHERE `+field+` = $1`, value)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("user repository: get by %s %w", field, err)
	}
	return user, err
}

// GetProfile возвращает профиль пользователя.
func (r *UserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := common.GetOne[models.Profile](ctx, r.db, apperror.ErrUserNotFound, `
		SELECT user_id, display_name, bio, avatar_url, location, phone, updated_at
		FROM profiles WHERE user_id = $1
	`, userID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("user repository: get profile %w", err)
	}
	return profile, err
}

// CreateSession сохраняет новую сессию пользователя.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		session.UserID,
		session.RefreshToken,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}

	return nil
}

// GetSession возвращает действующую сессию по refresh токену.
func (r *UserRepository) GetSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	session, err := common.GetOne[models.Session](ctx, r.db, ErrSessionNotFound, `
		SELECT id, user_id, refresh_token, user_agent, ip_address, expires_at, created_at
		FROM user_sessions WHERE refresh_token = $1 AND expires_at > NOW()
	`, refreshToken)
	if err != nil && !apperror.IsUnauthorized(err) {
		return nil, fmt.Errorf("user repository: get session %w", err)
	}
	return session, err
}

// DeleteSession удаляет сессию по refresh токену.
func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE refresh_token = $1`, refreshToken); err != nil {
		return fmt.Errorf("user repository: delete session %w", err)
	}

	return nil
}

// UpdateLastLoginAt обновляет время последнего входа пользователя.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("user repository: update last login at %w", err)
	}

	return nil
}
