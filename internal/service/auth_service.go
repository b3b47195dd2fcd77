package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/deevah-backend/internal/logger"
	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
	"github.com/ignatzorin/deevah-backend/internal/validation"
)

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User, profile *models.Profile, referrerID *uuid.UUID, reward decimal.Decimal) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteSession(ctx context.Context, refreshToken string) error
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
}

// AuthService инкапсулирует бизнес-логику регистрации и аутентификации.
type AuthService struct {
	repo           AuthRepository
	tokenManager   *TokenManager
	referralReward decimal.Decimal
}

// RegisterInput содержит данные пользователя при регистрации.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
	// ReferredBy username пригласившего пользователя.
	ReferredBy string `json:"referred_by"`
}

// LoginInput содержит данные для входа.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionMeta сведения о клиенте, сохраняемые вместе с сессией.
type SessionMeta struct {
	UserAgent string
	IP        string
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	User      *models.User    `json:"user"`
	Profile   *models.Profile `json:"profile,omitempty"`
	TokenPair *TokenPair      `json:"tokens"`
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, tokenManager *TokenManager, referralReward decimal.Decimal) *AuthService {
	return &AuthService{
		repo:           repo,
		tokenManager:   tokenManager,
		referralReward: referralReward,
	}
}

// Register создаёт пользователя, профиль и, при наличии пригласившего, ожидающее приглашение.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta SessionMeta) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validationErr(validation.ValidateEmail(email)); err != nil {
		return nil, err
	}
	if err := validationErr(validation.ValidatePassword(in.Password)); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = deriveUsername(email)
	}
	if err := validationErr(validation.ValidateUsername(username)); err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = models.RoleClient
	}
	if _, ok := models.ValidRoles[role]; !ok {
		return nil, apperror.Validation("недопустимая роль: " + role)
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = username
	}
	if err := validationErr(validation.ValidateDisplayName(displayName)); err != nil {
		return nil, err
	}

	var referrerID *uuid.UUID
	if referredBy := strings.TrimSpace(in.ReferredBy); referredBy != "" {
		referrer, err := s.repo.GetByUsername(ctx, referredBy)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.Validation("пригласивший пользователь не найден")
			}
			return nil, storageErr(err, "не удалось проверить пригласившего")
		}
		referrerID = &referrer.ID
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(passHash),
		Role:         role,
	}
	profile := &models.Profile{DisplayName: displayName}

	if err := s.repo.Create(ctx, user, profile, referrerID, s.referralReward); err != nil {
		return nil, storageErr(err, "не удалось создать пользователя")
	}

	tokenPair, err := s.openSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	logger.ForUser(user.ID).WithField("role", role).Info("auth service: пользователь зарегистрирован")

	return &AuthResult{
		User:      user,
		Profile:   profile,
		TokenPair: tokenPair,
	}, nil
}

// Login проверяет учётные данные и возвращает токены.
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta SessionMeta) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validationErr(validation.ValidateEmail(email)); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, storageErr(err, "не удалось загрузить пользователя")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "аккаунт заблокирован")
	}

	// Ошибка обновления last_login_at не прерывает вход.
	if err := s.repo.UpdateLastLoginAt(ctx, user.ID); err != nil {
		logger.ForUser(user.ID).WithField("error", err.Error()).Warn("auth service: не удалось обновить last_login_at")
	}

	tokenPair, err := s.openSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	profile, err := s.repo.GetProfile(ctx, user.ID)
	if err != nil {
		logger.ForUser(user.ID).WithField("error", err.Error()).Warn("auth service: профиль не загружен")
		profile = nil
	}

	return &AuthResult{
		User:      user,
		Profile:   profile,
		TokenPair: tokenPair,
	}, nil
}

// Refresh выпускает новую пару токенов. Старая сессия удаляется.
func (s *AuthService) Refresh(ctx context.Context, oldToken string, meta SessionMeta) (*TokenPair, error) {
	userID, err := s.tokenManager.ParseRefresh(oldToken)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "refresh токен невалиден")
	}

	session, err := s.repo.GetSession(ctx, oldToken)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить сессию")
	}
	if session.UserID != userID {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "refresh токен невалиден")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить пользователя")
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "аккаунт заблокирован")
	}

	if err := s.repo.DeleteSession(ctx, oldToken); err != nil {
		return nil, storageErr(err, "не удалось закрыть сессию")
	}

	return s.openSession(ctx, user, meta)
}

// Logout удаляет сессию refresh токена.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.repo.DeleteSession(ctx, refreshToken); err != nil {
		return storageErr(err, "не удалось закрыть сессию")
	}
	return nil
}

// Profile возвращает пользователя и профиль актора.
func (s *AuthService) Profile(ctx context.Context, actor models.Actor) (*models.User, *models.Profile, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	user, err := s.repo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, nil, storageErr(err, "не удалось загрузить пользователя")
	}
	profile, err := s.repo.GetProfile(ctx, actor.UserID)
	if err != nil {
		return nil, nil, storageErr(err, "не удалось загрузить профиль")
	}
	return user, profile, nil
}

// ParseAccessToken возвращает актора по access токену.
func (s *AuthService) ParseAccessToken(token string) (models.Actor, error) {
	actor, err := s.tokenManager.ParseAccess(token)
	if err != nil {
		return models.Actor{}, apperror.ErrAuthRequired
	}
	return actor, nil
}

func (s *AuthService) openSession(ctx context.Context, user *models.User, meta SessionMeta) (*TokenPair, error) {
	tokenPair, refreshExp, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токены")
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    refreshExp,
	}
	if meta.UserAgent != "" {
		ua := meta.UserAgent
		session.UserAgent = &ua
	}
	if meta.IP != "" {
		ip := meta.IP
		session.IPAddress = &ip
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, storageErr(err, "не удалось сохранить сессию")
	}
	return tokenPair, nil
}

// deriveUsername формирует username из email: недопустимые символы заменяются
// подчёркиванием, имя не начинается с цифры.
func deriveUsername(email string) string {
	local := strings.ToLower(strings.Split(email, "@")[0])
	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	name := b.String()
	if len(name) < 3 || (name[0] >= '0' && name[0] <= '9') {
		name = "user_" + name
	}
	if len(name) > validation.MaxUsernameLength {
		name = name[:validation.MaxUsernameLength]
	}
	return name
}
