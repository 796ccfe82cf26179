package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/MintShards/pawn-repo-sub002/internal/apperr"
	"github.com/MintShards/pawn-repo-sub002/internal/model"
	"github.com/MintShards/pawn-repo-sub002/internal/repository"
)

type AuthService struct {
	userRepo    *repository.UserRepository
	auditRepo   *repository.AuditRepository
	jwtSecret   string
	tokenExpiry time.Duration
	logger      *logrus.Logger
}

func NewAuthService(userRepo *repository.UserRepository, auditRepo *repository.AuditRepository, jwtSecret string, tokenExpiry time.Duration, logger *logrus.Logger) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
		logger:      logger,
	}
}

// tokenClaims - полезная нагрузка JWT: кроме стандартных полей несем роль,
// чтобы middleware не ходил в базу на каждый запрос
type tokenClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// CreateUser создает учетную запись сотрудника. Доступно только администратору
func (s *AuthService) CreateUser(ctx context.Context, input model.CreateUserInput, createdBy uuid.UUID) (*model.User, error) {
	s.logger.WithFields(logrus.Fields{
		"username": input.Username,
		"role":     input.Role,
	}).Info("Создание учетной записи сотрудника")

	if err := input.Validate(); err != nil {
		return nil, apperr.Validation("%s", err)
	}

	exists, err := s.userRepo.ExistsByEmailOrUsername(ctx, input.Email, input.Username)
	if err != nil {
		s.logger.WithError(err).Error("Не удалось проверить существование пользователя")
		return nil, err
	}
	if exists {
		return nil, apperr.Validation("пользователь с таким email или username уже существует")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.WithError(err).Error("Не удалось захешировать пароль")
		return nil, err
	}
	hashedPIN, err := bcrypt.GenerateFromPassword([]byte(input.PIN), bcrypt.DefaultCost)
	if err != nil {
		s.logger.WithError(err).Error("Не удалось захешировать PIN")
		return nil, err
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:        uuid.New(),
		Username:  input.Username,
		Email:     input.Email,
		Password:  string(hashedPassword),
		Role:      input.Role,
		PINHash:   string(hashedPIN),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.WithError(err).Error("Не удалось создать пользователя в базе данных")
		return nil, err
	}

	entry := &model.AuditEntry{
		ID:         uuid.New(),
		UserID:     createdBy,
		Action:     model.AuditUserCreated,
		EntityType: "user",
		EntityID:   user.ID,
		Details:    "role=" + string(user.Role),
		CreatedAt:  now,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.WithError(err).Error("Ошибка записи аудита создания пользователя")
	}

	s.logger.WithField("user_id", user.ID).Info("Учетная запись сотрудника создана")
	return user, nil
}

// SignIn авторизует сотрудника и выдает JWT токен с ролью
func (s *AuthService) SignIn(ctx context.Context, input model.SignInInput) (string, error) {
	s.logger.WithField("username", input.Username).Info("Попытка входа пользователя")

	user, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		s.logger.WithError(err).Warn("Пользователь не найден или неверные учётные данные")
		return "", apperr.Authentication("неверные учетные данные")
	}

	if !user.IsActive {
		s.logger.WithField("user_id", user.ID).Warn("Попытка входа заблокированного пользователя")
		return "", apperr.Forbidden("учетная запись заблокирована")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		s.logger.Warn("Неверный пароль при попытке входа")
		return "", apperr.Authentication("неверные учетные данные")
	}

	token, err := s.GenerateJWTToken(user.ID.String(), string(user.Role))
	if err != nil {
		s.logger.WithError(err).Error("Не удалось сгенерировать JWT токен")
		return "", err
	}

	s.logger.WithField("user_id", user.ID).Info("Пользователь успешно вошёл в систему")
	return token, nil
}

// GenerateJWTToken Генерация JWT токена
func (s *AuthService) GenerateJWTToken(userID, role string) (string, error) {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Role: role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken Разбор и валидация JWT токена, возвращает ID пользователя и роль
func (s *AuthService) ParseToken(tokenString string) (string, string, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})

	if err != nil || !token.Valid {
		s.logger.WithError(err).Warn("Невалидный JWT токен")
		return "", "", apperr.Authentication("невалидный токен")
	}

	if claims.Subject == "" {
		s.logger.Error("Не удалось извлечь идентификатор пользователя из токена")
		return "", "", apperr.Authentication("некорректные claims токена")
	}

	return claims.Subject, claims.Role, nil
}
