package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quizbot/internal/database"

	"go.uber.org/zap"
)

var (
	ErrEmailTaken         = errors.New("email уже зарегистрирован")
	ErrInvalidCredentials = errors.New("неверный email или пароль")
)

// Session результат регистрации или входа.
type Session struct {
	User  *database.User `json:"user"`
	Token string         `json:"access_token"`
}

type Service struct {
	users  *database.UserRepository
	tokens *Tokens
	log    *zap.Logger
}

func NewService(users *database.UserRepository, tokens *Tokens, log *zap.Logger) *Service {
	return &Service{users: users, tokens: tokens, log: log}
}

func (s *Service) Tokens() *Tokens { return s.tokens }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создаёт пользователя и сразу выдаёт токен.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("хеширование пароля: %w", err)
	}

	user := &database.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		AvatarURL:    database.AvatarURL(name),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("Пользователь зарегистрирован", zap.Uint("user_id", user.ID))
	return &Session{User: user, Token: token}, nil
}

// Login не различает неизвестный email и неверный пароль.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		s.log.Warn("Неверный пароль", zap.Uint("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// Authenticate проверяет токен и загружает пользователя.
func (s *Service) Authenticate(ctx context.Context, raw string) (*database.User, error) {
	id, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}
