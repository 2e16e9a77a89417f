package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"go.uber.org/zap"
)

// UserRepository хранилище пользователей
type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error)
}

type UserService struct {
	userRepo UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// RegisterUser регистрирует или обновляет пользователя
func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName, languageCode string) (*model.User, error) {
	user := &model.User{
		TelegramID:   telegramID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		LanguageCode: languageCode,
	}

	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username),
	)

	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID, nil если не найден
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.userRepo.GetByTelegramID(ctx, telegramID)
}

// GetByID получает пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// DisplayNames возвращает отображаемые имена пользователей по ID
func (s *UserService) DisplayNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName()
	}
	return names, nil
}
