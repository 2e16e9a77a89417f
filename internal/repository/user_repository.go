package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/slotswap_bot/internal/model"
	"github.com/Freeeeeet/slotswap_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, telegram_id, username, first_name, last_name, language_code, created_at`

// UserRepository - профили Telegram пользователей. В обменах участвует только id.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Upsert создаёт пользователя или обновляет профиль по telegram_id; заполняет ID
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (telegram_id, username, first_name, last_name, language_code)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (telegram_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    language_code = EXCLUDED.language_code
		RETURNING id, created_at
	`,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetByTelegramID возвращает nil, nil если пользователь ещё не нажимал /start
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := r.getOne(ctx, `WHERE telegram_id = $1`, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	return user, nil
}

// GetByID возвращает nil, nil если пользователя нет
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := r.getOne(ctx, `WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetByIDs пропускает отсутствующие id
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}

	users, err := pgx.CollectRows(rows, collectUser)
	if err != nil {
		return nil, fmt.Errorf("collect users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users `+where, arg)
	if err != nil {
		return nil, err
	}

	user, err := pgx.CollectExactlyOneRow(rows, collectUser)
	if base.IsNotFound(err) {
		return nil, nil
	}
	return user, err
}

func collectUser(row pgx.CollectableRow) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.TelegramID,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.LanguageCode,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
