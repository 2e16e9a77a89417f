package base

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE коды, которые означают конфликт конкурентной записи
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeLockNotAvailable     = "55P03"
)

// Querier общий интерфейс для *pgxpool.Pool и pgx.Tx
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository базовый репозиторий с общими методами
type Repository struct {
	db Querier
}

// NewRepository создаёт новый базовый репозиторий
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// DB возвращает исполнитель запросов
func (r *Repository) DB() Querier {
	return r.db
}

// ExecAffected выполняет команду и возвращает количество затронутых строк
func (r *Repository) ExecAffected(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// IsNotFound проверяет является ли ошибка "строка не найдена"
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsConflict проверяет что Postgres отклонил запись из-за конкурентной транзакции
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation, codeLockNotAvailable:
		return true
	}
	return false
}
