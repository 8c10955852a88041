// Package repository реализует хранилище данных на основе PostgreSQL
// для движка вовлечённости. Предоставляет выборку кандидатов для ленты,
// чтение и изменение строк дневных квот (включая атомарное применение
// дельты) и подсчёт архива анкет.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrUsageNotFound возвращается, когда строка квот пользователя отсутствует.
var ErrUsageNotFound = errors.New("usage row not found")

// ErrUnknownAction возвращается при попытке изменить квоту
// по ключу, не входящему в список допустимых колонок.
var ErrUnknownAction = errors.New("unknown quota action")

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с анкетами и квотами.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'usage_limits'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table usage_limits missing or query error: %w", err)
	}
	return nil
}
