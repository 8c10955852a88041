package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/engagement-engine/internal/models"
	"github.com/magabrotheeeer/engagement-engine/internal/plans"
)

// usageColumns отображает ключ квотируемой операции на колонку таблицы
// usage_limits. Белый список защищает подстановку имени колонки в SQL:
// дельта применяется только к известным колонкам.
var usageColumns = map[string]string{
	plans.ActionMessages: "messages_left",
	plans.ActionStories:  "stories_posted",
	plans.ActionComments: "comments_made",
}

// GetUsage возвращает строку квот пользователя.
// Если строки нет, возвращает ErrUsageNotFound.
func (s *Storage) GetUsage(ctx context.Context, username string) (*models.UsageRow, error) {
	const op = "storage.GetUsage"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT username, tier, messages_left, stories_posted, comments_made,
			      last_reset_at, updated_at
			  FROM usage_limits
			  WHERE username = $1`
	row := &models.UsageRow{}
	err := s.DB.QueryRowContext(ctx, query, username).Scan(
		&row.Username, &row.Tier, &row.MessagesLeft, &row.StoriesPosted,
		&row.CommentsMade, &row.LastResetAt, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUsageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return row, nil
}

// CreateUsage вставляет начальную строку квот пользователя.
// Повторная вставка для того же пользователя не является ошибкой.
func (s *Storage) CreateUsage(ctx context.Context, row models.UsageRow) error {
	const op = "storage.CreateUsage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO usage_limits (username, tier, messages_left, stories_posted,
			      comments_made, last_reset_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, now())
			  ON CONFLICT (username) DO NOTHING`
	_, err := s.DB.ExecContext(ctx, query,
		row.Username, row.Tier, row.MessagesLeft, row.StoriesPosted,
		row.CommentsMade, row.LastResetAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ApplyUsageDelta атомарно применяет дельту к колонке квоты одним
// UPDATE-запросом. Это предпочтительный путь записи: конкурентные
// дельты разных клиентов не теряются.
func (s *Storage) ApplyUsageDelta(ctx context.Context, username, action string, delta int) error {
	const op = "storage.ApplyUsageDelta"
	column, ok := usageColumns[action]
	if !ok {
		return fmt.Errorf("%s: %w: %s", op, ErrUnknownAction, action)
	}

	query := fmt.Sprintf(`UPDATE usage_limits
			  SET %s = %s + $1, updated_at = now()
			  WHERE username = $2`, column, column)
	result, err := s.DB.ExecContext(ctx, query, delta, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUsageNotFound)
	}
	return nil
}

// ReadUsageValue читает текущее значение колонки квоты.
// Используется деградированным путём записи вместе с WriteUsageValue.
func (s *Storage) ReadUsageValue(ctx context.Context, username, action string) (int, error) {
	const op = "storage.ReadUsageValue"
	column, ok := usageColumns[action]
	if !ok {
		return 0, fmt.Errorf("%s: %w: %s", op, ErrUnknownAction, action)
	}

	query := fmt.Sprintf(`SELECT %s FROM usage_limits WHERE username = $1`, column)
	var value int
	err := s.DB.QueryRowContext(ctx, query, username).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", op, ErrUsageNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}

// WriteUsageValue перезаписывает значение колонки квоты целиком.
// Вместе с ReadUsageValue образует неатомарный путь чтение-сложение-запись:
// конкурентная запись другого клиента может быть затёрта. Путь выбирается
// только при отказе ApplyUsageDelta.
func (s *Storage) WriteUsageValue(ctx context.Context, username, action string, value int) error {
	const op = "storage.WriteUsageValue"
	column, ok := usageColumns[action]
	if !ok {
		return fmt.Errorf("%s: %w: %s", op, ErrUnknownAction, action)
	}

	query := fmt.Sprintf(`UPDATE usage_limits
			  SET %s = $1, updated_at = now()
			  WHERE username = $2`, column)
	result, err := s.DB.ExecContext(ctx, query, value, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUsageNotFound)
	}
	return nil
}

// ResetUsage выполняет дневной сброс: кошелёк сообщений пополняется
// до лимита тарифа, счётчики историй и комментариев обнуляются,
// отметка последнего сброса обновляется. Счётчик архива строкой
// не хранится и сбросом не затрагивается.
func (s *Storage) ResetUsage(ctx context.Context, username string, messagesCap int, resetAt time.Time) error {
	const op = "storage.ResetUsage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE usage_limits
			  SET messages_left = $1, stories_posted = 0, comments_made = 0,
			      last_reset_at = $2, updated_at = now()
			  WHERE username = $3`
	result, err := s.DB.ExecContext(ctx, query, messagesCap, resetAt, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUsageNotFound)
	}
	return nil
}

// UpdateTier записывает новую метку тарифа пользователя.
func (s *Storage) UpdateTier(ctx context.Context, username, tier string) error {
	const op = "storage.UpdateTier"
	query := `UPDATE usage_limits SET tier = $1, updated_at = now() WHERE username = $2`
	result, err := s.DB.ExecContext(ctx, query, tier, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUsageNotFound)
	}
	return nil
}
