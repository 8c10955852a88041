package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/engagement-engine/internal/models"
)

// ListCandidates возвращает партию активных анкет для ленты пользователя
// с учётом фильтров. Собственная анкета пользователя исключается.
// Порядок выдачи стабилен (свежие анкеты первыми) — очередь сохраняет
// его без переранжирования.
func (s *Storage) ListCandidates(ctx context.Context, username string, filter models.FilterCriteria, limit, offset int) ([]models.Profile, error) {
	const op = "storage.ListCandidates"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, username, display_name, bio, age, gender, city,
			    photo_url, is_active, created_at
			FROM profiles
			WHERE is_active = true AND username <> $1`)
	args := []any{username}

	if filter.Gender != "" {
		args = append(args, filter.Gender)
		sb.WriteString(" AND gender = $" + strconv.Itoa(len(args)))
	}
	if filter.City != "" {
		args = append(args, filter.City)
		sb.WriteString(" AND city = $" + strconv.Itoa(len(args)))
	}
	if filter.AgeMin > 0 {
		args = append(args, filter.AgeMin)
		sb.WriteString(" AND age >= $" + strconv.Itoa(len(args)))
	}
	if filter.AgeMax > 0 {
		args = append(args, filter.AgeMax)
		sb.WriteString(" AND age <= $" + strconv.Itoa(len(args)))
	}

	args = append(args, limit)
	sb.WriteString(" ORDER BY created_at DESC, id LIMIT $" + strconv.Itoa(len(args)))
	args = append(args, offset)
	sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))

	rows, err := s.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.DisplayName, &p.Bio, &p.Age,
			&p.Gender, &p.City, &p.PhotoURL, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountArchived возвращает количество анкет в архиве пользователя.
// Это долгоживущий счётчик: он считается по таблице архива,
// не хранится в строке квот и не участвует в дневном сбросе.
func (s *Storage) CountArchived(ctx context.Context, username string) (int, error) {
	const op = "storage.CountArchived"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM archived_profiles WHERE username = $1`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, username).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
