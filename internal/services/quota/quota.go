// Package services содержит бизнес-логику учёта дневных квот:
// допуск квотируемых операций по лимитам тарифа, оптимистичное
// локальное списание с персистентной записью и дневной сброс.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/engagement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/engagement-engine/internal/models"
	"github.com/magabrotheeeer/engagement-engine/internal/plans"
	"github.com/magabrotheeeer/engagement-engine/internal/storage/repository"
)

// ErrInvalidCost возвращается при неположительной стоимости операции —
// это нарушение контракта вызывающей стороны, а не отказ по квоте.
var ErrInvalidCost = errors.New("cost must be positive")

// UsageRepository определяет методы для работы с квотами в хранилище.
type UsageRepository interface {
	// GetUsage возвращает строку квот пользователя.
	GetUsage(ctx context.Context, username string) (*models.UsageRow, error)
	// CreateUsage вставляет начальную строку квот.
	CreateUsage(ctx context.Context, row models.UsageRow) error
	// ApplyUsageDelta атомарно применяет дельту к колонке квоты.
	ApplyUsageDelta(ctx context.Context, username, action string, delta int) error
	// ReadUsageValue читает текущее значение колонки квоты.
	ReadUsageValue(ctx context.Context, username, action string) (int, error)
	// WriteUsageValue перезаписывает значение колонки квоты.
	WriteUsageValue(ctx context.Context, username, action string, value int) error
	// ResetUsage выполняет дневной сброс строки квот.
	ResetUsage(ctx context.Context, username string, messagesCap int, resetAt time.Time) error
	// CountArchived возвращает размер архива пользователя.
	CountArchived(ctx context.Context, username string) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// Metrics описывает показатели, которые ведёт сервис квот.
type Metrics interface {
	IncQuotaAllowed(action string)
	IncQuotaDenied(action string)
	IncFallbackWrite()
}

const usageCacheTTL = 5 * time.Minute

// ledgerState — загруженное состояние квот одного пользователя.
// Значения хранятся в исходной семантике: для кошельков — остаток,
// для счётчиков — потраченное. Счётчик архива подмешивается при
// загрузке и дневным сбросом не затрагивается.
type ledgerState struct {
	tier        plans.Tier
	usage       map[string]int
	lastResetAt time.Time
}

// QuotaService реализует учёт квот: решение о допуске операции,
// оптимистичное списание с атомарной записью и деградированным
// неатомарным путём, дневной сброс и принудительную перезагрузку.
type QuotaService struct {
	repo    UsageRepository
	cache   Cache
	metrics Metrics
	log     *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	states map[string]*ledgerState
}

// NewQuotaService создает новый экземпляр QuotaService.
func NewQuotaService(repo UsageRepository, cache Cache, metrics Metrics, log *slog.Logger) *QuotaService {
	return &QuotaService{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		log:     log,
		now:     time.Now,
		states:  make(map[string]*ledgerState),
	}
}

// CanPerform сообщает, допустима ли операция стоимостью cost при
// текущем остатке квоты. Неположительная стоимость — ошибка контракта.
func (s *QuotaService) CanPerform(ctx context.Context, username, action string, cost int) (bool, error) {
	const op = "quota.CanPerform"
	if cost <= 0 {
		return false, fmt.Errorf("%s: %w", op, ErrInvalidCost)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.ensureLoaded(ctx, username)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return admissible(st, action, cost), nil
}

// Consume проводит списание квоты: проверяет допуск, оптимистично
// применяет новое значение в памяти (оно сразу видно последующим
// вызовам) и закрепляет дельту в хранилище. Предпочтителен атомарный
// инкремент; при его отказе выполняется неатомарное чтение-сложение-
// запись. Отказ обоих путей не откатывает оптимистичное значение —
// локальный учёт может уйти вперёд до следующего успешного Refresh.
func (s *QuotaService) Consume(ctx context.Context, username, action string, cost int) (bool, error) {
	const op = "quota.Consume"
	if cost <= 0 {
		return false, fmt.Errorf("%s: %w", op, ErrInvalidCost)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.ensureLoaded(ctx, username)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !admissible(st, action, cost) {
		s.metrics.IncQuotaDenied(action)
		return false, nil
	}
	if plans.Cap(st.tier, action) == plans.Unlimited {
		// Безлимит не ведёт учёта: списывать и закреплять нечего.
		s.metrics.IncQuotaAllowed(action)
		return true, nil
	}

	delta := cost
	if plans.SemanticsOf(action) == plans.SemanticsWallet {
		delta = -cost
	}
	st.usage[action] += delta
	s.cacheState(username, st)
	s.metrics.IncQuotaAllowed(action)

	// Архив не хранится в строке квот: запись в таблицу архива
	// выполняет владеющий ею сервис, здесь меняется только учёт.
	if action == plans.ActionArchives {
		return true, nil
	}

	persistErr := s.repo.ApplyUsageDelta(ctx, username, action, delta)
	if persistErr == nil {
		return true, nil
	}
	s.log.Warn("atomic increment failed, falling back to read-modify-write",
		slog.String("username", username), slog.String("action", action), sl.Err(persistErr))

	s.metrics.IncFallbackWrite()
	if err := s.persistFallback(ctx, username, action, delta); err != nil {
		s.log.Error("fallback persistence failed, local accounting may drift",
			slog.String("username", username), slog.String("action", action), sl.Err(err))
	}
	return true, nil
}

// Snapshot возвращает объединённое представление квот пользователя:
// тариф и состояние каждой операции, включая счётчик архива.
func (s *QuotaService) Snapshot(ctx context.Context, username string) (*models.UsageSnapshot, error) {
	const op = "quota.Snapshot"

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.ensureLoaded(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	actions := make(map[string]models.ActionUsage, len(plans.Actions()))
	for _, action := range plans.Actions() {
		actions[action] = actionView(st, action)
	}
	return &models.UsageSnapshot{
		Username:    username,
		Tier:        string(st.tier),
		Actions:     actions,
		LastResetAt: st.lastResetAt,
	}, nil
}

// Refresh сбрасывает локальное и кешированное состояние пользователя
// и перечитывает снимок из хранилища с повторной проверкой сброса.
// Это явная точка сверки после возможного дрейфа локального учёта.
func (s *QuotaService) Refresh(ctx context.Context, username string) error {
	const op = "quota.Refresh"

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, username)
	if err := s.cache.Invalidate(usageCacheKey(username)); err != nil {
		s.log.Warn("failed to invalidate usage cache", sl.Err(err))
	}
	if _, err := s.ensureLoaded(ctx, username); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ensureLoaded возвращает состояние пользователя, при необходимости
// загружая его (кеш, затем хранилище; отсутствующая строка создаётся
// с минимальным тарифом) и выполняя проверку дневного сброса.
// Вызывается только под мьютексом.
func (s *QuotaService) ensureLoaded(ctx context.Context, username string) (*ledgerState, error) {
	st, ok := s.states[username]
	if !ok {
		row, err := s.loadRow(ctx, username)
		if err != nil {
			return nil, err
		}

		archived, err := s.repo.CountArchived(ctx, username)
		if err != nil {
			return nil, err
		}

		tier := plans.Normalize(row.Tier)
		if string(tier) != row.Tier {
			s.log.Warn("unknown tier label, defaulting to lowest tier",
				slog.String("username", username), slog.String("label", row.Tier))
		}
		st = &ledgerState{
			tier: tier,
			usage: map[string]int{
				plans.ActionMessages: row.MessagesLeft,
				plans.ActionStories:  row.StoriesPosted,
				plans.ActionComments: row.CommentsMade,
				plans.ActionArchives: archived,
			},
			lastResetAt: row.LastResetAt,
		}
		s.states[username] = st
	}

	if err := s.resetCheck(ctx, username, st); err != nil {
		return nil, err
	}
	return st, nil
}

// resetCheck сравнивает календарную дату последнего сброса с текущей
// и при смене дня пополняет кошельки до лимита тарифа, обнуляет
// счётчики и обновляет отметку сброса. Сравнение по календарному дню
// делает повторный вызов в тот же день безопасным no-op.
func (s *QuotaService) resetCheck(ctx context.Context, username string, st *ledgerState) error {
	now := s.now().UTC()
	if sameCalendarDay(st.lastResetAt.UTC(), now) {
		return nil
	}

	messagesCap := plans.Cap(st.tier, plans.ActionMessages)
	refill := messagesCap
	if refill == plans.Unlimited {
		refill = 0
	}
	if err := s.repo.ResetUsage(ctx, username, refill, now); err != nil {
		return err
	}

	st.usage[plans.ActionMessages] = refill
	st.usage[plans.ActionStories] = 0
	st.usage[plans.ActionComments] = 0
	st.lastResetAt = now
	s.cacheState(username, st)
	s.log.Info("daily quota reset applied", slog.String("username", username))
	return nil
}

// loadRow читает строку квот из кеша или хранилища; отсутствующая
// строка создаётся с минимальным тарифом и полным кошельком сообщений.
func (s *QuotaService) loadRow(ctx context.Context, username string) (*models.UsageRow, error) {
	var row models.UsageRow
	found, err := s.cache.Get(usageCacheKey(username), &row)
	if err != nil {
		s.log.Warn("failed to read usage cache", sl.Err(err))
	}
	if found {
		return &row, nil
	}

	fromDB, err := s.repo.GetUsage(ctx, username)
	if errors.Is(err, repository.ErrUsageNotFound) {
		fresh := models.UsageRow{
			Username:     username,
			Tier:         string(plans.TierFree),
			MessagesLeft: plans.Cap(plans.TierFree, plans.ActionMessages),
			LastResetAt:  s.now().UTC(),
		}
		if err := s.repo.CreateUsage(ctx, fresh); err != nil {
			return nil, err
		}
		return &fresh, nil
	}
	if err != nil {
		return nil, err
	}
	return fromDB, nil
}

// persistFallback — деградированный путь записи: чтение текущего
// значения и запись суммы. Неатомарен: конкурентная дельта другого
// клиента между чтением и записью будет затёрта.
func (s *QuotaService) persistFallback(ctx context.Context, username, action string, delta int) error {
	value, err := s.repo.ReadUsageValue(ctx, username, action)
	if err != nil {
		return err
	}
	return s.repo.WriteUsageValue(ctx, username, action, value+delta)
}

// cacheState сохраняет локальное состояние в кеш; отказ кеша не
// считается ошибкой операции.
func (s *QuotaService) cacheState(username string, st *ledgerState) {
	row := models.UsageRow{
		Username:      username,
		Tier:          string(st.tier),
		MessagesLeft:  st.usage[plans.ActionMessages],
		StoriesPosted: st.usage[plans.ActionStories],
		CommentsMade:  st.usage[plans.ActionComments],
		LastResetAt:   st.lastResetAt,
	}
	if err := s.cache.Set(usageCacheKey(username), row, usageCacheTTL); err != nil {
		s.log.Warn("failed to update usage cache", sl.Err(err))
	}
}

func usageCacheKey(username string) string {
	return "usage:" + username
}

// sameCalendarDay сравнивает грубо, по календарному дню: сессия,
// пережившая полночь, получит сброс на первом же обращении.
func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// admissible решает вопрос допуска: безлимит пропускает всё,
// кошелёк требует достаточного остатка, счётчик — незанятого лимита.
func admissible(st *ledgerState, action string, cost int) bool {
	limit := plans.Cap(st.tier, action)
	if limit == plans.Unlimited {
		return true
	}
	if plans.SemanticsOf(action) == plans.SemanticsWallet {
		return st.usage[action] >= cost
	}
	return st.usage[action]+cost <= limit
}

// actionView переводит внутреннее значение квоты во внешнее
// представление лимит/потрачено/остаток.
func actionView(st *ledgerState, action string) models.ActionUsage {
	limit := plans.Cap(st.tier, action)
	value := st.usage[action]
	if limit == plans.Unlimited {
		if plans.SemanticsOf(action) == plans.SemanticsWallet {
			return models.ActionUsage{Limit: plans.Unlimited, Used: 0, Remaining: plans.Unlimited}
		}
		return models.ActionUsage{Limit: plans.Unlimited, Used: value, Remaining: plans.Unlimited}
	}
	if plans.SemanticsOf(action) == plans.SemanticsWallet {
		return models.ActionUsage{Limit: limit, Used: limit - value, Remaining: value}
	}
	remaining := limit - value
	if remaining < 0 {
		remaining = 0
	}
	return models.ActionUsage{Limit: limit, Used: value, Remaining: remaining}
}
