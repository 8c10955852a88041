// Package services содержит бизнес-логику ленты знакомств: очереди
// показа на сессию пользователя, подгрузку партий кандидатов из
// хранилища с кешированием и публикацию событий свайпов.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/engagement-engine/internal/lib/sl"
	"github.com/magabrotheeeer/engagement-engine/internal/models"
	"github.com/magabrotheeeer/engagement-engine/internal/queue"
)

// CandidateRepository определяет выборку кандидатов из хранилища.
type CandidateRepository interface {
	// ListCandidates возвращает партию активных анкет с учётом фильтров.
	ListCandidates(ctx context.Context, username string, filter models.FilterCriteria, limit, offset int) ([]models.Profile, error)
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

// EventPublisher публикует события вовлечённости в брокер.
type EventPublisher interface {
	PublishSwipe(event models.SwipeEvent) error
}

// Metrics описывает показатели, которые ведёт сервис ленты.
type Metrics interface {
	IncSwipe(action string)
	IncFeedExhausted()
}

// session — состояние ленты одной пользовательской сессии.
// Очередь приватна для сессии и между клиентами не разделяется.
type session struct {
	queue  *queue.Queue
	filter models.FilterCriteria
	offset int
}

// FeedService управляет лентами пользователей: полная замена очереди
// при смене фильтров, инкрементальное слияние новых партий и
// продвижение по свайпу с публикацией события.
type FeedService struct {
	repo      CandidateRepository
	cache     Cache
	events    EventPublisher
	metrics   Metrics
	log       *slog.Logger
	batchSize int
	cacheTTL  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewFeedService создает новый экземпляр FeedService.
func NewFeedService(repo CandidateRepository, cache Cache, events EventPublisher, metrics Metrics, log *slog.Logger, batchSize int, cacheTTL time.Duration) *FeedService {
	return &FeedService{
		repo:      repo,
		cache:     cache,
		events:    events,
		metrics:   metrics,
		log:       log,
		batchSize: batchSize,
		cacheTTL:  cacheTTL,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// Current возвращает текущую анкету ленты или nil, если лента пуста.
func (s *FeedService) Current(username string) *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[username]
	if !ok {
		return nil
	}
	return sess.queue.Current()
}

// Refresh начинает ленту заново: свежая партия под новыми фильтрами
// полностью замещает прежнее состояние очереди. Ошибка выборки
// оставляет прежнюю ленту нетронутой.
func (s *FeedService) Refresh(ctx context.Context, username string, filter models.FilterCriteria) (*models.Profile, error) {
	const op = "feed.Refresh"

	batch, err := s.fetchBatch(ctx, username, filter, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &session{queue: queue.New(), filter: filter, offset: len(batch)}
	sess.queue.ReplaceAll(batch)
	s.sessions[username] = sess
	return sess.queue.Current(), nil
}

// More подгружает следующую партию под текущими фильтрами сессии
// и вливает её в очередь, не трогая текущую анкету и порядок
// ожидающих. Возвращает текущую анкету и число добавленных.
func (s *FeedService) More(ctx context.Context, username string) (*models.Profile, int, error) {
	const op = "feed.More"

	s.mu.Lock()
	sess, ok := s.sessions[username]
	if !ok {
		sess = &session{queue: queue.New()}
		s.sessions[username] = sess
	}
	filter, offset := sess.filter, sess.offset
	s.mu.Unlock()

	batch, err := s.fetchBatch(ctx, username, filter, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := sess.queue.Len()
	hadCurrent := sess.queue.Current() != nil
	sess.queue.Merge(batch)
	sess.offset += len(batch)

	added := sess.queue.Len() - before
	if !hadCurrent && sess.queue.Current() != nil {
		added++
	}
	return sess.queue.Current(), added, nil
}

// Advance продвигает ленту по свайпу: текущая анкета выбрасывается,
// голова очереди занимает её место. Метка действия на поведение не
// влияет и публикуется в брокер для телеметрии; отказ публикации
// не считается ошибкой продвижения. Возвращает новую текущую анкету
// и признак исчерпания очереди.
func (s *FeedService) Advance(username, action string) (*models.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[username]
	if !ok || sess.queue.Current() == nil {
		return nil, true
	}

	swiped := sess.queue.Current()
	sess.queue.Advance()
	s.metrics.IncSwipe(action)

	event := models.SwipeEvent{
		Username:  username,
		ProfileID: swiped.ID,
		Action:    action,
		CreatedAt: s.now().UTC(),
	}
	if err := s.events.PublishSwipe(event); err != nil {
		s.log.Warn("failed to publish swipe event",
			slog.String("username", username), sl.Err(err))
	}

	current := sess.queue.Current()
	if current == nil {
		s.metrics.IncFeedExhausted()
		return nil, true
	}
	return current, false
}

// fetchBatch выбирает партию кандидатов, используя кеш партий:
// повторный запрос той же страницы под теми же фильтрами не ходит
// в хранилище, пока не истечёт TTL.
func (s *FeedService) fetchBatch(ctx context.Context, username string, filter models.FilterCriteria, offset int) ([]models.Profile, error) {
	key := batchCacheKey(username, filter, offset)

	var cached []models.Profile
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn("failed to read feed cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	batch, err := s.repo.ListCandidates(ctx, username, filter, s.batchSize, offset)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(key, batch, s.cacheTTL); err != nil {
		s.log.Warn("failed to update feed cache", sl.Err(err))
	}
	return batch, nil
}

func batchCacheKey(username string, filter models.FilterCriteria, offset int) string {
	return fmt.Sprintf("feed:%s:%s:%s:%d-%d:%d",
		username, filter.Gender, filter.City, filter.AgeMin, filter.AgeMax, offset)
}
