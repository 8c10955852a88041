package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/engagement-engine/internal/metrics"
	"github.com/magabrotheeeer/engagement-engine/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListCandidates(ctx context.Context, username string, filter models.FilterCriteria, limit, offset int) ([]models.Profile, error) {
	args := m.Called(ctx, username, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Profile), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishSwipe(event models.SwipeEvent) error {
	return m.Called(event).Error(0)
}

// stubCache — кеш, который всегда промахивается: логика слияния
// партий проверяется без участия кеширования.
type stubCache struct{}

func (stubCache) Get(string, any) (bool, error)        { return false, nil }
func (stubCache) Set(string, any, time.Duration) error { return nil }
func (stubCache) Invalidate(string) error              { return nil }

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func makeProfiles(ids ...string) []models.Profile {
	out := make([]models.Profile, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Profile{ID: id})
	}
	return out
}

func newTestService(repo *RepoMock, events *PublisherMock) *FeedService {
	return NewFeedService(repo, stubCache{}, events, metrics.New(prometheus.NewRegistry()),
		newNoopLogger(), 25, time.Minute)
}

func TestFeedService_RefreshStartsOver(t *testing.T) {
	ctx := context.Background()
	repo := new(RepoMock)
	events := new(PublisherMock)
	svc := newTestService(repo, events)

	filter := models.FilterCriteria{City: "Moscow"}
	repo.On("ListCandidates", mock.Anything, "alice", filter, 25, 0).
		Return(makeProfiles("p1", "p2", "p3"), nil).Once()

	current, err := svc.Refresh(ctx, "alice", filter)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "p1", current.ID)

	// Смена фильтров полностью замещает прежнюю очередь.
	other := models.FilterCriteria{City: "Kazan"}
	repo.On("ListCandidates", mock.Anything, "alice", other, 25, 0).
		Return(makeProfiles("k1"), nil).Once()

	current, err = svc.Refresh(ctx, "alice", other)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "k1", current.ID)

	repo.AssertExpectations(t)
}

func TestFeedService_RefreshErrorKeepsOldFeed(t *testing.T) {
	ctx := context.Background()
	repo := new(RepoMock)
	events := new(PublisherMock)
	svc := newTestService(repo, events)

	filter := models.FilterCriteria{}
	repo.On("ListCandidates", mock.Anything, "alice", filter, 25, 0).
		Return(makeProfiles("p1"), nil).Once()
	_, err := svc.Refresh(ctx, "alice", filter)
	require.NoError(t, err)

	broken := models.FilterCriteria{City: "Omsk"}
	repo.On("ListCandidates", mock.Anything, "alice", broken, 25, 0).
		Return(nil, errors.New("db down")).Once()

	_, err = svc.Refresh(ctx, "alice", broken)
	require.Error(t, err)

	// Прежняя лента не тронута.
	current := svc.Current("alice")
	require.NotNil(t, current)
	assert.Equal(t, "p1", current.ID)
}

func TestFeedService_MoreMergesWithoutDisturbingCurrent(t *testing.T) {
	ctx := context.Background()
	repo := new(RepoMock)
	events := new(PublisherMock)
	svc := newTestService(repo, events)

	filter := models.FilterCriteria{}
	repo.On("ListCandidates", mock.Anything, "bob", filter, 25, 0).
		Return(makeProfiles("a", "b"), nil).Once()
	_, err := svc.Refresh(ctx, "bob", filter)
	require.NoError(t, err)

	// Вторая страница приходит со сдвигом и с одним повтором ("b").
	repo.On("ListCandidates", mock.Anything, "bob", filter, 25, 2).
		Return(makeProfiles("b", "c", "d"), nil).Once()

	current, added, err := svc.More(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "a", current.ID)
	assert.Equal(t, 2, added)

	repo.AssertExpectations(t)
}

func TestFeedService_MoreIntoExhaustedFeed(t *testing.T) {
	ctx := context.Background()
	repo := new(RepoMock)
	events := new(PublisherMock)
	svc := newTestService(repo, events)

	repo.On("ListCandidates", mock.Anything, "carol", models.FilterCriteria{}, 25, 0).
		Return(makeProfiles("p", "q"), nil).Once()

	current, added, err := svc.More(ctx, "carol")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "p", current.ID)
	assert.Equal(t, 2, added)
}

func TestFeedService_AdvancePublishesSwipeEvent(t *testing.T) {
	ctx := context.Background()
	repo := new(RepoMock)
	events := new(PublisherMock)
	svc := newTestService(repo, events)

	repo.On("ListCandidates", mock.Anything, "dave", models.FilterCriteria{}, 25, 0).
		Return(makeProfiles("x", "y"), nil).Once()
	_, err := svc.Refresh(ctx, "dave", models.FilterCriteria{})
	require.NoError(t, err)

	events.On("PublishSwipe", mock.MatchedBy(func(e models.SwipeEvent) bool {
		return e.Username == "dave" && e.ProfileID == "x" && e.Action == "like"
	})).Return(nil).Once()

	current, exhausted := svc.Advance("dave", "like")
	require.NotNil(t, current)
	assert.Equal(t, "y", current.ID)
	assert.False(t, exhausted)

	events.AssertExpectations(t)
}

func TestFeedService_AdvanceExhaustion(t *testing.T) {
	ctx := context.Background()
	repo := new(RepoMock)
	events := new(PublisherMock)
	svc := newTestService(repo, events)

	repo.On("ListCandidates", mock.Anything, "eve", models.FilterCriteria{}, 25, 0).
		Return(makeProfiles("only"), nil).Once()
	_, err := svc.Refresh(ctx, "eve", models.FilterCriteria{})
	require.NoError(t, err)

	events.On("PublishSwipe", mock.Anything).Return(nil).Once()

	current, exhausted := svc.Advance("eve", "pass")
	assert.Nil(t, current)
	assert.True(t, exhausted)

	// Повторный свайп по пустой ленте — no-op без публикации.
	current, exhausted = svc.Advance("eve", "pass")
	assert.Nil(t, current)
	assert.True(t, exhausted)

	events.AssertNumberOfCalls(t, "PublishSwipe", 1)
}

func TestFeedService_AdvanceSurvivesPublishFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(RepoMock)
	events := new(PublisherMock)
	svc := newTestService(repo, events)

	repo.On("ListCandidates", mock.Anything, "frank", models.FilterCriteria{}, 25, 0).
		Return(makeProfiles("a", "b"), nil).Once()
	_, err := svc.Refresh(ctx, "frank", models.FilterCriteria{})
	require.NoError(t, err)

	events.On("PublishSwipe", mock.Anything).Return(errors.New("broker down")).Once()

	// Телеметрия best-effort: лента продвигается несмотря на отказ брокера.
	current, exhausted := svc.Advance("frank", "like")
	require.NotNil(t, current)
	assert.Equal(t, "b", current.ID)
	assert.False(t, exhausted)
}
